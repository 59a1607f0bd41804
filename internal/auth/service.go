package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/practice-gateway/internal/core/common/validation"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/session"
)

// ForcedLogoutRecorder counts sessions ended because an upstream
// service rejected their credential.
type ForcedLogoutRecorder interface {
	RecordForcedLogout()
}

// Service ties credential checks to the session store.
type Service struct {
	authenticator Authenticator
	sessions      *session.Service
	events        events.Publisher
	recorder      ForcedLogoutRecorder
	logger        *slog.Logger
}

func NewService(authenticator Authenticator, sessions *session.Service, publisher events.Publisher, recorder ForcedLogoutRecorder, logger *slog.Logger) *Service {
	return &Service{
		authenticator: authenticator,
		sessions:      sessions,
		events:        publisher,
		recorder:      recorder,
		logger:        logger,
	}
}

// Login verifies the credentials and opens a session. The previous
// session of the caller, if any, is left to expire.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (session.Started, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return session.Started{}, appErr
	}

	identity, err := s.authenticator.Authenticate(ctx, dto.Email, dto.Password)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed", "email", dto.Email, "error", err)
		return session.Started{}, err
	}

	started, err := s.sessions.Login(ctx, identity.User, identity.Tenant, identity.Token)
	if err != nil {
		return session.Started{}, err
	}
	s.logger.InfoContext(ctx, "login succeeded", "user_id", identity.User.ID, "tenant_id", identity.Tenant.ID, "role", identity.User.Role)
	return started, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	return s.sessions.Logout(ctx, sid)
}

func (s *Service) Resolve(ctx context.Context, sessionToken string) (string, session.State, error) {
	return s.sessions.Resolve(ctx, sessionToken)
}

// ForceLogout ends the session carried by ctx. The gateway calls it when
// an upstream service answers 401.
func (s *Service) ForceLogout(ctx context.Context) {
	sid := session.IDFromContext(ctx)
	if sid == "" {
		return
	}
	st := session.FromContext(ctx)

	if err := s.sessions.Logout(ctx, sid); err != nil {
		s.logger.ErrorContext(ctx, "forced logout failed", "error", err)
		return
	}
	if s.recorder != nil {
		s.recorder.RecordForcedLogout()
	}
	s.logger.WarnContext(ctx, "session ended after upstream rejection", "user_id", st.UserID(), "tenant_id", st.TenantID())

	if s.events != nil {
		evt := events.New(events.EventTypeSessionForcedLogout, st.TenantID(), st.UserID(), map[string]interface{}{
			"user_id": st.UserID(),
		})
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.WarnContext(ctx, "failed to publish forced logout", "error", err)
		}
	}
}
