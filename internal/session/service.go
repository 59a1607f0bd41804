package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

// Namespace is the storage namespace holding one State per session id.
const Namespace = "auth-storage"

// Service persists session states keyed by session id.
type Service struct {
	kv     storage.KV
	tokens *TokenIssuer
	logger *slog.Logger
	newID  func() string
}

func NewService(kv storage.KV, tokens *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		kv:     kv,
		tokens: tokens,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Started is what a successful login hands back to the caller.
type Started struct {
	SessionID    string `json:"-"`
	SessionToken string `json:"session_token"`
	State        State  `json:"-"`
}

// Login opens a new session and persists the full tuple in one write.
func (s *Service) Login(ctx context.Context, user coreUser.User, tenant coreUser.Tenant, upstreamToken string) (Started, error) {
	state, err := Login(user, tenant, upstreamToken)
	if err != nil {
		return Started{}, err
	}

	sid := s.newID()
	if err := s.kv.Set(ctx, storage.Key(Namespace, sid), state); err != nil {
		return Started{}, fmt.Errorf("persist session: %w", err)
	}

	token, err := s.tokens.Issue(sid, user.ID, tenant.ID)
	if err != nil {
		_ = s.kv.Delete(ctx, storage.Key(Namespace, sid))
		return Started{}, err
	}

	s.logger.InfoContext(ctx, "session started", "user_id", user.ID, "tenant_id", tenant.ID)
	return Started{SessionID: sid, SessionToken: token, State: state}, nil
}

// Current returns the persisted state, or the initial state when the
// session is unknown.
func (s *Service) Current(ctx context.Context, sid string) (State, error) {
	if sid == "" {
		return Initial(), nil
	}
	var state State
	found, err := s.kv.Get(ctx, storage.Key(Namespace, sid), &state)
	if err != nil {
		return Initial(), fmt.Errorf("load session: %w", err)
	}
	if !found || !state.IsAuthenticated {
		return Initial(), nil
	}
	return state, nil
}

// Resolve maps a signed session token to its stored state.
func (s *Service) Resolve(ctx context.Context, sessionToken string) (string, State, error) {
	claims, err := s.tokens.Parse(sessionToken)
	if err != nil {
		return "", Initial(), err
	}
	state, err := s.Current(ctx, claims.SessionID)
	if err != nil {
		return "", Initial(), err
	}
	return claims.SessionID, state, nil
}

// Logout drops the session. Logging out an unknown session is not an error.
func (s *Service) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.kv.Delete(ctx, storage.Key(Namespace, sid)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "session ended", "session_id", sid)
	return nil
}
