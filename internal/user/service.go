package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/common/validation"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

// Namespace is the storage namespace of the per-tenant member lists.
const Namespace = "users-storage"

// AccountRegistrar stores sign-in credentials for users created with a
// password. Only local auth mode provides one.
type AccountRegistrar interface {
	Register(ctx context.Context, email, password, tenantID, userID string) error
	Remove(ctx context.Context, email string) error
	Rename(ctx context.Context, oldEmail, newEmail string) error
}

type Service struct {
	docs     *storage.Tenanted[[]coreUser.User]
	accounts AccountRegistrar
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(kv storage.KV, seed func(tenantID string) []coreUser.User, accounts AccountRegistrar, publisher events.Publisher, logger *slog.Logger) *Service {
	if seed == nil {
		seed = func(string) []coreUser.User { return []coreUser.User{} }
	}
	return &Service{
		docs:     storage.NewTenanted(kv, Namespace, seed),
		accounts: accounts,
		events:   publisher,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return "user_" + uuid.NewString() },
	}
}

// CheckQuota reports whether tenant can take another active member.
func (s *Service) CheckQuota(ctx context.Context, tenant *coreUser.Tenant) (Quota, error) {
	if tenant == nil {
		return CheckQuota(nil, nil), nil
	}
	list, err := s.docs.Read(ctx, tenant.ID)
	if err != nil {
		return Quota{}, err
	}
	return CheckQuota(tenant, list), nil
}

// Add creates a member of tenant after checking the seat quota.
func (s *Service) Add(ctx context.Context, tenant *coreUser.Tenant, actorID string, dto CreateUserDTO) (coreUser.User, error) {
	if tenant == nil {
		return coreUser.User{}, internal.ErrTenantNotFound
	}
	if appErr := validation.Struct(dto); appErr != nil {
		return coreUser.User{}, appErr
	}

	u := dto.toUser(s.newID(), tenant.ID, s.now())
	_, err := s.docs.Update(ctx, tenant.ID, func(list []coreUser.User) ([]coreUser.User, error) {
		if u.IsActive {
			if q := CheckQuota(tenant, list); !q.CanAdd {
				return nil, internal.ErrQuotaExceeded.WithMessage(q.Message).WithDetails(q)
			}
		}
		return add(list, u)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to add user", "tenant_id", tenant.ID, "email", u.Email, "error", err)
		return coreUser.User{}, err
	}

	if dto.Password != "" && s.accounts != nil {
		if err := s.accounts.Register(ctx, u.Email, dto.Password, tenant.ID, u.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to register sign-in account", "user_id", u.ID, "error", err)
			return u, err
		}
	}

	s.logger.InfoContext(ctx, "user created", "tenant_id", tenant.ID, "user_id", u.ID, "role", u.Role)
	s.publish(ctx, events.EventTypeUserCreated, tenant.ID, actorID, u)
	return u, nil
}

func (s *Service) Update(ctx context.Context, tenantID, actorID, id string, dto UpdateUserDTO) (coreUser.User, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return coreUser.User{}, appErr
	}

	var updated coreUser.User
	var oldEmail string
	_, err := s.docs.Update(ctx, tenantID, func(list []coreUser.User) ([]coreUser.User, error) {
		next, u, err := replace(list, id, func(cur coreUser.User) (coreUser.User, error) {
			oldEmail = cur.Email
			if dto.Role != nil && *dto.Role != permission.RoleAdmin &&
				cur.Role == permission.RoleAdmin && cur.IsActive && otherActiveAdmins(list, id) == 0 {
				return coreUser.User{}, internal.ErrLastAdmin
			}
			return dto.apply(cur, s.now()), nil
		})
		if err != nil {
			return nil, err
		}
		for _, other := range next {
			if other.ID != u.ID && other.Email == u.Email {
				return nil, internal.ErrDuplicateEmail
			}
		}
		updated = u
		return next, nil
	})
	if err != nil {
		return coreUser.User{}, err
	}

	if updated.Email != oldEmail && s.accounts != nil {
		if err := s.accounts.Rename(ctx, oldEmail, updated.Email); err != nil {
			s.logger.ErrorContext(ctx, "failed to move sign-in account", "user_id", id, "error", err)
			return updated, err
		}
	}

	s.logger.InfoContext(ctx, "user updated", "tenant_id", tenantID, "user_id", id)
	s.publish(ctx, events.EventTypeUserUpdated, tenantID, actorID, updated)
	return updated, nil
}

// Delete removes a member. Nobody can delete themselves, and the last
// active administrator cannot be removed.
func (s *Service) Delete(ctx context.Context, tenantID, actorID, id string) (coreUser.User, error) {
	var removed coreUser.User
	_, err := s.docs.Update(ctx, tenantID, func(list []coreUser.User) ([]coreUser.User, error) {
		target, ok := find(list, id)
		if !ok {
			return nil, internal.ErrUserNotFound
		}
		if id == actorID {
			return nil, internal.ErrSelfModification
		}
		if target.Role == permission.RoleAdmin && otherActiveAdmins(list, id) == 0 {
			return nil, internal.ErrLastAdmin
		}
		next, u, err := remove(list, id)
		removed = u
		return next, err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "user delete refused", "tenant_id", tenantID, "user_id", id, "error", err)
		return coreUser.User{}, err
	}

	if s.accounts != nil {
		if err := s.accounts.Remove(ctx, removed.Email); err != nil {
			s.logger.WarnContext(ctx, "failed to remove sign-in account", "user_id", id, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user deleted", "tenant_id", tenantID, "user_id", id)
	s.publish(ctx, events.EventTypeUserDeleted, tenantID, actorID, removed)
	return removed, nil
}

// ToggleStatus flips IsActive. Deactivating yourself or the last active
// administrator is refused; reactivation is always allowed.
func (s *Service) ToggleStatus(ctx context.Context, tenantID, actorID, id string) (coreUser.User, error) {
	var toggled coreUser.User
	_, err := s.docs.Update(ctx, tenantID, func(list []coreUser.User) ([]coreUser.User, error) {
		next, u, err := replace(list, id, func(cur coreUser.User) (coreUser.User, error) {
			if cur.IsActive {
				if id == actorID {
					return coreUser.User{}, internal.ErrSelfModification
				}
				if cur.Role == permission.RoleAdmin && otherActiveAdmins(list, id) == 0 {
					return coreUser.User{}, internal.ErrLastAdmin
				}
			}
			cur.IsActive = !cur.IsActive
			cur.UpdatedAt = s.now()
			return cur, nil
		})
		toggled = u
		return next, err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "user status toggle refused", "tenant_id", tenantID, "user_id", id, "error", err)
		return coreUser.User{}, err
	}

	s.logger.InfoContext(ctx, "user status toggled", "tenant_id", tenantID, "user_id", id, "is_active", toggled.IsActive)
	s.publish(ctx, events.EventTypeUserStatusToggled, tenantID, actorID, toggled)
	return toggled, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (coreUser.User, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return coreUser.User{}, err
	}
	u, ok := find(list, id)
	if !ok {
		return coreUser.User{}, internal.ErrUserNotFound
	}
	return u, nil
}

// ForTenant returns the tenant's members. The slice is shared; do not modify.
func (s *Service) ForTenant(ctx context.Context, tenantID string) ([]coreUser.User, error) {
	return s.docs.Read(ctx, tenantID)
}

// Seed persists the tenant's members, writing the demo set into an empty
// store.
func (s *Service) Seed(ctx context.Context, tenantID string) (int, error) {
	list, err := s.docs.Persist(ctx, tenantID)
	return len(list), err
}

func (s *Service) ByRole(ctx context.Context, tenantID string, role permission.Role) ([]coreUser.User, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ByRole(list, role), nil
}

func (s *Service) Active(ctx context.Context, tenantID string) ([]coreUser.User, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return Active(list), nil
}

// CountActive feeds the billing usage view.
func (s *Service) CountActive(ctx context.Context, tenantID string) (int, error) {
	list, err := s.Active(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (s *Service) publish(ctx context.Context, eventType, tenantID, actorID string, u coreUser.User) {
	if s.events == nil {
		return
	}
	evt := events.NewUserEvent(eventType, tenantID, actorID, u.ID, u.Name, u.IsActive)
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "failed to publish user event", "event_type", eventType, "error", err)
	}
}
