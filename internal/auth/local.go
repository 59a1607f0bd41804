package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/practice-gateway/internal"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

// AccountNamespace holds one Account per lower-cased email.
const AccountNamespace = "auth-accounts"

type Account struct {
	UserID       string `json:"userId"`
	TenantID     string `json:"tenantId"`
	PasswordHash string `json:"passwordHash"`
}

// Accounts is the local sign-in directory used when no auth service is
// reachable, e.g. in development.
type Accounts struct {
	kv   storage.KV
	cost int
}

func NewAccounts(kv storage.KV, bcryptCost int) *Accounts {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Accounts{kv: kv, cost: bcryptCost}
}

func accountKey(email string) string {
	return storage.Key(AccountNamespace, strings.ToLower(strings.TrimSpace(email)))
}

// Register stores a bcrypt hash of password for email, replacing any
// previous account.
func (a *Accounts) Register(ctx context.Context, email, password, tenantID, userID string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acc := Account{UserID: userID, TenantID: tenantID, PasswordHash: string(hash)}
	if err := a.kv.Set(ctx, accountKey(email), acc); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (a *Accounts) Remove(ctx context.Context, email string) error {
	return a.kv.Delete(ctx, accountKey(email))
}

// Rename moves the account stored under oldEmail to newEmail. A missing
// account is not an error.
func (a *Accounts) Rename(ctx context.Context, oldEmail, newEmail string) error {
	if accountKey(oldEmail) == accountKey(newEmail) {
		return nil
	}
	var acc Account
	found, err := a.kv.Get(ctx, accountKey(oldEmail), &acc)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if !found {
		return nil
	}
	if err := a.kv.Set(ctx, accountKey(newEmail), acc); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return a.kv.Delete(ctx, accountKey(oldEmail))
}

// Verify returns the account when password matches.
func (a *Accounts) Verify(ctx context.Context, email, password string) (Account, error) {
	var acc Account
	found, err := a.kv.Get(ctx, accountKey(email), &acc)
	if err != nil {
		return Account{}, fmt.Errorf("load account: %w", err)
	}
	if !found {
		return Account{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Account{}, internal.ErrInvalidCredentials
	}
	return acc, nil
}

type UserLookup interface {
	Get(ctx context.Context, tenantID, id string) (coreUser.User, error)
}

type TenantLookup interface {
	Get(ctx context.Context, id string) (coreUser.Tenant, error)
}

// LocalAuthenticator checks the local directory and mints an opaque
// token standing in for the upstream credential.
type LocalAuthenticator struct {
	accounts *Accounts
	users    UserLookup
	tenants  TenantLookup
	logger   *slog.Logger
}

func NewLocalAuthenticator(accounts *Accounts, users UserLookup, tenants TenantLookup, logger *slog.Logger) *LocalAuthenticator {
	return &LocalAuthenticator{accounts: accounts, users: users, tenants: tenants, logger: logger}
}

func (a *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	acc, err := a.accounts.Verify(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}

	u, err := a.users.Get(ctx, acc.TenantID, acc.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			a.logger.WarnContext(ctx, "account without member", "user_id", acc.UserID, "tenant_id", acc.TenantID)
			return Identity{}, internal.ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if !u.IsActive {
		return Identity{}, internal.ErrUserInactive
	}

	tenant, err := a.tenants.Get(ctx, acc.TenantID)
	if err != nil {
		return Identity{}, err
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return Identity{}, err
	}
	return Identity{User: u, Tenant: tenant, Token: token}, nil
}
