// Package auth signs users in and out and exposes the session to the
// rest of the request pipeline.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
)

// Identity is what a successful credential check yields: the member, the
// firm they act for, and the credential the upstream services accept.
type Identity struct {
	User   coreUser.User
	Tenant coreUser.Tenant
	Token  string
}

// Authenticator verifies an email and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
}

const (
	ModeUpstream = "upstream"
	ModeLocal    = "local"
)

// GenerateRandomToken returns 32 random bytes, hex encoded.
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
