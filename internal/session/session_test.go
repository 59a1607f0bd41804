package session

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/practice-gateway/internal"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

const testSecret = "0123456789abcdef0123456789abcdef"

func sampleUser() coreUser.User {
	return coreUser.User{ID: "u1", Email: "ana@firm.test", Name: "Ana", Role: permission.RoleLawyer, TenantID: "t1", IsActive: true}
}

func sampleTenant() coreUser.Tenant {
	return coreUser.Tenant{ID: "t1", Name: "Firm", Plan: coreUser.PlanProfessional, IsActive: true}
}

var _ = Describe("State reducers", func() {
	It("returns to the initial state after login then logout", func() {
		// Given
		start := Initial()

		// When
		in, err := Login(sampleUser(), sampleTenant(), "upstream-token")
		Expect(err).ToNot(HaveOccurred())
		out := Logout(in)

		// Then
		Expect(out).To(Equal(start))
	})

	It("sets every field on login", func() {
		st, err := Login(sampleUser(), sampleTenant(), "tok")
		Expect(err).ToNot(HaveOccurred())
		Expect(st.IsAuthenticated).To(BeTrue())
		Expect(st.User.ID).To(Equal("u1"))
		Expect(st.TenantID()).To(Equal("t1"))
		Expect(st.Token).To(Equal("tok"))
		Expect(st.Role()).To(Equal(permission.RoleLawyer))
	})

	It("refuses a login without a token", func() {
		st, err := Login(sampleUser(), sampleTenant(), "")
		Expect(err).To(MatchError(ErrIncompleteLogin))
		Expect(st).To(Equal(Initial()))
	})

	It("does not alias the caller's user", func() {
		u := sampleUser()
		st, _ := Login(u, sampleTenant(), "tok")
		u.Name = "changed"
		Expect(st.User.Name).To(Equal("Ana"))
	})

	It("has no role when signed out", func() {
		Expect(Initial().Role()).To(BeEmpty())
		Expect(Initial().Resolver(nil).CanAccessPage("/dashboard")).To(BeFalse())
	})
})

var _ = Describe("Service", func() {
	var (
		kv      storage.KV
		issuer  *TokenIssuer
		service *Service
		ctx     context.Context
		logger  *slog.Logger
	)

	BeforeEach(func() {
		mem, err := storage.NewMemory(100)
		Expect(err).ToNot(HaveOccurred())
		kv = mem
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		issuer = NewTokenIssuer(testSecret, time.Hour)
		service = NewService(kv, issuer, logger)
		ctx = context.Background()
	})

	It("persists the session under the auth namespace", func() {
		started, err := service.Login(ctx, sampleUser(), sampleTenant(), "upstream")
		Expect(err).ToNot(HaveOccurred())

		var stored State
		found, err := kv.Get(ctx, storage.Key(Namespace, started.SessionID), &stored)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(stored).To(Equal(started.State))
	})

	It("survives a restart of the service", func() {
		started, err := service.Login(ctx, sampleUser(), sampleTenant(), "upstream")
		Expect(err).ToNot(HaveOccurred())

		restarted := NewService(kv, issuer, logger)
		sid, st, err := restarted.Resolve(ctx, started.SessionToken)
		Expect(err).ToNot(HaveOccurred())
		Expect(sid).To(Equal(started.SessionID))
		Expect(st.Token).To(Equal("upstream"))
		Expect(st.IsAuthenticated).To(BeTrue())
	})

	It("returns the initial state after logout", func() {
		started, err := service.Login(ctx, sampleUser(), sampleTenant(), "upstream")
		Expect(err).ToNot(HaveOccurred())

		Expect(service.Logout(ctx, started.SessionID)).To(Succeed())

		st, err := service.Current(ctx, started.SessionID)
		Expect(err).ToNot(HaveOccurred())
		Expect(st).To(Equal(Initial()))
		Expect(service.Logout(ctx, started.SessionID)).To(Succeed())
	})

	It("rejects tampered tokens", func() {
		started, err := service.Login(ctx, sampleUser(), sampleTenant(), "upstream")
		Expect(err).ToNot(HaveOccurred())

		other := NewService(kv, NewTokenIssuer("another-secret-another-secret-xx", time.Hour), logger)
		_, _, err = other.Resolve(ctx, started.SessionToken)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("reports expired tokens", func() {
		started, err := service.Login(ctx, sampleUser(), sampleTenant(), "upstream")
		Expect(err).ToNot(HaveOccurred())

		issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, _, err = service.Resolve(ctx, started.SessionToken)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
	})

	It("does not persist incomplete logins", func() {
		_, err := service.Login(ctx, sampleUser(), sampleTenant(), "")
		Expect(err).To(MatchError(ErrIncompleteLogin))

		keys, err := kv.Keys(ctx, Namespace+":")
		Expect(err).ToNot(HaveOccurred())
		Expect(keys).To(BeEmpty())
	})
})
