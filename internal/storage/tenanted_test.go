package storage_test

import (
	"context"
	"errors"

	"github.com/frahmantamala/practice-gateway/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingKV struct {
	storage.KV
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key string, value any) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.KV.Set(ctx, key, value)
}

var _ = Describe("Tenanted", func() {
	var (
		ctx  context.Context
		kv   *failingKV
		docs *storage.Tenanted[[]string]
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem, err := storage.NewMemory(100)
		Expect(err).NotTo(HaveOccurred())
		kv = &failingKV{KV: mem}
		docs = storage.NewTenanted(kv, "tags-storage", func(tenantID string) []string {
			return []string{"seed-" + tenantID}
		})
	})

	appendTag := func(tag string) func([]string) ([]string, error) {
		return func(cur []string) ([]string, error) {
			next := append(append([]string(nil), cur...), tag)
			return next, nil
		}
	}

	It("seeds tenants without a persisted document", func() {
		got, err := docs.Read(ctx, "t1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]string{"seed-t1"}))
	})

	It("keeps tenants apart", func() {
		_, err := docs.Update(ctx, "t1", appendTag("a"))
		Expect(err).NotTo(HaveOccurred())

		other, err := docs.Read(ctx, "t2")
		Expect(err).NotTo(HaveOccurred())
		Expect(other).To(Equal([]string{"seed-t2"}))
	})

	It("persists the seed on demand", func() {
		_, err := docs.Persist(ctx, "t3")
		Expect(err).NotTo(HaveOccurred())

		tenants, err := docs.Tenants(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tenants).To(ContainElement("t3"))

		reopened := storage.NewTenanted[[]string](kv, "tags-storage", nil)
		got, err := reopened.Read(ctx, "t3")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]string{"seed-t3"}))
	})

	It("survives a restart through the KV", func() {
		_, err := docs.Update(ctx, "t1", appendTag("a"))
		Expect(err).NotTo(HaveOccurred())

		reopened := storage.NewTenanted[[]string](kv, "tags-storage", nil)
		got, err := reopened.Read(ctx, "t1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]string{"seed-t1", "a"}))

		tenants, err := reopened.Tenants(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tenants).To(Equal([]string{"t1"}))
	})

	It("leaves the cache untouched when the reducer fails", func() {
		boom := errors.New("rejected")
		_, err := docs.Update(ctx, "t1", func([]string) ([]string, error) { return nil, boom })
		Expect(err).To(MatchError(boom))

		got, _ := docs.Read(ctx, "t1")
		Expect(got).To(Equal([]string{"seed-t1"}))
	})

	It("leaves the cache untouched when the write fails", func() {
		kv.failSet = true
		_, err := docs.Update(ctx, "t1", appendTag("a"))
		Expect(err).To(HaveOccurred())

		got, _ := docs.Read(ctx, "t1")
		Expect(got).To(Equal([]string{"seed-t1"}))
	})
})
