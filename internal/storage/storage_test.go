package storage_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/practice-gateway/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("Memory", func() {
	var (
		mem *storage.Memory
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		mem, err = storage.NewMemory(3)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	It("stores JSON copies rather than references", func() {
		items := []string{"a"}
		Expect(mem.Set(ctx, "k", items)).To(Succeed())
		items[0] = "changed"

		var got []string
		found, err := mem.Get(ctx, "k", &got)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(got).To(Equal([]string{"a"}))
	})

	It("evicts the least recently used key when full", func() {
		for _, k := range []string{"a", "b", "c", "d"} {
			Expect(mem.Set(ctx, k, 1)).To(Succeed())
		}
		found, err := mem.Get(ctx, "a", new(int))
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("never evicts keys under a pinned prefix", func() {
		pinned, err := storage.NewMemory(2, "auth-storage:")
		Expect(err).NotTo(HaveOccurred())

		Expect(pinned.Set(ctx, "auth-storage:sid-1", "alice")).To(Succeed())
		for _, k := range []string{"a", "b", "c", "d"} {
			Expect(pinned.Set(ctx, k, 1)).To(Succeed())
		}

		var who string
		found, err := pinned.Get(ctx, "auth-storage:sid-1", &who)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(who).To(Equal("alice"))

		keys, err := pinned.Keys(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{"auth-storage:sid-1", "c", "d"}))

		Expect(pinned.Delete(ctx, "auth-storage:sid-1")).To(Succeed())
		found, err = pinned.Get(ctx, "auth-storage:sid-1", &who)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("lists keys by prefix in order", func() {
		Expect(mem.Set(ctx, "usage-tracking:t2", 1)).To(Succeed())
		Expect(mem.Set(ctx, "usage-tracking:t1", 1)).To(Succeed())
		Expect(mem.Set(ctx, "auth-storage:s", 1)).To(Succeed())

		keys, err := mem.Keys(ctx, "usage-tracking:")
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{"usage-tracking:t1", "usage-tracking:t2"}))
	})

	It("honours cancelled contexts", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(mem.Set(cctx, "k", 1)).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Key", func() {
	It("joins namespace and parts", func() {
		Expect(storage.Key("auth-storage", "abc")).To(Equal("auth-storage:abc"))
		Expect(storage.Key("processes-storage", "t1", "x")).To(Equal("processes-storage:t1:x"))
		Expect(storage.Key("ns")).To(Equal("ns"))
	})
})
