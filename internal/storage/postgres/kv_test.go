package postgres_test

import (
	"context"
	"testing"

	kvDatamodel "github.com/frahmantamala/practice-gateway/internal/core/datamodel/kv"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	storagePostgres "github.com/frahmantamala/practice-gateway/internal/storage/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestStoragePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Postgres Suite")
}

type doc struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

var _ = Describe("KV Store", func() {
	var (
		db    *gorm.DB
		store *storagePostgres.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&kvDatamodel.Entry{})).To(Succeed())

		store = storagePostgres.NewKVStore(db)
		ctx = context.Background()
	})

	It("reports a miss without error", func() {
		var d doc
		found, err := store.Get(ctx, "missing", &d)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("round-trips and overwrites values", func() {
		Expect(store.Set(ctx, "billing-storage:t1", doc{Title: "a", Count: 1})).To(Succeed())
		Expect(store.Set(ctx, "billing-storage:t1", doc{Title: "b", Count: 2})).To(Succeed())

		var d doc
		found, err := store.Get(ctx, "billing-storage:t1", &d)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(d).To(Equal(doc{Title: "b", Count: 2}))

		var count int64
		db.Model(&kvDatamodel.Entry{}).Count(&count)
		Expect(count).To(Equal(int64(1)))
	})

	It("lists keys by prefix without treating _ as a wildcard", func() {
		for _, k := range []string{"users-storage:t_1", "users-storage:tx1", "users-storage:t_2", "other:t_1"} {
			Expect(store.Set(ctx, k, doc{})).To(Succeed())
		}
		keys, err := store.Keys(ctx, "users-storage:t_")
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{"users-storage:t_1", "users-storage:t_2"}))
	})

	It("deletes keys", func() {
		Expect(store.Set(ctx, "auth-storage:s1", doc{})).To(Succeed())
		Expect(store.Delete(ctx, "auth-storage:s1")).To(Succeed())
		found, err := store.Get(ctx, "auth-storage:s1", &doc{})
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("flags corrupt rows", func() {
		Expect(db.Create(&kvDatamodel.Entry{Key: "bad", Value: "{"}).Error).To(Succeed())
		_, err := store.Get(ctx, "bad", &doc{})
		Expect(err).To(MatchError(storage.ErrCorruptValue))
	})

	It("pings the underlying connection", func() {
		Expect(store.Ping(ctx)).To(Succeed())
	})
})
