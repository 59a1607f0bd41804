package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/practice-gateway/internal/auth"
	"github.com/frahmantamala/practice-gateway/internal/billing"
	"github.com/frahmantamala/practice-gateway/internal/notification"
	"github.com/frahmantamala/practice-gateway/internal/process"
	"github.com/frahmantamala/practice-gateway/internal/search"
	"github.com/frahmantamala/practice-gateway/internal/session"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	"github.com/frahmantamala/practice-gateway/internal/usage"
	"github.com/frahmantamala/practice-gateway/internal/user"
)

const demoPassword = "demo12345"

var (
	clearData    bool
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with the demo firms",
	Long:  `Seed the configured store with the demo tenants, members, processes and local login accounts for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			log.Fatalf("failed to initialize dependencies: %v", err)
		}
		defer deps.Close()

		if clearData {
			removed, err := clearNamespaces(ctx, deps.Store,
				user.TenantNamespace, user.Namespace, process.Namespace, auth.AccountNamespace,
				search.Namespace, notification.Namespace, usage.Namespace, billing.Namespace, session.Namespace,
			)
			if err != nil {
				log.Fatalf("failed to clear existing data: %v", err)
			}
			fmt.Println("Cleared keys:", removed)
		}

		if err := seedDemoData(ctx, deps); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		if err := seedDemoAccounts(ctx, deps, seedPassword); err != nil {
			log.Fatalf("failed to seed demo accounts: %v", err)
		}
		fmt.Println("Demo accounts share the password:", seedPassword)
	},
}

func seedDemoData(ctx context.Context, deps *Dependencies) error {
	seeded := user.DemoTenants()
	members := user.NewService(deps.Store, user.DemoSeed, deps.Accounts, nil, deps.Logger)
	processes := process.NewService(deps.Store, process.DemoSeed, nil, nil, deps.Logger)

	for _, tenant := range seeded {
		if err := deps.Tenants.Put(ctx, tenant); err != nil {
			return fmt.Errorf("tenant %s: %w", tenant.Name, err)
		}
		n, err := members.Seed(ctx, tenant.ID)
		if err != nil {
			return fmt.Errorf("members of %s: %w", tenant.Name, err)
		}
		p, err := processes.Seed(ctx, tenant.ID)
		if err != nil {
			return fmt.Errorf("processes of %s: %w", tenant.Name, err)
		}
		fmt.Printf("Seeded tenant %s (%s): %d members, %d processes\n", tenant.Name, tenant.Plan, n, p)
	}
	return nil
}

// seedDemoAccounts gives every demo member a local login.
func seedDemoAccounts(ctx context.Context, deps *Dependencies, password string) error {
	for _, u := range user.DemoUsers() {
		if err := deps.Accounts.Register(ctx, u.Email, password, u.TenantID, u.ID); err != nil {
			return fmt.Errorf("account %s: %w", u.Email, err)
		}
	}
	deps.Logger.Info("demo accounts registered", "count", len(user.DemoUsers()))
	return nil
}

func clearNamespaces(ctx context.Context, kv storage.KV, namespaces ...string) (int, error) {
	removed := 0
	for _, ns := range namespaces {
		keys, err := kv.Keys(ctx, ns+":")
		if err != nil {
			return removed, err
		}
		for _, k := range keys {
			if err := kv.Delete(ctx, k); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedPassword, "password", demoPassword, "Password for the seeded local accounts")
}
