package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/auth"
	"github.com/frahmantamala/practice-gateway/internal/billing"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/gateway"
	"github.com/frahmantamala/practice-gateway/internal/notification"
	"github.com/frahmantamala/practice-gateway/internal/observability"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/process"
	"github.com/frahmantamala/practice-gateway/internal/search"
	"github.com/frahmantamala/practice-gateway/internal/session"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	"github.com/frahmantamala/practice-gateway/internal/storage/postgres"
	"github.com/frahmantamala/practice-gateway/internal/storage/redis"
	"github.com/frahmantamala/practice-gateway/internal/usage"
	"github.com/frahmantamala/practice-gateway/internal/user"
	"github.com/frahmantamala/practice-gateway/pkg/logger"
)

// Dependencies is the wired application shared by every subcommand.
type Dependencies struct {
	Config   *internal.Config
	Logger   *slog.Logger
	Store    storage.KV
	DB       *sqlx.DB
	Bus      *events.EventBus
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Tables   *permission.Tables
	Gateway  *gateway.Client

	Sessions      *session.Service
	Accounts      *auth.Accounts
	Auth          *auth.Service
	Tenants       *user.Tenants
	Users         *user.Service
	Processes     *process.Service
	Usage         *usage.Service
	Billing       *billing.Service
	Search        *search.Service
	Notifications *notification.Service

	closers []func() error
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Setup(logger.Options{
		Env:    cfg.Server.Env,
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})

	deps := &Dependencies{Config: cfg, Logger: log}
	if err := deps.openStore(ctx); err != nil {
		deps.Close()
		return nil, err
	}

	tables := permission.DefaultTables()
	if cfg.Permissions.PolicyFile != "" {
		tables, err = permission.LoadPolicyFile(cfg.Permissions.PolicyFile)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to load permission policy: %w", err)
		}
	}
	deps.Tables = tables

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = observability.NewMetrics(deps.Registry)

	deps.Bus = events.NewEventBus(log)

	endpoints := make(map[string]gateway.Endpoint, len(cfg.Services))
	for name, svc := range cfg.Services {
		endpoints[name] = gateway.Endpoint{BaseURL: svc.BaseURL, Timeout: svc.Timeout}
	}
	deps.Gateway = gateway.NewClient(endpoints, log, gateway.WithRecorder(deps.Metrics))

	deps.buildStores()

	tokens := session.NewTokenIssuer(cfg.Security.SessionSecret, cfg.Security.SessionTTL)
	deps.Sessions = session.NewService(deps.Store, tokens, log)

	var authenticator auth.Authenticator
	switch cfg.Auth.Mode {
	case "local":
		authenticator = auth.NewLocalAuthenticator(deps.Accounts, deps.Users, deps.Tenants, log)
	default:
		authenticator = auth.NewUpstreamAuthenticator(deps.Gateway, deps.Tenants, log)
	}
	deps.Auth = auth.NewService(authenticator, deps.Sessions, deps.Bus, deps.Metrics, log)
	deps.Gateway.SetUnauthorizedHandler(deps.Auth.ForceLogout)

	return deps, nil
}

// openStore picks the KV backend named by storage.backend.
func (d *Dependencies) openStore(ctx context.Context) error {
	cfg := d.Config
	var kv storage.KV

	switch cfg.Storage.Backend {
	case "redis":
		store, err := redis.New(ctx, redis.Options{
			URL:        cfg.Redis.URL,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		d.closers = append(d.closers, store.Close)
		kv = store
	case "postgres":
		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		d.DB = db
		d.closers = append(d.closers, db.Close)
		gdb, err := postgres.Open(db.DB)
		if err != nil {
			return err
		}
		kv = postgres.NewKVStore(gdb)
	default:
		mem, err := storage.NewMemory(cfg.Storage.MemorySize, pinnedNamespaces(cfg.Storage.KeyPrefix)...)
		if err != nil {
			return fmt.Errorf("failed to initialize memory store: %w", err)
		}
		kv = mem
	}

	if cfg.Storage.KeyPrefix != "" {
		kv = storage.WithPrefix(kv, cfg.Storage.KeyPrefix)
	}
	d.Store = kv
	d.Logger.Info("storage ready", "backend", cfg.Storage.Backend)
	return nil
}

// pinnedNamespaces are the key prefixes the memory backend must never
// evict: losing them would sign users out.
func pinnedNamespaces(keyPrefix string) []string {
	pinned := []string{session.Namespace + ":", auth.AccountNamespace + ":"}
	if keyPrefix != "" {
		for i, p := range pinned {
			pinned[i] = keyPrefix + ":" + p
		}
	}
	return pinned
}

func (d *Dependencies) buildStores() {
	var (
		tenantSeed  = user.DemoTenants()
		memberSeed  = user.DemoSeed
		processSeed = process.DemoSeed
	)
	if !d.Config.Storage.SeedDemo {
		tenantSeed, memberSeed, processSeed = nil, nil, nil
	}

	d.Accounts = auth.NewAccounts(d.Store, d.Config.Security.BCryptCost)
	d.Tenants = user.NewTenants(d.Store, tenantSeed)
	d.Users = user.NewService(d.Store, memberSeed, d.Accounts, d.Bus, d.Logger)
	d.Processes = process.NewService(d.Store, processSeed, d.Bus, d.Gateway, d.Logger)

	d.Usage = usage.NewService(d.Store, d.Bus, d.Metrics, d.Logger)
	d.Billing = billing.NewService(d.Store, d.Tenants, d.Processes, d.Users, d.Usage, d.Bus, d.Logger)
	d.Usage.SetLimitSource(d.Billing)
	d.Usage.Subscribe(d.Bus)

	d.Search = search.NewService(d.Store, d.Processes, search.DefaultCatalog(), d.Logger)

	d.Notifications = notification.NewService(d.Store, d.Logger)
	d.Notifications.Subscribe(d.Bus)
}

// Close drains the event bus and releases backend connections.
func (d *Dependencies) Close() error {
	if d.Bus != nil {
		d.Bus.Wait()
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sqlDB(d *Dependencies) *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
