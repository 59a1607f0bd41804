package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/practice-gateway/internal/auth"
	"github.com/frahmantamala/practice-gateway/internal/billing"
	"github.com/frahmantamala/practice-gateway/internal/guard"
	"github.com/frahmantamala/practice-gateway/internal/notification"
	"github.com/frahmantamala/practice-gateway/internal/observability"
	"github.com/frahmantamala/practice-gateway/internal/process"
	"github.com/frahmantamala/practice-gateway/internal/search"
	"github.com/frahmantamala/practice-gateway/internal/transport/rest"
	"github.com/frahmantamala/practice-gateway/internal/transport/swagger"
	"github.com/frahmantamala/practice-gateway/internal/usage"
	"github.com/frahmantamala/practice-gateway/internal/user"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger
	cfg := deps.Config

	if cfg.Auth.Mode == "local" && cfg.Storage.SeedDemo {
		if err := seedDemoAccounts(context.Background(), deps, demoPassword); err != nil {
			log.Error("failed to seed demo accounts", "error", err)
		}
	}

	router := setupRoutes(deps)

	scheduler, err := usage.NewScheduler(deps.Usage, cfg.Usage.DailyResetSchedule, cfg.Usage.MonthlyResetSchedule, log)
	if err != nil {
		log.Error("invalid usage reset schedule", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", "address", addr, "auth_mode", cfg.Auth.Mode)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			scheduler.Stop(context.Background())
			_ = deps.Close()
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop(ctx)
	if err := deps.Close(); err != nil {
		log.Error("Storage close error", "error", err)
	}

	log.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) *chi.Mux {
	cfg := deps.Config
	log := deps.Logger

	doc, err := swagger.Load(context.Background(), cfg.Server.OpenAPIPath)
	if err != nil {
		log.Warn("openapi document not served", "path", cfg.Server.OpenAPIPath, "error", err)
		doc = nil
	}

	g := guard.New(deps.Tables, guard.Options{
		LandingRoute: cfg.Permissions.LandingRoute,
		LoginRoute:   cfg.Permissions.LoginRoute,
		Recorder:     deps.Metrics,
	})

	h := rest.Handlers{
		Health: rest.NewHealthHandler(sqlDB(deps), deps.Store),
		Auth: auth.NewHandler(deps.Auth, deps.Tables, auth.CookieConfig{
			Name:   cfg.Security.CookieName,
			TTL:    cfg.Security.SessionTTL,
			Secure: cfg.Server.Env == "production",
		}, log),
		Guard:        guard.NewMiddleware(g, log),
		Process:      process.NewHandler(deps.Processes, log),
		User:         user.NewHandler(deps.Users, deps.Tenants, log),
		Billing:      billing.NewHandler(deps.Billing, log),
		Usage:        usage.NewHandler(deps.Usage, log),
		Search:       search.NewHandler(deps.Search, log),
		Notification: notification.NewHandler(deps.Notifications, log),
		Proxy:        deps.Gateway.Proxy(),
		Document:     doc,
	}
	if cfg.Observability.Metrics.Enabled {
		h.Metrics = deps.Metrics
		h.MetricsPath = cfg.Observability.Metrics.Path
		h.MetricsPage = observability.Handler(deps.Registry)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, h, rest.RouterOptions{AllowedOrigins: cfg.Server.AllowedOriginList()})
	return router
}
