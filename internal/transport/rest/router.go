package rest

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal/auth"
	"github.com/frahmantamala/practice-gateway/internal/billing"
	"github.com/frahmantamala/practice-gateway/internal/guard"
	"github.com/frahmantamala/practice-gateway/internal/notification"
	"github.com/frahmantamala/practice-gateway/internal/observability"
	"github.com/frahmantamala/practice-gateway/internal/process"
	"github.com/frahmantamala/practice-gateway/internal/search"
	"github.com/frahmantamala/practice-gateway/internal/transport/middleware"
	"github.com/frahmantamala/practice-gateway/internal/transport/swagger"
	"github.com/frahmantamala/practice-gateway/internal/usage"
	"github.com/frahmantamala/practice-gateway/internal/user"
)

// Handlers is everything the router mounts. Nil handlers leave their
// routes out.
type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	Guard        *guard.Middleware
	Process      *process.Handler
	User         *user.Handler
	Billing      *billing.Handler
	Usage        *usage.Handler
	Search       *search.Handler
	Notification *notification.Handler
	Proxy        http.Handler
	Document     *swagger.Document
	Metrics      *observability.Metrics
	MetricsPath  string
	MetricsPage  http.Handler
}

type RouterOptions struct {
	AllowedOrigins []string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Logging)
	if h.Metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(h.Metrics))
	}

	if h.Document != nil {
		router.Get("/openapi.yml", h.Document.ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler())
	}
	if h.MetricsPage != nil && h.MetricsPath != "" {
		router.Handle(h.MetricsPath, h.MetricsPage)
	}

	router.Route(guard.APIPrefix, func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}
		if h.Billing != nil {
			r.Get("/plans", h.Billing.Plans)
		}
		if h.Auth == nil || h.Guard == nil {
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.SessionMiddleware)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", h.Auth.Login)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
			})
			r.Get("/guard/check", h.Guard.Check)

			if h.Proxy != nil {
				r.With(h.Guard.RequireAuthenticated, h.Guard.RequireService).Handle("/proxy/{service}/*", h.Proxy)
			}

			r.Group(func(r chi.Router) {
				r.Use(h.Guard.RequireAuthenticated)
				r.Use(h.Guard.RequireRoute)

				if h.Process != nil {
					mountProcesses(r, h.Guard, h.Process)
				}
				if h.User != nil {
					mountUsers(r, h.Guard, h.User)
				}
				if h.Billing != nil {
					mountBilling(r, h.Guard, h.Billing)
				}
				if h.Usage != nil {
					r.Route("/usage", func(r chi.Router) {
						r.Get("/", h.Usage.Get)
						r.Post("/{metric}/increment", h.Usage.Increment)
					})
				}
				if h.Search != nil {
					mountSearch(r, h.Search)
				}
				if h.Notification != nil {
					mountNotifications(r, h.Guard, h.Notification)
				}
			})
		})
	})
}

func mountProcesses(r chi.Router, g *guard.Middleware, h *process.Handler) {
	r.Route("/processes", func(r chi.Router) {
		view := g.RequireAction("processes", "view")
		r.With(view).Get("/", h.List)
		r.With(view).Get("/stats", h.Stats)
		r.With(view).Post("/sync", h.Sync)
		r.With(g.RequireAction("processes", "create")).Post("/", h.Create)
		r.With(view).Get("/{id}", h.Get)
		r.With(g.RequireAction("processes", "edit")).Put("/{id}", h.Update)
		r.With(g.RequireAction("processes", "edit")).Post("/{id}/monitoring", h.ToggleMonitoring)
		r.With(g.RequireAction("processes", "delete")).Delete("/{id}", h.Delete)
	})
}

func mountUsers(r chi.Router, g *guard.Middleware, h *user.Handler) {
	r.Route("/users", func(r chi.Router) {
		view := g.RequireAction("users", "view")
		edit := g.RequireAction("users", "edit")
		r.With(view).Get("/", h.List)
		r.With(view).Get("/quota", h.Quota)
		r.With(g.RequireAction("users", "create")).Post("/", h.Create)
		r.With(view).Get("/{id}", h.Get)
		r.With(edit).Put("/{id}", h.Update)
		r.With(edit).Post("/{id}/status", h.ToggleStatus)
		r.With(g.RequireAction("users", "delete")).Delete("/{id}", h.Delete)
	})
}

func mountBilling(r chi.Router, g *guard.Middleware, h *billing.Handler) {
	r.Route("/billing", func(r chi.Router) {
		r.Use(g.RequireAction("billing", "view"))
		r.Get("/", h.Overview)
		r.Get("/usage", h.Usage)
		r.Get("/invoices", h.Invoices)
		r.Get("/invoices/{id}", h.Invoice)
		r.Get("/payment-method", h.GetPaymentMethod)
		r.With(g.RequireAction("billing", "edit")).Put("/payment-method", h.UpdatePaymentMethod)
	})
}

func mountSearch(r chi.Router, h *search.Handler) {
	r.Route("/search", func(r chi.Router) {
		r.Get("/", h.Search)
		r.Get("/suggestions", h.Suggestions)
		r.Get("/recent", h.Recent)
		r.Delete("/recent", h.ClearRecent)
		r.Get("/saved", h.Saved)
		r.Post("/saved", h.Save)
		r.Delete("/saved/{id}", h.RemoveSaved)
	})
}

func mountNotifications(r chi.Router, g *guard.Middleware, h *notification.Handler) {
	r.Route("/notifications", func(r chi.Router) {
		configure := g.RequireAction("notifications", "configure")
		markAsRead := g.RequireAction("notifications", "markAsRead")
		remove := g.RequireAction("notifications", "delete")
		r.Get("/", h.List)
		r.With(configure).Post("/", h.Create)
		r.With(configure).Put("/", h.Replace)
		r.With(remove).Delete("/", h.Clear)
		r.With(markAsRead).Post("/read-all", h.MarkAllAsRead)
		r.With(markAsRead).Post("/{id}/read", h.MarkAsRead)
		r.With(remove).Delete("/{id}", h.Delete)
	})
}
