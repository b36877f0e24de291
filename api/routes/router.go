package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reclaimtech/buyback-backend/api/controllers"
	"github.com/reclaimtech/buyback-backend/api/middleware"
	"github.com/reclaimtech/buyback-backend/internal/geo"
	"github.com/reclaimtech/buyback-backend/internal/orders"
	"github.com/reclaimtech/buyback-backend/internal/partners"
	"github.com/reclaimtech/buyback-backend/internal/sessions"
	"github.com/reclaimtech/buyback-backend/pkg/auth/session"
	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/db"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/redis"
)

// RouterParams carries every dependency the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	SessionManager *session.Manager
	Registry       *prometheus.Registry

	Sessions sessions.Service
	Orders   orders.Service
	Partners partners.Service
	Geo      geo.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	quotePolicy := middleware.NewRateLimitPolicy(
		"quotes",
		cfg.RateLimit.QuoteWindow,
		cfg.RateLimit.QuoteIPLimit,
		cfg.RateLimit.QuoteUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	// Rotation authenticates with the refresh token itself, so it sits
	// outside the bearer-auth group.
	r.Post("/api/v1/auth/refresh", controllers.TokenRefresh(cfg.JWT, p.SessionManager, logg))

	// Quote flow is public: a shopper prices a device before signing in.
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.With(middleware.RateLimit(quotePolicy, p.Redis, logg)).Post("/", controllers.SessionCreate(p.Sessions, logg))
		r.Get("/{token}", controllers.SessionDetail(p.Sessions, logg))
		r.Put("/{sessionId}/answers", controllers.SessionUpdateAnswers(p.Sessions, logg))
		r.Put("/{sessionId}/defects", controllers.SessionUpdateDefects(p.Sessions, logg))
		r.Put("/{sessionId}/accessories", controllers.SessionUpdateAccessories(p.Sessions, logg))
		r.Post("/{sessionId}/extend", controllers.SessionExtend(p.Sessions, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(p.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
			r.Post("/{orderId}/submit", controllers.OrderSubmit(p.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(p.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.ActorRolePartner), logg))
				r.Post("/{orderId}/claim", controllers.OrderClaim(p.Orders, p.Partners, logg))
				r.Post("/{orderId}/confirm", controllers.OrderConfirm(p.Orders, logg))
				r.Post("/{orderId}/reject", controllers.OrderReject(p.Orders, logg))
				r.Post("/{orderId}/picked", controllers.OrderPicked(p.Orders, logg))
				r.Post("/{orderId}/paid", controllers.OrderPaid(p.Orders, logg))
			})
		})

		r.Route("/partner", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRolePartner), logg))
			r.Get("/available-orders", controllers.PartnerAvailableOrders(p.Geo, logg))
			r.Get("/wallet", controllers.PartnerWallet(p.Partners, logg))
		})

		r.Post("/auth/logout", controllers.Logout(p.SessionManager, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))
			r.Post("/auth/tokens", controllers.TokenMint(cfg.JWT, p.SessionManager, logg))
			r.Post("/orders/{orderId}/assign", controllers.OrderAssign(p.Orders, logg))
		})
	})

	return r
}
