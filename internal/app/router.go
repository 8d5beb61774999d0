package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inventia-erp/inventia/internal/auth"
	"github.com/inventia-erp/inventia/internal/catalog"
	"github.com/inventia-erp/inventia/internal/listings"
	"github.com/inventia-erp/inventia/internal/observability"
	"github.com/inventia-erp/inventia/internal/production"
	"github.com/inventia-erp/inventia/internal/purchasing"
	"github.com/inventia-erp/inventia/internal/reports"
	"github.com/inventia-erp/inventia/internal/sales"
	"github.com/inventia-erp/inventia/internal/stock"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	AuthMiddleware    *auth.Middleware
	CatalogHandler    *catalog.Handler
	StockHandler      *stock.Handler
	PurchasingHandler *purchasing.Handler
	ProductionHandler *production.Handler
	SalesHandler      *sales.Handler
	ListingsHandler   *listings.Handler
	ReportsHandler    *reports.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Inventia defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)

		api.Group(func(private chi.Router) {
			private.Use(params.AuthMiddleware.Authenticate)

			params.AuthHandler.MountProfileRoutes(private)

			private.Route("/catalog", params.CatalogHandler.MountRoutes)
			private.Route("/stock", params.StockHandler.MountRoutes)
			private.Route("/purchase-orders", params.PurchasingHandler.MountRoutes)
			private.Route("/production-orders", params.ProductionHandler.MountRoutes)
			private.Route("/sales-orders", params.SalesHandler.MountRoutes)
			private.Route("/sales-channels", params.SalesHandler.MountChannelRoutes)
			private.Route("/listings", params.ListingsHandler.MountRoutes)
			private.Route("/reports", params.ReportsHandler.MountRoutes)

			private.Route("/users", func(users chi.Router) {
				users.Use(params.AuthMiddleware.RequireRole(auth.RoleAdmin))
				params.AuthHandler.MountUserRoutes(users)
			})
		})
	})

	return r
}
