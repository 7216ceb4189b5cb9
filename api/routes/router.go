package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/catalog-backoffice/api/controllers"
	"github.com/angelmondragon/catalog-backoffice/api/middleware"
	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/internal/variants"
	"github.com/angelmondragon/catalog-backoffice/pkg/config"
	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	pkgredis "github.com/angelmondragon/catalog-backoffice/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP surface needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// NewRouter wires the catalog back office API. metricsHandler may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	variantService variants.Service,
	inventoryService inventory.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
	)

	adminPolicy := middleware.NewRateLimitPolicy(
		"admin",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.ActorLimit,
	)

	var readyDeps = map[string]controllers.Pinger{}
	if dbP != nil {
		readyDeps["db"] = dbP
	}
	if redisStore != nil {
		readyDeps["redis"] = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		// Idempotency matches on the full route pattern, which chi only knows at the endpoint.
		idempotent := middleware.Idempotency(redisStore, logg)

		r.Route("/products/{productId}/variants", func(r chi.Router) {
			r.Get("/", controllers.ListVariants(variantService, logg))
			r.Post("/", controllers.CreateVariant(variantService, logg))
			r.With(idempotent).Post("/matrix", controllers.GenerateVariantMatrix(variantService, logg))
		})

		r.Route("/variants/{variantId}", func(r chi.Router) {
			r.Get("/", controllers.GetVariant(variantService, logg))
			r.Patch("/", controllers.UpdateVariant(variantService, logg))
			r.Delete("/", controllers.DeleteVariant(variantService, logg))
			r.Get("/inventory", controllers.GetVariantInventory(inventoryService, logg))
			r.Post("/inventory", controllers.EnsureInventory(inventoryService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/low-stock", controllers.ListLowStock(inventoryService, logg))
			r.Route("/{inventoryId}", func(r chi.Router) {
				r.Get("/", controllers.GetInventory(inventoryService, logg))
				r.With(idempotent).Post("/adjust", controllers.AdjustStock(inventoryService, logg))
				r.Patch("/discontinued", controllers.SetInventoryDiscontinued(inventoryService, logg))
				r.Get("/movements", controllers.ListMovements(inventoryService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RateLimit(adminPolicy, redisStore, logg))
			r.Post("/inventory/repair", controllers.AdminRepairInventory(inventoryService, logg))
			r.Get("/inventory/diagnostics", controllers.AdminInventoryDiagnostics(inventoryService, logg))
			r.Post("/inventory/dedupe", controllers.AdminDedupeInventory(inventoryService, logg))
			r.Post("/variants/reprice", controllers.RepriceVariants(variantService, logg))
		})
	})

	return r
}
