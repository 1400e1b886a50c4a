package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marginly/marginly-backend/api/controllers"
	"github.com/marginly/marginly-backend/api/middleware"
	"github.com/marginly/marginly-backend/pkg/config"
	"github.com/marginly/marginly-backend/pkg/logger"
)

// CacheStore is the Redis surface the HTTP middleware needs.
type CacheStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope, id string) string
	Ping(context.Context) error
}

type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Cache     CacheStore
	Gatherer  prometheus.Gatherer
	Stores    controllers.StoreService
	Syncer    controllers.StoreSyncer
	Dashboard controllers.MetricsReader
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.API.CORSOrigins),
	)

	cache := p.Cache
	deps := map[string]controllers.Pinger{"db": p.DB}
	if cache != nil {
		deps["redis"] = cache
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	syncPolicy := middleware.NewRateLimitPolicy("sync", cfg.API.SyncRateWindow, cfg.API.SyncRateLimit, "storeId")

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if cache != nil {
			r.Use(middleware.Idempotency(cache, logg))
		}

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(p.Stores, logg))
			r.Post("/", controllers.StoreCreate(p.Stores, logg))

			r.Route("/{storeId}", func(r chi.Router) {
				r.Delete("/", controllers.StoreDelete(p.Stores, logg))
				r.Patch("/credentials", controllers.StoreUpdateCredentials(p.Stores, logg))
				r.Get("/metrics", controllers.StoreMetrics(p.Dashboard, logg))

				syncRoute := r.With()
				if cache != nil {
					syncRoute = r.With(middleware.RateLimit(syncPolicy, cache, logg))
				}
				syncRoute.Post("/sync", controllers.StoreSync(p.Syncer, logg))
			})
		})
	})

	return r
}
