package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/throttle-demo-go/internal/events"
	"github.com/serroba/throttle-demo-go/internal/handlers"
	"github.com/serroba/throttle-demo-go/internal/health"
	"github.com/serroba/throttle-demo-go/internal/messaging"
	"github.com/serroba/throttle-demo-go/internal/middleware"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"go.uber.org/zap"
)

const requestIDLength = 21

// HTTPPackage provides the router and the API with all middleware and
// routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		limiter := do.MustInvoke[*ratelimit.Limiter](i)
		router := do.MustInvoke[*chi.Mux](i)
		publishExceeded := do.MustInvoke[messaging.Publish[events.LimitExceededEvent]](i)

		newID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig(options.ServiceName, "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMetadata(api, newID),
			middleware.Throttle(api, limiter, publishExceeded, logger),
		)

		handlers.RegisterRoutes(api, handlers.NewQuotaHandler(limiter, logger))
		health.RegisterRoutes(api, healthHandler(i, options))

		return api, nil
	})
}

// healthHandler wires checkers for the dependencies the selected
// backend actually uses.
func healthHandler(i *do.Injector, options *Options) *health.Handler {
	var redisChecker, postgresChecker health.Checker

	// The event stream always runs over Redis.
	redisChecker = health.NewRedisChecker(do.MustInvoke[*redis.Client](i))

	if options.Backend == "postgres" {
		if pool, err := do.Invoke[*pgxpool.Pool](i); err == nil {
			postgresChecker = health.NewPostgresChecker(pool)
		}
	}

	return health.NewHandler(redisChecker, postgresChecker)
}
