package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"github.com/serroba/throttle-demo-go/internal/store"
)

// RedisPackage provides the shared Redis client. The client backs the
// redis store, the event stream, and the health check, so it exists for
// every backend.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool. Only invoked when the postgres
// backend is selected.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return nil, errors.New("postgres backend selected but no connection string given")
		}

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// StorePackage provides the rate limit store selected by the backend
// option.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		options := do.MustInvoke[*Options](i)

		switch options.Backend {
		case "memory":
			return store.NewMemoryStore(), nil
		case "redis":
			return store.NewRedisStore(do.MustInvoke[*redis.Client](i)), nil
		case "postgres":
			pool, err := do.Invoke[*pgxpool.Pool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool), nil
		default:
			return nil, fmt.Errorf("unknown backend %q", options.Backend)
		}
	})
}

// LimiterPackage provides the limiter over the selected store.
func LimiterPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)
		limitStore := do.MustInvoke[ratelimit.Store](i)

		return ratelimit.New(
			limitStore,
			options.MaxAttempts,
			time.Duration(options.DecaySeconds)*time.Second,
		)
	})
}
