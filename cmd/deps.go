package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dnx-plataformas/crm-leads/internal/extraction"
	"github.com/dnx-plataformas/crm-leads/internal/importer"
	"github.com/dnx-plataformas/crm-leads/internal/lock"
	"github.com/dnx-plataformas/crm-leads/internal/resilience"
	"github.com/dnx-plataformas/crm-leads/internal/store"
	"github.com/dnx-plataformas/crm-leads/pkg/databroker"
)

// env bundles the services a command needs.
type env struct {
	Store      store.Store
	Importer   *importer.Importer
	Extraction *extraction.Service
	closers    []func() error
}

// Close releases the store and Redis connections.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close dependency", zap.Error(err))
		}
	}
}

// initStore opens the configured store, retrying while the database is
// still coming up.
func initStore(ctx context.Context) (store.Store, error) {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("store", "connect")

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
		switch cfg.Store.Driver {
		case "sqlite":
			dsn := cfg.Store.DatabaseURL
			if dsn == "" {
				dsn = "crm-leads.db"
			}
			return store.NewSQLite(dsn)
		case "postgres":
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		default:
			return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
		}
	})
}

// initLocker returns the Redis tenant lock when redis.url is set.
func initLocker(ctx context.Context) (lock.Locker, func() error, error) {
	if cfg.Redis.URL == "" {
		return lock.Noop{}, func() error { return nil }, nil
	}
	locker, client, err := lock.NewRedis(cfg.Redis.URL, time.Duration(cfg.Redis.LockTTLSecs)*time.Second)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, eris.Wrap(err, "redis: ping")
	}
	return locker, client.Close, nil
}

// clientFactory builds provider clients that share one HTTP client and one
// rate limiter.
func clientFactory() extraction.ClientFactory {
	hc := &http.Client{Timeout: time.Duration(cfg.DataBroker.TimeoutSecs) * time.Second}
	limit := rate.Inf
	if cfg.DataBroker.RatePerSec > 0 {
		limit = rate.Limit(cfg.DataBroker.RatePerSec)
	}
	limiter := rate.NewLimiter(limit, 1)
	return func(apiKey string) databroker.Client {
		return databroker.NewClient(apiKey,
			databroker.WithBaseURL(cfg.DataBroker.BaseURL),
			databroker.WithHTTPClient(hc),
			databroker.WithLimiter(limiter),
		)
	}
}

func newPoller() *extraction.Poller {
	return extraction.NewPoller(
		extraction.WithPollInterval(time.Duration(cfg.Extraction.PollIntervalSecs)*time.Second),
		extraction.WithMaxAttempts(cfg.Extraction.MaxPollAttempts),
	)
}

// initEnv validates the config for mode and wires the store, lock, importer
// and extraction service.
func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	e := &env{Store: st, closers: []func() error{st.Close}}

	locker, closeLocker, err := initLocker(ctx)
	if err != nil {
		e.Close()
		return nil, eris.Wrap(err, "init lock")
	}
	e.closers = append(e.closers, closeLocker)

	e.Importer = importer.New(st, locker)
	e.Extraction = extraction.NewService(st, e.Importer, clientFactory(),
		extraction.WithDefaultAPIKey(cfg.DataBroker.APIKey),
		extraction.WithPoller(newPoller()),
	)
	return e, nil
}
