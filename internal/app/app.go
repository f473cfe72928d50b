package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/ticket-marketplace/external/exchangerate"
	"github.com/riskibarqy/ticket-marketplace/external/hellotickets"
	"github.com/riskibarqy/ticket-marketplace/external/p1feed"
	"github.com/riskibarqy/ticket-marketplace/external/sportmonks"
	"github.com/riskibarqy/ticket-marketplace/internal/config"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/lock"
	"github.com/riskibarqy/ticket-marketplace/internal/interfaces/httpapi"
	"github.com/riskibarqy/ticket-marketplace/internal/metrics"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/resilience"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
	"github.com/riskibarqy/ticket-marketplace/internal/worker"
)

// App owns every long-lived dependency of the worker process. Commands
// build one, use the parts they need and Close it.
type App struct {
	Config config.Config
	Logger *logging.Logger
	Repos  Repositories

	PriceSync      *usecase.PriceSyncService
	FeedPrices     *usecase.FeedPriceService
	ScheduleImport *usecase.ScheduleImportService
	Reversed       *usecase.ReversedFixtureService

	PriceWorker *worker.PriceWorker
	FeedWorker  *worker.FeedWorker

	Metrics  *metrics.Registry
	registry *prometheus.Registry
	db       *sqlx.DB
	redis    redis.UniversalClient
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Repos: repos, db: db}

	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	clock := clockwork.NewRealClock()
	ids := id.NewUUIDGenerator()

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewRegistry(a.registry)

	locker, err := a.newLocker(ctx, clock)
	if err != nil {
		return err
	}

	remap, err := usecase.LoadVenueRemapFile(cfg.VenueRemapFile)
	if err != nil {
		return err
	}
	brands := usecase.BrandMapping{}
	if cfg.P1BrandMappingFile != "" {
		brands, err = usecase.LoadBrandMappingFile(cfg.P1BrandMappingFile)
		if err != nil {
			return err
		}
	}

	tolerance := usecase.FixtureTolerance{Default: cfg.FixtureTolerance, ByProvider: cfg.FixtureToleranceByProvider}
	teamResolver := usecase.NewTeamResolver(a.Repos.Teams, usecase.TeamResolverOptions{
		MinContainmentLength: cfg.MinContainmentLength,
	})
	fixtureResolver := usecase.NewFixtureResolver(a.Repos.Fixtures, tolerance)
	venueResolver := usecase.NewVenueResolver(a.Repos.Venues, a.Repos.Teams, usecase.VenueResolverOptions{
		PrimaryProvider:      cfg.PrimaryVenueProvider,
		Remap:                remap,
		MinContainmentLength: cfg.MinContainmentLength,
	})
	mapping := usecase.NewSupplierMappingService(a.Repos.Teams, a.Repos.Fixtures, a.Logger)

	rates := exchangerate.NewClient(exchangerate.ClientConfig{
		BaseURL:   cfg.ExchangeRateBaseURL,
		AccessKey: cfg.ExchangeRateAccessKey,
		Timeout:   cfg.ExchangeRateTimeout,
		CacheTTL:  cfg.ExchangeRateCacheTTL,
		Logger:    a.Logger,
	})
	minPrice := usecase.NewMinPriceService(a.Repos.Fixtures, a.Repos.Offers, rates, clock, a.Logger)

	tickets := hellotickets.NewClient(hellotickets.ClientConfig{
		BaseURL:    cfg.HelloTicketsBaseURL,
		PublicKey:  cfg.HelloTicketsPublicKey,
		Timeout:    cfg.HelloTicketsTimeout,
		MaxRetries: cfg.HelloTicketsMaxRetries,
		Logger:     a.Logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.HelloTicketsCircuitEnabled,
			FailureThreshold: cfg.HelloTicketsCircuitFailureCount,
			OpenTimeout:      cfg.HelloTicketsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.HelloTicketsCircuitHalfOpenMaxReq,
		},
	})
	a.PriceSync = usecase.NewPriceSyncService(
		a.Repos.Suppliers,
		a.Repos.Leagues,
		a.Repos.Teams,
		a.Repos.Fixtures,
		a.Repos.Offers,
		tickets,
		mapping,
		minPrice,
		tolerance,
		clock,
		usecase.PriceSyncConfig{
			SupplierSlug:    cfg.HelloTicketsSupplierSlug,
			Provider:        usecase.ProviderHelloTickets,
			AffiliateParams: cfg.HelloTicketsAffiliateParams,
			PageSize:        cfg.PricePageSize,
			CallInterval:    cfg.PriceCallInterval,
			LeagueInterval:  cfg.PriceLeagueInterval,
		},
		a.Logger,
	)

	a.FeedPrices = usecase.NewFeedPriceService(
		a.Repos.Suppliers,
		a.Repos.Teams,
		a.Repos.Offers,
		teamResolver,
		fixtureResolver,
		mapping,
		minPrice,
		brands,
		clock,
		usecase.FeedPriceConfig{
			SupplierSlug:    cfg.P1SupplierSlug,
			Provider:        usecase.ProviderP1,
			AffiliatePrefix: cfg.P1AffiliatePrefix,
			ResolveWorkers:  cfg.P1ResolveWorkers,
		},
		a.Logger,
	)

	if cfg.SportMonksEnabled {
		schedule := sportmonks.NewClient(sportmonks.ClientConfig{
			BaseURL:    cfg.SportMonksBaseURL,
			Token:      cfg.SportMonksToken,
			Timeout:    cfg.SportMonksTimeout,
			MaxRetries: cfg.SportMonksMaxRetries,
			Logger:     a.Logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SportMonksCircuitEnabled,
				FailureThreshold: cfg.SportMonksCircuitFailureCount,
				OpenTimeout:      cfg.SportMonksCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SportMonksCircuitHalfOpenMaxReq,
			},
		})
		a.ScheduleImport = usecase.NewScheduleImportService(
			schedule,
			a.Repos.Leagues,
			a.Repos.Teams,
			a.Repos.Venues,
			a.Repos.Fixtures,
			teamResolver,
			venueResolver,
			fixtureResolver,
			usecase.ScheduleImportConfig{
				SeasonIDByLeague: cfg.SportMonksSeasonIDByLeague,
				Provider:         usecase.ProviderSportmonks,
			},
			a.Logger,
		)
	}

	a.Reversed = usecase.NewReversedFixtureService(
		a.Repos.Leagues,
		a.Repos.Teams,
		a.Repos.Fixtures,
		fixtureResolver,
		mapping,
		clock,
		a.Logger,
	)

	a.PriceWorker = worker.NewPriceWorker(a.PriceSync, a.Repos.WorkerRuns, locker, ids, a.Metrics, clock, worker.PriceWorkerConfig{
		Leagues:    cfg.PriceUpdateLeagues,
		Schedule:   cfg.WorkerSchedule,
		Location:   cfg.WorkerLocation,
		LeaseTTL:   cfg.WorkerLeaseTTL,
		RunTimeout: cfg.WorkerRunTimeout,
		OutputPath: cfg.WorkerOutputPath,
	}, a.Logger)

	var feedSource usecase.FeedSource
	if cfg.P1FeedURL != "" {
		feedSource = p1feed.NewURLSource(p1feed.URLSourceConfig{
			URL:        cfg.P1FeedURL,
			Timeout:    cfg.P1FeedTimeout,
			MaxRetries: cfg.P1FeedMaxRetries,
			Logger:     a.Logger,
		})
	}
	a.FeedWorker = worker.NewFeedWorker(a.FeedPrices, feedSource, a.Repos.WorkerRuns, locker, ids, a.Metrics, clock, worker.FeedWorkerConfig{
		Schedule:   cfg.FeedSyncSchedule,
		Location:   cfg.WorkerLocation,
		LeaseTTL:   cfg.WorkerLeaseTTL,
		RunTimeout: cfg.WorkerRunTimeout,
	}, a.Logger)

	return nil
}

// newLocker shares the run lease through Redis when an address is set, so
// two hosts never run the same worker at once. Otherwise the lease is local.
func (a *App) newLocker(ctx context.Context, clock clockwork.Clock) (worker.Locker, error) {
	cfg := a.Config
	if cfg.WorkerLockRedisAddr == "" {
		return lock.NewLocalLocker(clock), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.WorkerLockRedisAddr,
		Password: cfg.WorkerLockRedisPassword,
		DB:       cfg.WorkerLockRedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping lock redis: %v", usecase.ErrDependencyUnavailable, err)
	}
	a.redis = client
	a.Logger.Info("worker lease uses redis", "addr", cfg.WorkerLockRedisAddr)
	return lock.NewRedisLocker(client, cfg.WorkerLockKeyPrefix), nil
}

// NewHTTPServer builds the status server. /metrics is served only when
// metrics are enabled.
func (a *App) NewHTTPServer() (*http.Server, error) {
	if a.Config.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var metricsHandler http.Handler
	if a.Config.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}

	handler := httpapi.NewHandler(a.PriceWorker, a.FeedWorker, a.Repos.WorkerRuns, a.Logger)
	router := httpapi.NewRouter(handler, metricsHandler, a.Logger, a.Config.CORSAllowedOrigins, a.Config.InternalJobToken)

	return &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.Config.ReadTimeout,
		WriteTimeout: a.Config.WriteTimeout,
	}, nil
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
