package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/config"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/teamembedding"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	cacherepo "github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/ticket-marketplace/internal/platform/cache"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

// Repositories groups every store the services read and write.
type Repositories struct {
	Suppliers  supplier.Repository
	Leagues    league.Repository
	Teams      team.Repository
	Venues     venue.Repository
	Fixtures   fixture.Repository
	Offers     offer.Repository
	WorkerRuns workerrun.Repository
	Embeddings teamembedding.Repository
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dbu := parseDBURL(cfg.DBURL)
	dsn := dbu.DSN(cfg.DBDisablePreparedBinary)
	opts := []otelsql.Option{
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbu.Name(); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func newMemoryRepositories() Repositories {
	return Repositories{
		Suppliers:  memory.NewSupplierRepository(memory.SeedSuppliers()),
		Leagues:    memory.NewLeagueRepository(memory.SeedLeagues()),
		Teams:      memory.NewTeamRepository(memory.SeedTeams()),
		Venues:     memory.NewVenueRepository(memory.SeedVenues()),
		Fixtures:   memory.NewFixtureRepository(memory.SeedFixtures()),
		Offers:     memory.NewOfferRepository(nil),
		WorkerRuns: memory.NewWorkerRunRepository(),
		Embeddings: memory.NewTeamEmbeddingRepository(),
	}
}

func newPostgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Suppliers:  postgres.NewSupplierRepository(db),
		Leagues:    postgres.NewLeagueRepository(db),
		Teams:      postgres.NewTeamRepository(db),
		Venues:     postgres.NewVenueRepository(db),
		Fixtures:   postgres.NewFixtureRepository(db),
		Offers:     postgres.NewOfferRepository(db),
		WorkerRuns: postgres.NewWorkerRunRepository(db),
		Embeddings: postgres.NewTeamEmbeddingRepository(db),
	}
}

// withCache puts the read-through decorators in front of the catalog
// repositories the resolvers scan on every fixture.
func withCache(repos Repositories, ttl time.Duration) Repositories {
	store := basecache.NewStore(ttl)
	repos.Leagues = cacherepo.NewLeagueRepository(repos.Leagues, store)
	repos.Teams = cacherepo.NewTeamRepository(repos.Teams, store)
	repos.Venues = cacherepo.NewVenueRepository(repos.Venues, store)
	return repos
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (Repositories, *sqlx.DB, error) {
	var (
		repos Repositories
		db    *sqlx.DB
	)

	switch cfg.Storage {
	case config.StorageMemory:
		repos = newMemoryRepositories()
		logger.Info("storage ready", "storage", cfg.Storage)
	default:
		var err error
		db, err = openDB(ctx, cfg)
		if err != nil {
			return Repositories{}, nil, err
		}
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return Repositories{}, nil, err
		}
		repos = newPostgresRepositories(db)
		dbu := parseDBURL(cfg.DBURL)
		logger.Info("storage ready", "storage", cfg.Storage, "db_host", dbu.Host(), "db_name", dbu.Name())
	}

	if cfg.CacheEnabled {
		repos = withCache(repos, cfg.CacheTTL)
	}
	return repos, db, nil
}
