package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/repository"
	esrepo "github.com/utafrali/storefront/internal/repository/elasticsearch"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
)

// Storage is an opened catalog backend. Exactly one of Pool and Elastic is
// set for the persistent backends; both are nil for memory.
type Storage struct {
	Backend string
	Repo    repository.ProductRepository

	Pool     *pgxpool.Pool
	Postgres *postgres.ProductRepository
	Elastic  *esrepo.ProductRepository
}

// OpenStorage connects the backend named by backend. Postgres migrations run
// only when migrate is set.
func OpenStorage(ctx context.Context, cfg *config.Config, backend string, migrate bool, logger *slog.Logger) (*Storage, error) {
	s := &Storage{Backend: backend}

	switch backend {
	case config.BackendPostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", pgCfg.Host),
			slog.Int("port", pgCfg.Port),
			slog.String("database", pgCfg.DBName),
		)

		if migrate {
			if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations completed")
		}

		s.Pool = pool
		s.Postgres = postgres.NewProductRepository(pool)
		s.Repo = s.Postgres

	case config.BackendElasticsearch:
		es, err := esrepo.New(esrepo.Config{
			Addresses: cfg.ElasticsearchURLs,
			Index:     cfg.ElasticsearchIndex,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("ensure elasticsearch index: %w", err)
		}
		logger.Info("elasticsearch catalog index ready",
			slog.Any("addresses", cfg.ElasticsearchURLs),
			slog.String("index", cfg.ElasticsearchIndex),
		)

		s.Elastic = es
		s.Repo = es

	case config.BackendMemory:
		s.Repo = memory.NewProductRepository()
		logger.Warn("in-memory catalog storage; data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	return s, nil
}

// Ping checks the backend connection.
func (s *Storage) Ping(ctx context.Context) error {
	switch {
	case s.Pool != nil:
		return s.Pool.Ping(ctx)
	case s.Elastic != nil:
		return s.Elastic.Ping(ctx)
	}
	return nil
}

// RegisterMetrics exports pool statistics for the postgres backend.
func (s *Storage) RegisterMetrics(reg prometheus.Registerer, service string) error {
	if s.Pool == nil {
		return nil
	}
	return database.RegisterPoolMetrics(reg, s.Pool, service)
}

// Close releases backend connections.
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
