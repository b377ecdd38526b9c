// Package app wires configuration into stores and the engine service.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wealth-planner/internal/config"
	"wealth-planner/internal/engine"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/observability"
	"wealth-planner/internal/portfolio"
	"wealth-planner/internal/rescue"
	"wealth-planner/internal/status"
	"wealth-planner/internal/storage"
	chstore "wealth-planner/internal/storage/clickhouse"
	"wealth-planner/internal/storage/memory"
	"wealth-planner/internal/storage/migrations"
	pgstore "wealth-planner/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Goals       storage.GoalStore
	Allocations storage.AllocationStore
	Simulations storage.SimulationResultStore
	Snapshots   storage.HistorySnapshotStore
}

// OpenStores creates the configured stores: in-memory, or Postgres for goals,
// allocations and simulation results plus ClickHouse for history snapshots.
// The returned cleanup closes any connections.
func OpenStores(ctx context.Context, cfg config.StorageConfig, l *zap.Logger) (*Stores, func(), error) {
	l = logger.OrNop(l)

	if cfg.UseMemory {
		l.Info("using in-memory storage")
		return &Stores{
			Goals:       memory.NewGoalStore(),
			Allocations: memory.NewAllocationStore(),
			Simulations: memory.NewSimulationResultStore(),
			Snapshots:   memory.NewHistorySnapshotStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.RunMigrations {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		l.Info("postgres migrations applied", zap.Strings("files", applied))
	}

	// ClickHouse
	var chConn *chstore.Conn
	if cfg.RunMigrations {
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err == nil {
			l.Info("clickhouse migrations applied")
		}
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &Stores{
		// PostgreSQL stores
		Goals:       pgstore.NewGoalStore(pool),
		Allocations: pgstore.NewAllocationStore(pool),
		Simulations: pgstore.NewSimulationResultStore(pool),

		// ClickHouse stores
		Snapshots: chstore.NewHistorySnapshotStore(chConn),
	}

	cleanup := func() {
		if err := chConn.Close(); err != nil {
			l.Warn("close clickhouse", zap.Error(err))
		}
		pool.Close()
	}
	return stores, cleanup, nil
}

// NewSimulator builds the Monte Carlo engine from configuration.
func NewSimulator(cfg config.SimulationConfig) *montecarlo.Engine {
	return montecarlo.NewEngine(montecarlo.Config{
		Workers:   cfg.Workers,
		ChunkSize: cfg.ChunkSize,
		MaxPaths:  cfg.MaxPaths,
		Band:      cfg.Band(),
	})
}

// NewPortfolio returns the configured allocation provider. The store source
// returns nil so the service reads its own allocation store.
func NewPortfolio(cfg config.PortfolioConfig, l *zap.Logger) (portfolio.Provider, error) {
	if cfg.Source != config.PortfolioSourceHTTP {
		return nil, nil
	}
	p, err := portfolio.NewHTTPProvider(portfolio.HTTPProviderOptions{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Breaker: cfg.BreakerConfig(),
		Logger:  l,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewService builds the engine service over stores.
func NewService(cfg *config.Config, stores *Stores, metrics *observability.Metrics, l *zap.Logger) (*engine.Service, error) {
	sim := NewSimulator(cfg.Simulation)

	provider, err := NewPortfolio(cfg.Portfolio, l)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		Goals:         stores.Goals,
		Allocations:   stores.Allocations,
		Simulations:   stores.Simulations,
		Snapshots:     stores.Snapshots,
		Portfolio:     provider,
		Simulator:     sim,
		Classifier:    status.NewClassifier(cfg.Status.Policy()),
		Rescue:        rescue.NewGenerator(sim, cfg.Rescue.Policy()),
		Metrics:       metrics,
		Logger:        l,
		DefaultPaths:  cfg.Simulation.DefaultPaths,
		MinPaths:      cfg.Simulation.MinPaths,
		Timeout:       cfg.Simulation.Timeout,
		DegradeFactor: cfg.Simulation.DegradeFactor,
	}), nil
}
