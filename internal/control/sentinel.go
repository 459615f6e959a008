// Package control wires configuration into the running service: the gas
// oracle, the route tracker, the stream controllers, the hedge retrier, and
// the operational HTTP surface.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/gas"
	"github.com/vietddude/sentinel/internal/hedge"
	redisclient "github.com/vietddude/sentinel/internal/infra/redis"
	"github.com/vietddude/sentinel/internal/infra/storage"
	"github.com/vietddude/sentinel/internal/infra/storage/memory"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
	"github.com/vietddude/sentinel/internal/ops"
	"github.com/vietddude/sentinel/internal/routes"
	"github.com/vietddude/sentinel/internal/stream"
)

// Sentinel is the main application struct that manages component lifecycle.
type Sentinel struct {
	cfg         *config.AppConfig
	oracle      *gas.Oracle
	tracker     *routes.Tracker
	retrier     *hedge.Retrier
	controllers []*stream.Controller
	opsServer   *ops.Server
	journal     storage.EscalationJournal
	routeStore  storage.RouteStore
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Sentinel instance with all dependencies initialized.
func New(cfg *config.AppConfig) (*Sentinel, error) {
	log := slog.Default()

	// 1. Durable stores, optional. Memory stand-ins otherwise.
	var (
		db         *postgres.DB
		journal    storage.EscalationJournal
		routeStore storage.RouteStore
	)

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		journal = postgres.NewEscalationRepo(db)
		log.Info("Using PostgreSQL escalation journal")
	} else {
		journal = memory.NewEscalationJournal()
		log.Info("Using memory escalation journal")
	}

	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, route persistence disabled", "error", err)
			routeStore = memory.NewRouteStore()
		} else {
			routeStore = redisClient
			log.Info("Using Redis route persistence")
		}
	} else {
		routeStore = memory.NewRouteStore()
	}

	// 2. Core components.
	sources, err := gas.BuildSources(cfg.Gas.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to build gas sources: %w", err)
	}
	oracle := gas.NewOracle(sources, cfg.Gas.Oracle, log)

	tracker := routes.NewTracker(cfg.Routes.Tracker, log)
	if reports, err := routeStore.LoadSnapshot(context.Background()); err != nil {
		log.Warn("Failed to load route snapshot", "error", err)
	} else if len(reports) > 0 {
		tracker.Restore(reports)
		log.Info("Restored route snapshot", "routes", len(reports))
	}

	retrier := hedge.NewRetrier(cfg.Hedge, log, hedge.NewJournalEscalator(journal, log))

	// 3. Stream controllers, one per configured feed.
	controllers := make([]*stream.Controller, 0, len(cfg.Stream.Feeds))
	for _, feedCfg := range cfg.Stream.Feeds {
		source := stream.NewWebsocketSource(feedCfg)
		controllers = append(controllers, stream.NewController(
			source,
			eventHandler(log),
			cfg.Stream.Backoff,
			log,
		))
	}

	opsServer := ops.NewServer(tracker, oracle, journal, cfg.Server.Port, log)

	return &Sentinel{
		cfg:         cfg,
		oracle:      oracle,
		tracker:     tracker,
		retrier:     retrier,
		controllers: controllers,
		opsServer:   opsServer,
		journal:     journal,
		routeStore:  routeStore,
		db:          db,
		redisClient: redisClient,
		log:         log,
	}, nil
}

// Oracle returns the shared gas oracle.
func (s *Sentinel) Oracle() *gas.Oracle { return s.oracle }

// Tracker returns the shared route health tracker.
func (s *Sentinel) Tracker() *routes.Tracker { return s.tracker }

// Retrier returns the hedge retrier.
func (s *Sentinel) Retrier() *hedge.Retrier { return s.retrier }

// eventHandler is the default consumer for venue events. The trading engine
// plugs its own handler in when embedding the components directly; the
// service keeps the streams alive and observable.
func eventHandler(log *slog.Logger) stream.Handler {
	return func(ev domain.MarketEvent) {
		log.Debug("market event",
			"venue", ev.Venue,
			"pair", ev.Pair,
			"price", ev.Price,
			"size", ev.Size)
	}
}

// Start launches all components. Non-blocking; Stop shuts them down.
func (s *Sentinel) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Ops server
	go func() {
		if err := s.opsServer.Start(); err != nil {
			s.log.Error("Ops server failed", "error", err)
		}
	}()
	s.log.Info("Ops server listening", "addr", s.opsServer.Addr())

	// Stream controllers
	for _, c := range s.controllers {
		s.wg.Add(1)
		go func(c *stream.Controller) {
			defer s.wg.Done()
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("Stream controller failed", "error", err)
			}
		}(c)
	}

	// Cooldown janitor, only active when the policy is enabled.
	if s.cfg.Routes.Tracker.Cooldown > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tracker.RunCooldown(ctx, time.Minute)
		}()
	}

	// Route snapshot persistence.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSnapshotLoop(ctx)
	}()

	return nil
}

// Stop shuts everything down, persisting a final route snapshot.
func (s *Sentinel) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err := s.routeStore.SaveSnapshot(ctx, s.tracker.Report()); err != nil {
		s.log.Warn("Failed to save final route snapshot", "error", err)
	}

	if err := s.opsServer.Stop(ctx); err != nil {
		s.log.Warn("Ops server shutdown failed", "error", err)
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return nil
}

// runSnapshotLoop persists the route report on an interval so blacklists
// survive a crash, not just a clean shutdown.
func (s *Sentinel) runSnapshotLoop(ctx context.Context) {
	interval := s.cfg.Routes.SnapshotInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.routeStore.SaveSnapshot(saveCtx, s.tracker.Report()); err != nil {
				s.log.Warn("Failed to save route snapshot", "error", err)
			}
			cancel()
		}
	}
}
