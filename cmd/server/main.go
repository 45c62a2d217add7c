// Command server runs the party registry service: HTTP API, domain-event
// worker and the periodic snapshot worker, with optional redis, postgres and
// Kafka sinks switched on by configuration.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	electionhandler "partyreg/internal/election/handler"
	electionservice "partyreg/internal/election/service"
	electionstore "partyreg/internal/election/store"
	"partyreg/internal/events"
	httpapi "partyreg/internal/http"
	"partyreg/internal/ledger"
	"partyreg/internal/letters"
	partyhandler "partyreg/internal/party/handler"
	partymetrics "partyreg/internal/party/metrics"
	"partyreg/internal/party/models"
	partyservice "partyreg/internal/party/service"
	partystore "partyreg/internal/party/store"
	"partyreg/internal/platform/config"
	"partyreg/internal/platform/httpserver"
	"partyreg/internal/platform/logger"
	"partyreg/internal/platform/postgres"
	platformredis "partyreg/internal/platform/redis"
	"partyreg/internal/rewards"
	snapshothandler "partyreg/internal/snapshot/handler"
	snapshotmetrics "partyreg/internal/snapshot/metrics"
	snapshotservice "partyreg/internal/snapshot/service"
	snapshotstore "partyreg/internal/snapshot/store"
	"partyreg/internal/verify"
	"partyreg/internal/verify/nullifier"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registryMetrics := partymetrics.New()
	snapMetrics := snapshotmetrics.New()

	// Event pipeline: services emit into a channel, the worker fans out to
	// the configured sinks.
	publisher := events.NewChannelPublisher(256, func() { registryMetrics.EventsDropped.Inc() })
	eventStore := events.NewInMemoryStore()
	sinks := []events.Sink{}

	if cfg.PostgresURL != "" {
		db, err := postgres.OpenSQL(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		archive := events.NewPostgresStore(db)
		if err := archive.Migrate(ctx); err != nil {
			log.Error("event archive migration failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, archive)
	}
	if cfg.KafkaBrokers != "" {
		kafka, err := events.NewKafkaPublisher(ctx, strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		sinks = append(sinks, events.PublisherSink{Publisher: kafka})
	}
	eventSink := events.NewFanout(eventStore, log, sinks...)
	eventWorker := events.NewWorker(eventSink, publisher.Inbox())

	// Verification collaborators. The static verifier and oracle stand in
	// for the external personhood service in single-node deployments.
	verifier := verify.NewStaticVerifier()
	oracle := verify.NewStaticOracle()
	var nullifiers partyservice.NullifierStore = nullifier.NewInMemory()

	var redisClient *platformredis.Client
	if cfg.RedisURL != "" {
		var err error
		redisClient, err = platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		nullifiers = nullifier.NewRedis(redisClient.Client)
	}

	// Registry.
	registry := partystore.NewRegistry()
	policy := models.Policy{
		SingleMembership: cfg.SingleMembership,
		SupportsBan:      cfg.SupportsBan,
		DocumentTier:     cfg.DocumentTier,
	}
	registrySvc := partyservice.New(registry, verifier, policy,
		partyservice.WithLogger(log),
		partyservice.WithMetrics(registryMetrics),
		partyservice.WithPublisher(publisher),
		partyservice.WithOracle(oracle, nullifiers),
	)

	// Snapshot ledger.
	snapLedger := snapshotstore.NewLedger(cfg.SnapshotRetention)
	snapOpts := []snapshotservice.Option{
		snapshotservice.WithLogger(log),
		snapshotservice.WithMetrics(snapMetrics),
	}
	if cfg.PostgresURL != "" {
		pool, err := postgres.OpenPool(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres pool failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive := snapshotstore.NewPostgresArchive(pool)
		if err := archive.Migrate(ctx); err != nil {
			log.Error("snapshot archive migration failed", "error", err)
			os.Exit(1)
		}
		snapOpts = append(snapOpts, snapshotservice.WithArchive(archive))
	}
	snapSvc := snapshotservice.New(registry, snapLedger, snapOpts...)
	snapWorker := snapshotservice.NewWorker(snapSvc, cfg.SnapshotInterval, cfg.SnapshotBatchSize, log)

	// Elections, letters, rewards.
	electionSvc := electionservice.New(electionstore.NewTally(), verifier,
		electionservice.WithLogger(log),
		electionservice.WithPublisher(publisher),
	)
	letterSvc := letters.NewService(letters.NewStore(),
		letters.WithLogger(log),
		letters.WithPublisher(publisher),
	)
	rewardSvc := rewards.NewService(ledger.NewInMemory(), verifier,
		rewards.WithLogger(log),
		rewards.WithPublisher(publisher),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Party:      partyhandler.New(registrySvc, log),
		Snapshot:   snapshothandler.New(snapSvc, log),
		Election:   electionhandler.New(electionSvc, log),
		Letters:    letters.NewHandler(letterSvc, log),
		Rewards:    rewards.NewHandler(rewardSvc, log),
		Events:     events.NewHandler(eventSink),
		AdminToken: cfg.AdminToken,
		SigningKey: []byte(cfg.JWTSigningKey),
		Logger:     log,
		Health: func() error {
			if redisClient == nil {
				return nil
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(pingCtx)
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting registry service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error { return eventWorker.Run(groupCtx) })
	group.Go(func() error { return snapWorker.Run(groupCtx) })
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service stopped", "error", err)
		os.Exit(1)
	}
	log.Info("service stopped")
}
