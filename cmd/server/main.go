// Command server wires the circulation engine and exposes it over HTTP.
// Business logic lives in the internal service packages; main only builds
// dependencies and owns the process lifecycle.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	catalogservice "folio/internal/catalog/service"
	catalogstore "folio/internal/catalog/store"
	inventorymetrics "folio/internal/inventory/metrics"
	inventoryservice "folio/internal/inventory/service"
	inventorystore "folio/internal/inventory/store"
	loanmetrics "folio/internal/loan/metrics"
	loanmodels "folio/internal/loan/models"
	loanservice "folio/internal/loan/service"
	loanstore "folio/internal/loan/store"
	"folio/internal/loan/sweeper"
	"folio/internal/notification"
	notificationkafka "folio/internal/notification/kafka"
	"folio/internal/platform/config"
	"folio/internal/platform/httpserver"
	"folio/internal/platform/logger"
	"folio/internal/platform/postgres"
	platformredis "folio/internal/platform/redis"
	restrictioncache "folio/internal/restriction/cache"
	restrictionservice "folio/internal/restriction/service"
	httptransport "folio/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: durable when postgres is configured, in-memory otherwise.
	var (
		items  catalogservice.ItemStore
		copies inventoryservice.CopyStore
		loans  loanservice.LoanStore
	)
	if cfg.PostgresURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Error("postgres schema failed", "error", err)
			os.Exit(1)
		}
		items = catalogstore.NewPostgres(pool)
		copies = inventorystore.NewPostgres(pool)
		loans = loanstore.NewPostgres(pool)
	} else {
		items = catalogstore.NewInMemory()
		copies = inventorystore.NewInMemory()
		loans = loanstore.NewInMemory()
	}

	// Notification pipeline: services publish into a channel, a worker
	// drains it into the configured sink.
	inbox := notification.NewChannelPublisher(1024)
	var sink notification.Publisher = notification.NewMemorySink()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := notificationkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka publisher failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	worker := notification.NewWorker(sink, inbox.Inbox(), log)

	catalog := catalogservice.New(items, catalogservice.WithLogger(log))
	inventory := inventoryservice.New(copies, catalog,
		inventoryservice.WithLogger(log),
		inventoryservice.WithMetrics(inventorymetrics.New()),
	)

	restrictionOpts := []restrictionservice.Option{restrictionservice.WithLogger(log)}
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		restrictionOpts = append(restrictionOpts,
			restrictionservice.WithCache(restrictioncache.New(redisClient.Client, cfg.RestrictionCacheTTL, log)))
	}

	restrictions := restrictionservice.New(loans, restrictionservice.Config{
		GraceDays:             cfg.GraceDays,
		PenaltyThresholdCents: loanmodels.Amount(cfg.PenaltyThresholdCents),
	}, restrictionOpts...)
	ledger := loanservice.New(loans, inventory, restrictions, loanmodels.Amount(cfg.DailyRateCents),
		loanservice.WithLogger(log),
		loanservice.WithMetrics(loanmetrics.New()),
		loanservice.WithEventPublisher(inbox),
	)

	overdueSweeper := sweeper.New(loans, inbox, cfg.SweepInterval, log)

	handler := httptransport.NewHandler(catalog, inventory, ledger, restrictions,
		time.Duration(cfg.DefaultLoanPeriodDays)*24*time.Hour)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Info("starting folio", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return ignoreCanceled(worker.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(overdueSweeper.Run(gctx)) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
