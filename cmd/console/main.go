package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"collections_console/internal/analysis"
	"collections_console/internal/callbridge"
	"collections_console/internal/cases"
	"collections_console/internal/events"
	apphttp "collections_console/internal/http"
	"collections_console/internal/http/router"
	"collections_console/internal/ledger"
	"collections_console/internal/payments"
	"collections_console/internal/scheduler"
	"collections_console/internal/session"
	"collections_console/platform/config"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"
	"collections_console/platform/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting collections console", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	client := ledger.New(cfg.LedgerBaseURL, cfg.LedgerTimeout, log, ledger.WithMetrics(m))

	// ========================================================================
	// Session layer (redis persistence is optional)
	// ========================================================================

	var stateStore session.StateStore
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			panic("invalid REDIS_URL: " + err.Error())
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
		stateStore = session.NewRedisStore(rdb)
	} else {
		log.Warn("REDIS_URL not configured; session state will not survive restarts")
	}

	sess := session.New(client, stateStore, eventBus, log, m)
	if cfg.CallerID != "" {
		sess.SetCallerID(ctx, cfg.CallerID)
	}

	store := cases.NewStore(client, sess, cfg.RefreshInterval, eventBus, log, m)
	caseSvc := cases.NewService(store, client, sess, eventBus, log)
	casesModule := cases.NewModule(store, caseSvc, eventBus, val)

	// Restore after the polling subscriptions exist, so a restored
	// session starts the poll loop like a fresh login would.
	if err := sess.Restore(ctx); err != nil {
		log.Warn("session restore failed", "error", err.Error())
	}

	orchestrator := analysis.NewOrchestrator(store, client, sess, eventBus, log, m,
		cfg.BatchConcurrency, cfg.AnalyzeTimeout, cfg.AnalyzeRate)

	// ========================================================================
	// Call bridge, post-call resync, payments
	// ========================================================================

	var resync callbridge.Resyncer
	var worker *scheduler.Worker
	if cfg.RedisURL != "" {
		schedClient, err := scheduler.NewClient(cfg)
		if err != nil {
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer schedClient.Close()
		resync = schedClient

		worker, err = scheduler.NewWorker(cfg, store, log)
		if err != nil {
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		go worker.Run(ctx)
	} else {
		resync = scheduler.NewTimerResync(store, log)
	}

	capability := callbridge.StaticCapability(true)
	signaler := callbridge.NewWSSignaler(cfg.SignalingURL, log)
	bridge := callbridge.New(capability, signaler, client, sess, store, resync,
		cfg.ResyncDelay, eventBus, log, m)

	paymentSvc := payments.NewService(client, sess, store, eventBus, log, m)

	// ========================================================================
	// HTTP layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Session:  sess,
		EventBus: eventBus,
		Registry: registry,
		Modules: []apphttp.Module{
			session.NewModule(sess, val),
			casesModule,
			analysis.NewModule(orchestrator),
			callbridge.NewModule(bridge, val),
			payments.NewModule(paymentSvc),
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Hang up any live call so the capability is released before
		// the process exits.
		if err := bridge.EndCall(shutdownCtx); err != nil && !errors.Is(err, callbridge.ErrNoCall) {
			log.Warn("call teardown on shutdown failed", "error", err.Error())
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
