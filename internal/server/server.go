package server

import (
	"context"
	"crypto/rand"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dwarvesf/bridge-relayer/internal/attestation"
	"github.com/dwarvesf/bridge-relayer/internal/consts"
	"github.com/dwarvesf/bridge-relayer/internal/controller"
	"github.com/dwarvesf/bridge-relayer/internal/handler"
	"github.com/dwarvesf/bridge-relayer/internal/issuer"
	"github.com/dwarvesf/bridge-relayer/internal/mint"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/monitoring"
	"github.com/dwarvesf/bridge-relayer/internal/quote"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/store"
	httptransport "github.com/dwarvesf/bridge-relayer/internal/transport/http"
	"github.com/dwarvesf/bridge-relayer/internal/utils/config"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/utils/serial"
	"github.com/dwarvesf/bridge-relayer/internal/utils/webhook"
	"github.com/dwarvesf/bridge-relayer/internal/verifier"
)

const signerQueueKey = "attestation"

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)
	defer logger.Sync()

	if err := appConfig.Validate(); err != nil {
		logger.Fatal("[Server][Init] invalid config", map[string]string{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Load(appConfig.Registry.Path)
	if err != nil {
		logger.Fatal("[Server][Init] load registry", map[string]string{"error": err.Error()})
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(metricsRegistry)
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(metricsRegistry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(metricsRegistry)
	intentMetrics := monitoring.NewIntentMetrics()
	intentMetrics.MustRegister(metricsRegistry)
	businessMetrics := monitoring.NewBusinessMetricsRecorder(httpMetrics)

	db, s, closeStore := openStore(ctx, appConfig, logger)
	defer closeStore()

	adapters, err := buildAdapters(ctx, appConfig, reg, apiMetrics, logger)
	if err != nil {
		logger.Fatal("[Server][Init] build chain adapters", map[string]string{"error": err.Error()})
	}

	vc, err := newVaultClient(ctx, appConfig)
	if err != nil {
		logger.Fatal("[Server][Init] vault login", map[string]string{"error": err.Error()})
	}
	keyStore, err := buildKeyStore(appConfig, vc, logger)
	if err != nil {
		logger.Fatal("[Server][Init] key custody", map[string]string{"error": err.Error()})
	}
	signer, err := buildSigner(ctx, appConfig, keyStore, vc)
	if err != nil {
		logger.Fatal("[Server][Init] attestation signer", map[string]string{"error": err.Error()})
	}
	executor, err := buildExecutor(ctx, appConfig, keyStore, logger)
	if err != nil {
		logger.Fatal("[Server][Init] sui executor", map[string]string{"error": err.Error()})
	}

	pricer, err := quote.NewFromPercent(reg, appConfig.Pricing.OutputPercent, appConfig.Pricing.MinOutputPercent)
	if err != nil {
		logger.Fatal("[Server][Init] pricer", map[string]string{"error": err.Error()})
	}

	// one queue per signing identity, the attestation key and the executor account never share one
	queues := serial.NewGroup(64)
	defer queues.Close()

	ctrl := controller.New(controller.Deps{
		Registry: reg,
		Pricer:   pricer,
		Issuer:   issuer.New(rand.Reader, logger),
		KeyStore: keyStore,
		Intents:  s.Intent,
		Verifier: verifier.New(adapters, logger),
		Attestor: attestation.New(signer, queues.For(signerQueueKey), logger),
		Submitter: mint.New(executor, queues.For(executor.Address()), s.MintLedger, reg, mint.Config{
			PackageID: appConfig.Sui.BridgePackageID,
			StateID:   appConfig.Sui.BridgeStateID,
			GasBudget: appConfig.Sui.GasBudget,
			Timeout:   appConfig.Timeouts.Submission,
		}, logger),
		Observer: intentMetrics,
	}, controller.Options{
		VerifyTimeout: appConfig.Timeouts.ChainRequest,
		BatchSize:     appConfig.Reconcile.BatchSize,
	}, logger)

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics)

	// runs are cut short by the signal context, so stopping cron below does not wait out the timeout
	reconcile := monitoring.NewInstrumentedJob(ctx, consts.ReconcileJobName, func(ctx context.Context) error {
		start := time.Now()
		publishBacklog(ctx, s, jobMetrics, appConfig.Reconcile.BatchSize, logger)

		err := ctrl.ReconcilePending(ctx)
		status := "success"
		if err != nil {
			status = "error"
		}
		businessMetrics.RecordReconcile(status, time.Since(start).Seconds())
		return err
	}, jobStatusManager, logger, appConfig.Reconcile.Timeout).
		WithHeartbeat(webhook.New(appConfig.Reconcile.UptimeWebhookURL, logger))

	c := cron.New()
	if _, err := c.AddJob(appConfig.Reconcile.Schedule, reconcile); err != nil {
		logger.Fatal("[Server][Init] schedule reconciliation", map[string]string{
			"schedule": appConfig.Reconcile.Schedule,
			"error":    err.Error(),
		})
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	h := handler.New(appConfig, logger, ctrl, reg, adapters, db, metricsRegistry, businessMetrics, jobStatusManager)
	srv := &http.Server{
		Addr:    ":" + appConfig.ApiServer.Port,
		Handler: httptransport.NewHttpServer(appConfig, logger, h, httpMetrics),
	}

	go func() {
		logger.Info("[Server][Init] listening", map[string]string{"port": appConfig.ApiServer.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("[Server][Init] http server stopped", map[string]string{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[Server][Init] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Server][Init] http shutdown", map[string]string{"error": err.Error()})
	}
}

// openStore returns a nil *gorm.DB for the memory driver.
func openStore(ctx context.Context, appConfig *config.AppConfig, logger *logger.Logger) (*gorm.DB, *store.Store, func()) {
	if appConfig.Store.Driver == "memory" {
		logger.Warn("[Server][openStore] using in-memory store, intents are lost on restart")
		return nil, store.NewMemory(), func() {}
	}

	db, err := store.NewPostgresStore(appConfig, logger)
	if err != nil {
		logger.Fatal("[Server][openStore] postgres", map[string]string{"error": err.Error()})
	}
	pool, err := store.NewPgxPool(ctx, appConfig, logger)
	if err != nil {
		logger.Fatal("[Server][openStore] pgx pool", map[string]string{"error": err.Error()})
	}

	return db, store.New(db, pool), func() {
		pool.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func publishBacklog(ctx context.Context, s *store.Store, metrics *monitoring.BackgroundJobMetrics, limit int, logger *logger.Logger) {
	pending, err := s.Intent.ListByStatus(ctx, model.NonTerminalIntentStatuses, limit)
	if err != nil {
		logger.Warn("[Server][publishBacklog]", map[string]string{"error": err.Error()})
		return
	}

	counts := make(map[model.IntentStatus]int, len(model.NonTerminalIntentStatuses))
	for _, i := range pending {
		counts[i.Status]++
	}
	metrics.SetPendingIntents(counts)

	if len(pending) > 0 {
		logger.Debug("[Server][publishBacklog]", map[string]string{"pending": strconv.Itoa(len(pending))})
	}
}
