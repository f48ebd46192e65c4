// Command core is the migrationguard pipeline's single binary: it wires
// every subsystem (signal ingestion, pattern detection, root cause
// analysis, decision making, action execution) behind the HTTP API and
// runs the periodic pattern-detection loop alongside it, mirroring the
// teacher's single-process cmd/tarsy layout. It does not drain the
// degraded-mode signal buffer: Ingester.DrainBuffer is never called.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/migrationguard/core/pkg/api"
	"github.com/migrationguard/core/pkg/audit"
	"github.com/migrationguard/core/pkg/cachestore"
	"github.com/migrationguard/core/pkg/circuitbreaker"
	"github.com/migrationguard/core/pkg/config"
	"github.com/migrationguard/core/pkg/configmgr"
	"github.com/migrationguard/core/pkg/database"
	"github.com/migrationguard/core/pkg/decision"
	"github.com/migrationguard/core/pkg/degradation"
	"github.com/migrationguard/core/pkg/eventbus"
	"github.com/migrationguard/core/pkg/executor"
	"github.com/migrationguard/core/pkg/metrics"
	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/notification"
	"github.com/migrationguard/core/pkg/orchestrator"
	"github.com/migrationguard/core/pkg/patterndetect"
	"github.com/migrationguard/core/pkg/redaction"
	"github.com/migrationguard/core/pkg/rootcause"
	"github.com/migrationguard/core/pkg/safemode"
	"github.com/migrationguard/core/pkg/searchstore"
	"github.com/migrationguard/core/pkg/signalnorm"
	"github.com/migrationguard/core/pkg/ticketing"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Warn("could not load .env file, continuing with process environment", "path", envPath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load database configuration", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	logger.Info("connected to postgres")

	redisClient := redis.NewClient(&redis.Options{Addr: getEnv("REDIS_ADDR", "localhost:6379")})
	defer redisClient.Close()
	cache := cachestore.New(redisClient)

	searchIndex, err := searchstore.Open(getEnv("SEARCH_INDEX_PATH", ""))
	if err != nil {
		logger.Error("failed to open pattern search index", "error", err)
		os.Exit(1)
	}

	breakers := circuitbreaker.NewManager(gobreaker.Settings{
		Name:        "default",
		MaxRequests: 1,
		Timeout:     cfg.Breaker("llm").RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.Breaker("llm").FailureThreshold)
		},
	})
	for _, name := range []string{"llm", "support", "search_index", "event_bus"} {
		settings := cfg.Breaker(name)
		breakerName := name
		breakers.WithSettings(name, gobreaker.Settings{
			Name:    breakerName,
			Timeout: settings.RecoveryTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(settings.FailureThreshold)
			},
		})
	}

	degradationMgr := degradation.NewManager()

	var bus eventbus.Bus
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		natsBus, nerr := eventbus.NewNATSBus(natsURL)
		if nerr != nil {
			logger.Error("failed to connect to NATS, falling back to in-process bus", "error", nerr)
			bus = eventbus.NewMemoryBus()
		} else {
			bus = natsBus
		}
	} else {
		bus = eventbus.NewMemoryBus()
	}
	defer bus.Close()

	redactionSvc := redaction.NewService(cfg.Redaction.SensitiveFields, cfg.Redaction.Patterns)

	auditStore := audit.NewPGStore(dbClient)
	auditMgr := audit.NewManagerWithRedaction(auditStore, redactionSvc)

	configStore := configmgr.NewPGStore(dbClient)
	configMgr := configmgr.NewManager(configStore)

	safeModeMgr := safemode.NewManager()
	safemode.NewDetector(safeModeMgr)

	slackChannel := notification.NewSlackChannel(cfg.Notification.SlackToken)
	dispatcher := notification.NewDispatcher(slackChannel)
	alertRecipients := map[string][]notification.Recipient{
		"default": {{Channel: "slack", Address: cfg.Notification.SlackChannel}},
	}
	safemode.NewAlertManager(dispatcher, cache, alertRecipients)

	normalizer := signalnorm.New()
	ingester := signalnorm.NewIngester(normalizer, bus, cache, breakers, degradationMgr, cfg.Cache.SignalBufferTTL)
	webhookVerifier := signalnorm.NewWebhookVerifier(map[string]string{
		"zendesk":   os.Getenv("ZENDESK_WEBHOOK_SECRET"),
		"freshdesk": os.Getenv("FRESHDESK_WEBHOOK_SECRET"),
		"intercom":  os.Getenv("INTERCOM_WEBHOOK_SECRET"),
	})

	detector := patterndetect.NewDetector(cfg.Detection.MinPatternFrequency, cfg.Detection.ClusterRadius)
	window := patterndetect.NewWindow(time.Duration(cfg.Detection.WindowMinutes) * time.Minute)
	publisher := patterndetect.NewPublisher(bus, searchIndex, cache, breakers, degradationMgr, cfg.Cache.PatternTTL)
	patternRunner := patterndetect.NewRunner(window, detector, publisher, cfg.Detection.PeriodicAnalysisEvery)
	if err := patternRunner.Subscribe(ctx, bus); err != nil {
		logger.Error("failed to subscribe pattern runner to event bus", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := patternRunner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pattern runner stopped", "error", err)
		}
	}()

	analyzer := rootcause.NewLLMAnalyzer(cfg.LLM.APIKey, cfg.LLM.Model, breakers, degradationMgr, logger)
	decisionEngine := decision.NewEngine(safeModeMgr)

	ticketRegistry := ticketing.NewRegistry(map[string]ticketing.Client{
		"zendesk": ticketing.NewMemClient(),
	})
	rateLimiter := executor.NewRateLimiter(cache, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		cfg.RateLimit.DefaultLimit, actionTypeLimits(cfg.RateLimit.Limits), cfg.RateLimit.ExcessiveActionsThreshold)
	actionExecutor := executor.New(ticketRegistry, dispatcher, configMgr, auditMgr, rateLimiter,
		safeModeMgr, cfg.Retry.BaseInterval, cfg.Retry.MaxInterval)

	runner := orchestrator.New(detector, analyzer, decisionEngine, actionExecutor, auditMgr)
	registry := orchestrator.NewRegistry(runner, actionExecutor, auditMgr)

	recorder := metrics.New()
	calibrator := metrics.NewCalibrator()
	sink := metrics.NewSink(recorder, calibrator)

	server := api.NewServer(api.Dependencies{
		Verifier:  webhookVerifier,
		Ingester:  ingester,
		Approvals: registry,
		Issues:    registry,
		Metrics:   sink,
		Health:    dbHealthChecker{dbClient},
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	metricsAddr := getEnv("METRICS_ADDR", ":9090")
	go func() {
		if err := http.ListenAndServe(metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	addr := ":" + getEnv("HTTP_PORT", "8080")
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}
}

func actionTypeLimits(in map[string]int) map[models.ActionType]int {
	out := make(map[models.ActionType]int, len(in))
	for k, v := range in {
		out[models.ActionType(k)] = v
	}
	return out
}

// dbHealthChecker adapts database.Client.Health to pkg/api.HealthChecker.
type dbHealthChecker struct {
	db *database.Client
}

func (h dbHealthChecker) Health(ctx context.Context) (string, map[string]any) {
	status, err := h.db.Health(ctx)
	details := map[string]any{
		"response_time_ms": status.ResponseTime.Milliseconds(),
		"total_conns":      status.TotalConns,
		"idle_conns":       status.IdleConns,
	}
	if err != nil {
		details["error"] = err.Error()
	}
	return status.Status, details
}
