package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-autopilot/internal/api/http"
	"github.com/spec-kit/ticket-autopilot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-autopilot/internal/auth"
	"github.com/spec-kit/ticket-autopilot/internal/classify"
	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/events"
	"github.com/spec-kit/ticket-autopilot/internal/identity"
	"github.com/spec-kit/ticket-autopilot/internal/notify"
	"github.com/spec-kit/ticket-autopilot/internal/observability"
	"github.com/spec-kit/ticket-autopilot/internal/persistence"
	"github.com/spec-kit/ticket-autopilot/internal/service"
	"github.com/spec-kit/ticket-autopilot/internal/store"
	"github.com/spec-kit/ticket-autopilot/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var ticketStore store.Store
	if pool := pg.PoolHandle(); pool != nil {
		ticketStore = store.NewPostgres(pool)
	} else {
		mem := store.NewMemory()
		if cfg.Automation.SeedFile != "" {
			n, err := mem.LoadSeed(cfg.Automation.SeedFile)
			if err != nil {
				logger.Fatal("failed to load ticket seed", zap.Error(err))
			}
			logger.Info("loaded ticket seed", zap.Int("tickets", n))
		}
		ticketStore = mem
		logger.Warn("using in-memory ticket store")
	}

	var classifier workflow.Classifier
	if cfg.Classifier.APIKey != "" {
		classifier = classify.NewClient(classify.ClientConfig{
			BaseURL: cfg.Classifier.BaseURL,
			APIKey:  cfg.Classifier.APIKey,
			Model:   cfg.Classifier.Model,
			Timeout: cfg.Classifier.Timeout(),
		})
		logger.Info("using chat-completion classifier", zap.String("model", cfg.Classifier.Model))
	} else {
		classifier = classify.NewHeuristic()
		logger.Info("using keyword heuristic classifier")
	}
	if rdb := redis.ClientHandle(); rdb != nil {
		classifier = classify.NewCache(classifier, rdb, cfg.Classifier.CacheTTL(), logger)
	}

	directory := identity.NewDirectory()
	notifier := notify.NewService(
		notify.LogMailer{Logger: logger},
		classifier,
		cfg.Automation.TeamInbox,
		logger,
	)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	recorder := observability.NewRecorder(logger, metrics, dispatcher)

	exec, err := workflow.Definition(workflow.Deps{
		Classifier:  classifier,
		Directory:   directory,
		Notifier:    notifier,
		Store:       ticketStore,
		Logger:      logger,
		CallTimeout: cfg.Automation.CallTimeout(),
		MaxSteps:    cfg.Automation.MaxSteps,
	}, recorder)
	if err != nil {
		logger.Fatal("failed to compile pipeline", zap.Error(err))
	}

	automation := service.NewAutomationService(service.Deps{
		Store:      ticketStore,
		Executor:   exec,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Workers:    cfg.Automation.BatchWorkers,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Automation:     handlers.NewAutomationHandler(automation, exec),
		AuthMiddleware: authMiddleware,
		MetricsHandler: metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
