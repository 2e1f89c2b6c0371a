// Command runner processes tickets through the automation pipeline without
// the HTTP surface: load a seed file into the in-memory store, run the
// batch (or one ticket), and print a report. Useful for demos and for
// exercising the pipeline offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/auth"
	"github.com/spec-kit/ticket-autopilot/internal/classify"
	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/events"
	"github.com/spec-kit/ticket-autopilot/internal/identity"
	"github.com/spec-kit/ticket-autopilot/internal/notify"
	"github.com/spec-kit/ticket-autopilot/internal/observability"
	"github.com/spec-kit/ticket-autopilot/internal/service"
	"github.com/spec-kit/ticket-autopilot/internal/store"
	"github.com/spec-kit/ticket-autopilot/internal/workflow"
)

func main() {
	var (
		seedPath   = flag.String("seed", "", "JSON ticket fixture file to load")
		ticketID   = flag.Int64("ticket", 0, "process a single ticket instead of the whole batch")
		printGraph = flag.Bool("print-graph", false, "print the pipeline topology in DOT format and exit")
		mintToken  = flag.String("mint-token", "", "print an operator bearer token for the given name and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *mintToken != "" {
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		token, expires, err := tokens.GenerateToken(*mintToken)
		if err != nil {
			log.Fatalf("failed to mint token: %v", err)
		}
		fmt.Printf("%s\nexpires: %s\n", token, expires.Format(time.RFC3339))
		return
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	mem := store.NewMemory()
	seed := *seedPath
	if seed == "" {
		seed = cfg.Automation.SeedFile
	}
	if seed != "" {
		n, err := mem.LoadSeed(seed)
		if err != nil {
			logger.Fatal("failed to load ticket seed", zap.Error(err))
		}
		logger.Info("loaded ticket seed", zap.Int("tickets", n))
	}

	var classifier workflow.Classifier
	if cfg.Classifier.APIKey != "" {
		classifier = classify.NewClient(classify.ClientConfig{
			BaseURL: cfg.Classifier.BaseURL,
			APIKey:  cfg.Classifier.APIKey,
			Model:   cfg.Classifier.Model,
			Timeout: cfg.Classifier.Timeout(),
		})
	} else {
		classifier = classify.NewHeuristic()
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
		Store:       mem,
		Logger:      logger,
		CallTimeout: cfg.Automation.CallTimeout(),
		MaxSteps:    cfg.Automation.MaxSteps,
	}, recorder)
	if err != nil {
		logger.Fatal("failed to compile pipeline", zap.Error(err))
	}

	if *printGraph {
		out, err := exec.DOT()
		if err != nil {
			logger.Fatal("failed to render graph", zap.Error(err))
		}
		fmt.Println(out)
		return
	}

	automation := service.NewAutomationService(service.Deps{
		Store:      mem,
		Executor:   exec,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Workers:    cfg.Automation.BatchWorkers,
	})

	ctx := context.Background()
	var reports []service.RunReport
	if *ticketID > 0 {
		report, err := automation.ProcessTicket(ctx, *ticketID)
		if err != nil {
			logger.Fatal("failed to process ticket", zap.Int64("ticket_id", *ticketID), zap.Error(err))
		}
		reports = []service.RunReport{report}
	} else {
		reports, err = automation.ProcessOpenTickets(ctx)
		if err != nil {
			logger.Fatal("failed to process batch", zap.Error(err))
		}
	}

	printReports(reports)
	for _, r := range reports {
		if r.Error != "" {
			_ = logger.Sync()
			os.Exit(1)
		}
	}
}

func printReports(reports []service.RunReport) {
	if len(reports) == 0 {
		fmt.Println("no open tickets to process")
		return
	}
	fmt.Printf("processed %d ticket(s)\n", len(reports))
	for _, r := range reports {
		outcome := string(r.FinalStatus)
		if r.Error != "" && r.FinalStatus == "" {
			outcome = "ENGINE_FAULT"
		}
		fmt.Printf("  #%-4d %-28s %s\n", r.TicketID, outcome, r.Duration.Round(time.Millisecond))
		if r.Error != "" {
			fmt.Printf("        error: %s\n", r.Error)
		}
	}
}
