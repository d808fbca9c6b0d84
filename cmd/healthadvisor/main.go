// Community Health & Wellness Advisor entry point.
//
// Usage:
//
//	healthadvisor chat                        # interactive session
//	healthadvisor ask "air quality in 90210"  # one-shot question
//	healthadvisor analyze report.txt          # run a report through the insights pipeline
//	healthadvisor history                     # show recent runs
//	healthadvisor version
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/advisor"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/census"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/clinics"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/config"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/epa"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/geo"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/bq"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/cache"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/history"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/metrics"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/providers"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/providers/gemini"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "analyze":
		runAnalyze(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "version":
		fmt.Printf("healthadvisor %s (built %s)\n", Version, BuildTime)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Community Health & Wellness Advisor

Commands:
  chat                 Start an interactive advisor session
  ask <question>       Ask a single question and exit
  analyze <file>       Run a health report file through the insights pipeline
  history              Show recent runs
  version              Print version information

Flags (chat/ask/analyze/history):
  -config <path>       Path to a YAML config file`)
}

func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// buildAdvisor assembles the full system from config. The returned
// cleanup releases every attached resource.
func buildAdvisor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*advisor.Advisor, func()) {
	index, err := geo.LoadIndex(cfg.Postal.DatasetPath, logger)
	if err != nil {
		logger.Fatal("failed to load postal dataset",
			zap.String("path", cfg.Postal.DatasetPath),
			zap.Error(err))
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, LLM calls will fail")
	}
	provider := gemini.New(providers.GeminiConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("advisor", nil)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		cleanups = append(cleanups, func() { srv.Close() })
		logger.Info("metrics endpoint listening", zap.String("addr", cfg.Metrics.Addr))
	}

	deps := advisor.Deps{
		Provider: provider,
		Index:    index,
		Locator:  geo.NewIPLocator(logger),
		Census: census.NewClient(census.Config{
			APIKey:  cfg.Census.APIKey,
			Timeout: cfg.Census.Timeout,
		}, logger),
		Model:  cfg.LLM.Model,
		Logger: logger,
	}
	if collector != nil {
		deps.ToolRecorder = collector
		deps.AgentRecorder = collector
	}

	if cfg.BigQuery.ProjectID != "" {
		bqClient, err := bigquery.NewClient(ctx, cfg.BigQuery.ProjectID)
		if err != nil {
			logger.Warn("bigquery unavailable, EPA and clinic data disabled", zap.Error(err))
		} else {
			runner := bq.Runner{Client: bqClient}
			deps.EPA = epa.NewClient(runner, index, logger)
			deps.Clinics = clinics.NewClient(clinics.Config{
				ProjectID: cfg.BigQuery.ProjectID,
				Dataset:   cfg.BigQuery.ClinicsDataset,
				Table:     cfg.BigQuery.ClinicsTable,
			}, runner, logger)
			cleanups = append(cleanups, func() { bqClient.Close() })
		}
	}

	if cfg.Redis.Enabled {
		var rec cache.Recorder
		if collector != nil {
			rec = collector
		}
		manager, err := cache.NewManager(cache.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			DefaultTTL: cfg.Redis.TTL,
		}, rec, logger)
		if err != nil {
			logger.Warn("redis unavailable, tool caching disabled", zap.Error(err))
		} else {
			deps.Cache = manager
			deps.CacheTTL = cfg.Redis.TTL
			cleanups = append(cleanups, func() { manager.Close() })
		}
	}

	adv, err := advisor.New(deps)
	if err != nil {
		cleanup()
		logger.Fatal("failed to assemble advisor", zap.Error(err))
	}
	return adv, cleanup
}

func openHistory(cfg *config.Config, logger *zap.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
		return nil
	}
	return store
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	cfg := loadConfig(fs, args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: healthadvisor ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.Join(fs.Args(), " ")

	logger := buildLogger(cfg.Log)
	defer logger.Sync()

	ctx := signalContext()
	adv, cleanup := buildAdvisor(ctx, cfg, logger)
	defer cleanup()
	store := openHistory(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	answer, err := askOnce(ctx, adv, store, uuid.NewString(), question)
	if err != nil {
		logger.Fatal("request failed", zap.Error(err))
	}
	fmt.Println(answer)
}

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	logger := buildLogger(cfg.Log)
	defer logger.Sync()

	ctx := signalContext()
	adv, cleanup := buildAdvisor(ctx, cfg, logger)
	defer cleanup()
	store := openHistory(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	sessionID := uuid.NewString()
	fmt.Println("Community Health & Wellness Advisor. Type your question, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		answer, err := askOnce(ctx, adv, store, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
	fmt.Println("Goodbye.")
}

func askOnce(ctx context.Context, adv *advisor.Advisor, store *history.Store, sessionID, question string) (string, error) {
	runID := uuid.NewString()
	ctx = types.WithRunID(types.WithSessionID(ctx, sessionID), runID)

	started := time.Now()
	result, err := adv.Ask(ctx, question)

	if store != nil {
		rec := &history.Record{
			RunID:      runID,
			SessionID:  sessionID,
			Agent:      advisor.RootAgentName,
			Input:      question,
			Success:    err == nil,
			DurationMS: time.Since(started).Milliseconds(),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		if result != nil {
			rec.Output = result.Output
			rec.TokensUsed = result.TokensUsed
		}
		if saveErr := store.Save(context.WithoutCancel(ctx), rec); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save history: %v\n", saveErr)
		}
	}

	if err != nil {
		return "", err
	}
	return result.Output, nil
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfg := loadConfig(fs, args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: healthadvisor analyze [flags] <report-file>")
		os.Exit(1)
	}

	report, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read report: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg.Log)
	defer logger.Sync()

	ctx := signalContext()
	adv, cleanup := buildAdvisor(ctx, cfg, logger)
	defer cleanup()

	result, err := adv.AnalyzeReport(ctx, string(report))
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}
	fmt.Println(result.Output)
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of runs to show")
	cfg := loadConfig(fs, args)

	logger := zap.NewNop()
	store, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load history: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No history yet.")
		return
	}
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed"
		}
		fmt.Printf("[%s] (%s, %d tokens)\n  Q: %s\n  A: %s\n",
			rec.CreatedAt.Format(time.RFC3339), status, rec.TokensUsed,
			rec.Input, rec.Output)
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}
