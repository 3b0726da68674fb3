package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shopsearch/internal/config"
	"shopsearch/internal/observability"
	"shopsearch/internal/orchestrator"
	"shopsearch/internal/parser"
	"shopsearch/internal/searchapi"
	"shopsearch/internal/session"
	"shopsearch/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, sessionID string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/shopsearch/config.yaml if not provided)")
	flag.StringVar(&sessionID, "session-info", "", "Print the backend's information for a session id and exit")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := searchapi.NewClient(searchapi.Config{
		BaseURL:    cfg.Backend.BaseURL,
		SearchPath: cfg.Backend.SearchPath,
		Timeout:    time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	}, observability.Component(logger, "searchapi"))
	if err != nil {
		log.Fatalf("search client init failed: %v", err)
	}

	if sessionID != "" {
		if err := printSessionInfo(ctx, client, sessionID); err != nil {
			log.Fatalf("session info: %v", err)
		}
		return
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	history := session.NewHistory(time.Duration(cfg.Session.HistoryTTLMins)*time.Minute, cfg.Session.HistoryLimit)
	orch := orchestrator.New(client, parser.New(), history, metrics, logger)

	logger.Info("starting", zap.String("backend", cfg.Backend.BaseURL))
	m := tui.New(ctx, orch)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}

func printSessionInfo(ctx context.Context, client *searchapi.Client, id string) error {
	info, err := client.SessionInfo(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
