package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/app"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/config"
	logpkg "github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/logger"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/tui"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/ui"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/web"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, mode string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/gitagpt/config.yaml if not provided)")
	flag.StringVar(&mode, "ui", "tui", "User interface: tui or web")
	flag.Parse()

	var cfg *config.AppConfig
	var defaultPath string
	var err error
	if cfgPath == "" {
		cfg, defaultPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	if err := app.CheckCredential(os.LookupEnv, cfg.Completion.APIKeyEnv); err != nil {
		fatal("%s", ui.MissingCredential(cfg.Completion.APIKeyEnv))
	}
	if defaultPath != "" {
		if err := config.SaveIfMissing(defaultPath, cfg); err != nil {
			fatal("failed to save config: %v", err)
		}
	}

	var outputs []string
	switch mode {
	case "tui":
		outputs = []string{cfg.Logging.File}
	case "web":
	default:
		fatal("unknown ui %q (want tui or web)", mode)
	}
	logger, err := logpkg.NewLogger(cfg.Env, cfg.Logging.Level, outputs...)
	if err != nil {
		fatal("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Register()

	a, err := app.New(cfg, os.LookupEnv, app.DefaultProviders(cfg, os.LookupEnv, logger), logger)
	if err != nil {
		fatal("%s", ui.MissingCredential(cfg.Completion.APIKeyEnv))
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	logger.Info("Starting GitaGPT",
		zap.String("ui", mode),
		zap.String("env", cfg.Env),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("completion_model", cfg.Completion.Model),
	)

	delay := cfg.Stream.Delay()
	if mode == "web" {
		err = runWeb(ctx, cfg, a, delay, logger)
	} else {
		err = runTUI(ctx, a, delay, logger)
	}
	if err != nil {
		logger.Error("exiting", zap.Error(err))
		_ = a.Close()
		fatal("%v", err)
	}
}

func runTUI(ctx context.Context, a *app.App, delay time.Duration, logger *zap.Logger) error {
	m := tui.New(ctx, tui.Config{
		Session: a.NewSession("terminal"),
		Load:    a.Load,
		Delay:   delay,
		Logger:  logger,
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func runWeb(ctx context.Context, cfg *config.AppConfig, a *app.App, delay time.Duration, logger *zap.Logger) error {
	fmt.Println(ui.Loading)
	if err := a.Load(ctx); err != nil {
		return err
	}
	srv, err := web.NewServer(cfg.Web, delay, a.NewSession, logger)
	if err != nil {
		return err
	}
	fmt.Printf("%s listening on %s\n", ui.Title, cfg.Web.Addr)
	return srv.Run(ctx)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
