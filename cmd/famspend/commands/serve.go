package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"famspend/internal/cache"
	"famspend/internal/chat"
	"famspend/internal/cli"
	"famspend/internal/core"
	api "famspend/internal/http"
	"famspend/internal/log"
	"famspend/internal/telegram"
)

var (
	serveAddr     string
	serveTelegram bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and the Telegram bot when configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :$PORT)")
	serveCmd.Flags().BoolVar(&serveTelegram, "telegram", true, "run the Telegram bot when TELEGRAM_TOKEN is set")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cli.LoadEnvFile(envFiles()...)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting famspend server",
		log.FieldBackend, cfg.DataBackend,
		log.FieldEngine, cfg.ChatEngine)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := cli.GracefulShutdown(parent, logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}()

	money := core.NewFormatter(cfg.CurrencySymbol, cfg.CurrencyLocale)
	sessions := chat.NewManager(res.Engine, res.Store, chat.ManagerConfig{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
	}, logger)

	janitor := cache.NewJanitor(logger)
	janitor.Register(sessions)

	checks := make(map[string]api.Checker, len(res.Checks))
	for name, c := range res.Checks {
		checks[name] = c
	}

	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	server := api.NewServer(api.Options{
		Addr:               addr,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, api.Deps{
		Engine:   res.Engine,
		Sessions: sessions,
		Store:    res.Store,
		Money:    money,
		Checks:   checks,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", log.FieldError, err)
		}
		return nil
	})
	g.Go(func() error {
		return janitor.Run(gctx, time.Minute)
	})

	if serveTelegram && cfg.TelegramToken != "" {
		if cfg.TelegramSharesBackendToken() {
			logger.Warn("Telegram members reach the backend with the shared BACKEND_TOKEN",
				log.FieldBackend, cfg.DataBackend,
				log.FieldEngine, cfg.ChatEngine)
		}
		bot, err := telegram.New(telegram.Config{
			Token: cfg.TelegramToken,
			Debug: cfg.LogLevel == "debug",
		}, sessions, money, logger)
		if err != nil {
			logger.Error("Failed to initialize Telegram bot", log.FieldError, err)
			return err
		}
		g.Go(func() error { return bot.Start(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Server exited gracefully")
	return nil
}
