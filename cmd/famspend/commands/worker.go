package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"famspend/internal/amqp"
	"famspend/internal/cli"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/telegram"
	"famspend/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver family notifications for newly recorded expenses",
	Long: `Consume expense-recorded messages from AMQP and tell the rest of the family.
Notices go to the family's Telegram chat when TELEGRAM_TOKEN is set and to the
log otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(parent context.Context) error {
	cli.LoadEnvFile(envFiles()...)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to run the worker")
	}
	logger.Info("Starting famspend worker", "queue", cfg.AMQPQueue)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := cli.GracefulShutdown(parent, logger)
	defer cancel()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}
	defer client.Close()

	money := core.NewFormatter(cfg.CurrencySymbol, cfg.CurrencyLocale)

	var notifier worker.Notifier = worker.NewLogNotifier(logger)
	if cfg.TelegramToken != "" {
		// Only the send side of the bot is used here; updates are handled by serve.
		bot, err := telegram.New(telegram.Config{Token: cfg.TelegramToken}, nil, money, logger)
		if err != nil {
			logger.Error("Failed to initialize Telegram notifier", log.FieldError, err)
			return err
		}
		notifier = bot
	}

	w := worker.NewNotificationWorker(notifier, money, logger)
	if err := client.ConsumeExpenseRecorded(ctx, w.HandleExpenseRecorded); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return err
	}
	logger.Info("Worker exited gracefully")
	return nil
}
