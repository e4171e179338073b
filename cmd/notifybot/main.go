// Package main contains the entrypoint of the Telegram to e-mail notification relay.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/notifybot/internal/bot"
	"github.com/edgard/notifybot/internal/bot/handlers"
	"github.com/edgard/notifybot/internal/bot/tasks"
	"github.com/edgard/notifybot/internal/config"
	"github.com/edgard/notifybot/internal/intake"
	"github.com/edgard/notifybot/internal/logger"
	"github.com/edgard/notifybot/internal/mail"
	"github.com/edgard/notifybot/internal/metrics"
	"github.com/edgard/notifybot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := 0
	root := newRootCommand(&exitCode)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return exitCode
}

func newRootCommand(exitCode *int) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "notifybot",
		Short:        "Relay Telegram messages with media to a fixed e-mail recipient",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = run(cmd.Context(), configPath)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to configuration file")

	root.AddCommand(newCheckConfigCommand(&configPath))
	return root
}

func newCheckConfigCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration file, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range cfg.MissingOptional {
				fmt.Fprintf(out, "warning: %s: %s\n", key, config.OptionalKeyHint(key))
			}
			if cfg.AuthorizedUser == "" {
				fmt.Fprintln(out, "warning: authorization is disabled, every sender will be rejected")
			}
			fmt.Fprintf(out, "configuration %s is valid\n", *configPath)
			return nil
		},
	}
}

// run initializes and starts all application components (config, logger, mail,
// telegram, scheduler), handles graceful shutdown, and returns an exit code
// (0 for success, 1 for failure).
func run(ctx context.Context, configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("YAML config file could not be loaded", "path", configPath, "error", err)
		return 1
	}

	log, logCloser, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return 1
	}
	defer func() {
		_ = logCloser.Close()
	}()
	slog.SetDefault(log)
	log.Info("YAML config file found and loaded", "path", configPath, "level", cfg.Logger.Level)

	for _, key := range cfg.MissingOptional {
		log.Warn(config.OptionalKeyHint(key), "key", key)
	}
	if len(cfg.MissingOptional) > 0 && cfg.LockoutOnMissingOptional {
		log.Warn("Authorization disabled because optional keys are missing", "missing", cfg.MissingOptional)
	}

	if u, err := user.Current(); err == nil {
		log.Info("Running as OS user", "user", u.Username)
	} else {
		log.Warn("Failed to determine OS user", "error", err)
	}

	if err := os.MkdirAll(cfg.Bot.AttachmentDir, 0o750); err != nil {
		log.Error("Failed to create attachment directory", "dir", cfg.Bot.AttachmentDir, "error", err)
		return 1
	}

	sender := mail.NewSender(cfg.SMTP, log)
	composer := mail.NewComposer(sender)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithWorkers(cfg.Bot.Workers),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram bot error", "error", err)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.TelegramBotToken, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	downloader := telegram.NewDownloader(tg, cfg.TelegramBotToken, cfg.Bot.DownloadTimeout, log)
	pipeline := intake.NewPipeline(cfg, downloader, composer, log)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Pipeline: pipeline,
	}
	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAll(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg, cfg.Commands); err != nil {
		log.Warn("Failed to publish bot commands", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Prober: sender,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var metricsServer bot.Runner
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, log)
	}

	app := bot.NewBot(log, tg, sched, metricsServer)

	log.Info("Starting bot")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot has stopped.")
	return 0
}
