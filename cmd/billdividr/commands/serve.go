package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/api"
	"github.com/susu3304/billdividr/internal/bot"
	"github.com/susu3304/billdividr/internal/db"
	"github.com/susu3304/billdividr/internal/group"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when DISCORD_TOKEN is set, the Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			if err := cfg.RequireOAuth(); err != nil {
				logger.Warn("Discord login is not configured", zap.Error(err))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			database, err := db.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.RunMigrations(ctx); err != nil {
				return err
			}

			svc := group.NewService(database, logger.Named("group"))

			if cfg.DiscordToken != "" {
				discordBot, err := bot.New(cfg.DiscordToken, svc, database, cfg.WebUIBaseURL, logger.Named("bot"))
				if err != nil {
					return err
				}
				if err := discordBot.Start(); err != nil {
					return err
				}
				defer func() {
					if err := discordBot.Stop(); err != nil {
						logger.Warn("failed to stop discord bot", zap.Error(err))
					}
				}()
			} else {
				logger.Info("DISCORD_TOKEN not set, bot disabled")
			}

			apiServer := api.New(cfg, svc, logger.Named("api"))
			errCh := make(chan error, 1)
			go func() {
				errCh <- apiServer.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return apiServer.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			database, err := db.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.RunMigrations(cmd.Context()); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}
