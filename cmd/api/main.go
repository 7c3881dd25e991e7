package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qanda/backend/internal/acceptance"
	"github.com/emilythestrangee/qanda/backend/internal/auth"
	"github.com/emilythestrangee/qanda/backend/internal/config"
	"github.com/emilythestrangee/qanda/backend/internal/database"
	"github.com/emilythestrangee/qanda/backend/internal/handlers"
	"github.com/emilythestrangee/qanda/backend/internal/notify"
	"github.com/emilythestrangee/qanda/backend/internal/server"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/store/gormstore"
	"github.com/emilythestrangee/qanda/backend/internal/store/memstore"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "api",
		Short:        "Q&A platform API server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serve := newServeCmd(&envFile)
	root.AddCommand(serve, newMigrateCmd(&envFile))
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func loadConfig(envFile string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema migrated", "event", "schema_migrated", "module", "cmd", "layer", "bootstrap")
			return nil
		},
	}
}

func newServeCmd(envFile *string) *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			gin.SetMode(cfg.GinMode)

			var (
				db database.Service
				st store.Store
			)
			if inMemory {
				st = memstore.New()
				logger.Warn("using in-memory store, data is lost on exit",
					"event", "store_in_memory", "module", "cmd", "layer", "bootstrap")
			} else {
				db, err = database.Open(cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := database.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				st = gormstore.New(db.GetDB(), logger)
			}

			notifier, address, err := notify.FromConfig(cfg.Notify, logger)
			if err != nil {
				return err
			}
			dispatcher := notify.NewDispatcher(notifier, address, cfg.Notify.Workers, cfg.Notify.Timeout, logger)
			issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

			h := handlers.NewHandler(handlers.Deps{
				Store:      st,
				Ledger:     voting.NewLedger(st, logger),
				Acceptance: acceptance.NewController(st, dispatcher, logger),
				Dispatcher: dispatcher,
				Issuer:     issuer,
				Logger:     logger,
			})
			srv := server.New(db, st, issuer, h, logger).HTTPServer(cfg.Port)

			return run(cmd.Context(), srv, dispatcher, logger)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep all data in process memory instead of postgres")
	return cmd
}

func run(ctx context.Context, srv *http.Server, dispatcher *notify.Dispatcher, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "event", "server_starting", "module", "cmd", "layer", "bootstrap", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("server shutting down", "event", "server_stopping", "module", "cmd", "layer", "bootstrap")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications abandoned", "event", "notifications_abandoned", "module", "cmd", "layer", "bootstrap", "error", err.Error())
	}
	return nil
}
