package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"farmcare-server-go/client"
	"farmcare-server-go/db"
	"farmcare-server-go/handlers"
	"farmcare-server-go/i18n"
	"farmcare-server-go/web"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API server",
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var tickets handlers.TicketStore
			if env.cfg.Redis.Enabled {
				rdb, err := db.InitializeRedisClient(ctx, env.cfg.Redis)
				if err != nil {
					return err
				}
				defer rdb.Close()

				store := db.NewRedisService(rdb, env.log)
				if env.cfg.Redis.Seed {
					if err := store.SeedIfEmpty(ctx); err != nil {
						// Seeding is a convenience; serve anyway
						env.log.WithError(err).Warn("could not seed ticket store")
					}
				}
				tickets = store
			}

			h := handlers.NewAPIHandler(tickets, env.log)
			srv := &http.Server{
				Addr:    env.cfg.ServerAddr(),
				Handler: handlers.NewRouter(env.cfg, h, env.log),
			}
			return runServer(ctx, srv, env.log.WithField("component", "api"))
		}),
	}
}

func newWebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Run the web UI against the configured API",
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			tr, err := i18n.NewTranslations(env.cfg.Language)
			if err != nil {
				return err
			}

			api := env.api()
			pages := web.NewServer(
				client.NewFarmerService(api, env.log),
				client.NewTicketService(api, env.log),
				client.NewReportService(api, env.log),
				tr,
				env.cfg.Language,
				env.log,
			)
			router, err := pages.Router(env.log)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    env.cfg.WebAddr(),
				Handler: router,
			}
			return runServer(ctx, srv, env.log.WithFields(logrus.Fields{"component": "web", "api": api.BaseURL()}))
		}),
	}
}

// runServer serves until ctx is done, then shuts down within shutdownTimeout.
func runServer(ctx context.Context, srv *http.Server, log *logrus.Entry) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}
