package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"profitmaker/internal/catalog"
	"profitmaker/internal/dashboard"
	"profitmaker/internal/database"
	"profitmaker/internal/market"
	"profitmaker/internal/model"
	"profitmaker/internal/profit"
	"profitmaker/internal/store"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server with periodic price refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cat := catalog.New(logger, cfg.Catalog.DataFile)
			client := market.NewClient(logger, cfg.Market)
			engine := profit.NewEngine(logger, cat)
			st := store.New(logger, cfg.Store.Path, model.Settings{
				TaxRatePercent:        cfg.Defaults.TaxRatePercent,
				AssumePremium:         cfg.Defaults.AssumePremium,
				UpdateIntervalMinutes: cfg.Defaults.UpdateIntervalMinutes,
			})

			// The database is optional; without one the dashboard still has
			// the capped in-document price history.
			var repo database.Repository
			if cfg.Database.Host != "" {
				pg, err := database.Connect(ctx, cfg.Database)
				if err != nil {
					return err
				}
				defer pg.Pool.Close()
				if err := pg.Migrate(ctx); err != nil {
					return err
				}
				repo = pg
			}

			app := dashboard.NewApp(logger, client, cat, engine, st, repo, cfg.Market.Locations)

			go app.RunRefresher(ctx)
			go app.RefreshNow(ctx)

			srv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: app.Router(),
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("dashboard listening", "addr", cfg.Server.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown failed: %w", err)
				}
			}
			return nil
		},
	}
}
