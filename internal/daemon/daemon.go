package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/eojedapilchik/couples-app/internal/api"
	"github.com/eojedapilchik/couples-app/internal/app/auth"
	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/app/period"
	"github.com/eojedapilchik/couples-app/internal/app/proposal"
	"github.com/eojedapilchik/couples-app/internal/infra/catalog"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// Run starts the daemon and blocks until SIGINT/SIGTERM.
func Run(cfg Config) error {
	db, err := sqlite.Open(cfg.Database.Dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		// Ephemeral secret: tokens do not survive a restart.
		secret = uuid.NewString()
		log.Printf("[daemon] no token secret configured, sessions reset on restart")
	}

	cat := catalog.New(db)
	ledger := credit.NewService(db)
	periods := period.NewService(db, ledger)
	proposals := proposal.NewService(db, cat, proposal.Config{
		MinCreditCost:   cfg.Game.MinCreditCost,
		MaxCreditCost:   cfg.Game.MaxCreditCost,
		ExpiryGraceDays: cfg.Game.ExpiryGraceDays,
	})
	authSvc := auth.NewService(db, secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	server := api.NewServer(db, authSvc, proposals, ledger, periods, cat, cfg.Game.CurrencyName)
	if cfg.API.MetricsEnabled {
		server.EnableMetrics()
	}

	var sched *Scheduler
	if cfg.Scheduler.Enabled {
		sched = NewScheduler(periods, proposals)
		if err := sched.Start(cfg.Scheduler); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		log.Printf("[daemon] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("[daemon] stopped")
	return nil
}
