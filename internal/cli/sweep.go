package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/app/period"
	"github.com/eojedapilchik/couples-app/internal/app/proposal"
	"github.com/eojedapilchik/couples-app/internal/daemon"
	"github.com/eojedapilchik/couples-app/internal/infra/catalog"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the background jobs once and exit",
	Long: `Run the overdue-proposal expiry sweep and the weekly grant tick a
single time. Both jobs are idempotent, so running this alongside a live
server is harmless.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = daemon.DefaultConfigPath()
	}
	cfg, err := daemon.LoadConfig(path)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.Database.Dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ledger := credit.NewService(db)
	periods := period.NewService(db, ledger)
	proposals := proposal.NewService(db, catalog.New(db), proposal.Config{
		MinCreditCost:   cfg.Game.MinCreditCost,
		MaxCreditCost:   cfg.Game.MaxCreditCost,
		ExpiryGraceDays: cfg.Game.ExpiryGraceDays,
	})

	now := time.Now().UTC()
	expired, err := proposals.SweepExpired(now)
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}
	granted, err := periods.TickWeeklyGrants(now)
	if err != nil {
		return fmt.Errorf("weekly grant tick: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Expired %d overdue proposals, booked %d weekly grants\n", expired, granted)
	return nil
}
