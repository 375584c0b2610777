package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eojedapilchik/couples-app/internal/app/auth"
	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/daemon"
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("partner-a", "Ana", "Name of the first partner (admin)")
	seedCmd.Flags().String("partner-b", "Ben", "Name of the second partner")
	seedCmd.Flags().String("pin-a", "1111", "PIN for the first partner")
	seedCmd.Flags().String("pin-b", "2222", "PIN for the second partner")
	seedCmd.Flags().Bool("cards", true, "Also seed the demo card catalog")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the two partners and a starter card catalog",
	Long: `Initialize a fresh database with the two partner accounts, their
initial credit grants, and a small demo card catalog. Refuses to run
against a database that already has users.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	existing, err := db.ListUsers()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("database already has %d users, refusing to seed", len(existing))
	}

	ledger := credit.NewService(db)
	now := time.Now().UTC()

	nameA, _ := cmd.Flags().GetString("partner-a")
	nameB, _ := cmd.Flags().GetString("partner-b")
	pinA, _ := cmd.Flags().GetString("pin-a")
	pinB, _ := cmd.Flags().GetString("pin-b")

	partners := []struct {
		name    string
		pin     string
		isAdmin bool
	}{
		{nameA, pinA, true},
		{nameB, pinB, false},
	}
	for _, p := range partners {
		hash, err := auth.HashPIN(p.pin)
		if err != nil {
			return fmt.Errorf("hash PIN for %s: %w", p.name, err)
		}
		id, err := db.InsertUser(p.name, hash, p.isAdmin, now)
		if err != nil {
			return fmt.Errorf("create user %s: %w", p.name, err)
		}
		if _, err := ledger.InitialGrant(id, cfg.Game.InitialCredits); err != nil {
			return fmt.Errorf("initial grant for %s: %w", p.name, err)
		}
		fmt.Fprintf(os.Stdout, "Created %s (id %d) with %d %s\n",
			p.name, id, cfg.Game.InitialCredits, cfg.Game.CurrencyName)
	}

	if withCards, _ := cmd.Flags().GetBool("cards"); withCards {
		n, err := seedCards(db, now)
		if err != nil {
			return fmt.Errorf("seed cards: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Seeded %d catalog cards\n", n)
	}
	return nil
}

func seedCards(db *sqlite.DB, now time.Time) (int, error) {
	cards := []domain.Card{
		{
			Title:       "Candlelit dinner at home",
			Description: "Cook a full dinner together with phones off and candles on.",
			Category:    domain.CategoryRomance,
			SpiceLevel:  1, DifficultyLevel: 2, CreditValue: 3,
			Tags: []string{"evening", "food"},
		},
		{
			Title:       "Sunrise walk",
			Description: "Wake up before dawn and watch the sunrise together.",
			Category:    domain.CategoryRomance,
			SpiceLevel:  1, DifficultyLevel: 3, CreditValue: 4,
			Tags: []string{"morning", "outdoors"},
		},
		{
			Title:       "Massage night",
			Description: "A thirty minute massage, no shortcuts.",
			Category:    domain.CategoryCalientes,
			SpiceLevel:  3, DifficultyLevel: 1, CreditValue: 2,
			Tags: []string{"evening"},
		},
		{
			Title:       "Secret fantasy",
			Description: "Share a fantasy you have never told anyone.",
			Category:    domain.CategoryCalientes,
			SpiceLevel:  4, DifficultyLevel: 3, CreditValue: 5,
			Tags: []string{"talk", "intimate"},
		},
		{
			Title:       "Impression contest",
			Description: "Each partner does their best impression of the other. Loser does the dishes.",
			Category:    domain.CategoryRisas,
			SpiceLevel:  1, DifficultyLevel: 1, CreditValue: 1,
			Tags: []string{"silly"},
		},
		{
			Title:       "Swap playlists",
			Description: "Build each other a playlist and listen to it start to finish.",
			Category:    domain.CategoryOtras,
			SpiceLevel:  1, DifficultyLevel: 1, CreditValue: 2,
			Tags: []string{"music"},
		},
	}
	for i := range cards {
		cards[i].IsEnabled = true
		cards[i].CreatedAt = now
		if _, err := db.InsertCard(cards[i]); err != nil {
			return i, err
		}
	}
	return len(cards), nil
}
