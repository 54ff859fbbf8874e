package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/openshelf/openshelf/internal/circulation"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/settingsstore"
)

// CalculateFinesCommand runs the overdue fine batch once, outside the
// scheduler. Safe to run repeatedly: loans that already carry an
// overdue fine are skipped.
type CalculateFinesCommand struct {
	DatabasePath       string
	ExpireReservations bool
}

// NewCalculateFinesCommand creates a new CalculateFinesCommand.
func NewCalculateFinesCommand() *CalculateFinesCommand {
	return &CalculateFinesCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CalculateFinesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("calculate-fines", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.BoolVar(&cmd.ExpireReservations, "expire-reservations", false, "Also sweep reservations past their expiry date")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s calculate-fines [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Assess fines for overdue loans that do not have one yet.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the command.
func (cmd *CalculateFinesCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store := settingsstore.New(settings.NewRepository(db.DB))
	service := circulation.NewService(db.DB, store)

	created, err := service.CalculateOverdueFines()
	if err != nil {
		return fmt.Errorf("fine calculation failed: %w", err)
	}
	fmt.Printf("Assessed %d new overdue fines\n", created)

	if cmd.ExpireReservations {
		expired, err := service.ExpireReservations(time.Now())
		if err != nil {
			return fmt.Errorf("reservation sweep failed: %w", err)
		}
		fmt.Printf("Expired %d lapsed reservations\n", expired)
	}
	return nil
}
