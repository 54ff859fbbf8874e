package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
)

// CreateUserCommand creates a librarian account. Student accounts
// self-register through the web signup; librarians are provisioned from
// the command line only.
type CreateUserCommand struct {
	Username     string
	Password     string
	Name         string
	Email        string
	DatabasePath string
}

// NewCreateUserCommand creates a new CreateUserCommand.
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new librarian (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new librarian (required)")
	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	fs.StringVar(&cmd.Email, "email", "", "Contact email")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a librarian account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username head_librarian -password secret -name \"Jamie Reyes\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Password == "" || cmd.Name == "" {
		fs.Usage()
		return fmt.Errorf("username, password and name are required")
	}
	return nil
}

// Run executes the command.
func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)

	user, err := service.CreateLibrarian(cmd.Username, cmd.Password, cmd.Name, cmd.Email)
	if err != nil {
		return fmt.Errorf("failed to create librarian: %w", err)
	}

	fmt.Printf("Created librarian %q (user id %d)\n", user.Username, user.ID)
	return nil
}
