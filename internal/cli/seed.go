package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/members"
	"github.com/openshelf/openshelf/internal/entities"
)

// SeedCommand loads a small sample catalog and member list for local
// development. Running it twice is harmless: duplicate ISBNs are
// skipped.
type SeedCommand struct {
	DatabasePath string
}

// NewSeedCommand creates a new SeedCommand.
func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

// ParseFlags parses command line flags.
func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load sample books and members for local development.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

var sampleBooks = []entities.Book{
	{ISBN: "978-0441013593", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublicationYear: 1965},
	{ISBN: "978-0553283686", Title: "Hyperion", Author: "Dan Simmons", Genre: "Science Fiction", PublicationYear: 1989},
	{ISBN: "978-0141439518", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublicationYear: 1813},
	{ISBN: "978-0451524935", Title: "1984", Author: "George Orwell", Genre: "Fiction", PublicationYear: 1949},
	{ISBN: "978-0134190440", Title: "The Go Programming Language", Author: "Alan A. A. Donovan", Genre: "Technology", PublicationYear: 2015},
	{ISBN: "978-0062316097", Title: "Sapiens", Author: "Yuval Noah Harari", Genre: "History", PublicationYear: 2011},
}

var sampleMembers = []members.RegisterParams{
	{Name: "Ada Lovelace", ContactInfo: "ada@example.com", TierID: 1},
	{Name: "Grace Hopper", ContactInfo: "grace@example.com", TierID: 2},
	{Name: "Alan Turing", ContactInfo: "alan@example.com", TierID: 3},
}

// Run executes the command.
func (cmd *SeedCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	bookRepo := books.NewRepository(db.DB)
	created := 0
	for _, book := range sampleBooks {
		book := book
		if err := bookRepo.Create(&book); err != nil {
			if err == books.ErrDuplicateISBN {
				continue
			}
			return fmt.Errorf("failed to seed book %s: %w", book.ISBN, err)
		}
		created++
	}
	fmt.Printf("Seeded %d books (%d already present)\n", created, len(sampleBooks)-created)

	memberRepo := members.NewRepository(db.DB)
	var existing int64
	if err := db.DB.Model(&entities.Member{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		fmt.Println("Members already present, skipping member seed")
		return nil
	}
	for _, params := range sampleMembers {
		if _, err := memberRepo.Register(params); err != nil {
			return fmt.Errorf("failed to seed member %s: %w", params.Name, err)
		}
	}
	fmt.Printf("Seeded %d members\n", len(sampleMembers))
	return nil
}
