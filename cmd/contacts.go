package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cardscan/internal/config"
	"cardscan/internal/logger"
	"cardscan/internal/store"
	"cardscan/pkg/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored contacts",
	Long: `List contacts from the local database, newest first.

Use --tag to narrow the listing to cards collected at one event.`,
	Example: `  # All contacts
  cardscan list

  # Contacts scanned at one event, as JSON
  cardscan list --tag gitex-2026 --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored contacts",
	Long: `Search contacts by name, email, company or phone.

The default search is a case-insensitive substring match. With --fuzzy the
query letters only need to appear in order, so "jsmith" finds "John Smith";
results are sorted by closeness.`,
	Example: `  # Substring search across all fields
  cardscan search globex

  # Fuzzy search by abbreviated name
  cardscan search jsmith --fuzzy`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var showCmd = &cobra.Command{
	Use:   "show [contact-id]",
	Short: "Show one stored contact in full",
	Example: `  # Human-readable details
  cardscan show 1b4e28ba-2fa1-11d2-883f-0016d3cca427

  # Full record as JSON
  cardscan show 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var removeCmd = &cobra.Command{
	Use:     "remove [contact-id]",
	Short:   "Remove a stored contact",
	Example: `  cardscan remove 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(removeCmd)

	listCmd.Flags().String("tag", "", "Only contacts stored with this event tag")
	listCmd.Flags().Bool("json", false, "Output as JSON")

	searchCmd.Flags().Bool("fuzzy", false, "Fuzzy matching instead of substring matching")
	searchCmd.Flags().Bool("json", false, "Output as JSON")

	showCmd.Flags().Bool("json", false, "Output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("contacts")

	tag, _ := cmd.Flags().GetString("tag")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	contactStore, err := openContactStore(log)
	if err != nil {
		return err
	}
	defer closeContactStore(contactStore, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var contacts []*models.ContactRecord
	if tag != "" {
		contacts, err = contactStore.ListByTag(ctx, tag)
	} else {
		contacts, err = contactStore.List(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list contacts")
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	log.Debug().
		Int("count", len(contacts)).
		Str("tag", tag).
		Msg("Contacts listed")

	if jsonOutput {
		return printContactsJSON(contacts)
	}
	if len(contacts) == 0 {
		if tag != "" {
			fmt.Printf("No contacts stored with tag %q.\n", tag)
		} else {
			fmt.Println("No contacts stored yet.")
		}
		return nil
	}
	printContactTable(contacts)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("contacts")

	fuzzyMatch, _ := cmd.Flags().GetBool("fuzzy")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	query := args[0]

	contactStore, err := openContactStore(log)
	if err != nil {
		return err
	}
	defer closeContactStore(contactStore, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var contacts []*models.ContactRecord
	if fuzzyMatch {
		contacts, err = contactStore.SearchFuzzy(ctx, query)
	} else {
		contacts, err = contactStore.Search(ctx, query)
	}
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Search failed")
		return fmt.Errorf("search failed: %w", err)
	}

	log.Debug().
		Int("count", len(contacts)).
		Str("query", query).
		Bool("fuzzy", fuzzyMatch).
		Msg("Search completed")

	if jsonOutput {
		return printContactsJSON(contacts)
	}
	if len(contacts) == 0 {
		fmt.Printf("No contacts match %q.\n", query)
		return nil
	}
	printContactTable(contacts)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("contacts")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	id := args[0]

	contactStore, err := openContactStore(log)
	if err != nil {
		return err
	}
	defer closeContactStore(contactStore, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := contactStore.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to load contact")
		return fmt.Errorf("failed to load contact: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no contact with ID %s", id)
	}

	if jsonOutput {
		jsonData, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	printContactDetails(rec)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("contacts")

	id := args[0]

	contactStore, err := openContactStore(log)
	if err != nil {
		return err
	}
	defer closeContactStore(contactStore, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := contactStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no contact with ID %s", id)
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to remove contact")
		return fmt.Errorf("failed to remove contact: %w", err)
	}

	log.Info().Str("id", id).Msg("Contact removed")
	fmt.Printf("Removed contact %s\n", id)
	return nil
}

// openContactStore opens the configured contact database
func openContactStore(log zerolog.Logger) (*store.SQLiteStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	contactStore, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Error().
			Err(err).
			Str("db", cfg.DatabasePath).
			Msg("Failed to open contact database")
		return nil, fmt.Errorf("failed to open contact database: %w", err)
	}
	return contactStore, nil
}

// closeContactStore closes the database, logging any close failure
func closeContactStore(s *store.SQLiteStore, log zerolog.Logger) {
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close contact database")
	}
}

// printContactTable prints contacts one per line, newest first
func printContactTable(contacts []*models.ContactRecord) {
	fmt.Printf("%-36s  %-16s  %s\n", "ID", "CREATED", "CONTACT")
	for _, rec := range contacts {
		fmt.Printf("%-36s  %-16s  %s\n", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.Summary())
	}
	fmt.Printf("\n%d contact(s)\n", len(contacts))
}

// printContactDetails prints every stored field of one contact
func printContactDetails(rec *models.ContactRecord) {
	fmt.Printf("ID:       %s\n", rec.ID)
	fmt.Printf("Name:     %s\n", orDash(rec.Name))
	fmt.Printf("Phone:    %s\n", orDash(rec.Phone))
	fmt.Printf("Email:    %s\n", orDash(rec.Email))
	fmt.Printf("Company:  %s\n", orDash(rec.Company))
	fmt.Printf("Tag:      %s\n", orDash(rec.EventTag))
	fmt.Printf("Image:    %s\n", orDash(rec.ImageRef))
	fmt.Printf("Created:  %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:  %s\n", rec.UpdatedAt.Format(time.RFC3339))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printContactsJSON(contacts []*models.ContactRecord) error {
	jsonData, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	fmt.Println(string(jsonData))
	return nil
}
