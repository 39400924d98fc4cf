package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cardscan",
	Short: "Business card scanner CLI - turn card photos into structured contacts",
	Long: `Cardscan turns photos of business cards into structured contact records.

A card image is run through Google Cloud OCR, the extracted text is parsed
into name, phone, email and company fields by a rule-based inference engine,
and the result can be printed, encoded as a vCard, or saved into a local
SQLite contact store for later search and export.

No image ever produces a hard inference failure: fields that cannot be
resolved are simply left empty.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Cardscan CLI executed")

		fmt.Println("Welcome to Cardscan!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
