package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardscan/internal/export"
	"cardscan/internal/logger"
	"cardscan/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export stored contacts to CSV or VCF",
	Long: `Export contacts from the local database into an interchange file.

The format is inferred from the file extension (.csv or .vcf) and can be
forced with --format. CSV suits spreadsheets and CRM imports; VCF is a
multi-card vCard file that phone address books import directly.`,
	Example: `  # All contacts as a spreadsheet
  cardscan export contacts.csv

  # One event's contacts as a vCard file
  cardscan export gitex.vcf --tag gitex-2026

  # Force the format regardless of extension
  cardscan export contacts.txt --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "", "Export format: csv or vcf (default: by file extension)")
	exportCmd.Flags().String("tag", "", "Only contacts stored with this event tag")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	outputPath := args[0]
	formatFlag, _ := cmd.Flags().GetString("format")
	tag, _ := cmd.Flags().GetString("tag")

	format, err := resolveExportFormat(formatFlag, outputPath)
	if err != nil {
		return err
	}

	contactStore, err := openContactStore(log)
	if err != nil {
		return err
	}
	defer closeContactStore(contactStore, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var contacts []*models.ContactRecord
	if tag != "" {
		contacts, err = contactStore.ListByTag(ctx, tag)
	} else {
		contacts, err = contactStore.List(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load contacts")
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	log.Info().
		Int("count", len(contacts)).
		Str("format", format).
		Str("file", outputPath).
		Msg("Exporting contacts")

	outFile, err := os.Create(outputPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", outputPath).
			Msg("Failed to create export file")
		return fmt.Errorf("failed to create export file: %w", err)
	}

	switch format {
	case "csv":
		err = export.WriteCSV(outFile, contacts)
	case "vcf":
		err = export.WriteVCF(outFile, contacts)
	}
	if err != nil {
		outFile.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to finish export file: %w", err)
	}

	fmt.Printf("Exported %d contacts to %s (%s)\n", len(contacts), outputPath, format)

	log.Info().
		Int("count", len(contacts)).
		Str("file", outputPath).
		Msg("Export completed")
	return nil
}

// resolveExportFormat picks the export format from the flag or, when the
// flag is unset, from the output file extension.
func resolveExportFormat(flagValue, outputPath string) (string, error) {
	if flagValue != "" {
		switch strings.ToLower(flagValue) {
		case "csv":
			return "csv", nil
		case "vcf", "vcard":
			return "vcf", nil
		default:
			return "", fmt.Errorf("invalid export format: %s (must be 'csv' or 'vcf')", flagValue)
		}
	}

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".csv":
		return "csv", nil
	case ".vcf", ".vcard":
		return "vcf", nil
	default:
		return "", fmt.Errorf("cannot infer export format from %q; use --format csv or --format vcf", filepath.Base(outputPath))
	}
}
