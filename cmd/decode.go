package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cardscan/internal/config"
	"cardscan/internal/logger"
	"cardscan/internal/vcard"
	"cardscan/pkg/models"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [payload-file]",
	Short: "Decode a QR-code payload into a contact",
	Long: `Decode a scanned QR-code or barcode payload into a contact record.

Many business cards carry a QR code with an embedded vCard. Feed the decoded
payload text (from any barcode reader) to this command: if it contains vCard
data, the contact fields are extracted; anything else (URLs, Wi-Fi setup
codes, plain text) is reported as not-a-contact and skipped without an error.

Pass "-" as the file name to read the payload from stdin.`,
	Example: `  # Decode a payload file captured from a QR reader
  cardscan decode payload.txt

  # Pipe a payload straight from a scanner tool
  zbarimg --raw card.png | cardscan decode -

  # Decode and store the contact, tagged with the event
  cardscan decode payload.txt --save --tag gitex-2026`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	decodeCmd.Flags().StringP("format", "f", "text", "Output format: text, json or vcard")
	decodeCmd.Flags().Bool("save", false, "Save the contact into the local database")
	decodeCmd.Flags().String("tag", "", "Event tag stored with the contact")
}

func runDecode(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("decode")

	// Get flags
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")
	tag, _ := cmd.Flags().GetString("tag")

	payloadSource := args[0]

	format = strings.ToLower(format)
	switch format {
	case "text", "json", "vcard":
	default:
		return fmt.Errorf("invalid output format: %s (must be 'text', 'json' or 'vcard')", format)
	}

	payload, err := readPayload(payloadSource)
	if err != nil {
		log.Error().
			Err(err).
			Str("source", payloadSource).
			Msg("Failed to read payload")
		return err
	}

	log.Info().
		Str("source", payloadSource).
		Int("bytes", len(payload)).
		Msg("Decoding QR payload")

	// Non-contact payloads are skipped, not failed: pointing the scanner at
	// a Wi-Fi code or a URL is routine.
	if !vcard.IsContactPayload(payload) {
		log.Info().Msg("Payload carries no vCard data")
		fmt.Println("Payload is not a contact card (no vCard data found); nothing to decode.")
		return nil
	}

	rec := vcard.Decode(payload)
	if tag != "" {
		rec.EventTag = tag
	}

	log.Info().
		Str("name", rec.Name).
		Str("email", rec.Email).
		Str("company", rec.Company).
		Msg("QR payload decoded")

	if save {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := saveContact(ctx, cfg.DatabasePath, rec, log); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved contact %s (%s)\n", rec.ID, rec.DisplayName())
	}

	return outputDecodedContact(rec, format, outputPath, log)
}

// readPayload reads the QR payload from a file, or from stdin when the
// argument is "-".
func readPayload(source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read payload file: %w", err)
	}
	return string(data), nil
}

// outputDecodedContact renders the decoded contact in the requested format
func outputDecodedContact(rec *models.ContactRecord, format, outputPath string, log zerolog.Logger) error {
	var outputData []byte

	switch format {
	case "json":
		jsonData, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = jsonData
	case "vcard":
		// Re-encoding canonicalizes field order and escaping.
		outputData = []byte(vcard.Encode(rec) + "\r\n")
	default:
		var output strings.Builder
		output.WriteString("=== Decoded contact ===\n")
		if rec.IsEmpty() {
			output.WriteString("The vCard payload contained no usable contact fields.")
		} else {
			if rec.Name != "" {
				output.WriteString(fmt.Sprintf("Name:    %s\n", rec.Name))
			}
			if rec.Phone != "" {
				output.WriteString(fmt.Sprintf("Phone:   %s\n", rec.Phone))
			}
			if rec.Email != "" {
				output.WriteString(fmt.Sprintf("Email:   %s\n", rec.Email))
			}
			if rec.Company != "" {
				output.WriteString(fmt.Sprintf("Company: %s\n", rec.Company))
			}
			if rec.EventTag != "" {
				output.WriteString(fmt.Sprintf("Tag:     %s\n", rec.EventTag))
			}
		}
		outputData = []byte(strings.TrimRight(output.String(), "\n"))
	}

	return writeOutput(outputData, outputPath, format, log)
}
