package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cardscan/internal/config"
	"cardscan/internal/contact"
	"cardscan/internal/logger"
	"cardscan/internal/ocr"
	"cardscan/internal/store"
	"cardscan/internal/vcard"
	"cardscan/pkg/models"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-file]",
	Short: "Scan a business card photo and extract contact details",
	Long: `Process a business card photo with Google Cloud OCR and infer the contact
fields (name, phone, email, company) from the extracted text.

The inference is rule-based and never fails outright: fields that cannot be
resolved are left empty. Use --save to store the result in the local contact
database, and --format to choose between human-readable text, JSON, or a
vCard 3.0 block.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string

For --engine documentai additionally:
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  DOCAI_PROCESSOR_ID - Your Document AI OCR processor ID`,
	Example: `  # Scan a card and print the contact as text
  cardscan scan card.jpg

  # Emit a vCard and write it to a file
  cardscan scan card.jpg --format vcard -o card.vcf

  # Save into the contact database, tagged with the event
  cardscan scan card.jpg --save --tag gitex-2026

  # Use Document AI instead of the Vision API
  cardscan scan card.jpg --engine documentai

  # Extend the classifier vocabulary from a YAML file
  cardscan scan card.jpg --keywords keywords.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// ScanOutput represents the JSON output structure when --format json is used
type ScanOutput struct {
	Contact            *models.ContactRecord `json:"contact"`
	Text               string                `json:"text"`
	Confidence         float32               `json:"confidence,omitempty"`
	LanguageCodes      []string              `json:"language_codes,omitempty"`
	ProcessedAt        time.Time             `json:"processed_at"`
	ProcessingDuration string                `json:"processing_duration"`
	FileName           string                `json:"file_name"`
	FileSize           int64                 `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().StringP("format", "f", "text", "Output format: text, json or vcard")
	scanCmd.Flags().String("engine", "", "OCR engine: vision or documentai (default: OCR_ENGINE)")
	scanCmd.Flags().String("keywords", "", "YAML file extending the classifier keywords (default: KEYWORDS_FILE)")
	scanCmd.Flags().Bool("save", false, "Save the contact into the local database")
	scanCmd.Flags().String("tag", "", "Event tag stored with the contact")
	scanCmd.Flags().Int("timeout", 60, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	// Get flags
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	engine, _ := cmd.Flags().GetString("engine")
	keywordsPath, _ := cmd.Flags().GetString("keywords")
	save, _ := cmd.Flags().GetBool("save")
	tag, _ := cmd.Flags().GetString("tag")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	format = strings.ToLower(format)
	switch format {
	case "text", "json", "vcard":
	default:
		return fmt.Errorf("invalid output format: %s (must be 'text', 'json' or 'vcard')", format)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if engine != "" {
		engine = strings.ToLower(engine)
		if engine != "vision" && engine != "documentai" {
			return fmt.Errorf("invalid OCR engine: %s (must be 'vision' or 'documentai')", engine)
		}
		cfg.OCREngine = engine
	}
	if keywordsPath == "" {
		keywordsPath = cfg.KeywordsFile
	}

	log.Info().
		Str("file", imagePath).
		Str("format", format).
		Str("engine", cfg.OCREngine).
		Bool("save", save).
		Int("timeout", timeoutSecs).
		Msg("Starting card scan")

	// Validate and get file info
	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	// Create context with timeout and signal handling
	ctx, cancel := createScanContext(timeoutSecs, log)
	defer cancel()

	// Build the inference engine before touching the network
	parser, err := newContactParser(keywordsPath, log)
	if err != nil {
		return err
	}

	// Create OCR service
	ocrService, err := createOCRService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ocrService.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	// Open image file
	imageFile, err := os.Open(imagePath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", imagePath).
			Msg("Failed to open image file")
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer func() {
		if closeErr := imageFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close image file")
		}
	}()

	log.Info().
		Str("file", imagePath).
		Int64("size", fileInfo.Size()).
		Msg("Processing card image")

	result, err := ocrService.ProcessImageWithMetadata(ctx, imageFile)
	if err != nil {
		return handleScanError(err, log)
	}

	rec := parser.Infer(result.Text)
	rec.ImageRef = imagePath
	rec.EventTag = tag

	log.Info().
		Str("name", rec.Name).
		Str("email", rec.Email).
		Str("company", rec.Company).
		Float32("ocr_confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Card scan completed")

	if save {
		if err := saveContact(ctx, cfg.DatabasePath, rec, log); err != nil {
			return err
		}
		// Stderr, so a piped vCard or JSON stream stays clean.
		fmt.Fprintf(os.Stderr, "Saved contact %s (%s)\n", rec.ID, rec.DisplayName())
	}

	// Format and output results
	return outputScanResults(rec, result, fileInfo, format, outputPath, log)
}

// knownImageExtensions are the card photo formats the OCR backends accept.
var knownImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// validateImageFile checks if the file exists, is readable, and looks like a card photo
func validateImageFile(imagePath string, log zerolog.Logger) (os.FileInfo, error) {
	// Check if file exists and get info
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	// Check if it's a regular file
	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", imagePath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", imagePath)
	}

	// Check file extension (basic validation)
	if !knownImageExtensions[strings.ToLower(filepath.Ext(imagePath))] {
		log.Warn().
			Str("file", imagePath).
			Msg("File does not have a known image extension")
	}

	// Check file size
	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", imagePath).
			Msg("Image file is empty")
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}

	if fileInfo.Size() > ocr.MaxImageSizeBytes {
		log.Error().
			Str("file", imagePath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxImageSizeBytes).
			Msg("Image file exceeds maximum size limit")
		return nil, fmt.Errorf("image file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxImageSizeBytes)
	}

	return fileInfo, nil
}

// createScanContext creates a context with timeout and signal handling
func createScanContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling scan")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// createOCRService creates the OCR engine selected by the configuration
func createOCRService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.OCRService, error) {
	ocrService, err := ocr.NewFromConfig(ctx, cfg)
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().
				Err(err).
				Msg("Google Cloud credentials not configured")
			return nil, fmt.Errorf("missing Google Cloud credentials. Please set one of:\n\n"+
				"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n"+
				"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n"+
				"2. Export GOOGLE_CREDENTIALS with inline JSON:\n"+
				"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n"+
				"3. Use Application Default Credentials (if gcloud is configured):\n"+
				"   gcloud auth application-default login\n\n"+
				"Original error: %w", err)
		}
		if errors.Is(err, ocr.ErrInvalidConfiguration) {
			log.Error().
				Err(err).
				Msg("OCR engine configuration invalid")
			return nil, fmt.Errorf("invalid OCR engine configuration. Please check your .env file:\n"+
				"  OCR_ENGINE - \"vision\" (default) or \"documentai\"\n"+
				"  GOOGLE_CLOUD_PROJECT - your Google Cloud project ID (Document AI only)\n"+
				"  DOCAI_PROCESSOR_ID - your Document AI OCR processor ID\n"+
				"  DOCAI_LOCATION - processing location (us, eu, ...)\n"+
				"Original error: %w", err)
		}
		log.Error().
			Err(err).
			Msg("Failed to create OCR service")
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}

	log.Debug().Str("engine", cfg.OCREngine).Msg("OCR service created successfully")
	return ocrService, nil
}

// newContactParser builds the inference engine, extending the classifier
// vocabulary from a YAML keyword file when one is configured.
func newContactParser(keywordsPath string, log zerolog.Logger) (*contact.Parser, error) {
	if keywordsPath == "" {
		return contact.NewParser(), nil
	}

	ks, err := contact.LoadKeywordSet(keywordsPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", keywordsPath).
			Msg("Failed to load keyword file")
		return nil, fmt.Errorf("failed to load keyword file: %w", err)
	}

	log.Debug().
		Str("file", keywordsPath).
		Int("company", len(ks.Company)).
		Int("title", len(ks.Title)).
		Int("street", len(ks.Street)).
		Msg("Classifier keywords extended")
	return contact.NewParserWithKeywords(ks), nil
}

// saveContact stores a record in the local contact database
func saveContact(ctx context.Context, dbPath string, rec *models.ContactRecord, log zerolog.Logger) error {
	contactStore, err := store.New(dbPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("db", dbPath).
			Msg("Failed to open contact database")
		return fmt.Errorf("failed to open contact database: %w", err)
	}
	defer func() {
		if closeErr := contactStore.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close contact database")
		}
	}()

	if err := contactStore.Save(ctx, rec); err != nil {
		log.Error().Err(err).Msg("Failed to save contact")
		return fmt.Errorf("failed to save contact: %w", err)
	}

	log.Info().
		Str("id", rec.ID).
		Str("contact", rec.DisplayName()).
		Msg("Contact saved")
	return nil
}

// handleScanError provides user-friendly error messages for scan failures
func handleScanError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Card scan failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("scan timed out. Try increasing --timeout or using a smaller image")
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return fmt.Errorf("scan was canceled")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image file is too large (maximum 20MB). Try downscaling the photo")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("invalid or unsupported image file. Use a JPEG, PNG, GIF, BMP, WEBP or TIFF photo")
	case errors.Is(err, ocr.ErrEmptyImage):
		return fmt.Errorf("no readable text found in the image. The photo may be blurry, dark, or not a business card")
	case errors.Is(err, ocr.ErrInvalidCredentials):
		return fmt.Errorf("Google Cloud rejected the configured credentials. Ensure the service account has the 'Cloud Vision API User' or 'Document AI API User' role")
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return fmt.Errorf("Google Cloud API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Please check your DOCAI_PROCESSOR_ID environment variable")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "invalid_rapt") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n"+
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path\n"+
			"2. Or set GOOGLE_CREDENTIALS with inline JSON credentials\n"+
			"3. Ensure the service account has the 'Cloud Vision API User' or 'Document AI API User' role\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account has the required API role")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("card scan failed: %w", err)
	}
}

// outputScanResults renders the inferred contact in the requested format
func outputScanResults(rec *models.ContactRecord, result *ocr.OCRResult, fileInfo os.FileInfo, format, outputPath string, log zerolog.Logger) error {
	var outputData []byte

	switch format {
	case "json":
		scanOutput := ScanOutput{
			Contact:            rec,
			Text:               result.Text,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
		}

		jsonData, err := json.MarshalIndent(scanOutput, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = jsonData
	case "vcard":
		outputData = []byte(vcard.Encode(rec) + "\r\n")
	default:
		outputData = []byte(renderContactText(rec, result, filepath.Base(fileInfo.Name())))
	}

	return writeOutput(outputData, outputPath, format, log)
}

// renderContactText renders a scanned contact for terminal reading.
func renderContactText(rec *models.ContactRecord, result *ocr.OCRResult, fileName string) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("=== Contact from %s ===\n", fileName))

	if rec.IsEmpty() {
		output.WriteString("No contact fields could be extracted from this card.\n")
		output.WriteString("The text below is what the OCR engine saw:\n\n")
		output.WriteString(result.Text)
		output.WriteString("\n")
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

	output.WriteString("\n")
	if result.Confidence > 0 {
		output.WriteString(fmt.Sprintf("OCR confidence: %.1f%%\n", result.Confidence*100))
	}
	if len(result.LanguageCodes) > 0 {
		output.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(result.LanguageCodes, ", ")))
	}
	output.WriteString(fmt.Sprintf("Processing time: %v", result.ProcessingDuration))

	return output.String()
}

// writeOutput writes rendered results to a file or stdout
func writeOutput(outputData []byte, outputPath, format string, log zerolog.Logger) error {
	if outputPath != "" {
		// Write to file
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Results written to file")
		return nil
	}

	// Write to stdout
	if _, err := os.Stdout.Write(outputData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}

	// vCard output ends with its own CRLF; text and JSON need a closing newline
	if format != "vcard" {
		fmt.Println()
	}
	return nil
}
