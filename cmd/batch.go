package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cardscan/internal/config"
	"cardscan/internal/contact"
	"cardscan/internal/logger"
	"cardscan/internal/ocr"
	"cardscan/internal/store"
	"cardscan/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Scan all business card photos in a folder",
	Long: `Scan every card photo in a folder through OCR and contact inference,
using a pool of parallel workers.

Each image is processed independently: a failure on one card is reported and
the batch continues. Cards whose text yields no contact fields are counted as
warnings, not errors. With --save, all scanned contacts are stored in the
local database, tagged via --tag.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 4)`,
	Example: `  # Scan a folder of card photos collected at an event
  cardscan batch ./cards --save --tag web-summit-2026

  # Dry pass without touching the database
  cardscan batch ./cards

  # Show per-card contact details while scanning
  cardscan batch ./cards --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// BatchResult represents the result of scanning a single card image
type BatchResult struct {
	Filename string
	Contact  *models.ContactRecord
	Error    error
	Status   string // "success", "warning", "error"
	Index    int    // Original order index
}

// ScanJob represents a card image scanning job
type ScanJob struct {
	FilePath string
	Index    int
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Bool("save", false, "Save scanned contacts into the local database")
	batchCmd.Flags().String("tag", "", "Event tag stored with every contact")
	batchCmd.Flags().String("engine", "", "OCR engine: vision or documentai (default: OCR_ENGINE)")
	batchCmd.Flags().String("keywords", "", "YAML file extending the classifier keywords (default: KEYWORDS_FILE)")
	batchCmd.Flags().Bool("verbose", false, "Show detailed per-card information")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	// Get flags
	folderPath := args[0]
	save, _ := cmd.Flags().GetBool("save")
	tag, _ := cmd.Flags().GetString("tag")
	engine, _ := cmd.Flags().GetString("engine")
	keywordsPath, _ := cmd.Flags().GetString("keywords")
	verbose, _ := cmd.Flags().GetBool("verbose")

	// Validate folder path
	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
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
		Str("folder", folderPath).
		Str("engine", cfg.OCREngine).
		Str("tag", tag).
		Bool("save", save).
		Bool("verbose", verbose).
		Msg("Starting batch card scan")

	// Print header
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                            BATCH CARD SCAN")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Folder: %s\n", folderPath)
	fmt.Printf("Engine: %s\n", cfg.OCREngine)
	if tag != "" {
		fmt.Printf("Tag: %s\n", tag)
	}
	if !save {
		fmt.Println("Mode: dry pass (contacts will not be saved, use --save)")
	}
	fmt.Println()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// Build the inference engine
	parser, err := newContactParser(keywordsPath, log)
	if err != nil {
		return err
	}

	// Create OCR service, shared across workers
	ocrService, err := createOCRService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ocrService.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	// Find all card images
	imageFiles, err := findImageFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find card images: %w", err)
	}

	if len(imageFiles) == 0 {
		fmt.Println("No card images found in the folder.")
		return nil
	}

	numWorkers := cfg.BatchWorkers
	fmt.Printf("Scanning %d images with %d parallel workers...\n", len(imageFiles), numWorkers)
	fmt.Println()

	// Scan all images in parallel
	results := scanImagesInParallel(ctx, imageFiles, parser, ocrService, tag, numWorkers, log, verbose)

	fmt.Println()

	// Count results
	successCount := 0
	warningCount := 0
	errorCount := 0
	for _, result := range results {
		switch result.Status {
		case "success":
			successCount++
		case "warning":
			warningCount++
		case "error":
			errorCount++
		}
	}

	// Print summary
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Scanned: %d\n", successCount)
	if warningCount > 0 {
		fmt.Printf("Without contact fields: %d\n", warningCount)
	}
	if errorCount > 0 {
		fmt.Printf("Errors: %d\n", errorCount)
	}
	fmt.Println()

	// Save contacts if requested
	if save {
		savedCount, err := saveBatchResults(ctx, cfg.DatabasePath, results, log)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d contacts to %s\n", savedCount, cfg.DatabasePath)
	}

	fmt.Println(strings.Repeat("=", 80))

	log.Info().
		Int("total", len(imageFiles)).
		Int("success", successCount).
		Int("warnings", warningCount).
		Int("errors", errorCount).
		Msg("Batch card scan completed")

	return nil
}

// findImageFiles finds all card images in the specified folder
func findImageFiles(folderPath string) ([]string, error) {
	var imageFiles []string

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && knownImageExtensions[strings.ToLower(filepath.Ext(info.Name()))] {
			imageFiles = append(imageFiles, path)
		}

		return nil
	})

	return imageFiles, err
}

// scanSingleImage runs one card image through OCR and contact inference
func scanSingleImage(ctx context.Context, imagePath, tag string, parser *contact.Parser, ocrService ocr.OCRService, log zerolog.Logger, verbose bool) BatchResult {
	result := BatchResult{
		Status: "error",
	}

	imageFile, err := os.Open(imagePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to open image file: %w", err)
		return result
	}
	defer imageFile.Close()

	text, err := ocrService.ProcessImage(ctx, imageFile)
	if err != nil {
		result.Error = fmt.Errorf("OCR failed: %w", err)
		return result
	}

	rec := parser.Infer(text)
	rec.ImageRef = imagePath
	rec.EventTag = tag

	result.Contact = rec
	result.Status = "success"

	// A card that produced text but no fields still gets stored; flag it so
	// the user knows to fill it in by hand.
	if rec.IsEmpty() {
		result.Status = "warning"
	}

	if verbose {
		log.Info().
			Str("file", filepath.Base(imagePath)).
			Str("name", rec.Name).
			Str("email", rec.Email).
			Str("company", rec.Company).
			Msg("Card scanned successfully")
	}

	return result
}

// scanImagesInParallel scans card images using a worker pool pattern
func scanImagesInParallel(ctx context.Context, imageFiles []string, parser *contact.Parser, ocrService ocr.OCRService, tag string, numWorkers int, log zerolog.Logger, verbose bool) []BatchResult {
	// Create job channel and result slice
	jobs := make(chan ScanJob, len(imageFiles))
	results := make([]BatchResult, len(imageFiles))

	// Create progress tracking
	var processedCount int
	var mu sync.Mutex

	// Start workers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker scanning card")

				result := scanSingleImage(ctx, job.FilePath, tag, parser, ocrService, log, verbose)
				result.Index = job.Index
				result.Filename = filepath.Base(job.FilePath)

				// Store result in correct position
				results[job.Index] = result

				// Update progress safely
				mu.Lock()
				processedCount++
				currentCount := processedCount
				mu.Unlock()

				// Show progress
				status := getStatusMarker(result.Status)
				mu.Lock()
				fmt.Printf("[%d/%d] %s - %s", currentCount, len(imageFiles), filepath.Base(job.FilePath), status)

				if result.Error != nil {
					fmt.Printf(" (%s)", result.Error.Error())
				} else if result.Contact != nil {
					fmt.Printf(" (%s)", result.Contact.Summary())
				}
				fmt.Println()
				mu.Unlock()
			}
		}(w)
	}

	// Send jobs
	for i, imageFile := range imageFiles {
		jobs <- ScanJob{
			FilePath: imageFile,
			Index:    i,
		}
	}
	close(jobs)

	// Wait for all workers to complete
	wg.Wait()

	return results
}

// saveBatchResults stores every scanned contact, including field-less ones
func saveBatchResults(ctx context.Context, dbPath string, results []BatchResult, log zerolog.Logger) (int, error) {
	contactStore, err := store.New(dbPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("db", dbPath).
			Msg("Failed to open contact database")
		return 0, fmt.Errorf("failed to open contact database: %w", err)
	}
	defer func() {
		if closeErr := contactStore.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close contact database")
		}
	}()

	savedCount := 0
	for _, result := range results {
		if result.Contact == nil {
			continue
		}
		if err := contactStore.Save(ctx, result.Contact); err != nil {
			log.Error().
				Err(err).
				Str("file", result.Filename).
				Msg("Failed to save contact")
			fmt.Printf("Failed to save %s: %v\n", result.Filename, err)
			continue
		}
		savedCount++
	}

	return savedCount, nil
}

// getStatusMarker returns a marker for the scan status
func getStatusMarker(status string) string {
	switch status {
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	default:
		return "❓"
	}
}
