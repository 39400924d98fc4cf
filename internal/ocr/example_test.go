package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cardscan/internal/config"
	"cardscan/internal/ocr"
)

// Example demonstrates basic usage of the OCR service.
func Example() {
	// Load .env file (using godotenv in main)
	// This should be done in your main() function:
	//
	// if err := godotenv.Load(); err != nil {
	//     log.Printf("Warning: Could not load .env file: %v", err)
	// }

	// Create context with timeout for OCR processing
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create service - credentials handled internally from environment
	ocrService, err := ocr.NewGoogleVisionOCRService(ctx)
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer ocrService.Close()

	// Open business card image
	cardFile, err := os.Open("business_card.jpg")
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer cardFile.Close()

	// Extract the raw card text
	text, err := ocrService.ProcessImage(ctx, cardFile)
	if err != nil {
		log.Fatalf("Failed to process image: %v", err)
	}

	fmt.Printf("Extracted text (%d characters):\n%s\n", len(text), text)
}

// Example_metadata demonstrates OCR processing with detailed metadata.
func Example_metadata() {
	ctx := context.Background()

	ocrService, err := ocr.NewGoogleVisionOCRService(ctx)
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer ocrService.Close()

	cardFile, err := os.Open("business_card.jpg")
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer cardFile.Close()

	result, err := ocrService.ProcessImageWithMetadata(ctx, cardFile)
	if err != nil {
		log.Fatalf("Failed to process image: %v", err)
	}

	fmt.Printf("OCR Results:\n")
	fmt.Printf("  Confidence: %.2f%%\n", result.Confidence*100)
	fmt.Printf("  Languages: %s\n", strings.Join(result.LanguageCodes, ", "))
	fmt.Printf("  Processing time: %v\n", result.ProcessingDuration)
	fmt.Printf("  Processed at: %v\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Printf("\nExtracted text:\n%s\n", result.Text)
}

// Example_errorHandling demonstrates proper error handling patterns.
func Example_errorHandling() {
	ctx := context.Background()

	ocrService, err := ocr.NewGoogleVisionOCRService(ctx)
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Fatalf("Please set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
		}
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer ocrService.Close()

	cardFile, err := os.Open("huge_scan.tiff")
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer cardFile.Close()

	result, err := ocrService.ProcessImageWithMetadata(ctx, cardFile)
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrImageTooLarge):
			log.Printf("Image is too large for processing. Maximum size is 20MB.")
			return
		case errors.Is(err, ocr.ErrInvalidImage):
			log.Printf("The file is not a supported image format.")
			return
		case errors.Is(err, ocr.ErrEmptyImage):
			log.Printf("No readable text found on the card.")
			return
		default:
			log.Fatalf("OCR processing failed: %v", err)
		}
	}

	fmt.Printf("Extracted %d characters\n", len(result.Text))
}

// ExampleNewFromConfig demonstrates engine selection through configuration.
func ExampleNewFromConfig() {
	ctx := context.Background()

	// OCR_ENGINE=vision (default) or OCR_ENGINE=documentai
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ocrService, err := ocr.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer ocrService.Close()

	// Process multiple card images with one client
	cardFiles := []string{"card1.jpg", "card2.png", "card3.jpg"}

	for _, filename := range cardFiles {
		func(filename string) {
			file, err := os.Open(filename)
			if err != nil {
				log.Printf("Failed to open %s: %v", filename, err)
				return
			}
			defer file.Close()

			// Create context with timeout for each file
			fileCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			result, err := ocrService.ProcessImageWithMetadata(fileCtx, file)
			if err != nil {
				log.Printf("Failed to process %s: %v", filename, err)
				return
			}

			fmt.Printf("%s: %.1f%% confidence, %d chars\n",
				filename, result.Confidence*100, len(result.Text))
		}(filename)
	}
}
