// Package ocr extracts raw text from business card photos using Google Cloud
// Vision API or Google Document AI.
//
// This package only produces text; turning that text into a contact is the
// job of the contact package.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID (Document AI only)
//
// Limitations:
//   - Maximum image size: 20MB for synchronous processing
//   - Supported formats: JPEG, PNG, GIF, BMP, WEBP, TIFF
//   - One card per image; multi-card photos come back as one text blob
//   - Document AI requires a provisioned OCR processor (DOCAI_PROCESSOR_ID)
package ocr

import (
	"context"
	"fmt"
	"io"
	"time"

	"cardscan/internal/config"
)

// OCRService defines the interface for OCR text extraction services.
type OCRService interface {
	// ProcessImage extracts raw text from a business card image.
	ProcessImage(ctx context.Context, imageData io.Reader) (string, error)

	// ProcessImageWithMetadata extracts text from a business card image with
	// additional metadata such as confidence scores and detected languages.
	ProcessImageWithMetadata(ctx context.Context, imageData io.Reader) (*OCRResult, error)

	// Close releases the underlying API client.
	Close() error
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the extracted text content in reading order.
	Text string `json:"text"`

	// Confidence is the average confidence score across detected text (0.0 to 1.0).
	// Higher values indicate more reliable text detection.
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the languages detected on the card.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// NewFromConfig constructs the OCR engine selected by cfg.OCREngine.
func NewFromConfig(ctx context.Context, cfg *config.Config) (OCRService, error) {
	const op = "NewFromConfig"

	switch cfg.OCREngine {
	case "documentai":
		return NewDocumentAIOCRService(ctx, DocAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.DocAILocation,
			ProcessorID:      cfg.DocAIProcessorID,
			ProcessorVersion: cfg.DocAIProcessorVersion,
		})
	case "vision":
		return NewGoogleVisionOCRService(ctx)
	default:
		return nil, WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("unknown OCR engine: %q", cfg.OCREngine))
	}
}

// detectImageMime sniffs the image format from its magic bytes and returns
// the MIME type plus whether the format is supported.
func detectImageMime(data []byte) (string, bool) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg", true
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png", true
	case len(data) >= 4 && string(data[:4]) == "GIF8":
		return "image/gif", true
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp", true
	case len(data) >= 2 && string(data[:2]) == "BM":
		return "image/bmp", true
	case len(data) >= 4 && (string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*"):
		return "image/tiff", true
	default:
		return "", false
	}
}
