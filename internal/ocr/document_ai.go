package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"cardscan/internal/logger"
)

// DefaultDocAITimeout bounds a single ProcessDocument call.
const DefaultDocAITimeout = 60 * time.Second

// DocAIConfig holds Document AI processor configuration.
type DocAIConfig struct {
	ProjectID        string
	Location         string // e.g. "us" or "eu"
	ProcessorID      string
	ProcessorVersion string // optional, defaults to the processor's default version
	Timeout          time.Duration
}

// DocumentAIOCRService implements OCRService using a Google Document AI OCR processor.
type DocumentAIOCRService struct {
	client *documentai.DocumentProcessorClient
	config DocAIConfig
	log    zerolog.Logger
}

// NewDocumentAIOCRService creates a new OCR service backed by Document AI.
// Credentials come from GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS.
func NewDocumentAIOCRService(ctx context.Context, config DocAIConfig) (OCRService, error) {
	const op = "NewDocumentAIOCRService"

	if config.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCAI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultDocAITimeout
	}

	var clientOptions []option.ClientOption

	// Set regional endpoint if not the multi-region default
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	// Add credentials
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIOCRService{
		client: client,
		config: config,
		log:    logger.WithComponent("documentai-ocr"),
	}, nil
}

// NewDocumentAIOCRServiceWithClient creates a new OCR service with an explicit client (for testing).
func NewDocumentAIOCRServiceWithClient(config DocAIConfig, client *documentai.DocumentProcessorClient) OCRService {
	if config.Timeout == 0 {
		config.Timeout = DefaultDocAITimeout
	}
	return &DocumentAIOCRService{
		client: client,
		config: config,
		log:    logger.WithComponent("documentai-ocr"),
	}
}

// ProcessImage extracts text from a business card image.
func (d *DocumentAIOCRService) ProcessImage(ctx context.Context, imageData io.Reader) (string, error) {
	result, err := d.ProcessImageWithMetadata(ctx, imageData)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ProcessImageWithMetadata extracts text from a business card image with additional metadata.
func (d *DocumentAIOCRService) ProcessImageWithMetadata(ctx context.Context, imageData io.Reader) (*OCRResult, error) {
	const op = "ProcessImageWithMetadata"
	startTime := time.Now()

	imgBytes, err := io.ReadAll(imageData)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image data")
	}

	// Validate file size
	if len(imgBytes) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("file size: %d bytes", len(imgBytes)))
	}

	// Validate image format; Document AI needs the MIME type up front
	mimeType, ok := detectImageMime(imgBytes)
	if !ok {
		return nil, WrapOCRError(op, ErrInvalidImage, "unrecognized image header")
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imgBytes,
				MimeType: mimeType,
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, d.handleProcessingError(op, err)
	}

	if resp.Document == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result, err := d.processDocument(resp.Document)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Document AI response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	d.log.Debug().
		Str("mime_type", mimeType).
		Int("text_length", len(result.Text)).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Document AI OCR completed")

	return result, nil
}

// processDocument extracts text and metadata from a Document AI document.
func (d *DocumentAIOCRService) processDocument(doc *documentaipb.Document) (*OCRResult, error) {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyImage
	}

	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for _, page := range doc.Pages {
		if page.Layout != nil && page.Layout.Confidence > 0 {
			confidenceSum += page.Layout.Confidence
			confidenceCount++
		}
		for _, lang := range page.DetectedLanguages {
			if lang.LanguageCode != "" {
				languageSet[lang.LanguageCode] = true
			}
		}
	}

	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	var languages []string
	for lang := range languageSet {
		languages = append(languages, lang)
	}

	return &OCRResult{
		Text:          text,
		Confidence:    avgConfidence,
		LanguageCodes: languages,
	}, nil
}

// processorName constructs the full processor name for the Document AI API.
func (d *DocumentAIOCRService) processorName() string {
	if d.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			d.config.ProjectID, d.config.Location, d.config.ProcessorID, d.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to the package's sentinel errors.
func (d *DocumentAIOCRService) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapOCRError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "RESOURCE_EXHAUSTED") || strings.Contains(errStr, "QUOTA_EXCEEDED"):
		return WrapOCRError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapOCRError(op, ErrInvalidImage, "image format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return WrapOCRError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (d *DocumentAIOCRService) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
