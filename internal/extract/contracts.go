package extract

import (
	"context"
	"time"

	"github.com/fleetworks/fleet-tracker/constants"
)

// TextExtractor is Stage 1 of the document pipeline: raw bytes -> plain text.
//
// Implementations return empty text (not an error) for unsupported or
// unreadable documents; the orchestrator turns empty text into a typed
// failure. The only error an implementation may surface is a configuration
// problem such as a missing OCR engine (common.ErrOCRUnavailable).
type TextExtractor interface {
	Extract(ctx context.Context, filename string, content []byte) (Result, error)
}

// Result carries the extracted text plus extraction metadata for logging.
type Result struct {
	Text       string
	Pages      int
	SourceType constants.DocumentFormat
	Method     string // "pdf-text" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
}
