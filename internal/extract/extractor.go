package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fleetworks/fleet-tracker/constants"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"

	// Fixed recognition mode tuned for a uniform block of text, which is what
	// receipts and invoices look like. PSM 6 / OEM 3 unless overridden.
	PSM int
	OEM int
}

// Extractor converts maintenance documents (PDF or image bytes) into plain
// text. PDFs are parsed in-process; images go through the tesseract binary.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the filename extension.
//
// Unsupported extensions and unreadable documents yield empty text with a nil
// error; a missing tesseract binary yields common.ErrOCRUnavailable.
func (e *Extractor) Extract(ctx context.Context, filename string, content []byte) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(filename))

	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res := e.extractPDF(content)
		res.Duration = time.Since(start)
		return res, nil
	case constants.IMAGE:
		res, err := e.extractImage(ctx, content, ext)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Debug("unsupported document extension", "filename", filename, "ext", ext)
		return Result{Duration: time.Since(start)}, nil
	}
}
