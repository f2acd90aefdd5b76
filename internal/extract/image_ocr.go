package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fleetworks/fleet-tracker/constants"
	"github.com/fleetworks/fleet-tracker/internal/common"
)

// extractImage writes the image bytes to a scratch file and runs tesseract
// over it. OCR failures on a particular image degrade to empty text; a
// missing tesseract binary is the one error that propagates, because no
// image will ever extract until an operator fixes the deployment.
func (e *Extractor) extractImage(ctx context.Context, content []byte, ext string) (Result, error) {
	res := Result{SourceType: constants.IMAGE, Method: "image-ocr", Pages: 1}

	tmpDir, err := os.MkdirTemp("", "ft-ocr-*")
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return res, nil
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove ocr scratch dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	path := filepath.Join(tmpDir, "page."+ext)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return res, nil
	}

	txt, warns, err := e.tesseractOCR(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			e.logger.Error("tesseract binary not found", "binary", e.cfg.Tesseract)
			return res, fmt.Errorf("%w: %s not installed", common.ErrOCRUnavailable, e.cfg.Tesseract)
		}
		// A bad image is a per-document problem, not an extractor failure.
		e.logger.Warn("image ocr failed", "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return res, nil
	}

	res.Text = normalizeText(txt)
	return res, nil
}

// tesseractOCR runs: tesseract <file> stdout -l <lang> --psm N --oem N
func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{
		path, "stdout",
		"-l", e.cfg.TesseractLang,
		"--psm", fmt.Sprintf("%d", e.cfg.PSM),
		"--oem", fmt.Sprintf("%d", e.cfg.OEM),
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
