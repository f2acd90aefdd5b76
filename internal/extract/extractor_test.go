package extract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetworks/fleet-tracker/constants"
	"github.com/fleetworks/fleet-tracker/internal/common"
)

// stubRunner replaces the tesseract binary in tests.
type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotName string
	gotArgs []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.gotName = name
	s.gotArgs = args
	return s.stdout, s.stderr, s.err
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{}, nil)
	e.runner = r
	return e
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := newTestExtractor(&stubRunner{})

	res, err := e.Extract(context.Background(), "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestExtractImageOCR(t *testing.T) {
	r := &stubRunner{stdout: []byte("Vehicle: 2018 Ford Transit\r\nTotal:  $58.25\n")}
	e := newTestExtractor(r)

	res, err := e.Extract(context.Background(), "receipt.jpg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "Vehicle: 2018 Ford Transit\nTotal: $58.25", res.Text)

	assert.Equal(t, "tesseract", r.gotName)
	require.GreaterOrEqual(t, len(r.gotArgs), 2)
	assert.Equal(t, "stdout", r.gotArgs[1])
	assert.Contains(t, r.gotArgs, "-l")
	assert.Contains(t, r.gotArgs, "eng")
	assert.Contains(t, r.gotArgs, "--psm")
	assert.Contains(t, r.gotArgs, "6")

	// The scratch file must be gone after the run.
	_, statErr := os.Stat(r.gotArgs[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractImageMissingBinary(t *testing.T) {
	r := &stubRunner{err: exec.ErrNotFound}
	e := newTestExtractor(r)

	_, err := e.Extract(context.Background(), "receipt.png", []byte{0x89, 0x50})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrOCRUnavailable))
}

func TestExtractImageOCRFailureDegrades(t *testing.T) {
	r := &stubRunner{stderr: []byte("read error"), err: errors.New("exit status 1")}
	e := newTestExtractor(r)

	res, err := e.Extract(context.Background(), "receipt.jpg", []byte{0xff})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractCorruptPDFDegrades(t *testing.T) {
	e := newTestExtractor(&stubRunner{})

	res, err := e.Extract(context.Background(), "broken.pdf", []byte("not a pdf at all"))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"tabs and runs", "a\t\tb   c", "a b c"},
		{"box noise line", "a\n-----\nb", "a\n\nb"},
		{"blank collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"digits untouched", "Odometer: 45,230", "Odometer: 45,230"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeText(tt.in))
		})
	}
}
