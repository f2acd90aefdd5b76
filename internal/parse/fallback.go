package parse

import (
	"context"
	"log/slog"

	"github.com/fleetworks/fleet-tracker/internal/entity"
)

// FallbackParser chains two FieldParsers: if the primary fails for any reason
// (network, timeout, malformed response), the fallback answers instead. The
// AI path is an optimization, never a single point of failure.
type FallbackParser struct {
	primary  FieldParser
	fallback FieldParser
	logger   *slog.Logger
}

func NewFallbackParser(primary, fallback FieldParser, logger *slog.Logger) *FallbackParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackParser{primary: primary, fallback: fallback, logger: logger}
}

func (p *FallbackParser) Parse(ctx context.Context, text string, roster []entity.VehicleRef) (CandidateRecord, error) {
	rec, err := p.primary.Parse(ctx, text, roster)
	if err == nil {
		return rec, nil
	}
	p.logger.Warn("primary parser failed, using fallback", "error", err)
	return p.fallback.Parse(ctx, text, roster)
}
