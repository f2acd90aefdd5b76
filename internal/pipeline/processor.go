package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/fleetworks/fleet-tracker/internal/entity"
	"github.com/fleetworks/fleet-tracker/internal/extract"
	"github.com/fleetworks/fleet-tracker/internal/match"
	"github.com/fleetworks/fleet-tracker/internal/parse"
)

const (
	// MinTextLength is the trimmed-text floor below which no parser can
	// produce reliable structured data; fail fast instead of burning a
	// parser call.
	MinTextLength = 50

	// ExcerptLimit caps the raw-text excerpt attached to results.
	ExcerptLimit = 500
)

// Processor sequences text extraction, field parsing and vehicle matching
// into one synchronous run per document. Safe for concurrent use across
// independent documents as long as callers hand each run its own roster
// snapshot.
type Processor struct {
	extractor extract.TextExtractor
	parser    parse.FieldParser
	matcher   *match.Matcher
	logger    *slog.Logger
}

func NewProcessor(extractor extract.TextExtractor, parser parse.FieldParser, matcher *match.Matcher, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = match.New(logger)
	}
	return &Processor{extractor: extractor, parser: parser, matcher: matcher, logger: logger}
}

// Process runs the pipeline once. Every stage runs exactly once, no retries.
// The returned error is reserved for configuration problems (OCR engine
// missing); all per-document problems come back as a typed failure Result.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	// 1) bytes -> text
	ext, err := p.extractor.Extract(ctx, req.Filename, req.Content)
	if err != nil {
		return Result{}, fmt.Errorf("extract text: %w", err)
	}
	text := ext.Text
	p.logger.Info("text extracted",
		"filename", req.Filename,
		"method", ext.Method,
		"pages", ext.Pages,
		"chars", len(text),
	)

	if len(strings.TrimSpace(text)) < MinTextLength {
		return failure(FailureInsufficientText, nil, nil, ""), nil
	}

	// 2) text -> candidate fields
	rec, err := p.parser.Parse(ctx, text, req.Roster)
	if err != nil {
		// The fallback chain should have absorbed parser trouble; a failure
		// here means even the deterministic parser broke, which is a bug.
		return Result{}, fmt.Errorf("parse fields: %w", err)
	}

	// 3) resolve vehicle; an explicit user preselection always wins
	var (
		vehicle entity.VehicleRef
		matched bool
	)
	if req.PreselectedVehicleID != nil {
		for _, v := range req.Roster {
			if v.ID == *req.PreselectedVehicleID {
				vehicle = v
				matched = true
				p.logger.Info("using preselected vehicle", "vehicle_id", v.ID, "label", v.Label())
				break
			}
		}
	}
	if !matched && rec.VehicleIdentifier != nil {
		vehicle, matched = p.matcher.Match(*rec.VehicleIdentifier, req.Roster, rec.Mileage)
	}

	// 4) no vehicle -> manual selection
	if !matched {
		return failure(FailureVehicleNotIdentified, &rec, nil, text), nil
	}

	// 5) record needs a maintenance type
	if rec.MaintenanceType == nil {
		return failure(FailureMaintenanceTypeUnknown, &rec, &vehicle, text), nil
	}

	// 6) assemble success
	description := "Imported from " + req.Filename
	if rec.Description != nil && strings.TrimSpace(*rec.Description) != "" {
		description = *rec.Description
	}

	return Result{
		Success:            true,
		Vehicle:            &vehicle,
		MaintenanceType:    *rec.MaintenanceType,
		Description:        description,
		ServiceDate:        rec.ServiceDate,
		Mileage:            rec.Mileage,
		Cost:               rec.Cost,
		Provider:           rec.Provider,
		NextServiceMileage: rec.NextServiceMileage,
		RawTextExcerpt:     excerpt(text),
	}, nil
}

func failure(reason FailureReason, rec *parse.CandidateRecord, vehicle *entity.VehicleRef, text string) Result {
	return Result{
		Success:        false,
		FailureReason:  reason,
		Error:          reason.Message(),
		Extracted:      rec,
		Vehicle:        vehicle,
		RawTextExcerpt: excerpt(text),
	}
}

func excerpt(text string) string {
	if len(text) <= ExcerptLimit {
		return text
	}
	// Back off to a rune boundary so the cut never leaves an invalid tail.
	cut := ExcerptLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
