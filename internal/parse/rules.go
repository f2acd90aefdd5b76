package parse

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fleetworks/fleet-tracker/constants"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

// RuleParser is the deterministic fallback field parser. It extracts every
// CandidateRecord field with regex and keyword matching; no field's parse
// failure ever aborts extraction of the others.
type RuleParser struct {
	logger *slog.Logger
}

func NewRuleParser(logger *slog.Logger) *RuleParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleParser{logger: logger}
}

var (
	reVIN = regexp.MustCompile(`(?i)\b[A-HJ-NPR-Z0-9]{17}\b`)

	rePlates = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[A-Z]{2,3}[0-9]{3,4}\b`),
		regexp.MustCompile(`(?i)\b[0-9]{1,3}[A-Z]{2,3}[0-9]{1,3}\b`),
	}

	// "Vehicle: 5018 Ford Transit": the year group tolerates OCR-mangled
	// leading digits, fixed up by fixOCRYear below.
	reVehicleLabel = regexp.MustCompile(`(?i)Vehicle\s*:\s*(\d{4})\s+([A-Za-z]+)\s+([A-Za-z]+)`)

	reYearMakeModel = regexp.MustCompile(`(?i)(199[0-9]|20[0-3][0-9])\s+([A-Za-z]+)\s+([A-Za-z][a-z]+(?:\s+[A-Z0-9][a-z0-9]+)*)`)

	reMakeModel = regexp.MustCompile(`(?i)\b(` + strings.Join(constants.KnownMakes, "|") + `)\s+([A-Za-z][a-z]+(?:\s+[A-Z0-9][a-z0-9]+)*)`)

	reMileages = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:mileage|odometer|miles?)[\s:]+([0-9,]+)`),
		regexp.MustCompile(`(?i)([0-9,]+)\s+(?:miles?|mi\b)`),
	}

	// Cost tiers, most trustworthy first. Labeled totals, then dollar amounts
	// at end of line (often the total on a receipt), then any dollar amount,
	// then bare two-decimal numbers for OCR that dropped the currency symbol.
	reCosts = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:total|grand\s*total|amount\s*due|total\s*due|balance|total\s*cost)[\s:$]*\$?\s?([0-9,]+\.[0-9]{2})`),
		regexp.MustCompile(`(?m)\$\s?([0-9,]+\.[0-9]{2})\s*$`),
		regexp.MustCompile(`\$\s?([0-9,]+\.[0-9]{2})`),
		regexp.MustCompile(`\b([0-9,]+\.[0-9]{2})\b`),
	}

	reDates = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
		regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	}

	dateLayouts = []string{"01/02/2006", "01-02-2006", "2006-01-02", "01/02/06"}
)

// Maintenance receipts stay within this cost band; anything outside it is a
// line number, a VIN fragment, or OCR noise.
const (
	minPlausibleCost = 1.00
	maxPlausibleCost = 50000.00
)

func (p *RuleParser) Parse(_ context.Context, text string, _ []entity.VehicleRef) (CandidateRecord, error) {
	var rec CandidateRecord

	rec.VehicleIdentifier = extractVehicleIdentifier(text)
	rec.Mileage = extractMileage(text)
	rec.Cost = extractCost(text)
	rec.ServiceDate = extractServiceDate(text)
	rec.MaintenanceType = extractMaintenanceType(text)

	p.logger.Debug("rule parse complete",
		"has_identifier", rec.VehicleIdentifier != nil,
		"has_mileage", rec.Mileage != nil,
		"has_cost", rec.Cost != nil,
		"has_date", rec.ServiceDate != nil,
	)
	return rec, nil
}

// extractVehicleIdentifier tries identifier shapes in decreasing order of
// confidence: VIN, license plate, labeled "Vehicle:" line, bare
// year+make+model, bare make+model. First hit wins.
func extractVehicleIdentifier(text string) *string {
	if m := reVIN.FindString(text); m != "" {
		return &m
	}

	for _, re := range rePlates {
		if m := re.FindString(text); m != "" {
			return &m
		}
	}

	if groups := reVehicleLabel.FindStringSubmatch(text); groups != nil {
		year, make, model := groups[1], groups[2], groups[3]
		if fixed, ok := fixOCRYear(year); ok {
			id := fixed + " " + make + " " + model
			return &id
		}
		id := year + " " + make + " " + model
		return &id
	}

	if m := reYearMakeModel.FindString(text); m != "" {
		m = strings.TrimSpace(m)
		return &m
	}

	if m := reMakeModel.FindString(text); m != "" {
		m = strings.TrimSpace(m)
		return &m
	}

	return nil
}

// fixOCRYear rewrites 4-digit years whose leading "2" was misread as 5, 7 or
// 4 (the common OCR confusions): "5018" -> "2018". Genuine years pass through
// untouched, so the rewrite is directional and idempotent.
func fixOCRYear(year string) (string, bool) {
	if len(year) != 4 {
		return year, false
	}
	switch year[0] {
	case '5', '7', '4':
		return "20" + year[2:], true
	}
	return year, false
}

func extractMileage(text string) *int {
	for _, re := range reMileages {
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(groups[1], ",", ""))
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// extractCost collects every plausible monetary token across all tiers and
// keeps the maximum. The grand total is usually the largest figure on a
// receipt; a line-item discount can break this heuristic, which is accepted
// as a known accuracy limit rather than silently patched.
func extractCost(text string) *float64 {
	var costs []float64
	for _, re := range reCosts {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(strings.ReplaceAll(groups[1], ",", ""), 64)
			if err != nil {
				continue
			}
			if v >= minPlausibleCost && v <= maxPlausibleCost {
				costs = append(costs, v)
			}
		}
	}
	if len(costs) == 0 {
		return nil
	}
	max := costs[0]
	for _, v := range costs[1:] {
		if v > max {
			max = v
		}
	}
	return &max
}

func extractServiceDate(text string) *string {
	for _, re := range reDates {
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		for _, layout := range dateLayouts {
			t, err := time.Parse(layout, groups[1])
			if err != nil {
				continue
			}
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// extractMaintenanceType walks the fixed keyword table in order and returns
// the first type whose keywords appear in the text; "General Service" when
// nothing matches.
func extractMaintenanceType(text string) *string {
	lower := strings.ToLower(text)
	for _, entry := range constants.MaintenanceKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				s := string(entry.Type)
				return &s
			}
		}
	}
	s := string(constants.GeneralService)
	return &s
}
