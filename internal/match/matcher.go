// Package match resolves a free-text vehicle identifier extracted from a
// noisy document to one vehicle in the known roster.
package match

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/fleetworks/fleet-tracker/internal/entity"
)

const (
	// MatchThreshold is the minimum score for a vehicle to count as a
	// candidate: make (+3) plus a meaningful model word or year (+3) is the
	// weakest acceptable combination, so a single weak signal never matches.
	MatchThreshold = 6

	// MileageProximityWindow is how close a document's odometer reading must
	// be to a vehicle's current mileage to earn the proximity bonus.
	MileageProximityWindow = 5000
)

// ScoreBreakdown records which signals fired for one roster vehicle, so a
// match decision can be audited and the weights tuned without re-reading the
// control flow.
type ScoreBreakdown struct {
	YearExact        bool   // +4
	YearOCRVariant   string // +3 when non-empty, the mangled form that matched
	MakeMatch        bool   // +3
	ModelWord        string // +3 when non-empty, the model word that matched
	MileageProximity bool   // +2
	Total            int
}

// Score evaluates one roster vehicle against an upper-cased identifier. Pure
// function over explicit signals; the Matcher only compares totals.
func Score(identifier string, v entity.VehicleRef, mileageHint *int) ScoreBreakdown {
	var bd ScoreBreakdown

	yearStr := strconv.Itoa(v.Year)
	if strings.Contains(identifier, yearStr) {
		bd.YearExact = true
		bd.Total += 4
	} else if len(yearStr) == 4 {
		// OCR often misreads a leading "2" as 5, 7 or 4 ("5018" for "2018").
		for _, lead := range []string{"5", "7", "4"} {
			variant := lead + yearStr[1:]
			if strings.Contains(identifier, variant) {
				bd.YearOCRVariant = variant
				bd.Total += 3
				break
			}
		}
	}

	if v.Make != "" && strings.Contains(identifier, strings.ToUpper(v.Make)) {
		bd.MakeMatch = true
		bd.Total += 3
	}

	// Any significant model word is enough: for "Transit Connect", seeing
	// "TRANSIT" in the identifier counts.
	for _, part := range strings.Fields(strings.ToUpper(v.Model)) {
		if len(part) >= 4 && strings.Contains(identifier, part) {
			bd.ModelWord = part
			bd.Total += 3
			break
		}
	}

	if mileageHint != nil && v.CurrentMileage > 0 {
		diff := *mileageHint - v.CurrentMileage
		if diff < 0 {
			diff = -diff
		}
		if diff < MileageProximityWindow {
			bd.MileageProximity = true
			bd.Total += 2
		}
	}

	return bd
}

type Matcher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// Match resolves identifier against the roster. A VIN or license plate
// appearing inside the identifier wins immediately; otherwise the weighted
// score decides, with ties broken by roster order. Returns false when no
// vehicle clears the threshold; the caller must not fabricate a result.
func (m *Matcher) Match(identifier string, roster []entity.VehicleRef, mileageHint *int) (entity.VehicleRef, bool) {
	identifier = strings.ToUpper(strings.TrimSpace(identifier))
	if identifier == "" {
		return entity.VehicleRef{}, false
	}

	// Exact-substring shortcut: highest-confidence signals skip scoring.
	for _, v := range roster {
		if v.VIN != "" && strings.Contains(identifier, strings.ToUpper(v.VIN)) {
			m.logger.Debug("matched by vin", "vehicle_id", v.ID, "vin", v.VIN)
			return v, true
		}
		if v.LicensePlate != "" && strings.Contains(identifier, strings.ToUpper(v.LicensePlate)) {
			m.logger.Debug("matched by plate", "vehicle_id", v.ID, "plate", v.LicensePlate)
			return v, true
		}
	}

	var (
		best      entity.VehicleRef
		bestScore int
		found     bool
	)
	for _, v := range roster {
		bd := Score(identifier, v, mileageHint)
		if bd.Total < MatchThreshold {
			continue
		}
		m.logger.Debug("match candidate",
			"vehicle_id", v.ID,
			"label", v.Label(),
			"score", bd.Total,
			"year_exact", bd.YearExact,
			"year_ocr", bd.YearOCRVariant,
			"make", bd.MakeMatch,
			"model_word", bd.ModelWord,
			"mileage_proximity", bd.MileageProximity,
		)
		// Strictly greater keeps the first-encountered vehicle on ties.
		if !found || bd.Total > bestScore {
			best = v
			bestScore = bd.Total
			found = true
		}
	}

	if found {
		m.logger.Info("vehicle matched", "vehicle_id", best.ID, "label", best.Label(), "score", bestScore)
	}
	return best, found
}
