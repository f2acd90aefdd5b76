package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var candidateKeys = []string{
	"vehicle_identifier", "maintenance_type", "description", "service_date",
	"mileage", "cost", "provider", "next_service_mileage",
}

// NormalizeCandidateJSON nudges a model response into strict schema shape:
//   - numeric fields sent as strings ("12,345", "$245.50") become numbers
//   - empty strings collapse to null
//   - unknown keys are removed
//   - omitted fields are filled in as explicit null
//
// It reports what it touched so the caller can log it.
func NormalizeCandidateJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var touched []string

	// integer fields
	for _, k := range []string{"mileage", "next_service_mileage"} {
		switch t := m[k].(type) {
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
			if n, err := strconv.Atoi(s); err == nil && n >= 0 {
				m[k] = n
			} else {
				m[k] = nil
			}
			touched = append(touched, k+"(string)")
		case float64:
			m[k] = int(math.Round(t))
		}
	}

	// cost
	switch t := m["cost"].(type) {
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 {
			m["cost"] = v
		} else {
			m["cost"] = nil
		}
		touched = append(touched, "cost(string)")
	case float64:
		if t < 0 {
			m["cost"] = nil
			touched = append(touched, "cost(negative)")
		}
	}

	// trim strings; empty -> null
	for _, k := range []string{"vehicle_identifier", "maintenance_type", "description", "service_date", "provider"} {
		if v, ok := m[k].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				m[k] = nil
				touched = append(touched, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	// remove unknown keys, fill omitted ones with explicit null
	allowed := make(map[string]struct{}, len(candidateKeys))
	for _, k := range candidateKeys {
		allowed[k] = struct{}{}
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			touched = append(touched, k+"(unknown)")
		}
	}
	for _, k := range candidateKeys {
		if _, ok := m[k]; !ok {
			m[k] = nil
			touched = append(touched, k+"(missing)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, touched, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, touched, nil
}
