package llm

// BuildCandidateJSONSchema returns the JSON-Schema (draft 2020-12 subset) the
// model's response must satisfy. Every field is required but nullable: the
// contract is "explicitly null, never omitted", which keeps field absence a
// first-class value all the way through to CandidateRecord.
func BuildCandidateJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableInt := map[string]any{"type": []string{"integer", "null"}, "minimum": 0}

	props := map[string]any{
		"vehicle_identifier": nullableString,
		"maintenance_type":   nullableString,
		"description":        nullableString,
		"service_date": map[string]any{
			"type":    []string{"string", "null"},
			"pattern": `^\d{4}-\d{2}-\d{2}$`,
		},
		"mileage": nullableInt,
		"cost": map[string]any{
			"type":    []string{"number", "null"},
			"minimum": 0.0,
		},
		"provider":             nullableString,
		"next_service_mileage": nullableInt,
	}

	required := []string{
		"vehicle_identifier", "maintenance_type", "description", "service_date",
		"mileage", "cost", "provider", "next_service_mileage",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
