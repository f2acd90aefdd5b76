package llm

import (
	"fmt"
	"strings"

	"github.com/fleetworks/fleet-tracker/internal/entity"
)

const systemPrompt = "You are a precise data extraction assistant for vehicle maintenance documents. " +
	"Return ONLY valid JSON with exactly the requested fields. " +
	"A field you cannot find in the document is explicitly null, never omitted. " +
	"Only extract information that is clearly stated in the document."

// maxDocChars caps how much document text goes into the prompt; receipts and
// invoices carry their useful fields well inside this window.
const maxDocChars = 6000

// buildUserPrompt embeds the known-vehicle roster and the document text, and
// spells out the JSON contract field by field.
func buildUserPrompt(text string, roster []entity.VehicleRef) string {
	var b strings.Builder

	b.WriteString("You are analyzing a vehicle maintenance document.\n\nKnown vehicles in the system:\n")
	for _, v := range roster {
		fmt.Fprintf(&b, "- %d %s %s (VIN: %s, License: %s)\n",
			v.Year, v.Make, v.Model, v.VIN, v.LicensePlate)
	}

	b.WriteString("\nDocument text:\n")
	if len(text) > maxDocChars {
		b.WriteString(text[:maxDocChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}

	b.WriteString(`

Extract and return JSON with these fields (use null if not found):
{
    "vehicle_identifier": "VIN, license plate, OR year+make+model (e.g. '2017 Ford Transit'). Extract the full vehicle description including year, make and model even if no VIN/plate is visible.",
    "maintenance_type": "Type of service (Oil Change, Tire Rotation, Brake Service, etc.)",
    "description": "Detailed description of work performed",
    "service_date": "Date in YYYY-MM-DD format",
    "mileage": "Odometer reading as integer (just the number)",
    "cost": "Total cost as decimal (just the number, no $ sign)",
    "provider": "Name of service provider/shop",
    "next_service_mileage": "Recommended next service mileage if mentioned"
}

IMPORTANT: for vehicle_identifier, if you can't find a VIN or license plate, extract the year, make and model (e.g. '2017 Ford Transit') to match against the known vehicles.`)

	return b.String()
}
