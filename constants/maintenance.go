package constants

// MaintenanceType is the canonical service taxonomy for maintenance records.
type MaintenanceType string

const (
	SmogCheck      MaintenanceType = "Smog Check"
	OilChange      MaintenanceType = "Oil Change"
	TireRotation   MaintenanceType = "Tire Rotation"
	BrakeService   MaintenanceType = "Brake Service"
	Inspection     MaintenanceType = "Inspection"
	TuneUp         MaintenanceType = "Tune-Up"
	Transmission   MaintenanceType = "Transmission"
	Battery        MaintenanceType = "Battery"
	Alignment      MaintenanceType = "Alignment"
	GeneralService MaintenanceType = "General Service"
)

// MaintenanceKeyword pairs a maintenance type with the document keywords that
// imply it. Order matters: the first entry whose keywords appear in a document
// wins, so more specific services (smog, oil) sit above broader ones (brakes).
type MaintenanceKeyword struct {
	Type     MaintenanceType
	Keywords []string
}

// MaintenanceKeywords is the ordered keyword table used by the rule-based
// field parser. Keep the order stable; callers rely on first-match semantics.
var MaintenanceKeywords = []MaintenanceKeyword{
	{SmogCheck, []string{"smog", "smog check", "smog test", "smog inspection", "emissions"}},
	{OilChange, []string{"oil change", "oil service", "lube"}},
	{TireRotation, []string{"tire rotation", "rotate tires"}},
	{BrakeService, []string{"brake", "brakes", "brake pad", "brake service"}},
	{Inspection, []string{"inspection", "state inspection", "safety check"}},
	{TuneUp, []string{"tune-up", "tune up", "tuneup"}},
	{Transmission, []string{"transmission", "trans service"}},
	{Battery, []string{"battery", "battery replacement"}},
	{Alignment, []string{"alignment", "wheel alignment"}},
}

var allMaintenanceTypes = []MaintenanceType{
	SmogCheck,
	OilChange,
	TireRotation,
	BrakeService,
	Inspection,
	TuneUp,
	Transmission,
	Battery,
	Alignment,
	GeneralService,
}

// MaintenanceTypeStrings returns the taxonomy as plain strings, e.g. for
// embedding in an LLM prompt or a spreadsheet validation list.
func MaintenanceTypeStrings() []string {
	result := make([]string, len(allMaintenanceTypes))
	for i, mt := range allMaintenanceTypes {
		result[i] = string(mt)
	}
	return result
}

// KnownMakes is the fixed make vocabulary the rule-based parser falls back to
// when a document carries no VIN, plate, or year.
var KnownMakes = []string{
	"Ford", "Mercedes", "Toyota", "Chevrolet", "GMC", "RAM", "Dodge", "Honda", "Nissan",
}
