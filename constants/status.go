package constants

// VehicleStatus is the canonical status for rows in vehicles.
type VehicleStatus string

// Stable values (store these exact strings in DB).
const (
	StatusActive        VehicleStatus = "Active"
	StatusInMaintenance VehicleStatus = "In Maintenance"
	StatusRetired       VehicleStatus = "Retired"
)

// VehicleStatuses lists every valid status, used for import validation and
// spreadsheet dropdowns.
var VehicleStatuses = []VehicleStatus{StatusActive, StatusInMaintenance, StatusRetired}

// ValidStatus reports whether s is a known vehicle status.
func ValidStatus(s string) bool {
	for _, v := range VehicleStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}
