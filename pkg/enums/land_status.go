package enums

import "fmt"

// LandStatus tracks a parcel's availability for leasing.
type LandStatus string

const (
	LandStatusAvailable LandStatus = "available"
	LandStatusLeased    LandStatus = "leased"
	LandStatusInactive  LandStatus = "inactive"
)

var validLandStatuses = []LandStatus{
	LandStatusAvailable,
	LandStatusLeased,
	LandStatusInactive,
}

// String implements fmt.Stringer.
func (l LandStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LandStatus.
func (l LandStatus) IsValid() bool {
	for _, candidate := range validLandStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLandStatus converts raw input into a LandStatus.
func ParseLandStatus(value string) (LandStatus, error) {
	for _, candidate := range validLandStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid land status %q", value)
}
