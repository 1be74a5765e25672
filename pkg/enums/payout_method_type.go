package enums

import "fmt"

// PayoutMethodType distinguishes bank transfers from UPI handles.
type PayoutMethodType string

const (
	PayoutMethodTypeBank PayoutMethodType = "bank"
	PayoutMethodTypeUPI  PayoutMethodType = "upi"
)

var validPayoutMethodTypes = []PayoutMethodType{
	PayoutMethodTypeBank,
	PayoutMethodTypeUPI,
}

// String implements fmt.Stringer.
func (p PayoutMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutMethodType.
func (p PayoutMethodType) IsValid() bool {
	for _, candidate := range validPayoutMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutMethodType converts raw input into a PayoutMethodType.
func ParsePayoutMethodType(value string) (PayoutMethodType, error) {
	for _, candidate := range validPayoutMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout method type %q", value)
}
