package enums

import "fmt"

// DisputeCategory buckets escalation tickets for admin triage.
type DisputeCategory string

const (
	DisputeCategoryLease   DisputeCategory = "lease_issue"
	DisputeCategoryPayment DisputeCategory = "payment_issue"
	DisputeCategoryService DisputeCategory = "service_issue"
	DisputeCategoryOther   DisputeCategory = "other"
)

var validDisputeCategories = []DisputeCategory{
	DisputeCategoryLease,
	DisputeCategoryPayment,
	DisputeCategoryService,
	DisputeCategoryOther,
}

// String implements fmt.Stringer.
func (d DisputeCategory) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeCategory.
func (d DisputeCategory) IsValid() bool {
	for _, candidate := range validDisputeCategories {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputeCategory converts raw input into a DisputeCategory.
func ParseDisputeCategory(value string) (DisputeCategory, error) {
	for _, candidate := range validDisputeCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute category %q", value)
}
