package enums

import "fmt"

// LeaseRequestStatus tracks a farmer's application for a land parcel.
// All states other than pending are terminal.
type LeaseRequestStatus string

const (
	LeaseRequestStatusPending   LeaseRequestStatus = "pending"
	LeaseRequestStatusApproved  LeaseRequestStatus = "approved"
	LeaseRequestStatusRejected  LeaseRequestStatus = "rejected"
	LeaseRequestStatusCancelled LeaseRequestStatus = "cancelled"
)

var validLeaseRequestStatuses = []LeaseRequestStatus{
	LeaseRequestStatusPending,
	LeaseRequestStatusApproved,
	LeaseRequestStatusRejected,
	LeaseRequestStatusCancelled,
}

// String implements fmt.Stringer.
func (l LeaseRequestStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeaseRequestStatus.
func (l LeaseRequestStatus) IsValid() bool {
	for _, candidate := range validLeaseRequestStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request can no longer change state.
func (l LeaseRequestStatus) IsTerminal() bool {
	return l != LeaseRequestStatusPending
}

// ParseLeaseRequestStatus converts raw input into a LeaseRequestStatus.
func ParseLeaseRequestStatus(value string) (LeaseRequestStatus, error) {
	for _, candidate := range validLeaseRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease request status %q", value)
}
