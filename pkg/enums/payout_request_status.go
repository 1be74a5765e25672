package enums

import "fmt"

// PayoutRequestStatus tracks a landowner withdrawal request. pending may
// move to approved, rejected, or cancelled; approved moves to paid once
// the out-of-band settlement record is attached.
type PayoutRequestStatus string

const (
	PayoutRequestStatusPending   PayoutRequestStatus = "pending"
	PayoutRequestStatusApproved  PayoutRequestStatus = "approved"
	PayoutRequestStatusRejected  PayoutRequestStatus = "rejected"
	PayoutRequestStatusCancelled PayoutRequestStatus = "cancelled"
	PayoutRequestStatusPaid      PayoutRequestStatus = "paid"
)

var validPayoutRequestStatuses = []PayoutRequestStatus{
	PayoutRequestStatusPending,
	PayoutRequestStatusApproved,
	PayoutRequestStatusRejected,
	PayoutRequestStatusCancelled,
	PayoutRequestStatusPaid,
}

// String implements fmt.Stringer.
func (p PayoutRequestStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutRequestStatus.
func (p PayoutRequestStatus) IsValid() bool {
	for _, candidate := range validPayoutRequestStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutRequestStatus converts raw input into a PayoutRequestStatus.
func ParsePayoutRequestStatus(value string) (PayoutRequestStatus, error) {
	for _, candidate := range validPayoutRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout request status %q", value)
}
