package enums

import "fmt"

// LeasePaymentStatus tracks a single installment attempt. Rows are
// append-only once they reach success or failed.
type LeasePaymentStatus string

const (
	LeasePaymentStatusPending LeasePaymentStatus = "pending"
	LeasePaymentStatusSuccess LeasePaymentStatus = "success"
	LeasePaymentStatusFailed  LeasePaymentStatus = "failed"
)

var validLeasePaymentStatuses = []LeasePaymentStatus{
	LeasePaymentStatusPending,
	LeasePaymentStatusSuccess,
	LeasePaymentStatusFailed,
}

// String implements fmt.Stringer.
func (l LeasePaymentStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeasePaymentStatus.
func (l LeasePaymentStatus) IsValid() bool {
	for _, candidate := range validLeasePaymentStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt outcome is settled.
func (l LeasePaymentStatus) IsTerminal() bool {
	return l == LeasePaymentStatusSuccess || l == LeasePaymentStatusFailed
}

// ParseLeasePaymentStatus converts raw input into a LeasePaymentStatus.
func ParseLeasePaymentStatus(value string) (LeasePaymentStatus, error) {
	for _, candidate := range validLeasePaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease payment status %q", value)
}
