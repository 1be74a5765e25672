package enums

import "fmt"

// LeaseStatus tracks the lifecycle of a signed lease. A lease is created
// active when the owner approves the request; completed once every
// installment has been paid; terminated by admin early exit.
type LeaseStatus string

const (
	LeaseStatusPending    LeaseStatus = "pending"
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusCompleted  LeaseStatus = "completed"
	LeaseStatusTerminated LeaseStatus = "terminated"
	LeaseStatusCancelled  LeaseStatus = "cancelled"
)

var validLeaseStatuses = []LeaseStatus{
	LeaseStatusPending,
	LeaseStatusActive,
	LeaseStatusCompleted,
	LeaseStatusTerminated,
	LeaseStatusCancelled,
}

// String implements fmt.Stringer.
func (l LeaseStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeaseStatus.
func (l LeaseStatus) IsValid() bool {
	for _, candidate := range validLeaseStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the lease has reached a final state.
func (l LeaseStatus) IsTerminal() bool {
	switch l {
	case LeaseStatusCompleted, LeaseStatusTerminated, LeaseStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseLeaseStatus converts raw input into a LeaseStatus.
func ParseLeaseStatus(value string) (LeaseStatus, error) {
	for _, candidate := range validLeaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease status %q", value)
}
