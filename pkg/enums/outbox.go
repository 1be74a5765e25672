package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateLand         OutboxAggregateType = "land"
	AggregateLeaseRequest OutboxAggregateType = "lease_request"
	AggregateLease        OutboxAggregateType = "lease"
	AggregateLeasePayment OutboxAggregateType = "lease_payment"
	AggregatePayout       OutboxAggregateType = "payout_request"
	AggregateDispute      OutboxAggregateType = "dispute"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateLand,
	AggregateLeaseRequest,
	AggregateLease,
	AggregateLeasePayment,
	AggregatePayout,
	AggregateDispute,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventLandSubmitted         OutboxEventType = "land_submitted"
	EventLandReviewed          OutboxEventType = "land_reviewed"
	EventLeaseRequested        OutboxEventType = "lease_requested"
	EventLeaseRequestDecided   OutboxEventType = "lease_request_decided"
	EventLeaseRequestExpired   OutboxEventType = "lease_request_expired"
	EventLeaseActivated        OutboxEventType = "lease_activated"
	EventLeaseCompleted        OutboxEventType = "lease_completed"
	EventLeaseTerminated       OutboxEventType = "lease_terminated"
	EventLeasePaymentSucceeded OutboxEventType = "lease_payment_succeeded"
	EventLeasePaymentFailed    OutboxEventType = "lease_payment_failed"
	EventPayoutRequested       OutboxEventType = "payout_requested"
	EventPayoutReviewed        OutboxEventType = "payout_reviewed"
	EventPayoutPaid            OutboxEventType = "payout_paid"
	EventDisputeOpened         OutboxEventType = "dispute_opened"
	EventDisputeResolved       OutboxEventType = "dispute_resolved"
)

var validOutboxEventTypes = []OutboxEventType{
	EventLandSubmitted,
	EventLandReviewed,
	EventLeaseRequested,
	EventLeaseRequestDecided,
	EventLeaseRequestExpired,
	EventLeaseActivated,
	EventLeaseCompleted,
	EventLeaseTerminated,
	EventLeasePaymentSucceeded,
	EventLeasePaymentFailed,
	EventPayoutRequested,
	EventPayoutReviewed,
	EventPayoutPaid,
	EventDisputeOpened,
	EventDisputeResolved,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
