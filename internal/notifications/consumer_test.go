package notifications

import (
	"encoding/json"
	"testing"

	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func marshalPayload(t *testing.T, payload any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestBuildNotificationsLandReviewed(t *testing.T) {
	ownerID := uuid.New()
	rows, err := buildNotifications(enums.EventLandReviewed, marshalPayload(t, payloads.LandReviewedEvent{
		LandID:          uuid.New(),
		OwnerID:         ownerID,
		Approved:        false,
		RejectionReason: "missing documents",
	}))
	if err != nil {
		t.Fatalf("buildNotifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].UserID != ownerID {
		t.Fatalf("expected owner recipient, got %s", rows[0].UserID)
	}
	if rows[0].Title != "Listing rejected" {
		t.Fatalf("unexpected title %q", rows[0].Title)
	}
}

func TestBuildNotificationsPaymentSucceededNotifiesBothParties(t *testing.T) {
	farmerID := uuid.New()
	ownerID := uuid.New()
	rows, err := buildNotifications(enums.EventLeasePaymentSucceeded, marshalPayload(t, payloads.LeasePaymentSucceededEvent{
		PaymentID:         uuid.New(),
		LeaseID:           uuid.New(),
		FarmerID:          farmerID,
		OwnerID:           ownerID,
		InstallmentNumber: 2,
		AmountPaise:       100000,
	}))
	if err != nil {
		t.Fatalf("buildNotifications: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	recipients := map[uuid.UUID]bool{rows[0].UserID: true, rows[1].UserID: true}
	if !recipients[farmerID] || !recipients[ownerID] {
		t.Fatalf("expected farmer and owner recipients, got %v", recipients)
	}
	for _, row := range rows {
		if row.Type != enums.NotificationTypePaymentAlert {
			t.Fatalf("expected payment alert type, got %s", row.Type)
		}
	}
}

func TestBuildNotificationsRequestDecidedRoutesByStatus(t *testing.T) {
	farmerID := uuid.New()
	ownerID := uuid.New()
	leaseID := uuid.New()

	rows, err := buildNotifications(enums.EventLeaseRequestDecided, marshalPayload(t, payloads.LeaseRequestDecidedEvent{
		RequestID: uuid.New(),
		FarmerID:  farmerID,
		OwnerID:   ownerID,
		Status:    enums.LeaseRequestStatusApproved,
		LeaseID:   &leaseID,
	}))
	if err != nil {
		t.Fatalf("buildNotifications: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != farmerID {
		t.Fatalf("expected farmer recipient for approval, got %+v", rows)
	}

	rows, err = buildNotifications(enums.EventLeaseRequestDecided, marshalPayload(t, payloads.LeaseRequestDecidedEvent{
		RequestID: uuid.New(),
		FarmerID:  farmerID,
		OwnerID:   ownerID,
		Status:    enums.LeaseRequestStatusCancelled,
	}))
	if err != nil {
		t.Fatalf("buildNotifications: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != ownerID {
		t.Fatalf("expected owner recipient for withdrawal, got %+v", rows)
	}
}

func TestBuildNotificationsSkipsAdminOnlyEvents(t *testing.T) {
	for _, eventType := range []enums.OutboxEventType{
		enums.EventLandSubmitted,
		enums.EventLeaseActivated,
		enums.EventPayoutRequested,
	} {
		rows, err := buildNotifications(eventType, json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("buildNotifications(%s): %v", eventType, err)
		}
		if len(rows) != 0 {
			t.Fatalf("expected no rows for %s, got %d", eventType, len(rows))
		}
	}
}

func TestBuildNotificationsDisputeResolvedNotifiesBothParties(t *testing.T) {
	raisedBy := uuid.New()
	against := uuid.New()
	rows, err := buildNotifications(enums.EventDisputeResolved, marshalPayload(t, payloads.DisputeResolvedEvent{
		DisputeID:  uuid.New(),
		RaisedByID: raisedBy,
		AgainstID:  against,
		Status:     enums.DisputeStatusResolved,
		Resolution: "refund issued",
	}))
	if err != nil {
		t.Fatalf("buildNotifications: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}
