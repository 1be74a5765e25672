package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/logger"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/outbox/idempotency"
	"github.com/agricorus/agricorus-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

const domainNotificationConsumer = "domain-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and fans them out into per-user
// notification rows.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a domain notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	rows, err := buildNotifications(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if len(rows) == 0 {
		c.logg.Info(logCtx, "event produces no notifications")
		return processResult{ack: true}
	}

	for _, row := range rows {
		if err := c.repo.Create(ctx, row); err != nil {
			c.logg.Error(logCtx, "failed to persist notification", err)
			_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
			return processResult{nack: true}
		}
	}
	c.logg.Info(logCtx, "notifications created")
	return processResult{ack: true}
}

// buildNotifications turns one domain event into notification rows for the
// users who should hear about it. Land review and payout outcomes go to the
// owner; lease request traffic notifies the side that must act next.
func buildNotifications(eventType enums.OutboxEventType, data json.RawMessage) ([]*models.Notification, error) {
	switch eventType {
	case enums.EventLandReviewed:
		var p payloads.LandReviewedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		title := "Listing approved"
		message := "Your land listing has been approved and is now visible to farmers."
		if !p.Approved {
			title = "Listing rejected"
			message = "Your land listing was rejected."
			if p.RejectionReason != "" {
				message = fmt.Sprintf("Your land listing was rejected: %s", p.RejectionReason)
			}
		}
		return []*models.Notification{notify(p.OwnerID, enums.NotificationTypeSystem, title, message, landLink(p.LandID))}, nil

	case enums.EventLeaseRequested:
		var p payloads.LeaseRequestedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []*models.Notification{notify(p.OwnerID, enums.NotificationTypeLeaseRequest,
			"New lease request",
			"A farmer has requested to lease your land.",
			requestLink(p.RequestID))}, nil

	case enums.EventLeaseRequestDecided:
		var p payloads.LeaseRequestDecidedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.Status == enums.LeaseRequestStatusCancelled {
			return []*models.Notification{notify(p.OwnerID, enums.NotificationTypeLeaseDecision,
				"Lease request withdrawn",
				"A farmer withdrew their lease request.",
				requestLink(p.RequestID))}, nil
		}
		message := fmt.Sprintf("Your lease request was %s.", p.Status)
		link := requestLink(p.RequestID)
		if p.Status == enums.LeaseRequestStatusApproved && p.LeaseID != nil {
			message = "Your lease request was approved. The lease is now active."
			link = leaseLink(*p.LeaseID)
		}
		return []*models.Notification{notify(p.FarmerID, enums.NotificationTypeLeaseDecision,
			"Lease request decided", message, link)}, nil

	case enums.EventLeaseRequestExpired:
		var p payloads.LeaseRequestExpiredEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []*models.Notification{notify(p.FarmerID, enums.NotificationTypeLeaseDecision,
			"Lease request expired",
			"Your lease request expired because the land is no longer available.",
			requestLink(p.RequestID))}, nil

	case enums.EventLeaseCompleted:
		var p payloads.LeaseCompletedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []*models.Notification{
			notify(p.FarmerID, enums.NotificationTypeSystem, "Lease completed",
				"All installments are settled. The lease is complete.", leaseLink(p.LeaseID)),
			notify(p.OwnerID, enums.NotificationTypeSystem, "Lease completed",
				"All installments on your land have been settled. The land is available again.", leaseLink(p.LeaseID)),
		}, nil

	case enums.EventLeaseTerminated:
		var p payloads.LeaseTerminatedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := "The lease was terminated early."
		if p.Reason != "" {
			message = fmt.Sprintf("The lease was terminated early: %s", p.Reason)
		}
		return []*models.Notification{
			notify(p.FarmerID, enums.NotificationTypeSystem, "Lease terminated", message, leaseLink(p.LeaseID)),
			notify(p.OwnerID, enums.NotificationTypeSystem, "Lease terminated", message, leaseLink(p.LeaseID)),
		}, nil

	case enums.EventLeasePaymentSucceeded:
		var p payloads.LeasePaymentSucceededEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []*models.Notification{
			notify(p.FarmerID, enums.NotificationTypePaymentAlert, "Payment received",
				fmt.Sprintf("Installment %d was paid successfully.", p.InstallmentNumber), leaseLink(p.LeaseID)),
			notify(p.OwnerID, enums.NotificationTypePaymentAlert, "Rent received",
				fmt.Sprintf("Installment %d on your lease has been paid.", p.InstallmentNumber), leaseLink(p.LeaseID)),
		}, nil

	case enums.EventLeasePaymentFailed:
		var p payloads.LeasePaymentFailedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Payment for installment %d failed.", p.InstallmentNumber)
		if p.FailureReason != "" {
			message = fmt.Sprintf("Payment for installment %d failed: %s", p.InstallmentNumber, p.FailureReason)
		}
		return []*models.Notification{notify(p.FarmerID, enums.NotificationTypePaymentAlert,
			"Payment failed", message, leaseLink(p.LeaseID))}, nil

	case enums.EventPayoutReviewed:
		var p payloads.PayoutReviewedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Your payout request was %s.", p.Status)
		if p.AdminNote != "" {
			message = fmt.Sprintf("Your payout request was %s: %s", p.Status, p.AdminNote)
		}
		return []*models.Notification{notify(p.OwnerID, enums.NotificationTypePayoutAlert,
			"Payout reviewed", message, payoutLink(p.PayoutID))}, nil

	case enums.EventPayoutPaid:
		var p payloads.PayoutPaidEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []*models.Notification{notify(p.OwnerID, enums.NotificationTypePayoutAlert,
			"Payout sent",
			fmt.Sprintf("Your payout has been transferred (ref %s).", p.TransactionID),
			payoutLink(p.PayoutID))}, nil

	case enums.EventDisputeOpened:
		var p payloads.DisputeOpenedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []*models.Notification{notify(p.AgainstID, enums.NotificationTypeDisputeAlert,
			"Dispute raised against you",
			"The other party on your lease has raised a dispute.",
			disputeLink(p.DisputeID))}, nil

	case enums.EventDisputeResolved:
		var p payloads.DisputeResolvedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("The dispute has been closed as %s.", p.Status)
		return []*models.Notification{
			notify(p.RaisedByID, enums.NotificationTypeDisputeAlert, "Dispute closed", message, disputeLink(p.DisputeID)),
			notify(p.AgainstID, enums.NotificationTypeDisputeAlert, "Dispute closed", message, disputeLink(p.DisputeID)),
		}, nil

	default:
		// Submission, activation, and payout request events feed admin
		// tooling, not in-app notifications.
		return nil, nil
	}
}

func notify(userID uuid.UUID, kind enums.NotificationType, title, message, link string) *models.Notification {
	return &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    &link,
	}
}

func landLink(id uuid.UUID) string    { return fmt.Sprintf("/lands/%s", id) }
func requestLink(id uuid.UUID) string { return fmt.Sprintf("/lease-requests/%s", id) }
func leaseLink(id uuid.UUID) string   { return fmt.Sprintf("/leases/%s", id) }
func payoutLink(id uuid.UUID) string  { return fmt.Sprintf("/payouts/%s", id) }
func disputeLink(id uuid.UUID) string { return fmt.Sprintf("/disputes/%s", id) }
