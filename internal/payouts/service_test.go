package payouts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) kinds() []enums.OutboxEventType {
	kinds := make([]enums.OutboxEventType, 0, len(s.events))
	for _, event := range s.events {
		kinds = append(kinds, event.EventType)
	}
	return kinds
}

type stubLeaseRepo struct {
	leases map[uuid.UUID]*models.Lease
}

func (s *stubLeaseRepo) FindLeaseByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	lease, ok := s.leases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *lease
	return &clone, nil
}

type stubMethodRepo struct {
	methods map[uuid.UUID]*models.PayoutMethod
}

func (s *stubMethodRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error) {
	method, ok := s.methods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *method
	return &clone, nil
}

type stubPayoutsRepo struct {
	requests     map[uuid.UUID]*models.PayoutRequest
	accrued      map[uuid.UUID]int64
	createErr    error
	beforeUpdate func()
}

func newStubPayoutsRepo() *stubPayoutsRepo {
	return &stubPayoutsRepo{
		requests: map[uuid.UUID]*models.PayoutRequest{},
		accrued:  map[uuid.UUID]int64{},
	}
}

func (s *stubPayoutsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPayoutsRepo) Create(ctx context.Context, request *models.PayoutRequest) (*models.PayoutRequest, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.CreatedAt = time.Now()
	s.requests[request.ID] = request
	return request, nil
}

func (s *stubPayoutsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *request
	clone.History = append([]models.PayoutReviewEntry(nil), request.History...)
	return &clone, nil
}

func (s *stubPayoutsRepo) HasPendingForLease(ctx context.Context, leaseID uuid.UUID) (bool, error) {
	for _, request := range s.requests {
		if request.LeaseID == leaseID && request.Status == enums.PayoutRequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubPayoutsRepo) UpdateIfStatus(ctx context.Context, request *models.PayoutRequest, from enums.PayoutRequestStatus) (bool, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	current, ok := s.requests[request.ID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if current.Status != from {
		return false, nil
	}
	clone := *request
	s.requests[request.ID] = &clone
	return true, nil
}

func (s *stubPayoutsRepo) SumSuccessfulPayments(ctx context.Context, leaseID uuid.UUID) (int64, error) {
	return s.accrued[leaseID], nil
}

func (s *stubPayoutsRepo) SumCommittedPayouts(ctx context.Context, leaseID, excludeID uuid.UUID) (int64, error) {
	var total int64
	for _, request := range s.requests {
		if request.LeaseID != leaseID || request.ID == excludeID {
			continue
		}
		if request.Status == enums.PayoutRequestStatusApproved || request.Status == enums.PayoutRequestStatusPaid {
			total += request.AmountPaise
		}
	}
	return total, nil
}

func (s *stubPayoutsRepo) List(ctx context.Context, query payoutListQuery) (*PayoutListResult, error) {
	var items []PayoutDTO
	for _, request := range s.requests {
		if query.OwnerID != nil && request.OwnerID != *query.OwnerID {
			continue
		}
		if query.Status != nil && request.Status != *query.Status {
			continue
		}
		items = append(items, *FromModel(request))
	}
	return &PayoutListResult{Items: items}, nil
}

type payoutsFixture struct {
	svc      Service
	repo     *stubPayoutsRepo
	outbox   *stubOutbox
	ownerID  uuid.UUID
	farmerID uuid.UUID
	leaseID  uuid.UUID
	methodID uuid.UUID
}

func newPayoutsFixture(t *testing.T) *payoutsFixture {
	t.Helper()

	ownerID := uuid.New()
	farmerID := uuid.New()
	leaseID := uuid.New()
	methodID := uuid.New()

	leaseRepo := &stubLeaseRepo{leases: map[uuid.UUID]*models.Lease{
		leaseID: {
			ID:                 leaseID,
			LandID:             uuid.New(),
			FarmerID:           farmerID,
			OwnerID:            ownerID,
			DurationMonths:     6,
			PricePerMonthPaise: 100000,
			Status:             enums.LeaseStatusActive,
			StartedAt:          time.Now().AddDate(0, -2, 0),
		},
	}}
	methodRepo := &stubMethodRepo{methods: map[uuid.UUID]*models.PayoutMethod{
		methodID: {
			ID:        methodID,
			UserID:    ownerID,
			Type:      enums.PayoutMethodTypeUPI,
			IsDefault: true,
		},
	}}

	repo := newStubPayoutsRepo()
	events := &stubOutbox{}
	svc, err := NewService(
		repo,
		func(tx *gorm.DB) leaseRepository { return leaseRepo },
		func(tx *gorm.DB) methodRepository { return methodRepo },
		&stubTxRunner{},
		events,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &payoutsFixture{
		svc:      svc,
		repo:     repo,
		outbox:   events,
		ownerID:  ownerID,
		farmerID: farmerID,
		leaseID:  leaseID,
		methodID: methodID,
	}
}

func (f *payoutsFixture) request(t *testing.T, amountPaise int64) *PayoutDTO {
	t.Helper()
	dto, err := f.svc.Request(context.Background(), f.ownerID, RequestPayoutInput{
		LeaseID:        f.leaseID,
		PayoutMethodID: f.methodID,
		AmountPaise:    amountPaise,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return dto
}

func TestRequestCreatesPendingPayout(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000

	dto := f.request(t, 200000)
	if dto.Status != enums.PayoutRequestStatusPending {
		t.Fatalf("expected pending, got %s", dto.Status)
	}
	if got := f.outbox.kinds(); len(got) != 1 || got[0] != enums.EventPayoutRequested {
		t.Fatalf("expected payout_requested event, got %v", got)
	}
}

func TestRequestForbiddenForNonOwner(t *testing.T) {
	f := newPayoutsFixture(t)

	_, err := f.svc.Request(context.Background(), f.farmerID, RequestPayoutInput{
		LeaseID:        f.leaseID,
		PayoutMethodID: f.methodID,
		AmountPaise:    100000,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestRequestRejectsForeignMethod(t *testing.T) {
	f := newPayoutsFixture(t)

	_, err := f.svc.Request(context.Background(), f.ownerID, RequestPayoutInput{
		LeaseID:        f.leaseID,
		PayoutMethodID: uuid.New(),
		AmountPaise:    100000,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequestConflictsWithPending(t *testing.T) {
	f := newPayoutsFixture(t)
	f.request(t, 100000)

	_, err := f.svc.Request(context.Background(), f.ownerID, RequestPayoutInput{
		LeaseID:        f.leaseID,
		PayoutMethodID: f.methodID,
		AmountPaise:    50000,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRequestMapsDuplicatePendingToConflict(t *testing.T) {
	f := newPayoutsFixture(t)

	// A concurrent request slips past the pending pre-check and loses the
	// insert race on the unique pending index.
	f.repo.createErr = gorm.ErrDuplicatedKey

	_, err := f.svc.Request(context.Background(), f.ownerID, RequestPayoutInput{
		LeaseID:        f.leaseID,
		PayoutMethodID: f.methodID,
		AmountPaise:    50000,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestReviewLosesRaceToCancellation(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	// The owner cancels between the admin's load and the status write.
	f.repo.beforeUpdate = func() {
		f.repo.requests[dto.ID].Status = enums.PayoutRequestStatusCancelled
		f.repo.beforeUpdate = nil
	}

	adminID := uuid.New()
	_, err := f.svc.Review(context.Background(), adminID, dto.ID, ReviewInput{
		Decision: ReviewDecisionApprove,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if got := f.repo.requests[dto.ID].Status; got != enums.PayoutRequestStatusCancelled {
		t.Fatalf("cancelled request was overwritten to %s", got)
	}
}

func TestCancelLosesRaceToReview(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	// The admin approves between the owner's load and the status write.
	f.repo.beforeUpdate = func() {
		f.repo.requests[dto.ID].Status = enums.PayoutRequestStatusApproved
		f.repo.beforeUpdate = nil
	}

	_, err := f.svc.Cancel(context.Background(), f.ownerID, dto.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if got := f.repo.requests[dto.ID].Status; got != enums.PayoutRequestStatusApproved {
		t.Fatalf("approved request was overwritten to %s", got)
	}
}

func TestReviewApproveWithinAccruedBalance(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 250000)

	adminID := uuid.New()
	reviewed, err := f.svc.Review(context.Background(), adminID, dto.ID, ReviewInput{
		Decision: ReviewDecisionApprove,
		Note:     "checks out",
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != enums.PayoutRequestStatusApproved {
		t.Fatalf("expected approved, got %s", reviewed.Status)
	}
	if len(reviewed.History) != 1 || reviewed.History[0].ChangedBy != adminID {
		t.Fatalf("expected one history entry by the admin, got %+v", reviewed.History)
	}
	if reviewed.ReviewedAt == nil {
		t.Fatal("expected reviewed_at to be stamped")
	}
}

func TestReviewApproveRejectedWhenOverAccrued(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 500000)

	_, err := f.svc.Review(context.Background(), uuid.New(), dto.ID, ReviewInput{
		Decision: ReviewDecisionApprove,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !strings.Contains(appErr.Error(), "exceeds available balance") {
		t.Fatalf("expected balance details in error, got %q", appErr.Error())
	}

	stored := f.repo.requests[dto.ID]
	if stored.Status != enums.PayoutRequestStatusPending {
		t.Fatalf("expected request to stay pending, got %s", stored.Status)
	}
}

func TestReviewApproveCountsPriorCommitments(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000

	first := f.request(t, 200000)
	if _, err := f.svc.Review(context.Background(), uuid.New(), first.ID, ReviewInput{Decision: ReviewDecisionApprove}); err != nil {
		t.Fatalf("Review first: %v", err)
	}

	second := f.request(t, 200000)
	_, err := f.svc.Review(context.Background(), uuid.New(), second.ID, ReviewInput{Decision: ReviewDecisionApprove})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on overdraw, got %v", err)
	}
}

func TestReviewRejectRequiresNote(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	_, err := f.svc.Review(context.Background(), uuid.New(), dto.ID, ReviewInput{Decision: ReviewDecisionReject})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	reviewed, err := f.svc.Review(context.Background(), uuid.New(), dto.ID, ReviewInput{
		Decision: ReviewDecisionReject,
		Note:     "amount mismatch with agreement",
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != enums.PayoutRequestStatusRejected {
		t.Fatalf("expected rejected, got %s", reviewed.Status)
	}
}

func TestReviewIsSingleShot(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	if _, err := f.svc.Review(context.Background(), uuid.New(), dto.ID, ReviewInput{Decision: ReviewDecisionApprove}); err != nil {
		t.Fatalf("Review: %v", err)
	}
	_, err := f.svc.Review(context.Background(), uuid.New(), dto.ID, ReviewInput{Decision: ReviewDecisionApprove})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on second review, got %v", err)
	}
}

func TestMarkPaidAttachesSettlement(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	adminID := uuid.New()
	if _, err := f.svc.Review(context.Background(), adminID, dto.ID, ReviewInput{Decision: ReviewDecisionApprove}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	receipt := "https://receipts.example/abc.pdf"
	paid, err := f.svc.MarkPaid(context.Background(), adminID, dto.ID, SettlementInput{
		TransactionID: "NEFT-1234",
		PaymentDate:   time.Now(),
		ReceiptURL:    &receipt,
	})
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != enums.PayoutRequestStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
	if paid.TransactionID == nil || *paid.TransactionID != "NEFT-1234" {
		t.Fatalf("expected transaction id, got %v", paid.TransactionID)
	}
	if len(paid.History) != 2 {
		t.Fatalf("expected two history entries, got %d", len(paid.History))
	}

	kinds := f.outbox.kinds()
	if len(kinds) != 3 || kinds[2] != enums.EventPayoutPaid {
		t.Fatalf("expected payout_paid as the final event, got %v", kinds)
	}
}

func TestMarkPaidRequiresApproval(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	_, err := f.svc.MarkPaid(context.Background(), uuid.New(), dto.ID, SettlementInput{
		TransactionID: "NEFT-1234",
		PaymentDate:   time.Now(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelPendingOnly(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	cancelled, err := f.svc.Cancel(context.Background(), f.ownerID, dto.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.PayoutRequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	_, err = f.svc.Cancel(context.Background(), f.ownerID, dto.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on second cancel, got %v", err)
	}
}

func TestGetScopedToOwnerOrAdmin(t *testing.T) {
	f := newPayoutsFixture(t)
	f.repo.accrued[f.leaseID] = 300000
	dto := f.request(t, 100000)

	if _, err := f.svc.Get(context.Background(), f.ownerID, enums.UserRoleLandowner, dto.ID); err != nil {
		t.Fatalf("Get as owner: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), uuid.New(), enums.UserRoleAdmin, dto.ID); err != nil {
		t.Fatalf("Get as admin: %v", err)
	}
	_, err := f.svc.Get(context.Background(), f.farmerID, enums.UserRoleFarmer, dto.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}
}
