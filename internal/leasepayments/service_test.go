package leasepayments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/agricorus/agricorus-backend/pkg/outbox"
	"github.com/agricorus/agricorus-backend/pkg/razorpay"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubGateway struct {
	orders      int
	validOrders map[string]string // order id -> expected signature
	afterCreate func()
}

func newStubGateway() *stubGateway {
	return &stubGateway{validOrders: map[string]string{}}
}

func (s *stubGateway) CreateOrder(ctx context.Context, params razorpay.OrderParams) (*razorpay.Order, error) {
	s.orders++
	orderID := fmt.Sprintf("order_%d", s.orders)
	s.validOrders[orderID] = "sig_" + orderID
	if s.afterCreate != nil {
		s.afterCreate()
	}
	return &razorpay.Order{
		ID:          orderID,
		AmountPaise: params.AmountPaise,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
		Status:      "created",
	}, nil
}

func (s *stubGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return s.validOrders[orderID] == signature
}

func (s *stubGateway) KeyID() string { return "rzp_test_key" }

type stubPaymentsRepo struct {
	lease    *models.Lease
	payments map[uuid.UUID]*models.LeasePayment
}

func newStubPaymentsRepo(lease *models.Lease) *stubPaymentsRepo {
	return &stubPaymentsRepo{
		lease:    lease,
		payments: map[uuid.UUID]*models.LeasePayment{},
	}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) FindLeaseForUpdate(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error) {
	return s.FindLease(ctx, leaseID)
}

func (s *stubPaymentsRepo) FindLease(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error) {
	if s.lease == nil || s.lease.ID != leaseID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.lease
	return &clone, nil
}

func (s *stubPaymentsRepo) CountSuccessful(ctx context.Context, leaseID uuid.UUID) (int, error) {
	count := 0
	for _, p := range s.payments {
		if p.LeaseID == leaseID && p.Status == enums.LeasePaymentStatusSuccess {
			count++
		}
	}
	return count, nil
}

func (s *stubPaymentsRepo) HasPending(ctx context.Context, leaseID uuid.UUID) (bool, error) {
	for _, p := range s.payments {
		if p.LeaseID == leaseID && p.Status == enums.LeasePaymentStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubPaymentsRepo) SuccessfulPayments(ctx context.Context, leaseID uuid.UUID) ([]models.LeasePayment, error) {
	var rows []models.LeasePayment
	for _, p := range s.payments {
		if p.LeaseID == leaseID && p.Status == enums.LeasePaymentStatusSuccess {
			rows = append(rows, *p)
		}
	}
	return rows, nil
}

func (s *stubPaymentsRepo) ListByLease(ctx context.Context, leaseID uuid.UUID) ([]models.LeasePayment, error) {
	var rows []models.LeasePayment
	for _, p := range s.payments {
		if p.LeaseID == leaseID {
			rows = append(rows, *p)
		}
	}
	return rows, nil
}

func (s *stubPaymentsRepo) Create(ctx context.Context, payment *models.LeasePayment) (*models.LeasePayment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now().UTC()
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *stubPaymentsRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.LeasePayment, error) {
	for _, p := range s.payments {
		if p.GatewayOrderID == gatewayOrderID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) MarkSuccess(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	p, ok := s.payments[id]
	if !ok || p.Status != enums.LeasePaymentStatusPending {
		return false, nil
	}
	p.Status = enums.LeasePaymentStatusSuccess
	p.TransactionID = &transactionID
	p.PaidAt = &paidAt
	return true, nil
}

func (s *stubPaymentsRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	p, ok := s.payments[id]
	if !ok || p.Status != enums.LeasePaymentStatusPending {
		return false, nil
	}
	p.Status = enums.LeasePaymentStatusFailed
	p.FailureReason = &reason
	return true, nil
}

func (s *stubPaymentsRepo) ListCompletableLeases(ctx context.Context, limit int) ([]models.Lease, error) {
	if s.lease == nil || s.lease.Status != enums.LeaseStatusActive {
		return nil, nil
	}
	count, _ := s.CountSuccessful(ctx, s.lease.ID)
	if count >= s.lease.DurationMonths {
		return []models.Lease{*s.lease}, nil
	}
	return nil, nil
}

type stubLandStatusRepo struct {
	status map[uuid.UUID]enums.LandStatus
}

func (s *stubLandStatusRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LandStatus) (bool, error) {
	if s.status[id] != from {
		return false, nil
	}
	s.status[id] = to
	return true, nil
}

type stubLeaseStatusRepo struct {
	lease *models.Lease
}

func (s *stubLeaseStatusRepo) UpdateLeaseStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LeaseStatus, endedAt *time.Time) (bool, error) {
	if s.lease == nil || s.lease.ID != id || s.lease.Status != from {
		return false, nil
	}
	s.lease.Status = to
	if endedAt != nil {
		s.lease.EndedAt = endedAt
	}
	return true, nil
}

func activeLease() *models.Lease {
	return &models.Lease{
		ID:                 uuid.New(),
		LandID:             uuid.New(),
		FarmerID:           uuid.New(),
		OwnerID:            uuid.New(),
		RequestID:          uuid.New(),
		DurationMonths:     3,
		PricePerMonthPaise: 100000,
		Status:             enums.LeaseStatusActive,
		StartedAt:          time.Now().UTC(),
	}
}

type paymentsTestSetup struct {
	service   Service
	repo      *stubPaymentsRepo
	gateway   *stubGateway
	outbox    *stubOutbox
	lease     *models.Lease
	landRepo  *stubLandStatusRepo
	leaseRepo *stubLeaseStatusRepo
}

func newPaymentsTestSetup(t *testing.T) *paymentsTestSetup {
	t.Helper()
	lease := activeLease()
	repo := newStubPaymentsRepo(lease)
	gateway := newStubGateway()
	outboxStub := &stubOutbox{}
	landRepo := &stubLandStatusRepo{status: map[uuid.UUID]enums.LandStatus{lease.LandID: enums.LandStatusLeased}}
	leaseRepo := &stubLeaseStatusRepo{lease: lease}

	svc, err := NewService(repo, gateway, stubTxRunner{}, outboxStub,
		func(tx *gorm.DB) landRepository { return landRepo },
		func(tx *gorm.DB) leaseStatusRepository { return leaseRepo },
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &paymentsTestSetup{
		service:   svc,
		repo:      repo,
		gateway:   gateway,
		outbox:    outboxStub,
		lease:     lease,
		landRepo:  landRepo,
		leaseRepo: leaseRepo,
	}
}

func (s *paymentsTestSetup) payInstallment(t *testing.T) *PaymentDTO {
	t.Helper()
	initiated, err := s.service.Initiate(context.Background(), s.lease.FarmerID, s.lease.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	confirmed, err := s.service.Confirm(context.Background(), s.lease.FarmerID, ConfirmInput{
		GatewayOrderID:   initiated.GatewayOrderID,
		GatewayPaymentID: "pay_" + initiated.GatewayOrderID,
		Signature:        "sig_" + initiated.GatewayOrderID,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return confirmed
}

func TestInitiateCreatesPendingAttempt(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	result, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if result.InstallmentNumber != 1 {
		t.Fatalf("expected first installment, got %d", result.InstallmentNumber)
	}
	if result.AmountPaise != setup.lease.PricePerMonthPaise {
		t.Fatalf("unexpected amount %d", result.AmountPaise)
	}
	if result.GatewayKeyID != "rzp_test_key" {
		t.Fatalf("expected gateway key id for client checkout")
	}
	pending, _ := setup.repo.HasPending(context.Background(), setup.lease.ID)
	if !pending {
		t.Fatalf("expected pending payment row")
	}
}

func TestInitiateRejectsWhileAttemptInFlight(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	if _, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID); err != nil {
		t.Fatalf("first initiate: %v", err)
	}
	_, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInitiateRechecksClaimAfterOrderCreation(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	// A second attempt lands while the gateway order is being created. The
	// locked re-check must reject the stale claim instead of inserting a
	// duplicate pending row.
	setup.gateway.afterCreate = func() {
		rival := &models.LeasePayment{
			ID:                uuid.New(),
			LeaseID:           setup.lease.ID,
			FarmerID:          setup.lease.FarmerID,
			OwnerID:           setup.lease.OwnerID,
			LandID:            setup.lease.LandID,
			AmountPaise:       setup.lease.PricePerMonthPaise,
			Method:            enums.PaymentMethodRazorpay,
			Status:            enums.LeasePaymentStatusPending,
			InstallmentNumber: 1,
			GatewayOrderID:    "order_rival",
		}
		setup.repo.payments[rival.ID] = rival
		setup.gateway.afterCreate = nil
	}

	_, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	var pendings int
	for _, payment := range setup.repo.payments {
		if payment.Status == enums.LeasePaymentStatusPending {
			pendings++
		}
	}
	if pendings != 1 {
		t.Fatalf("expected single pending attempt, found %d", pendings)
	}
}

func TestInitiateForbiddenForNonFarmer(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	_, err := setup.service.Initiate(context.Background(), uuid.New(), setup.lease.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestInitiateRejectsInactiveLease(t *testing.T) {
	setup := newPaymentsTestSetup(t)
	setup.lease.Status = enums.LeaseStatusTerminated

	_, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

// Full schedule walkthrough: three installments succeed one after another,
// then the fourth initiation reports the schedule complete.
func TestFullScheduleThenComplete(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	for i := 1; i <= 3; i++ {
		paid := setup.payInstallment(t)
		if paid.InstallmentNumber != i {
			t.Fatalf("expected installment %d, got %d", i, paid.InstallmentNumber)
		}
		if paid.Status != enums.LeasePaymentStatusSuccess {
			t.Fatalf("expected success status")
		}
	}

	schedule, err := setup.service.Schedule(context.Background(), setup.lease.FarmerID, enums.UserRoleFarmer, setup.lease.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if schedule.PaymentsMade != 3 || schedule.TotalPayments != 3 {
		t.Fatalf("expected 3/3 payments, got %d/%d", schedule.PaymentsMade, schedule.TotalPayments)
	}
	if schedule.NextInstallment != nil {
		t.Fatalf("completed schedule must have no next installment")
	}
	if schedule.OutstandingPaise != 0 {
		t.Fatalf("expected zero outstanding, got %d", schedule.OutstandingPaise)
	}

	_, err = setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeComplete {
		t.Fatalf("expected schedule complete, got %v", err)
	}
}

func TestConfirmSignatureMismatchFreesSlot(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	initiated, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	_, err = setup.service.Confirm(context.Background(), setup.lease.FarmerID, ConfirmInput{
		GatewayOrderID:   initiated.GatewayOrderID,
		GatewayPaymentID: "pay_x",
		Signature:        "forged",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation failure, got %v", err)
	}

	// The failed attempt must free the slot for a fresh initiation.
	pending, _ := setup.repo.HasPending(context.Background(), setup.lease.ID)
	if pending {
		t.Fatalf("failed attempt must not stay pending")
	}
	retried, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	if err != nil {
		t.Fatalf("retry initiate: %v", err)
	}
	if retried.InstallmentNumber != 1 {
		t.Fatalf("retry must target the same installment")
	}

	var sawFailed bool
	for _, event := range setup.outbox.events {
		if event.EventType == enums.EventLeasePaymentFailed {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Fatalf("expected lease_payment_failed event")
	}
}

func TestConfirmIsTerminalOnce(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	initiated, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	input := ConfirmInput{
		GatewayOrderID:   initiated.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "sig_" + initiated.GatewayOrderID,
	}
	if _, err := setup.service.Confirm(context.Background(), setup.lease.FarmerID, input); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = setup.service.Confirm(context.Background(), setup.lease.FarmerID, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("repeat confirm must conflict, got %v", err)
	}
}

func TestConfirmEmitsSucceededEvent(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	paid := setup.payInstallment(t)
	if paid.TransactionID == nil || paid.PaidAt == nil {
		t.Fatalf("expected settlement fields on success")
	}

	var sawSucceeded bool
	for _, event := range setup.outbox.events {
		if event.EventType == enums.EventLeasePaymentSucceeded {
			sawSucceeded = true
		}
	}
	if !sawSucceeded {
		t.Fatalf("expected lease_payment_succeeded event")
	}
}

func TestScheduleMarksPendingSlot(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	setup.payInstallment(t)
	if _, err := setup.service.Initiate(context.Background(), setup.lease.FarmerID, setup.lease.ID); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	schedule, err := setup.service.Schedule(context.Background(), setup.lease.OwnerID, enums.UserRoleLandowner, setup.lease.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if schedule.Installments[0].Status != InstallmentStatusPaid {
		t.Fatalf("first slot should be paid")
	}
	if schedule.Installments[1].Status != InstallmentStatusPending {
		t.Fatalf("second slot should be pending, got %s", schedule.Installments[1].Status)
	}
	if schedule.Installments[2].Status != InstallmentStatusUpcoming {
		t.Fatalf("third slot should be upcoming")
	}
	if schedule.NextInstallment == nil || *schedule.NextInstallment != 2 {
		t.Fatalf("expected next installment 2")
	}
}

func TestSweepCompletedReleasesLand(t *testing.T) {
	setup := newPaymentsTestSetup(t)

	for i := 0; i < 3; i++ {
		setup.payInstallment(t)
	}
	setup.outbox.events = nil

	completed, err := setup.service.SweepCompleted(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected one completed lease, got %d", completed)
	}
	if setup.lease.Status != enums.LeaseStatusCompleted {
		t.Fatalf("expected completed lease, got %s", setup.lease.Status)
	}
	if setup.landRepo.status[setup.lease.LandID] != enums.LandStatusAvailable {
		t.Fatalf("expected land released")
	}
	if len(setup.outbox.events) != 1 || setup.outbox.events[0].EventType != enums.EventLeaseCompleted {
		t.Fatalf("expected lease_completed event")
	}

	// Second sweep finds nothing new.
	completed, err = setup.service.SweepCompleted(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if completed != 0 {
		t.Fatalf("expected idempotent sweep, got %d", completed)
	}
}
