package payoutmethods

import (
	"context"
	"testing"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubMethodsRepo struct {
	methods map[uuid.UUID]*models.PayoutMethod
}

func newStubMethodsRepo() *stubMethodsRepo {
	return &stubMethodsRepo{methods: map[uuid.UUID]*models.PayoutMethod{}}
}

func (s *stubMethodsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubMethodsRepo) Create(ctx context.Context, method *models.PayoutMethod) (*models.PayoutMethod, error) {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	s.methods[method.ID] = method
	return method, nil
}

func (s *stubMethodsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error) {
	method, ok := s.methods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *method
	return &clone, nil
}

func (s *stubMethodsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error) {
	var rows []models.PayoutMethod
	for _, method := range s.methods {
		if method.UserID == userID {
			rows = append(rows, *method)
		}
	}
	return rows, nil
}

func (s *stubMethodsRepo) Update(ctx context.Context, method *models.PayoutMethod) error {
	if _, ok := s.methods[method.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *method
	s.methods[method.ID] = &clone
	return nil
}

func (s *stubMethodsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.methods, id)
	return nil
}

func (s *stubMethodsRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	for _, method := range s.methods {
		if method.UserID == userID {
			method.IsDefault = false
		}
	}
	return nil
}

func (s *stubMethodsRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	method, ok := s.methods[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	method.IsDefault = true
	return nil
}

func newMethodsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func strRef(v string) *string { return &v }

func TestCreateFirstMethodBecomesDefault(t *testing.T) {
	repo := newStubMethodsRepo()
	svc := newMethodsService(t, repo)
	userID := uuid.New()

	dto, err := svc.Create(context.Background(), userID, CreateMethodInput{
		Type:  enums.PayoutMethodTypeUPI,
		UPIID: strRef("farmer@upi"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !dto.IsDefault {
		t.Fatal("expected first method to become the default")
	}
}

func TestCreateValidatesPerType(t *testing.T) {
	repo := newStubMethodsRepo()
	svc := newMethodsService(t, repo)
	userID := uuid.New()

	cases := []struct {
		name  string
		input CreateMethodInput
	}{
		{"upi without handle", CreateMethodInput{Type: enums.PayoutMethodTypeUPI}},
		{"bank without account", CreateMethodInput{
			Type:              enums.PayoutMethodTypeBank,
			IFSCCode:          strRef("HDFC0001234"),
			AccountHolderName: strRef("Asha Rao"),
		}},
		{"bank without ifsc", CreateMethodInput{
			Type:              enums.PayoutMethodTypeBank,
			AccountNumber:     strRef("5566778899"),
			AccountHolderName: strRef("Asha Rao"),
		}},
		{"bank without holder", CreateMethodInput{
			Type:          enums.PayoutMethodTypeBank,
			AccountNumber: strRef("5566778899"),
			IFSCCode:      strRef("HDFC0001234"),
		}},
		{"unknown type", CreateMethodInput{Type: enums.PayoutMethodType("wallet")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tc.input)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateMasksAccountNumber(t *testing.T) {
	repo := newStubMethodsRepo()
	svc := newMethodsService(t, repo)
	userID := uuid.New()

	dto, err := svc.Create(context.Background(), userID, CreateMethodInput{
		Type:              enums.PayoutMethodTypeBank,
		AccountNumber:     strRef("5566778899"),
		IFSCCode:          strRef("HDFC0001234"),
		AccountHolderName: strRef("Asha Rao"),
		BankName:          strRef("HDFC"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.AccountNumber == nil || *dto.AccountNumber != "****8899" {
		t.Fatalf("expected masked account number, got %v", dto.AccountNumber)
	}
}

func TestSetDefaultUnsetsPrevious(t *testing.T) {
	repo := newStubMethodsRepo()
	svc := newMethodsService(t, repo)
	userID := uuid.New()

	first, err := svc.Create(context.Background(), userID, CreateMethodInput{
		Type:  enums.PayoutMethodTypeUPI,
		UPIID: strRef("farmer@upi"),
	})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := svc.Create(context.Background(), userID, CreateMethodInput{
		Type:              enums.PayoutMethodTypeBank,
		AccountNumber:     strRef("5566778899"),
		IFSCCode:          strRef("HDFC0001234"),
		AccountHolderName: strRef("Asha Rao"),
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	dto, err := svc.SetDefault(context.Background(), userID, second.ID)
	if err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if !dto.IsDefault {
		t.Fatal("expected new default flag set")
	}
	if repo.methods[first.ID].IsDefault {
		t.Fatal("expected previous default to be unset")
	}
}

func TestSetDefaultForbiddenForOtherUser(t *testing.T) {
	repo := newStubMethodsRepo()
	svc := newMethodsService(t, repo)
	owner := uuid.New()

	dto, err := svc.Create(context.Background(), owner, CreateMethodInput{
		Type:  enums.PayoutMethodTypeUPI,
		UPIID: strRef("owner@upi"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.SetDefault(context.Background(), uuid.New(), dto.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestUpdateAndDeleteOwnerScoped(t *testing.T) {
	repo := newStubMethodsRepo()
	svc := newMethodsService(t, repo)
	owner := uuid.New()

	dto, err := svc.Create(context.Background(), owner, CreateMethodInput{
		Type:  enums.PayoutMethodTypeUPI,
		UPIID: strRef("owner@upi"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), owner, dto.ID, UpdateMethodInput{
		UPIName: strRef("Asha Rao"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UPIName == nil || *updated.UPIName != "Asha Rao" {
		t.Fatalf("expected updated upi name, got %v", updated.UPIName)
	}

	err = svc.Delete(context.Background(), uuid.New(), dto.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	if err := svc.Delete(context.Background(), owner, dto.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Update(context.Background(), owner, dto.ID, UpdateMethodInput{}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
