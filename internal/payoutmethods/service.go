package payoutmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes payout destination management for landowners.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateMethodInput) (*MethodDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]MethodDTO, error)
	Update(ctx context.Context, userID, methodID uuid.UUID, input UpdateMethodInput) (*MethodDTO, error)
	Delete(ctx context.Context, userID, methodID uuid.UUID) error
	SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*MethodDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a payout method service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout methods repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateMethodInput) (*MethodDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateMethodInput(input); err != nil {
		return nil, err
	}

	var created *models.PayoutMethod
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default method")
			}
		} else {
			existing, err := repo.ListByUser(ctx, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list methods")
			}
			// The first registered destination becomes the default.
			if len(existing) == 0 {
				input.IsDefault = true
			}
		}

		row, err := repo.Create(ctx, &models.PayoutMethod{
			UserID:            userID,
			Type:              input.Type,
			UPIID:             input.UPIID,
			UPIName:           input.UPIName,
			AccountHolderName: input.AccountHolderName,
			AccountNumber:     input.AccountNumber,
			IFSCCode:          input.IFSCCode,
			BankName:          input.BankName,
			IsDefault:         input.IsDefault,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert payout method")
		}
		created = row
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout method")
	}
	return FromModel(created), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]MethodDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout methods")
	}
	items := make([]MethodDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, userID, methodID uuid.UUID, input UpdateMethodInput) (*MethodDTO, error) {
	method, err := s.loadOwnedMethod(ctx, userID, methodID)
	if err != nil {
		return nil, err
	}

	if input.UPIID != nil {
		method.UPIID = input.UPIID
	}
	if input.UPIName != nil {
		method.UPIName = input.UPIName
	}
	if input.AccountHolderName != nil {
		method.AccountHolderName = input.AccountHolderName
	}
	if input.AccountNumber != nil {
		method.AccountNumber = input.AccountNumber
	}
	if input.IFSCCode != nil {
		method.IFSCCode = input.IFSCCode
	}
	if input.BankName != nil {
		method.BankName = input.BankName
	}

	if err := s.repo.Update(ctx, method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payout method")
	}
	return FromModel(method), nil
}

func (s *service) Delete(ctx context.Context, userID, methodID uuid.UUID) error {
	method, err := s.loadOwnedMethod(ctx, userID, methodID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, method.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete payout method")
	}
	return nil
}

// SetDefault swaps the default flag atomically: the previous default is
// unset and the new one set inside one transaction.
func (s *service) SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*MethodDTO, error) {
	method, err := s.loadOwnedMethod(ctx, userID, methodID)
	if err != nil {
		return nil, err
	}
	if method.IsDefault {
		return FromModel(method), nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default method")
		}
		if err := repo.SetDefault(ctx, method.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set default method")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default payout method")
	}
	method.IsDefault = true
	return FromModel(method), nil
}

func (s *service) loadOwnedMethod(ctx context.Context, userID, methodID uuid.UUID) (*models.PayoutMethod, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	method, err := s.repo.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout method")
	}
	if method.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payout method does not belong to user")
	}
	return method, nil
}

func validateMethodInput(input CreateMethodInput) error {
	switch input.Type {
	case enums.PayoutMethodTypeUPI:
		if input.UPIID == nil || strings.TrimSpace(*input.UPIID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "upi_id is required for upi methods")
		}
	case enums.PayoutMethodTypeBank:
		if input.AccountNumber == nil || strings.TrimSpace(*input.AccountNumber) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "account_number is required for bank methods")
		}
		if input.IFSCCode == nil || strings.TrimSpace(*input.IFSCCode) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "ifsc_code is required for bank methods")
		}
		if input.AccountHolderName == nil || strings.TrimSpace(*input.AccountHolderName) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "account_holder_name is required for bank methods")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "type must be bank or upi")
	}
	return nil
}
