package payoutmethods

import (
	"time"

	"github.com/agricorus/agricorus-backend/pkg/db/models"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/google/uuid"
)

// MethodDTO is the API shape of a registered payout destination. Account
// numbers are masked on the way out.
type MethodDTO struct {
	ID                uuid.UUID              `json:"id"`
	UserID            uuid.UUID              `json:"user_id"`
	Type              enums.PayoutMethodType `json:"type"`
	UPIID             *string                `json:"upi_id,omitempty"`
	UPIName           *string                `json:"upi_name,omitempty"`
	AccountHolderName *string                `json:"account_holder_name,omitempty"`
	AccountNumber     *string                `json:"account_number,omitempty"`
	IFSCCode          *string                `json:"ifsc_code,omitempty"`
	BankName          *string                `json:"bank_name,omitempty"`
	IsDefault         bool                   `json:"is_default"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// FromModel converts a payout method row into its API shape.
func FromModel(method *models.PayoutMethod) *MethodDTO {
	if method == nil {
		return nil
	}
	return &MethodDTO{
		ID:                method.ID,
		UserID:            method.UserID,
		Type:              method.Type,
		UPIID:             method.UPIID,
		UPIName:           method.UPIName,
		AccountHolderName: method.AccountHolderName,
		AccountNumber:     maskAccountNumber(method.AccountNumber),
		IFSCCode:          method.IFSCCode,
		BankName:          method.BankName,
		IsDefault:         method.IsDefault,
		CreatedAt:         method.CreatedAt,
		UpdatedAt:         method.UpdatedAt,
	}
}

func maskAccountNumber(number *string) *string {
	if number == nil {
		return nil
	}
	value := *number
	if len(value) <= 4 {
		return number
	}
	masked := "****" + value[len(value)-4:]
	return &masked
}

// CreateMethodInput holds the validated payload to register a destination.
type CreateMethodInput struct {
	Type              enums.PayoutMethodType
	UPIID             *string
	UPIName           *string
	AccountHolderName *string
	AccountNumber     *string
	IFSCCode          *string
	BankName          *string
	IsDefault         bool
}

// UpdateMethodInput holds optional mutation values for a destination.
type UpdateMethodInput struct {
	UPIID             *string
	UPIName           *string
	AccountHolderName *string
	AccountNumber     *string
	IFSCCode          *string
	BankName          *string
}
