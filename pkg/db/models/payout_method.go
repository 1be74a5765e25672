package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/pkg/enums"
)

// PayoutMethod is a bank account or UPI handle registered for withdrawals.
// A partial unique index on (user_id) WHERE is_default keeps at most one
// default per user; the service unsets the previous default in the same tx.
type PayoutMethod struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type              enums.PayoutMethodType `gorm:"column:type;type:payout_method_type;not null"`
	UPIID             *string                `gorm:"column:upi_id;type:text"`
	UPIName           *string                `gorm:"column:upi_name;type:text"`
	AccountHolderName *string                `gorm:"column:account_holder_name;type:text"`
	AccountNumber     *string                `gorm:"column:account_number;type:text"`
	IFSCCode          *string                `gorm:"column:ifsc_code;type:text"`
	BankName          *string                `gorm:"column:bank_name;type:text"`
	IsDefault         bool                   `gorm:"column:is_default;not null;default:false"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
