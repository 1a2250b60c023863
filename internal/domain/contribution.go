package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ContributionPending   = "pending"
	ContributionConfirmed = "confirmed"
	ContributionRefunded  = "refunded"
)

// Contribution is one wallet's commitment to a launch. ClaimedAmount never
// exceeds Amount and never decreases.
type Contribution struct {
	ID            string          `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ProjectID     string          `gorm:"column:project_id;type:varchar(64);index;not null" json:"projectId"`
	SaleID        string          `gorm:"column:sale_id;type:varchar(64);not null" json:"saleId"`
	UserID        string          `gorm:"column:user_id;type:varchar(64);index;not null" json:"userId"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric;not null" json:"amount"`
	ClaimedAmount decimal.Decimal `gorm:"column:claimed_amount;type:numeric;not null" json:"claimedAmount"`
	Status        string          `gorm:"column:status;type:varchar(16);not null" json:"status"`
	TxHash        *string         `gorm:"column:tx_hash" json:"txHash,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (Contribution) TableName() string {
	return "contributions"
}

func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = "c_" + uuid.New().String()
	}
	return nil
}

// Available is the part of the contribution not yet claimed.
func (c *Contribution) Available() decimal.Decimal {
	return c.Amount.Sub(c.ClaimedAmount)
}
