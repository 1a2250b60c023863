package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"

	TxPending   = "pending"
	TxConfirmed = "confirmed"
	TxRefunded  = "refunded"
)

// Tx is an append-only settlement record. Rows are never updated after insert.
type Tx struct {
	ID             string            `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ProjectID      string            `gorm:"column:project_id;type:varchar(64);index;not null" json:"projectId"`
	ContributionID *string           `gorm:"column:contribution_id;type:varchar(64)" json:"contributionId,omitempty"`
	UserID         *string           `gorm:"column:user_id;type:varchar(64);index" json:"userId,omitempty"`
	TxHash         string            `gorm:"column:tx_hash;not null" json:"txHash"`
	Direction      string            `gorm:"column:direction;type:varchar(4);not null" json:"direction"`
	EventType      string            `gorm:"column:event_type;type:varchar(32);not null" json:"eventType"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:numeric;not null" json:"amount"`
	Status         string            `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	CreatedAt      time.Time         `gorm:"column:created_at;index" json:"createdAt"`
}

func (Tx) TableName() string {
	return "transactions"
}

func (t *Tx) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = "t_" + uuid.New().String()
	}
	if t.Metadata == nil {
		t.Metadata = datatypes.JSONMap{}
	}
	return nil
}

func (t *Tx) BeforeUpdate(tx *gorm.DB) error {
	return ErrTxImmutable
}
