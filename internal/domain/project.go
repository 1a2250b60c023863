package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProjectDraft     = "draft"
	ProjectActive    = "active"
	ProjectFinalized = "finalized"
	ProjectRefunded  = "refunded"
)

// Project carries the business side of a launch. Its Sale is stored separately
// and linked by Sale.ProjectID.
type Project struct {
	ID          string          `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	OwnerID     string          `gorm:"column:owner_id;type:varchar(64);index;not null" json:"ownerId"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description string          `gorm:"column:description" json:"description"`
	Status      string          `gorm:"column:status;type:varchar(16);not null" json:"status"`
	HardCap     decimal.Decimal `gorm:"column:hard_cap;type:numeric;not null" json:"hardCap"`
	SoftCap     decimal.Decimal `gorm:"column:soft_cap;type:numeric;not null" json:"softCap"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = "p_" + uuid.New().String()
	}
	return nil
}
