package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityCategory string

const (
	CategoryTransportation ActivityCategory = "transportation"
	CategoryEnergy         ActivityCategory = "energy"
	CategoryFood           ActivityCategory = "food"
	CategoryWaste          ActivityCategory = "waste"
)

func (c ActivityCategory) Valid() bool {
	switch c {
	case CategoryTransportation, CategoryEnergy, CategoryFood, CategoryWaste:
		return true
	}
	return false
}

// Activity is one logged carbon activity. EmissionKg is computed once at
// creation from the factor table and never updated afterwards; corrections
// are new entries.
type Activity struct {
	gorm.Model
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Category   ActivityCategory `gorm:"index;not null;column:category" json:"category"`
	Type       string           `gorm:"not null;column:type" json:"type"`
	Amount     float64          `gorm:"not null;column:amount" json:"amount"`
	Unit       string           `gorm:"column:unit" json:"unit"`
	EmissionKg float64          `gorm:"not null;column:emission_kg" json:"emission_kg"`
	Confidence float64          `gorm:"column:confidence" json:"confidence"`
	Date       time.Time        `gorm:"index;not null;column:date" json:"date"`
	Location   string           `gorm:"column:location" json:"location,omitempty"`
	Metadata   datatypes.JSON   `gorm:"column:metadata" json:"metadata,omitempty"`
	Source     string           `gorm:"column:source;default:manual" json:"source"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null" json:"updated_at"`
}

func (Activity) TableName() string {
	return "activity"
}
