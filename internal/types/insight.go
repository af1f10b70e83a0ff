package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Insight is a single analysis finding. Narrative-derived insights are
// persisted per user; dataset-derived insights live in memory in the
// dataset service and carry an empty UserID.
type Insight struct {
	gorm.Model
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Type       string         `gorm:"not null;column:type" json:"type"`
	Title      string         `gorm:"not null;column:title" json:"title"`
	Message    string         `gorm:"not null;column:message" json:"message"`
	Severity   Severity       `gorm:"not null;column:severity" json:"severity"`
	Confidence float64        `gorm:"column:confidence" json:"confidence"`
	Source     string         `gorm:"column:source" json:"source,omitempty"`
	Data       datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (Insight) TableName() string {
	return "insight"
}
