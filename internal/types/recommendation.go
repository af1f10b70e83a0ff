package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "pending"
	RecommendationAccepted RecommendationStatus = "accepted"
	RecommendationDeferred RecommendationStatus = "deferred"
	RecommendationRejected RecommendationStatus = "rejected"
)

func (s RecommendationStatus) Valid() bool {
	switch s {
	case RecommendationPending, RecommendationAccepted, RecommendationDeferred, RecommendationRejected:
		return true
	}
	return false
}

// Recommendation status only moves by explicit user action.
type Recommendation struct {
	gorm.Model
	ID                uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID            `gorm:"type:uuid;index;not null" json:"user_id"`
	Type              string               `gorm:"column:type" json:"type"`
	Title             string               `gorm:"not null;column:title" json:"title"`
	Description       string               `gorm:"column:description" json:"description"`
	Category          ActivityCategory     `gorm:"column:category" json:"category"`
	CarbonReductionKg float64              `gorm:"column:carbon_reduction_kg" json:"carbon_reduction_kg"`
	Cost              float64              `gorm:"column:cost" json:"cost"`
	Difficulty        Difficulty           `gorm:"column:difficulty" json:"difficulty"`
	Timeframe         string               `gorm:"column:timeframe" json:"timeframe"`
	Confidence        float64              `gorm:"column:confidence" json:"confidence"`
	Reasoning         string               `gorm:"column:reasoning" json:"reasoning"`
	Status            RecommendationStatus `gorm:"column:status;default:pending" json:"status"`
	CreatedAt         time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"not null" json:"updated_at"`
}

func (Recommendation) TableName() string {
	return "recommendation"
}
