package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lifestyle string

const (
	LifestyleMinimal         Lifestyle = "minimal"
	LifestyleModerate        Lifestyle = "moderate"
	LifestyleHighConsumption Lifestyle = "high-consumption"
)

func (l Lifestyle) Valid() bool {
	switch l {
	case LifestyleMinimal, LifestyleModerate, LifestyleHighConsumption:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password      string    `gorm:"not null;column:password" json:"-"`
	Name          string    `gorm:"not null;column:name" json:"name"`
	Location      string    `gorm:"column:location" json:"location"`
	HouseholdSize int       `gorm:"column:household_size;default:1" json:"household_size"`
	Lifestyle     Lifestyle `gorm:"column:lifestyle;default:moderate" json:"lifestyle"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
