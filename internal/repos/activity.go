package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/types"
)

// ActivityFilter narrows ListByUser. Zero values mean "no constraint".
type ActivityFilter struct {
	Category types.ActivityCategory
	From     time.Time
	To       time.Time
	Limit    int
}

type ActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activities []*types.Activity) ([]*types.Activity, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter ActivityFilter) ([]*types.Activity, error)
	FullDeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	repoLog := baseLog.With("repo", "ActivityRepo")
	return &activityRepo{db: db, log: repoLog}
}

func (ar *activityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.Activity) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(activities) == 0 {
		return []*types.Activity{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (ar *activityRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter ActivityFilter) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("date < ?", filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var results []*types.Activity
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *activityRepo) FullDeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	res := transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&types.Activity{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
