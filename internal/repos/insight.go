package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/types"
)

type InsightRepo interface {
	Create(ctx context.Context, tx *gorm.DB, insights []*types.Insight) ([]*types.Insight, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Insight, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	FullDeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	repoLog := baseLog.With("repo", "InsightRepo")
	return &insightRepo{db: db, log: repoLog}
}

func (ir *insightRepo) Create(ctx context.Context, tx *gorm.DB, insights []*types.Insight) ([]*types.Insight, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	if len(insights) == 0 {
		return []*types.Insight{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&insights).Error; err != nil {
		return nil, err
	}
	return insights, nil
}

func (ir *insightRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Insight, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Insight
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *insightRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Insight{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ir *insightRepo) FullDeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&types.Insight{}).Error
}
