package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/types"
)

type RecommendationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, recommendations []*types.Recommendation) ([]*types.Recommendation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Recommendation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.RecommendationStatus) error
	FullDeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	repoLog := baseLog.With("repo", "RecommendationRepo")
	return &recommendationRepo{db: db, log: repoLog}
}

func (rr *recommendationRepo) Create(ctx context.Context, tx *gorm.DB, recommendations []*types.Recommendation) ([]*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(recommendations) == 0 {
		return []*types.Recommendation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&recommendations).Error; err != nil {
		return nil, err
	}
	return recommendations, nil
}

func (rr *recommendationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.Recommendation
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *recommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.Recommendation
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (rr *recommendationRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (rr *recommendationRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.RecommendationStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (rr *recommendationRepo) FullDeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&types.Recommendation{}).Error
}
