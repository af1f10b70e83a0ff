package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/types"
)

type RecommendationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.Recommendation, error)
	UpdateStatus(ctx context.Context, userID, recommendationID uuid.UUID, status types.RecommendationStatus) (*types.Recommendation, error)
}

type recommendationService struct {
	db                 *gorm.DB
	log                *logger.Logger
	recommendationRepo repos.RecommendationRepo
}

func NewRecommendationService(db *gorm.DB, baseLog *logger.Logger, recommendationRepo repos.RecommendationRepo) RecommendationService {
	serviceLog := baseLog.With("service", "RecommendationService")
	return &recommendationService{
		db:                 db,
		log:                serviceLog,
		recommendationRepo: recommendationRepo,
	}
}

func (rs *recommendationService) List(ctx context.Context, userID uuid.UUID) ([]*types.Recommendation, error) {
	recommendations, err := rs.recommendationRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recommendations, nil
}

// UpdateStatus moves a recommendation through its lifecycle. Only the
// owner may transition it, and only to a valid status.
func (rs *recommendationService) UpdateStatus(ctx context.Context, userID, recommendationID uuid.UUID, status types.RecommendationStatus) (*types.Recommendation, error) {
	if !status.Valid() {
		return nil, apierr.Validation(fmt.Errorf("invalid status %q", status))
	}

	recommendation, err := rs.recommendationRepo.GetByID(ctx, nil, recommendationID)
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if recommendation == nil || recommendation.UserID != userID {
		return nil, apierr.NotFound("recommendation")
	}

	if err := rs.recommendationRepo.UpdateStatus(ctx, nil, recommendationID, status); err != nil {
		return nil, fmt.Errorf("update recommendation status: %w", err)
	}
	recommendation.Status = status
	return recommendation, nil
}
