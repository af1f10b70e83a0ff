package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/types"
)

type InsightService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.Insight, error)
}

type insightService struct {
	db          *gorm.DB
	log         *logger.Logger
	insightRepo repos.InsightRepo
}

func NewInsightService(db *gorm.DB, baseLog *logger.Logger, insightRepo repos.InsightRepo) InsightService {
	serviceLog := baseLog.With("service", "InsightService")
	return &insightService{
		db:          db,
		log:         serviceLog,
		insightRepo: insightRepo,
	}
}

func (is *insightService) List(ctx context.Context, userID uuid.UUID) ([]*types.Insight, error) {
	insights, err := is.insightRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return insights, nil
}
