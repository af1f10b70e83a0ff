package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/types"
)

type LogActivityInput struct {
	Category types.ActivityCategory `json:"category"`
	Type     string                 `json:"type"`
	Amount   float64                `json:"amount"`
	Unit     string                 `json:"unit"`
	Date     *time.Time             `json:"date,omitempty"`
	Location string                 `json:"location,omitempty"`
	Metadata map[string]any         `json:"metadata,omitempty"`
}

type ListActivitiesInput struct {
	Category types.ActivityCategory
	Days     int
	Limit    int
}

type ActivityService interface {
	Log(ctx context.Context, userID uuid.UUID, input LogActivityInput) (*types.Activity, CalculationResult, error)
	List(ctx context.Context, userID uuid.UUID, input ListActivitiesInput) ([]*types.Activity, error)
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
}

type activityService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo repos.ActivityRepo
	calculator   CalculatorService
	cache        Cache
}

func NewActivityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo repos.ActivityRepo,
	calculator CalculatorService,
	cache Cache,
) ActivityService {
	serviceLog := baseLog.With("service", "ActivityService")
	return &activityService{
		db:           db,
		log:          serviceLog,
		activityRepo: activityRepo,
		calculator:   calculator,
		cache:        cache,
	}
}

// Log computes the emission server-side and appends the activity. The
// stored emission_kg is immutable; a correction is a new entry.
func (as *activityService) Log(ctx context.Context, userID uuid.UUID, input LogActivityInput) (*types.Activity, CalculationResult, error) {
	result, err := as.calculator.Compute(input.Category, input.Type, input.Amount, input.Unit, input.Location)
	if err != nil {
		return nil, CalculationResult{}, err
	}

	date := time.Now().UTC()
	if input.Date != nil && !input.Date.IsZero() {
		date = input.Date.UTC()
	}

	var metadata datatypes.JSON
	if len(input.Metadata) > 0 {
		raw, mErr := json.Marshal(input.Metadata)
		if mErr != nil {
			return nil, CalculationResult{}, apierr.Validation(fmt.Errorf("metadata not serializable: %w", mErr))
		}
		metadata = datatypes.JSON(raw)
	}

	activity := &types.Activity{
		ID:         uuid.New(),
		UserID:     userID,
		Category:   input.Category,
		Type:       input.Type,
		Amount:     input.Amount,
		Unit:       input.Unit,
		EmissionKg: result.EmissionKg,
		Confidence: result.Confidence,
		Date:       date,
		Location:   input.Location,
		Metadata:   metadata,
		Source:     "manual",
	}

	if _, err := as.activityRepo.Create(ctx, nil, []*types.Activity{activity}); err != nil {
		as.log.Error("Log activity failed", "error", err, "user_id", userID)
		return nil, CalculationResult{}, fmt.Errorf("create activity: %w", err)
	}

	as.cache.Invalidate(ctx, dashboardCacheKey(userID))
	return activity, result, nil
}

func (as *activityService) List(ctx context.Context, userID uuid.UUID, input ListActivitiesInput) ([]*types.Activity, error) {
	if input.Category != "" && !input.Category.Valid() {
		return nil, apierr.Validation(fmt.Errorf("invalid category %q", input.Category))
	}
	filter := repos.ActivityFilter{
		Category: input.Category,
		Limit:    input.Limit,
	}
	if input.Days > 0 {
		filter.From = time.Now().UTC().AddDate(0, 0, -input.Days)
	}
	activities, err := as.activityRepo.ListByUser(ctx, nil, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// Clear is the only delete path: an explicit bulk wipe of the user's log.
func (as *activityService) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := as.activityRepo.FullDeleteByUser(ctx, nil, userID)
	if err != nil {
		return 0, fmt.Errorf("clear activities: %w", err)
	}
	as.cache.Invalidate(ctx, dashboardCacheKey(userID))
	as.log.Info("Cleared activity log", "user_id", userID, "deleted", deleted)
	return deleted, nil
}
