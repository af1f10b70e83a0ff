package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/types"
)

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"

	defaultWindowDays = 30

	// Relative week-over-week change below this is reported as stable.
	defaultTrendThreshold = 0.05

	dashboardCacheTTL = time.Minute
)

type DashboardSummary struct {
	TotalEmissions       float64 `json:"total_emissions"`
	DailyAverage         float64 `json:"daily_average"`
	WeeklyTrend          string  `json:"weekly_trend"`
	TopCategory          string  `json:"top_category"`
	InsightsCount        int64   `json:"insights_count"`
	RecommendationsCount int64   `json:"recommendations_count"`
}

type CategoryTotal struct {
	Total      float64            `json:"total"`
	Activities map[string]float64 `json:"activities"`
}

type TrendStats struct {
	Trend          string                   `json:"trend"`
	ChangePercent  float64                  `json:"change_percent"`
	DailyFootprint map[string]float64       `json:"daily_footprint"`
	ByCategory     map[string]CategoryTotal `json:"category_breakdown"`
}

type DashboardService interface {
	Summarize(ctx context.Context, userID uuid.UUID, windowDays int) (DashboardSummary, error)
	Trends(ctx context.Context, userID uuid.UUID, windowDays int) (TrendStats, error)
}

type dashboardService struct {
	db                 *gorm.DB
	log                *logger.Logger
	activityRepo       repos.ActivityRepo
	insightRepo        repos.InsightRepo
	recommendationRepo repos.RecommendationRepo
	cache              Cache
	trendThreshold     float64
}

func NewDashboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo repos.ActivityRepo,
	insightRepo repos.InsightRepo,
	recommendationRepo repos.RecommendationRepo,
	cache Cache,
	trendThreshold float64,
) DashboardService {
	serviceLog := baseLog.With("service", "DashboardService")
	if trendThreshold <= 0 {
		trendThreshold = defaultTrendThreshold
	}
	return &dashboardService{
		db:                 db,
		log:                serviceLog,
		activityRepo:       activityRepo,
		insightRepo:        insightRepo,
		recommendationRepo: recommendationRepo,
		cache:              cache,
		trendThreshold:     trendThreshold,
	}
}

func dashboardCacheKey(userID uuid.UUID) string {
	return "dashboard:" + userID.String()
}

// cachedSummary carries the window it was computed for, so the single
// per-user cache key stays invalidatable by writers that do not know
// which windows were requested.
type cachedSummary struct {
	WindowDays int              `json:"window_days"`
	Summary    DashboardSummary `json:"summary"`
}

func (ds *dashboardService) Summarize(ctx context.Context, userID uuid.UUID, windowDays int) (DashboardSummary, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	cacheKey := dashboardCacheKey(userID)
	var cached cachedSummary
	if ds.cache.GetJSON(ctx, cacheKey, &cached) && cached.WindowDays == windowDays {
		return cached.Summary, nil
	}

	now := time.Now().UTC()
	activities, err := ds.activityRepo.ListByUser(ctx, nil, userID, repos.ActivityFilter{
		From: now.AddDate(0, 0, -windowDays),
	})
	if err != nil {
		return DashboardSummary{}, fmt.Errorf("load activities: %w", err)
	}

	summary := summarizeActivities(activities, now, ds.trendThreshold)

	if summary.InsightsCount, err = ds.insightRepo.CountByUser(ctx, nil, userID); err != nil {
		return DashboardSummary{}, fmt.Errorf("count insights: %w", err)
	}
	if summary.RecommendationsCount, err = ds.recommendationRepo.CountByUser(ctx, nil, userID); err != nil {
		return DashboardSummary{}, fmt.Errorf("count recommendations: %w", err)
	}

	ds.cache.SetJSON(ctx, cacheKey, cachedSummary{WindowDays: windowDays, Summary: summary}, dashboardCacheTTL)
	return summary, nil
}

func (ds *dashboardService) Trends(ctx context.Context, userID uuid.UUID, windowDays int) (TrendStats, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	now := time.Now().UTC()
	activities, err := ds.activityRepo.ListByUser(ctx, nil, userID, repos.ActivityFilter{
		From: now.AddDate(0, 0, -windowDays),
	})
	if err != nil {
		return TrendStats{}, fmt.Errorf("load activities: %w", err)
	}
	trend, pct := weeklyTrend(activities, now, ds.trendThreshold)
	return TrendStats{
		Trend:          trend,
		ChangePercent:  round2(pct),
		DailyFootprint: dailyFootprint(activities),
		ByCategory:     categoryBreakdown(activities),
	}, nil
}

// summarizeActivities derives the dashboard figures from an already
// window-filtered activity set. An empty set yields a zero summary.
func summarizeActivities(activities []*types.Activity, now time.Time, trendThreshold float64) DashboardSummary {
	summary := DashboardSummary{
		WeeklyTrend: TrendStable,
		TopCategory: "none",
	}
	var total float64
	for _, a := range activities {
		total += a.EmissionKg
	}
	summary.TotalEmissions = round2(total)

	days := len(dailyFootprint(activities))
	if days < 1 {
		days = 1
	}
	if len(activities) > 0 {
		summary.DailyAverage = round2(total / float64(days))
	}

	summary.WeeklyTrend, _ = weeklyTrend(activities, now, trendThreshold)
	summary.TopCategory = topCategory(activities)
	return summary
}

// weeklyTrend compares the last 7 days against the 7 days before them with
// a relative threshold. A prior week of zero with nonzero current emissions
// reports increasing.
func weeklyTrend(activities []*types.Activity, now time.Time, threshold float64) (string, float64) {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var thisWeek, lastWeek float64
	for _, a := range activities {
		switch {
		case !a.Date.Before(weekAgo):
			thisWeek += a.EmissionKg
		case !a.Date.Before(twoWeeksAgo):
			lastWeek += a.EmissionKg
		}
	}

	if lastWeek == 0 {
		if thisWeek > 0 {
			return TrendIncreasing, 100
		}
		return TrendStable, 0
	}

	// Divide by the magnitude: a negative prior week (net credits) must not
	// flip which direction counts as an increase.
	change := (thisWeek - lastWeek) / math.Abs(lastWeek)
	switch {
	case change > threshold:
		return TrendIncreasing, change * 100
	case change < -threshold:
		return TrendDecreasing, change * 100
	default:
		return TrendStable, change * 100
	}
}

// topCategory returns the category with the highest summed emissions, ties
// broken lexically so the result is deterministic.
func topCategory(activities []*types.Activity) string {
	if len(activities) == 0 {
		return "none"
	}
	totals := make(map[string]float64)
	for _, a := range activities {
		totals[string(a.Category)] += a.EmissionKg
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if totals[name] > totals[best] {
			best = name
		}
	}
	return best
}

func dailyFootprint(activities []*types.Activity) map[string]float64 {
	daily := make(map[string]float64)
	for _, a := range activities {
		day := a.Date.UTC().Format("2006-01-02")
		daily[day] += a.EmissionKg
	}
	for day, v := range daily {
		daily[day] = round2(v)
	}
	return daily
}

func categoryBreakdown(activities []*types.Activity) map[string]CategoryTotal {
	breakdown := make(map[string]CategoryTotal)
	for _, a := range activities {
		category := string(a.Category)
		entry, ok := breakdown[category]
		if !ok {
			entry = CategoryTotal{Activities: make(map[string]float64)}
		}
		entry.Total = round2(entry.Total + a.EmissionKg)
		entry.Activities[a.Type] = round2(entry.Activities[a.Type] + a.EmissionKg)
		breakdown[category] = entry
	}
	return breakdown
}
