package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/types"
)

// mapCache is an in-process Cache so tests can observe hits and
// invalidations.
type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (mc *mapCache) GetJSON(_ context.Context, cacheKey string, out any) bool {
	raw, ok := mc.entries[cacheKey]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (mc *mapCache) SetJSON(_ context.Context, cacheKey string, val any, _ time.Duration) {
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	mc.entries[cacheKey] = raw
}

func (mc *mapCache) Invalidate(_ context.Context, cacheKeys ...string) {
	for _, key := range cacheKeys {
		delete(mc.entries, key)
	}
}

func activityAt(category types.ActivityCategory, typ string, emission float64, daysAgo int, now time.Time) *types.Activity {
	return &types.Activity{
		Category:   category,
		Type:       typ,
		EmissionKg: emission,
		Date:       now.AddDate(0, 0, -daysAgo),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	now := time.Now().UTC()
	summary := summarizeActivities(nil, now, defaultTrendThreshold)

	if summary.TotalEmissions != 0 {
		t.Fatalf("total = %v, want 0", summary.TotalEmissions)
	}
	if summary.DailyAverage != 0 {
		t.Fatalf("daily average = %v, want 0", summary.DailyAverage)
	}
	if summary.WeeklyTrend != TrendStable {
		t.Fatalf("trend = %q, want stable", summary.WeeklyTrend)
	}
	if summary.TopCategory != "none" {
		t.Fatalf("top category = %q, want none", summary.TopCategory)
	}
}

func TestSummarizeTotalsAndDailyAverage(t *testing.T) {
	now := time.Now().UTC()
	// Three activities across two distinct days: average divides by 2.
	activities := []*types.Activity{
		activityAt(types.CategoryEnergy, "electricity", 6.0, 1, now),
		activityAt(types.CategoryEnergy, "electricity", 4.0, 1, now),
		activityAt(types.CategoryFood, "beef", 10.0, 2, now),
	}
	summary := summarizeActivities(activities, now, defaultTrendThreshold)

	if summary.TotalEmissions != 20.0 {
		t.Fatalf("total = %v, want 20.0", summary.TotalEmissions)
	}
	if summary.DailyAverage != 10.0 {
		t.Fatalf("daily average = %v, want 10.0", summary.DailyAverage)
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	now := time.Now().UTC()
	activities := []*types.Activity{
		activityAt(types.CategoryTransportation, "car_gasoline", 12.5, 1, now),
		activityAt(types.CategoryFood, "beef", 26.61, 3, now),
		activityAt(types.CategoryEnergy, "electricity", 9.2, 10, now),
		activityAt(types.CategoryWaste, "recycling", -2.2, 12, now),
	}
	want := summarizeActivities(activities, now, defaultTrendThreshold)

	for i := 0; i < 10; i++ {
		shuffled := make([]*types.Activity, len(activities))
		copy(shuffled, activities)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := summarizeActivities(shuffled, now, defaultTrendThreshold)
		if got != want {
			t.Fatalf("summary differs under reordering: %+v vs %+v", got, want)
		}
	}
}

func TestWeeklyTrend(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name      string
		thisWeek  float64
		lastWeek  float64
		wantTrend string
	}{
		{name: "increase_above_threshold", thisWeek: 110, lastWeek: 100, wantTrend: TrendIncreasing},
		{name: "decrease_below_threshold", thisWeek: 90, lastWeek: 100, wantTrend: TrendDecreasing},
		{name: "small_change_is_stable", thisWeek: 104, lastWeek: 100, wantTrend: TrendStable},
		{name: "small_drop_is_stable", thisWeek: 96, lastWeek: 100, wantTrend: TrendStable},
		{name: "no_prior_week_with_activity", thisWeek: 12, lastWeek: 0, wantTrend: TrendIncreasing},
		{name: "no_activity_at_all", thisWeek: 0, lastWeek: 0, wantTrend: TrendStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var activities []*types.Activity
			if tc.thisWeek > 0 {
				activities = append(activities, activityAt(types.CategoryEnergy, "electricity", tc.thisWeek, 2, now))
			}
			if tc.lastWeek > 0 {
				activities = append(activities, activityAt(types.CategoryEnergy, "electricity", tc.lastWeek, 9, now))
			}
			trend, _ := weeklyTrend(activities, now, defaultTrendThreshold)
			if trend != tc.wantTrend {
				t.Fatalf("trend = %q, want %q", trend, tc.wantTrend)
			}
		})
	}
}

func TestWeeklyTrendNegativeWeeks(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name      string
		thisWeek  float64
		lastWeek  float64
		wantTrend string
		wantPct   float64
	}{
		// Net-credit weeks: direction follows the raw difference, not the
		// sign of the prior week.
		{name: "credits_shrinking", thisWeek: -5, lastWeek: -10, wantTrend: TrendIncreasing, wantPct: 50},
		{name: "credits_growing", thisWeek: -10, lastWeek: -5, wantTrend: TrendDecreasing, wantPct: -100},
		{name: "credit_to_emission", thisWeek: 10, lastWeek: -10, wantTrend: TrendIncreasing, wantPct: 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			activities := []*types.Activity{
				activityAt(types.CategoryWaste, "recycling", tc.thisWeek, 2, now),
				activityAt(types.CategoryWaste, "recycling", tc.lastWeek, 9, now),
			}
			trend, pct := weeklyTrend(activities, now, defaultTrendThreshold)
			if trend != tc.wantTrend {
				t.Fatalf("trend = %q, want %q", trend, tc.wantTrend)
			}
			if pct != tc.wantPct {
				t.Fatalf("change percent = %v, want %v", pct, tc.wantPct)
			}
		})
	}
}

func TestWeeklyTrendExactThresholdIsStable(t *testing.T) {
	now := time.Now().UTC()
	activities := []*types.Activity{
		activityAt(types.CategoryEnergy, "electricity", 105, 2, now),
		activityAt(types.CategoryEnergy, "electricity", 100, 9, now),
	}
	trend, pct := weeklyTrend(activities, now, defaultTrendThreshold)
	if trend != TrendStable {
		t.Fatalf("trend at exactly +5%% = %q, want stable", trend)
	}
	if pct != 5 {
		t.Fatalf("change percent = %v, want 5", pct)
	}
}

func TestTopCategoryLexicalTieBreak(t *testing.T) {
	now := time.Now().UTC()
	activities := []*types.Activity{
		activityAt(types.CategoryTransportation, "bus", 10, 1, now),
		activityAt(types.CategoryEnergy, "electricity", 10, 1, now),
	}
	if got := topCategory(activities); got != "energy" {
		t.Fatalf("tie broken to %q, want energy", got)
	}
}

func TestTopCategoryHighestWins(t *testing.T) {
	now := time.Now().UTC()
	activities := []*types.Activity{
		activityAt(types.CategoryTransportation, "car_gasoline", 50, 1, now),
		activityAt(types.CategoryEnergy, "electricity", 10, 1, now),
		activityAt(types.CategoryEnergy, "electricity", 15, 2, now),
	}
	if got := topCategory(activities); got != "transportation" {
		t.Fatalf("top category = %q, want transportation", got)
	}
}

func TestDailyFootprintGroupsByUTCDay(t *testing.T) {
	day := time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC)
	activities := []*types.Activity{
		{Category: types.CategoryEnergy, Type: "electricity", EmissionKg: 1.111, Date: day},
		{Category: types.CategoryFood, Type: "beef", EmissionKg: 2.222, Date: day.Add(-2 * time.Hour)},
		{Category: types.CategoryFood, Type: "beef", EmissionKg: 5, Date: day.Add(24 * time.Hour)},
	}
	daily := dailyFootprint(activities)
	if len(daily) != 2 {
		t.Fatalf("days = %d, want 2", len(daily))
	}
	if daily["2026-08-20"] != 3.33 {
		t.Fatalf("day total = %v, want 3.33", daily["2026-08-20"])
	}
}

func TestCategoryBreakdown(t *testing.T) {
	now := time.Now().UTC()
	activities := []*types.Activity{
		activityAt(types.CategoryFood, "beef", 26.61, 1, now),
		activityAt(types.CategoryFood, "chicken", 4.57, 1, now),
		activityAt(types.CategoryWaste, "recycling", -1.1, 1, now),
	}
	breakdown := categoryBreakdown(activities)

	food, ok := breakdown["food"]
	if !ok {
		t.Fatalf("missing food breakdown")
	}
	if food.Total != 31.18 {
		t.Fatalf("food total = %v, want 31.18", food.Total)
	}
	if food.Activities["beef"] != 26.61 || food.Activities["chicken"] != 4.57 {
		t.Fatalf("food activities = %+v", food.Activities)
	}
	if breakdown["waste"].Total != -1.1 {
		t.Fatalf("waste total = %v, want -1.1", breakdown["waste"].Total)
	}
}

func newDashboardFixture(t *testing.T) (DashboardService, ActivityService, *mapCache, uuid.UUID) {
	t.Helper()
	log := testLogger(t)

	gdb, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.Activity{}, &types.Insight{}, &types.Recommendation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	activityRepo := repos.NewActivityRepo(gdb, log)
	insightRepo := repos.NewInsightRepo(gdb, log)
	recommendationRepo := repos.NewRecommendationRepo(gdb, log)

	cache := newMapCache()
	activityService := NewActivityService(gdb, log, activityRepo, testCalculator(t), cache)
	dashboardService := NewDashboardService(gdb, log, activityRepo, insightRepo, recommendationRepo, cache, 0)
	return dashboardService, activityService, cache, uuid.New()
}

func TestSummarizeRecomputesAfterLog(t *testing.T) {
	dashboard, activity, _, userID := newDashboardFixture(t)
	ctx := context.Background()

	primed, err := dashboard.Summarize(ctx, userID, defaultWindowDays)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if primed.TotalEmissions != 0 {
		t.Fatalf("primed total = %v, want 0", primed.TotalEmissions)
	}

	// 2 lbs of beef at 26.61 kg/lb.
	if _, _, err := activity.Log(ctx, userID, LogActivityInput{
		Category: types.CategoryFood,
		Type:     "beef",
		Amount:   2,
		Unit:     "lbs",
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	after, err := dashboard.Summarize(ctx, userID, defaultWindowDays)
	if err != nil {
		t.Fatalf("Summarize after log: %v", err)
	}
	if after.TotalEmissions != 53.22 {
		t.Fatalf("total after log = %v, want 53.22 (stale cache served)", after.TotalEmissions)
	}
	if after.TopCategory != "food" {
		t.Fatalf("top category after log = %q, want food", after.TopCategory)
	}

	if _, err := activity.Clear(ctx, userID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cleared, err := dashboard.Summarize(ctx, userID, defaultWindowDays)
	if err != nil {
		t.Fatalf("Summarize after clear: %v", err)
	}
	if cleared.TotalEmissions != 0 {
		t.Fatalf("total after clear = %v, want 0 (stale cache served)", cleared.TotalEmissions)
	}
}

func TestSummarizeCacheScopedToWindow(t *testing.T) {
	dashboard, activity, cache, userID := newDashboardFixture(t)
	ctx := context.Background()

	if _, _, err := activity.Log(ctx, userID, LogActivityInput{
		Category: types.CategoryFood,
		Type:     "beef",
		Amount:   1,
		Unit:     "lbs",
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	if _, err := dashboard.Summarize(ctx, userID, 30); err != nil {
		t.Fatalf("Summarize window 30: %v", err)
	}
	if _, ok := cache.entries[dashboardCacheKey(userID)]; !ok {
		t.Fatalf("summary not cached under the per-user key")
	}

	// A different window must not be served from the 30-day entry.
	narrow, err := dashboard.Summarize(ctx, userID, 7)
	if err != nil {
		t.Fatalf("Summarize window 7: %v", err)
	}
	if narrow.TotalEmissions != 26.61 {
		t.Fatalf("window 7 total = %v, want 26.61", narrow.TotalEmissions)
	}

	var stored cachedSummary
	if !cache.GetJSON(ctx, dashboardCacheKey(userID), &stored) {
		t.Fatalf("cache entry missing after second window")
	}
	if stored.WindowDays != 7 {
		t.Fatalf("cached window = %d, want 7", stored.WindowDays)
	}
}
