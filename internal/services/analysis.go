package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/types"
)

const (
	promptActivityCap = 20
	promptInsightCap  = 10
	promptQuestionCap = 500
	recommendationCap = 5

	dominantCategoryShare = 40.0
)

type AnalysisResult struct {
	Narrative       string                 `json:"narrative"`
	Insights        []types.Insight        `json:"insights"`
	Recommendations []types.Recommendation `json:"recommendations"`
	ActionableSteps []string               `json:"actionable_steps"`
	DatasetContext  []DatasetInsight       `json:"dataset_context,omitempty"`
}

type AnalysisService interface {
	Analyze(ctx context.Context, userID uuid.UUID, question string) (AnalysisResult, error)
}

type analysisService struct {
	db                 *gorm.DB
	log                *logger.Logger
	userRepo           repos.UserRepo
	activityRepo       repos.ActivityRepo
	insightRepo        repos.InsightRepo
	recommendationRepo repos.RecommendationRepo
	datasets           DatasetService
	textGen            TextGenClient
	cache              Cache
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	activityRepo repos.ActivityRepo,
	insightRepo repos.InsightRepo,
	recommendationRepo repos.RecommendationRepo,
	datasets DatasetService,
	textGen TextGenClient,
	cache Cache,
) AnalysisService {
	return &analysisService{
		db:                 db,
		log:                baseLog.With("service", "AnalysisService"),
		userRepo:           userRepo,
		activityRepo:       activityRepo,
		insightRepo:        insightRepo,
		recommendationRepo: recommendationRepo,
		datasets:           datasets,
		textGen:            textGen,
		cache:              cache,
	}
}

// Analyze runs the local analysis first, then asks the text-generation
// service for a narrative. A service failure surfaces as
// analysis_unavailable and leaves previously stored results untouched.
func (as *analysisService) Analyze(ctx context.Context, userID uuid.UUID, question string) (AnalysisResult, error) {
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return AnalysisResult{}, apierr.NotFound("user")
	}
	user := users[0]

	now := time.Now().UTC()
	activities, err := as.activityRepo.ListByUser(ctx, nil, userID, repos.ActivityFilter{
		From: now.AddDate(0, 0, -defaultWindowDays),
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("load activities: %w", err)
	}

	insights := localInsights(userID, activities, now)
	insights = append(insights, comparativeAsInsights(userID, as.datasets.ComparativeInsights(activities))...)
	recommendations := cannedRecommendations(userID, activities)

	datasetContext := as.datasets.Insights()
	prompt := buildPrompt(user, activities, datasetContext, question)

	narrative, err := as.textGen.GenerateText(ctx, prompt)
	if err != nil {
		as.log.Warn("text generation failed", "user_id", userID.String(), "error", err.Error())
		return AnalysisResult{}, apierr.AnalysisUnavailable(err)
	}
	narrative = stripMarkdown(narrative)

	steps := extractRecommendations(narrative)
	for _, step := range steps {
		if len(recommendations) >= recommendationCap*2 {
			break
		}
		recommendations = append(recommendations, types.Recommendation{
			ID:          uuid.New(),
			UserID:      userID,
			Type:        "action",
			Title:       step,
			Description: step,
			Difficulty:  types.DifficultyMedium,
			Confidence:  0.7,
			Reasoning:   "Suggested by narrative analysis of your recent activity.",
			Status:      types.RecommendationPending,
		})
	}

	// Replace prior analysis output atomically; nothing persists unless
	// the narrative call already succeeded.
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.insightRepo.FullDeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := as.recommendationRepo.FullDeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		insightPtrs := make([]*types.Insight, len(insights))
		for i := range insights {
			insightPtrs[i] = &insights[i]
		}
		if _, err := as.insightRepo.Create(ctx, tx, insightPtrs); err != nil {
			return err
		}
		recPtrs := make([]*types.Recommendation, len(recommendations))
		for i := range recommendations {
			recPtrs[i] = &recommendations[i]
		}
		if _, err := as.recommendationRepo.Create(ctx, tx, recPtrs); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("persist analysis: %w", err)
	}

	as.cache.Invalidate(ctx, dashboardCacheKey(userID))

	return AnalysisResult{
		Narrative:       narrative,
		Insights:        insights,
		Recommendations: recommendations,
		ActionableSteps: steps,
		DatasetContext:  datasetContext,
	}, nil
}

// localInsights derives trend, dominant-category, and anomaly insights
// without any external service.
func localInsights(userID uuid.UUID, activities []*types.Activity, now time.Time) []types.Insight {
	var out []types.Insight

	trend, pct := weeklyTrend(activities, now, defaultTrendThreshold)
	if trend != TrendStable {
		title := "Carbon Footprint Improving"
		severity := types.SeveritySuccess
		if trend == TrendIncreasing {
			title = "Carbon Footprint Rising"
			severity = types.SeverityWarning
		}
		data, _ := json.Marshal(map[string]any{"trend": trend, "percentage": round2(math.Abs(pct))})
		out = append(out, types.Insight{
			ID:         uuid.New(),
			UserID:     userID,
			Type:       "trend",
			Title:      title,
			Message:    fmt.Sprintf("Your emissions have %sd by %.1f%% this week", trend, math.Abs(pct)),
			Severity:   severity,
			Confidence: 0.9,
			Source:     "activity_analysis",
			Data:       datatypes.JSON(data),
		})
	}

	if category, share, ok := dominantCategory(activities); ok {
		data, _ := json.Marshal(map[string]any{"category": category, "percentage": round2(share)})
		out = append(out, types.Insight{
			ID:         uuid.New(),
			UserID:     userID,
			Type:       "alert",
			Title:      "High Impact Category Detected",
			Message:    fmt.Sprintf("%s accounts for %.1f%% of your carbon footprint", titleCase(category), share),
			Severity:   types.SeverityInfo,
			Confidence: 0.9,
			Source:     "activity_analysis",
			Data:       datatypes.JSON(data),
		})
	}

	out = append(out, dailyAnomalies(userID, activities)...)
	return out
}

// dominantCategory reports the top category when it exceeds 40% of the
// total footprint.
func dominantCategory(activities []*types.Activity) (string, float64, bool) {
	var total float64
	for _, a := range activities {
		total += a.EmissionKg
	}
	if total <= 0 {
		return "", 0, false
	}
	top := topCategory(activities)
	var catTotal float64
	for _, a := range activities {
		if string(a.Category) == top {
			catTotal += a.EmissionKg
		}
	}
	share := catTotal / total * 100
	if share <= dominantCategoryShare {
		return "", 0, false
	}
	return top, share, true
}

// dailyAnomalies flags days more than two standard deviations above the
// mean daily total.
func dailyAnomalies(userID uuid.UUID, activities []*types.Activity) []types.Insight {
	daily := dailyFootprint(activities)
	if len(daily) < 2 {
		return nil
	}

	values := make([]float64, 0, len(daily))
	for _, v := range daily {
		values = append(values, v)
	}
	avg := mean(values)
	var ss float64
	for _, v := range values {
		d := v - avg
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(values)))
	if sd == 0 {
		return nil
	}

	var out []types.Insight
	for _, day := range sortedKeys(daily) {
		emission := daily[day]
		if emission <= avg+2*sd {
			continue
		}
		data, _ := json.Marshal(map[string]any{"date": day, "emission": emission, "average": round2(avg)})
		out = append(out, types.Insight{
			ID:         uuid.New(),
			UserID:     userID,
			Type:       "alert",
			Title:      fmt.Sprintf("Unusually High Emissions on %s", day),
			Message:    fmt.Sprintf("Your emissions on %s were %.1f kg CO2e, significantly above your average of %.1f kg CO2e", day, emission, avg),
			Severity:   types.SeverityWarning,
			Confidence: 0.85,
			Source:     "activity_analysis",
			Data:       datatypes.JSON(data),
		})
	}
	return out
}

// cannedRecommendations builds impact-estimated recommendations for the
// user's top categories plus a starter goal, top five by reduction.
func cannedRecommendations(userID uuid.UUID, activities []*types.Activity) []types.Recommendation {
	totals := make(map[string]float64)
	for _, a := range activities {
		totals[string(a.Category)] += a.EmissionKg
	}

	var out []types.Recommendation
	for _, category := range sortedKeys(totals) {
		emission := totals[category]
		switch types.ActivityCategory(category) {
		case types.CategoryTransportation:
			if emission > 100 {
				out = append(out, types.Recommendation{
					ID:                uuid.New(),
					UserID:            userID,
					Type:              "action",
					Title:             "Switch to Electric or Hybrid Vehicle",
					Description:       "Consider transitioning to an electric or hybrid vehicle for daily commute",
					Category:          types.CategoryTransportation,
					CarbonReductionKg: round2(emission * 0.7),
					Cost:              300,
					Difficulty:        types.DifficultyMedium,
					Timeframe:         "3-6 months",
					Confidence:        0.85,
					Reasoning:         "Transportation is your highest emission category. Electric vehicles can reduce emissions by up to 70%.",
					Status:            types.RecommendationPending,
				})
			}
		case types.CategoryEnergy:
			out = append(out, types.Recommendation{
				ID:                uuid.New(),
				UserID:            userID,
				Type:              "action",
				Title:             "Install Smart Thermostat",
				Description:       "A programmable smart thermostat can reduce heating and cooling energy by 10-15%",
				Category:          types.CategoryEnergy,
				CarbonReductionKg: round2(emission * 0.15),
				Cost:              250,
				Difficulty:        types.DifficultyEasy,
				Timeframe:         "1 week",
				Confidence:        0.9,
				Reasoning:         "Smart thermostats provide immediate energy savings with minimal lifestyle changes.",
				Status:            types.RecommendationPending,
			})
		case types.CategoryFood:
			out = append(out, types.Recommendation{
				ID:                uuid.New(),
				UserID:            userID,
				Type:              "habit",
				Title:             "Reduce Meat Consumption",
				Description:       "Try plant-based alternatives two to three times per week",
				Category:          types.CategoryFood,
				CarbonReductionKg: round2(emission * 0.3),
				Cost:              -50,
				Difficulty:        types.DifficultyEasy,
				Timeframe:         "immediate",
				Confidence:        0.8,
				Reasoning:         "Plant-based meals typically have 50-90% lower carbon footprint than meat-based meals.",
				Status:            types.RecommendationPending,
			})
		}
	}

	out = append(out, types.Recommendation{
		ID:                uuid.New(),
		UserID:            userID,
		Type:              "goal",
		Title:             "Set Your First Carbon Reduction Goal",
		Description:       "Start with a 10% reduction this month to build sustainable habits",
		Category:          types.CategoryEnergy,
		CarbonReductionKg: 0,
		Cost:              0,
		Difficulty:        types.DifficultyEasy,
		Timeframe:         "1 month",
		Confidence:        1.0,
		Reasoning:         "Setting clear goals increases the success rate of sustained reductions.",
		Status:            types.RecommendationPending,
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CarbonReductionKg > out[j].CarbonReductionKg
	})
	if len(out) > recommendationCap {
		out = out[:recommendationCap]
	}
	return out
}

func comparativeAsInsights(userID uuid.UUID, comparative []DatasetInsight) []types.Insight {
	out := make([]types.Insight, 0, len(comparative))
	for _, di := range comparative {
		severity := types.SeverityInfo
		switch di.Type {
		case "alert":
			severity = types.SeverityWarning
		case "comparison":
			if strings.Contains(di.Title, "Excellent") || strings.Contains(di.Title, "Below") {
				severity = types.SeveritySuccess
			}
		}
		data, _ := json.Marshal(di.Data)
		out = append(out, types.Insight{
			ID:         uuid.New(),
			UserID:     userID,
			Type:       di.Type,
			Title:      di.Title,
			Message:    di.Description,
			Severity:   severity,
			Confidence: di.Confidence,
			Source:     di.Source,
			Data:       datatypes.JSON(data),
		})
	}
	return out
}

// buildPrompt assembles a bounded context block for the narrative call.
func buildPrompt(user *types.User, activities []*types.Activity, datasetInsights []DatasetInsight, question string) string {
	var total float64
	categories := make(map[string]float64)
	for _, a := range activities {
		total += a.EmissionKg
		categories[string(a.Category)] += a.EmissionKg
	}

	var b strings.Builder
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Location: %s\n", user.Location)
	fmt.Fprintf(&b, "- Household Size: %d\n", user.HouseholdSize)
	fmt.Fprintf(&b, "- Lifestyle: %s\n\n", user.Lifestyle)

	b.WriteString("Carbon Footprint Data:\n")
	fmt.Fprintf(&b, "- Total Monthly Emissions: %.2f kg CO2e\n", total)
	b.WriteString("- Category Breakdown:\n")
	for _, category := range sortedKeys(categories) {
		fmt.Fprintf(&b, "  - %s: %.2f kg CO2e\n", category, categories[category])
	}
	fmt.Fprintf(&b, "- Number of Activities: %d\n\n", len(activities))

	if len(activities) > 0 {
		b.WriteString("Recent Activities:\n")
		limit := len(activities)
		if limit > promptActivityCap {
			limit = promptActivityCap
		}
		for _, a := range activities[:limit] {
			fmt.Fprintf(&b, "- %s %s/%s: %.2f kg CO2e\n",
				a.Date.Format("2006-01-02"), a.Category, a.Type, a.EmissionKg)
		}
		b.WriteString("\n")
	}

	if len(datasetInsights) > 0 {
		b.WriteString("Reference Dataset Observations:\n")
		limit := len(datasetInsights)
		if limit > promptInsightCap {
			limit = promptInsightCap
		}
		for _, di := range datasetInsights[:limit] {
			fmt.Fprintf(&b, "- %s: %s\n", di.Title, di.Description)
		}
		b.WriteString("\n")
	}

	if q := strings.TrimSpace(question); q != "" {
		if len(q) > promptQuestionCap {
			q = q[:promptQuestionCap]
		}
		fmt.Fprintf(&b, "Specific Question: %s\n\n", q)
	}

	b.WriteString("Please analyze this carbon footprint data and provide:\n")
	b.WriteString("1. Key insights about the user's environmental impact\n")
	b.WriteString("2. Specific actionable recommendations\n")
	b.WriteString("3. Predictions about potential improvements\n")
	return b.String()
}

var (
	markdownHeaderRe   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	markdownEmphasisRe = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	markdownLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	bulletPrefixRe     = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	recommendVerbRe    = regexp.MustCompile(`(?i)\b(recommend|consider|try|switch|reduce)\b`)
	nonAlnumRe         = regexp.MustCompile(`[^a-z0-9 ]`)
)

func stripMarkdown(s string) string {
	s = markdownHeaderRe.ReplaceAllString(s, "")
	s = markdownLinkRe.ReplaceAllString(s, "$1")
	s = markdownEmphasisRe.ReplaceAllString(s, "$2")
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}

// extractRecommendations pulls actionable lines out of narrative text:
// bullet or numbered lines, plus sentences carrying recommendation verbs.
// Deduped on a normalized prefix, capped at five.
func extractRecommendations(text string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(line string) {
		line = strings.TrimSpace(stripMarkdown(line))
		if len(line) < 10 {
			return
		}
		key := normalizePrefix(line)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, line)
	}

	for _, line := range strings.Split(text, "\n") {
		if len(out) >= recommendationCap {
			break
		}
		if bulletPrefixRe.MatchString(line) {
			add(bulletPrefixRe.ReplaceAllString(line, ""))
			continue
		}
		if recommendVerbRe.MatchString(line) {
			add(line)
		}
	}

	if len(out) > recommendationCap {
		out = out[:recommendationCap]
	}
	return out
}

// normalizePrefix lower-cases, strips punctuation, and keeps the first
// six words so near-duplicate phrasings collapse.
func normalizePrefix(line string) string {
	s := nonAlnumRe.ReplaceAllString(strings.ToLower(line), "")
	words := strings.Fields(s)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}
