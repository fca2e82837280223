package consensus

import (
	"reflect"
	"testing"

	"github.com/ensemblecv/cv-judge/internal/judge"

	"go.uber.org/zap"
)

func result(id string, score int, matched ...string) *judge.Result {
	return &judge.Result{
		JudgeID:             id,
		Score:               score,
		MatchedRequirements: matched,
		Rationale:           "test rationale",
	}
}

func spec(id string, weight float64) judge.Spec {
	return judge.Spec{ID: id, Provider: "stub", Weight: weight}
}

func TestAggregateWeightedScenario(t *testing.T) {
	t.Parallel()

	results := []*judge.Result{
		result("judge-a", 88, "Python", "Kubernetes"),
		result("judge-b", 85, "Python", "Kubernetes"),
		result("judge-c", 89, "Python", "Kubernetes"),
	}
	specs := []judge.Spec{
		spec("judge-a", 0.4),
		spec("judge-b", 0.3),
		spec("judge-c", 0.3),
	}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.WeightedScore != 87.4 {
		t.Fatalf("expected weighted score 87.4, got %v", report.WeightedScore)
	}

	if report.Discordant {
		t.Fatal("expected no discordance")
	}

	if report.Recommendation != "Strong Recommend" {
		t.Fatalf("expected Strong Recommend, got %q", report.Recommendation)
	}

	if !reflect.DeepEqual(report.ConsensusHighlights, []string{"Python", "Kubernetes"}) {
		t.Fatalf("unexpected highlights: %+v", report.ConsensusHighlights)
	}
}

func TestAggregateScoreStaysWithinJudgeRange(t *testing.T) {
	t.Parallel()

	results := []*judge.Result{
		result("judge-a", 30),
		result("judge-b", 70),
		result("judge-c", 45),
	}
	specs := []judge.Spec{
		spec("judge-a", 0.7),
		spec("judge-b", 0.2),
		spec("judge-c", 0.1),
	}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.WeightedScore < 30 || report.WeightedScore > 70 {
		t.Fatalf("weighted score %v outside judge range", report.WeightedScore)
	}
}

func TestAggregateRenormalizesAfterExclusion(t *testing.T) {
	t.Parallel()

	// Three equally weighted judges configured, one excluded: the two
	// survivors must end up at 0.5 each.
	results := []*judge.Result{
		result("judge-a", 60),
		result("judge-b", 80),
	}
	specs := []judge.Spec{
		spec("judge-a", 0.2),
		spec("judge-b", 0.2),
		spec("judge-c", 0.2),
	}
	excluded := []judge.Exclusion{{JudgeID: "judge-c", Reason: "attempts exhausted"}}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, excluded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.WeightedScore != 70.0 {
		t.Fatalf("expected renormalized score 70.0, got %v", report.WeightedScore)
	}

	if len(report.ExcludedJudges) != 1 || report.ExcludedJudges[0].JudgeID != "judge-c" {
		t.Fatalf("expected exclusion passthrough, got %+v", report.ExcludedJudges)
	}
}

func TestAggregateSingleJudge(t *testing.T) {
	t.Parallel()

	results := []*judge.Result{result("judge-a", 77, "Go")}
	specs := []judge.Spec{spec("judge-a", 0.1)}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.WeightedScore != 77.0 {
		t.Fatalf("expected score 77.0 regardless of configured weight, got %v", report.WeightedScore)
	}

	if report.Discordant {
		t.Fatal("single judge can never be discordant")
	}

	if len(report.DiscordanceNotes) != 0 {
		t.Fatalf("expected no discordance notes, got %+v", report.DiscordanceNotes)
	}
}

func TestAggregateDiscordanceThresholdBoundary(t *testing.T) {
	t.Parallel()

	specs := []judge.Spec{spec("judge-a", 0.5), spec("judge-b", 0.5)}
	a := New(25, nil, zap.NewNop())

	atThreshold, err := a.Aggregate([]*judge.Result{
		result("judge-a", 60),
		result("judge-b", 85),
	}, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atThreshold.Discordant {
		t.Fatal("gap equal to threshold must not be discordant")
	}

	overThreshold, err := a.Aggregate([]*judge.Result{
		result("judge-a", 60),
		result("judge-b", 86),
	}, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !overThreshold.Discordant {
		t.Fatal("gap exceeding threshold must be discordant")
	}
}

func TestAggregateDiscordancePairs(t *testing.T) {
	t.Parallel()

	results := []*judge.Result{
		result("judge-a", 90),
		result("judge-b", 40),
		result("judge-c", 88),
	}
	specs := []judge.Spec{
		spec("judge-a", 1),
		spec("judge-b", 1),
		spec("judge-c", 1),
	}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Discordant {
		t.Fatal("expected discordance")
	}

	if len(report.DiscordanceNotes) != 2 {
		t.Fatalf("expected 2 discordance notes, got %+v", report.DiscordanceNotes)
	}

	first, second := report.DiscordanceNotes[0], report.DiscordanceNotes[1]
	if first.JudgeA != "judge-a" || first.JudgeB != "judge-b" || first.Gap != 50 {
		t.Fatalf("unexpected first note: %+v", first)
	}
	if second.JudgeA != "judge-b" || second.JudgeB != "judge-c" || second.Gap != 48 {
		t.Fatalf("unexpected second note: %+v", second)
	}
}

func TestAggregateDeduplicatesWithinOneJudge(t *testing.T) {
	t.Parallel()

	// One verbose judge repeating a skill must not outvote the others.
	results := []*judge.Result{
		result("judge-a", 70, "terraform", "Terraform", "  terraform "),
		result("judge-b", 75, "Go"),
		result("judge-c", 72, "Go"),
	}
	specs := []judge.Spec{
		spec("judge-a", 1),
		spec("judge-b", 1),
		spec("judge-c", 1),
	}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(report.ConsensusHighlights, []string{"Go"}) {
		t.Fatalf("unexpected highlights: %+v", report.ConsensusHighlights)
	}
}

func TestAggregateTieCountsAsConsensusForTwoJudges(t *testing.T) {
	t.Parallel()

	results := []*judge.Result{
		result("judge-a", 70, "Python"),
		result("judge-b", 75),
	}
	specs := []judge.Spec{spec("judge-a", 1), spec("judge-b", 1)}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(report.ConsensusHighlights, []string{"Python"}) {
		t.Fatalf("expected tie to count as consensus, got %+v", report.ConsensusHighlights)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	t.Parallel()

	results := []*judge.Result{
		result("judge-a", 90, "Go", "Kubernetes", "Terraform"),
		result("judge-b", 40, "Go", "AWS"),
		result("judge-c", 88, "Kubernetes", "Go"),
	}
	specs := []judge.Spec{
		spec("judge-a", 0.5),
		spec("judge-b", 0.25),
		spec("judge-c", 0.25),
	}
	excluded := []judge.Exclusion{{JudgeID: "judge-d", Reason: "auth failure"}}

	a := New(25, nil, zap.NewNop())
	first, err := a.Aggregate(results, specs, excluded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Aggregate(results, specs, excluded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical reports, got\n%+v\nvs\n%+v", first, second)
	}
}

func TestAggregateRequiresResults(t *testing.T) {
	t.Parallel()

	a := New(25, nil, zap.NewNop())
	if _, err := a.Aggregate(nil, nil, nil); err != ErrNoResults {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestRecommendationBands(t *testing.T) {
	t.Parallel()

	a := New(25, nil, zap.NewNop())

	tests := []struct {
		score  float64
		expect string
	}{
		{0, "Not Recommended"},
		{49.9, "Not Recommended"},
		{50, "Consider"},
		{69.9, "Consider"},
		{70, "Recommend"},
		{84.9, "Recommend"},
		{85, "Strong Recommend"},
		{100, "Strong Recommend"},
	}

	for _, tt := range tests {
		if got := a.recommendation(tt.score); got != tt.expect {
			t.Fatalf("score %v: expected %q, got %q", tt.score, tt.expect, got)
		}
	}
}

func TestAggregateEqualSplitWhenSurvivorsUnweighted(t *testing.T) {
	t.Parallel()

	// Only the excluded judge carried weight; survivors share equally.
	results := []*judge.Result{
		result("judge-a", 60),
		result("judge-b", 80),
	}
	specs := []judge.Spec{
		spec("judge-a", 0),
		spec("judge-b", 0),
		spec("judge-c", 1),
	}

	a := New(25, nil, zap.NewNop())
	report, err := a.Aggregate(results, specs, []judge.Exclusion{{JudgeID: "judge-c", Reason: "cancelled"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.WeightedScore != 70.0 {
		t.Fatalf("expected equal split score 70.0, got %v", report.WeightedScore)
	}
}
