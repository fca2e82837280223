package consensus

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ensemblecv/cv-judge/internal/judge"

	"go.uber.org/zap"
)

// ErrNoResults is returned when the aggregator is invoked with zero judge
// results. The orchestrator's contract makes this unreachable in practice;
// the guard exists so a broken caller fails loudly instead of dividing by
// zero.
var ErrNoResults = errors.New("aggregation requires at least one judge result")

// Aggregator reduces the surviving judges' results into one weighted,
// evidence-annotated verdict.
type Aggregator struct {
	threshold float64
	bands     []Band
	logger    *zap.Logger
}

// New creates an Aggregator. A non-positive threshold falls back to the
// default; empty bands fall back to the built-in ones.
func New(threshold float64, bands []Band, log *zap.Logger) *Aggregator {
	if threshold <= 0 {
		threshold = DefaultDiscordanceThreshold
	}
	if len(bands) == 0 {
		bands = DefaultBands
	}

	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	if log == nil {
		log = zap.NewNop()
	}

	return &Aggregator{threshold: threshold, bands: sorted, logger: log}
}

// Aggregate builds the consensus report from the collected results. Results
// must be non-empty; specs supply the configured weights and excluded is
// passed through unchanged.
func (a *Aggregator) Aggregate(results []*judge.Result, specs []judge.Spec, excluded []judge.Exclusion) (*Report, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	weights := a.normalizedWeights(results, specs)
	score := a.weightedScore(results, weights)
	discordant, notes := a.detectDiscordance(results)

	report := &Report{
		WeightedScore:       score,
		Recommendation:      a.recommendation(score),
		ConsensusHighlights: a.consensusHighlights(results),
		Discordant:          discordant,
		DiscordanceNotes:    notes,
		PerJudge:            results,
		ExcludedJudges:      excluded,
	}

	a.logger.Info("consensus assembled",
		zap.Float64("weighted_score", report.WeightedScore),
		zap.String("recommendation", report.Recommendation),
		zap.Bool("discordant", report.Discordant),
		zap.Int("judges", len(results)),
		zap.Int("excluded", len(excluded)),
	)

	return report, nil
}

// normalizedWeights renormalizes the configured weights over the judges that
// actually produced a result, so an excluded judge contributes zero without
// distorting the rest. When every surviving judge carries zero configured
// weight, the survivors share equally.
func (a *Aggregator) normalizedWeights(results []*judge.Result, specs []judge.Spec) map[string]float64 {
	configured := make(map[string]float64, len(specs))
	for _, spec := range specs {
		configured[spec.ID] = spec.Weight
	}

	total := 0.0
	for _, result := range results {
		total += configured[result.JudgeID]
	}

	normalized := make(map[string]float64, len(results))
	for _, result := range results {
		if total > 0 {
			normalized[result.JudgeID] = configured[result.JudgeID] / total
		} else {
			normalized[result.JudgeID] = 1.0 / float64(len(results))
		}
	}

	return normalized
}

func (a *Aggregator) weightedScore(results []*judge.Result, weights map[string]float64) float64 {
	sum := 0.0
	for _, result := range results {
		sum += float64(result.Score) * weights[result.JudgeID]
	}
	return math.Round(sum*10) / 10
}

// consensusHighlights returns the requirements named by more than half of the
// contributing judges, ties broken toward inclusion. Duplicates within one
// judge's list count once, so a verbose judge cannot dominate by repetition.
func (a *Aggregator) consensusHighlights(results []*judge.Result) []string {
	counts := make(map[string]int)
	display := make(map[string]string)
	var order []string

	for _, result := range results {
		seen := make(map[string]struct{})
		for _, item := range result.MatchedRequirements {
			key := normalizeHighlight(item)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			if _, ok := display[key]; !ok {
				display[key] = strings.TrimSpace(item)
				order = append(order, key)
			}
			counts[key]++
		}
	}

	highlights := make([]string, 0, len(order))
	for _, key := range order {
		if counts[key]*2 >= len(results) {
			highlights = append(highlights, display[key])
		}
	}

	return highlights
}

// detectDiscordance flags the verdict when the score spread strictly exceeds
// the threshold and records every offending pair in input order. A single
// surviving judge is never discordant.
func (a *Aggregator) detectDiscordance(results []*judge.Result) (bool, []DiscordanceNote) {
	if len(results) < 2 {
		return false, nil
	}

	low, high := results[0].Score, results[0].Score
	for _, result := range results[1:] {
		if result.Score < low {
			low = result.Score
		}
		if result.Score > high {
			high = result.Score
		}
	}

	if float64(high-low) <= a.threshold {
		return false, nil
	}

	var notes []DiscordanceNote
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			gap := results[i].Score - results[j].Score
			if gap < 0 {
				gap = -gap
			}
			if float64(gap) > a.threshold {
				notes = append(notes, DiscordanceNote{
					JudgeA: results[i].JudgeID,
					ScoreA: results[i].Score,
					JudgeB: results[j].JudgeID,
					ScoreB: results[j].Score,
					Gap:    gap,
				})
			}
		}
	}

	return true, notes
}

// recommendation maps the weighted score to the band whose interval contains
// it. Scores outside 0-100 are clamped first.
func (a *Aggregator) recommendation(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	name := a.bands[0].Name
	for _, band := range a.bands {
		if score >= band.Min {
			name = band.Name
		}
	}
	return name
}

func normalizeHighlight(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Describe returns a short human-readable summary of the aggregator settings,
// used for debug logging at startup.
func (a *Aggregator) Describe() string {
	labels := make([]string, 0, len(a.bands))
	for _, band := range a.bands {
		labels = append(labels, fmt.Sprintf("%s>=%.0f", band.Name, band.Min))
	}
	return fmt.Sprintf("threshold=%.0f bands=[%s]", a.threshold, strings.Join(labels, ", "))
}
