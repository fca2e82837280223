package consensus

import (
	"github.com/ensemblecv/cv-judge/internal/judge"
)

// Report is the immutable consensus verdict handed to presentation
// collaborators. PerJudge keeps the orchestrator's input order.
type Report struct {
	WeightedScore       float64           `json:"weighted_score"`
	Recommendation      string            `json:"recommendation"`
	ConsensusHighlights []string          `json:"consensus_highlights"`
	Discordant          bool              `json:"discordant"`
	DiscordanceNotes    []DiscordanceNote `json:"discordance_notes,omitempty"`
	PerJudge            []*judge.Result   `json:"per_judge"`
	ExcludedJudges      []judge.Exclusion `json:"excluded_judges,omitempty"`
}

// DiscordanceNote records one pair of judges whose score gap exceeds the
// configured threshold.
type DiscordanceNote struct {
	JudgeA string `json:"judge_a"`
	ScoreA int    `json:"score_a"`
	JudgeB string `json:"judge_b"`
	ScoreB int    `json:"score_b"`
	Gap    int    `json:"gap"`
}

// Band maps the low end of a score interval to a recommendation label. Bands
// are closed on the low end and open on the high end, except the final band
// which also includes 100.
type Band struct {
	Name string  `mapstructure:"name"`
	Min  float64 `mapstructure:"min"`
}

// DefaultBands are the built-in recommendation boundaries.
var DefaultBands = []Band{
	{Name: "Not Recommended", Min: 0},
	{Name: "Consider", Min: 50},
	{Name: "Recommend", Min: 70},
	{Name: "Strong Recommend", Min: 85},
}

// DefaultDiscordanceThreshold flags the verdict when judge scores spread more
// than this many points.
const DefaultDiscordanceThreshold = 25.0
