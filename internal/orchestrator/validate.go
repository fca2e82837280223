package orchestrator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ensemblecv/cv-judge/internal/judge"

	"github.com/mitchellh/mapstructure"
)

// loosePayload is the shape a payload must decode into before it can become a
// judge.Result. Score stays untyped so numeric strings and floats can be
// coerced explicitly.
type loosePayload struct {
	Score               any      `json:"score"`
	MatchingSkills      []string `json:"matching_skills"`
	MissingRequirements []string `json:"missing_requirements"`
	RedFlags            []string `json:"red_flags"`
	Strengths           []string `json:"strengths"`
	Rationale           string   `json:"rationale"`
}

// buildResult validates and coerces a raw provider payload into a judge.Result.
// A non-nil error means the payload is structurally unusable and a repair
// attempt is warranted.
func buildResult(judgeID string, payload *judge.RawPayload) (*judge.Result, error) {
	if payload == nil || payload.Fields == nil {
		return nil, fmt.Errorf("payload is empty")
	}

	var loose loosePayload
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &loose,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("building payload decoder: %w", err)
	}
	if err := decoder.Decode(payload.Fields); err != nil {
		return nil, fmt.Errorf("malformed payload fields: %w", err)
	}

	score, err := coerceScore(loose.Score)
	if err != nil {
		return nil, err
	}

	return &judge.Result{
		JudgeID:             judgeID,
		Score:               score,
		MatchedRequirements: cleanList(loose.MatchingSkills),
		Gaps:                cleanList(loose.MissingRequirements),
		RedFlags:            cleanList(loose.RedFlags),
		Strengths:           cleanList(loose.Strengths),
		Rationale:           strings.TrimSpace(loose.Rationale),
	}, nil
}

// coerceScore accepts integers, integral floats, and numeric strings, and
// enforces the 0-100 range.
func coerceScore(v any) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("score is missing")
	}

	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case float64:
		f = val
	case float32:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("score %q is not numeric", val)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("score has unsupported type %T", v)
	}

	if math.IsNaN(f) || math.Trunc(f) != f {
		return 0, fmt.Errorf("score %v is not an integer", f)
	}

	score := int(f)
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score %d is out of the 0-100 range", score)
	}

	return score, nil
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)
	}
	return cleaned
}
