package judge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts bounds the retry loop when a spec does not set it.
	DefaultMaxAttempts = 3
	// DefaultTimeout bounds a single provider call when a spec does not set it.
	DefaultTimeout = 60 * time.Second
	// DefaultBaseBackoff is the first retry delay when a spec does not set it.
	DefaultBaseBackoff = time.Second
)

// Request carries the documents for one evaluation run. It is created once per
// invocation and is read-only to every judge.
type Request struct {
	CVText   string
	JDText   string
	Guidance string
}

// Spec configures a single judge of the ensemble.
type Spec struct {
	ID          string        `mapstructure:"id"`
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Weight      float64       `mapstructure:"weight"`
	MaxAttempts int           `mapstructure:"max-attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BaseBackoff time.Duration `mapstructure:"base-backoff"`
}

// Normalized returns a copy of the spec with zero-valued tuning fields replaced
// by defaults. Weight is left untouched: a zero weight is meaningful.
func (s Spec) Normalized() Spec {
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.BaseBackoff <= 0 {
		s.BaseBackoff = DefaultBaseBackoff
	}
	return s
}

// ValidateSpecs checks that the configured ensemble can produce a report:
// ids must be present and unique, weights non-negative, and at least one judge
// must carry a positive weight.
func ValidateSpecs(specs []Spec) error {
	if len(specs) == 0 {
		return fmt.Errorf("at least one judge must be configured")
	}

	seen := make(map[string]struct{}, len(specs))
	positive := false
	for _, spec := range specs {
		id := strings.TrimSpace(spec.ID)
		if id == "" {
			return fmt.Errorf("judge id is required")
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate judge id: %s", id)
		}
		seen[id] = struct{}{}

		if spec.Weight < 0 {
			return fmt.Errorf("judge %s: weight must be non-negative", id)
		}
		if spec.Weight > 0 {
			positive = true
		}
	}

	if !positive {
		return fmt.Errorf("at least one judge must have a positive weight")
	}

	return nil
}

// RawPayload is the unvalidated structure a provider adapter hands back to the
// orchestrator. Fields holds the decoded JSON object; Raw keeps the original
// response text for logging.
type RawPayload struct {
	Fields map[string]any
	Raw    string
}

// Client is the contract every evaluation provider adapter implements.
// The repair argument carries a corrective instruction appended to the prompt
// when the previous payload failed structural validation; it is empty on
// regular attempts. The call must honor ctx for timeout and cancellation.
type Client interface {
	Call(ctx context.Context, req *Request, repair string) (*RawPayload, error)
}

// Exclusion records a judge that terminally failed and why.
type Exclusion struct {
	JudgeID string `json:"judge_id"`
	Reason  string `json:"reason"`
}
