package judge

import (
	"errors"
	"fmt"
)

// ErrAllJudgesFailed is returned by the orchestrator when no judge produced a
// usable evaluation. Per-judge failures are recorded as exclusions instead.
var ErrAllJudgesFailed = errors.New("all judges failed to produce an evaluation")

// ErrorKind classifies a provider failure for the retry state machine.
type ErrorKind int

const (
	// Transient failures (timeouts, rate limits, 5xx) are retried with backoff.
	Transient ErrorKind = iota
	// Malformed marks a response that arrived but failed structural validation.
	// One repair attempt is allowed before it counts as Transient.
	Malformed
	// Fatal failures (auth, bad request) end the judge's participation.
	Fatal
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Malformed:
		return "malformed"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ProviderError wraps a provider failure with its retry classification.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TransientError marks err as retryable.
func TransientError(err error) *ProviderError {
	return &ProviderError{Kind: Transient, Err: err}
}

// MalformedError marks err as a structurally invalid response.
func MalformedError(err error) *ProviderError {
	return &ProviderError{Kind: Malformed, Err: err}
}

// FatalError marks err as non-retryable.
func FatalError(err error) *ProviderError {
	return &ProviderError{Kind: Fatal, Err: err}
}

// KindOf resolves the retry classification of err. Unclassified errors are
// treated as transient so that a flaky adapter gets the benefit of the retry
// budget instead of being dropped outright.
func KindOf(err error) ErrorKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return Transient
}
