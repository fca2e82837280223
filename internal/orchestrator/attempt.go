package orchestrator

import (
	"context"
	"fmt"

	"github.com/ensemblecv/cv-judge/internal/judge"
	"github.com/ensemblecv/cv-judge/internal/utils"

	"go.uber.org/zap"
)

const cancelledReason = "cancelled"

// taskState drives the per-judge retry loop. Keeping it an explicit machine
// keeps attempt counting and backoff timing independently testable.
type taskState int

const (
	statePending taskState = iota
	stateInFlight
	stateRetryWait
)

// attemptOutcome tags one call attempt. Either result is set, or kind and
// reason describe the failure.
type attemptOutcome struct {
	result *judge.Result
	kind   judge.ErrorKind
	reason string
}

// judgeTask owns everything one judge needs for its attempt sequence: the
// attempt counter, the backoff timer, and the result slot. Nothing here is
// shared with other judges.
type judgeTask struct {
	spec   judge.Spec
	client judge.Client
	logger *zap.Logger

	attempt int
	calls   int
}

// run executes the attempt sequence until success or terminal failure.
// Exactly one of the return values is non-nil.
func (t *judgeTask) run(ctx context.Context, req *judge.Request) (*judge.Result, *judge.Exclusion) {
	if t.client == nil {
		return nil, t.exclude(fmt.Sprintf("no client configured for provider %q", t.spec.Provider))
	}

	state := statePending
	var last attemptOutcome

	for {
		switch state {
		case statePending:
			t.attempt++
			state = stateInFlight

		case stateInFlight:
			last = t.callOnce(ctx, req)

			if last.result != nil {
				last.result.Attempts = t.calls
				t.logger.Info("judge evaluation accepted",
					zap.Int("score", last.result.Score),
					zap.Int("attempts", t.attempt),
					zap.Int("calls", t.calls),
				)
				return last.result, nil
			}

			if ctx.Err() != nil {
				return nil, t.exclude(cancelledReason)
			}

			if last.kind == judge.Fatal {
				t.logger.Warn("judge failed terminally", zap.String("reason", last.reason))
				return nil, t.exclude(last.reason)
			}

			if t.attempt >= t.spec.MaxAttempts {
				reason := fmt.Sprintf("attempts exhausted after %d: %s", t.spec.MaxAttempts, last.reason)
				t.logger.Warn("judge excluded", zap.String("reason", reason))
				return nil, t.exclude(reason)
			}

			state = stateRetryWait

		case stateRetryWait:
			delay := t.spec.BaseBackoff << (t.attempt - 1)
			t.logger.Debug("retrying judge after backoff",
				zap.Duration("backoff", delay),
				zap.Int("attempt", t.attempt),
				zap.String("reason", last.reason),
			)
			if err := utils.WaitFor(ctx, delay); err != nil {
				return nil, t.exclude(cancelledReason)
			}
			state = statePending
		}
	}
}

// callOnce performs a single bounded provider call. A payload that fails
// structural validation gets one repair call within the same attempt; a
// still-unusable repair response converts the attempt into a retryable
// failure.
func (t *judgeTask) callOnce(ctx context.Context, req *judge.Request) attemptOutcome {
	cctx, cancel := context.WithTimeout(ctx, t.spec.Timeout)
	defer cancel()

	t.calls++
	payload, err := t.client.Call(cctx, req, "")
	if err != nil && judge.KindOf(err) != judge.Malformed {
		return t.classify(ctx, err)
	}

	if err == nil {
		result, verr := buildResult(t.spec.ID, payload)
		if verr == nil {
			return attemptOutcome{result: result}
		}
		err = judge.MalformedError(verr)
	}

	t.logger.Debug("payload failed validation, requesting repair", zap.Error(err))

	t.calls++
	payload, rerr := t.client.Call(cctx, req, judge.RepairInstruction)
	if rerr != nil {
		if judge.KindOf(rerr) == judge.Malformed {
			return attemptOutcome{kind: judge.Transient, reason: fmt.Sprintf("repair attempt still malformed: %v", rerr)}
		}
		return t.classify(ctx, rerr)
	}

	result, verr := buildResult(t.spec.ID, payload)
	if verr != nil {
		return attemptOutcome{kind: judge.Transient, reason: fmt.Sprintf("repair attempt still malformed: %v", verr)}
	}

	return attemptOutcome{result: result}
}

func (t *judgeTask) classify(parent context.Context, err error) attemptOutcome {
	if parent.Err() != nil {
		return attemptOutcome{kind: judge.Fatal, reason: cancelledReason}
	}

	kind := judge.KindOf(err)
	if kind == judge.Fatal {
		return attemptOutcome{kind: judge.Fatal, reason: err.Error()}
	}

	// Per-attempt deadline and every other unclassified failure is retryable.
	return attemptOutcome{kind: judge.Transient, reason: err.Error()}
}

func (t *judgeTask) exclude(reason string) *judge.Exclusion {
	return &judge.Exclusion{JudgeID: t.spec.ID, Reason: reason}
}
