package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/ensemblecv/cv-judge/internal/judge"
	"github.com/ensemblecv/cv-judge/internal/logger"

	"go.uber.org/zap"
)

// Orchestrator fans an evaluation request out to every configured judge and
// collects whatever subset of results completes. Per-judge failures are
// absorbed into exclusions; only a run with zero successes fails outright.
type Orchestrator struct {
	clients map[string]judge.Client
	logger  *zap.Logger
}

// Outcome is the joined result of one evaluation run. PerJudge preserves the
// order of the configured specs, skipping excluded judges.
type Outcome struct {
	PerJudge []*judge.Result
	Excluded []judge.Exclusion
}

// New creates an Orchestrator. The clients map is keyed by judge id.
func New(clients map[string]judge.Client, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{clients: clients, logger: log}
}

// Evaluate runs every judge concurrently and joins on all of them. No judge's
// timing or failure affects another's schedule; the only synchronization point
// is the final join.
func (o *Orchestrator) Evaluate(ctx context.Context, req *judge.Request, specs []judge.Spec) (*Outcome, error) {
	if req == nil {
		return nil, fmt.Errorf("evaluation request is required")
	}
	if err := judge.ValidateSpecs(specs); err != nil {
		return nil, fmt.Errorf("validating judge specs: %w", err)
	}

	// Each goroutine owns exactly one slot, so the join needs no locking and
	// the outcome keeps the configured judge order.
	results := make([]*judge.Result, len(specs))
	exclusions := make([]*judge.Exclusion, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		spec = spec.Normalized()

		task := &judgeTask{
			spec:   spec,
			client: o.clients[spec.ID],
			logger: logger.WithJudgeFields(o.logger, spec.ID, spec.Provider, spec.Model),
		}

		wg.Add(1)
		go func(i int, task *judgeTask) {
			defer wg.Done()
			results[i], exclusions[i] = task.run(ctx, req)
		}(i, task)
	}
	wg.Wait()

	outcome := &Outcome{}
	for i := range specs {
		if results[i] != nil {
			outcome.PerJudge = append(outcome.PerJudge, results[i])
			continue
		}
		if exclusions[i] != nil {
			outcome.Excluded = append(outcome.Excluded, *exclusions[i])
		}
	}

	o.logger.Info("ensemble evaluation joined",
		zap.Int("judges", len(specs)),
		zap.Int("succeeded", len(outcome.PerJudge)),
		zap.Int("excluded", len(outcome.Excluded)),
	)

	if len(outcome.PerJudge) == 0 {
		return nil, judge.ErrAllJudgesFailed
	}

	return outcome, nil
}
