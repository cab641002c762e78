package evals

import (
	"context"
	"fmt"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
	"github.com/promptrepo-hq/promptrepo-go/pkg/api"
)

// Runner executes eval suites against the backend one case at a time,
// honoring per-suite throttling and context cancellation.
type Runner struct {
	prompts PromptRunner
	log     Logger
}

// NewRunner builds a runner over the given prompt executor.
func NewRunner(prompts PromptRunner, log Logger) *Runner {
	return &Runner{prompts: prompts, log: ensureLogger(log)}
}

// RunSuite executes all cases of one suite. Failing cases do not abort the
// suite; only context cancellation does, returning the partial run.
func (r *Runner) RunSuite(ctx context.Context, suite Suite) (domain.EvalRun, error) {
	if r == nil || r.prompts == nil {
		return domain.EvalRun{}, fmt.Errorf("runner is not initialized")
	}

	run := domain.EvalRun{
		SuiteID:   suite.ID,
		SuiteName: suite.Name,
		PromptID:  suite.PromptID,
		StartedAt: time.Now().UTC(),
	}
	delay := time.Duration(suite.RequestDelayMs) * time.Millisecond

	for i, c := range suite.Cases {
		select {
		case <-ctx.Done():
			return finishRun(run), ctx.Err()
		default:
		}

		run.Cases = append(run.Cases, r.runCase(ctx, suite, c))

		if delay > 0 && i < len(suite.Cases)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return finishRun(run), ctx.Err()
			case <-timer.C:
			}
		}
	}

	return finishRun(run), nil
}

// runCase executes one case and checks its assertions.
func (r *Runner) runCase(ctx context.Context, suite Suite, c Case) domain.CaseResult {
	result := domain.CaseResult{CaseID: c.ID}

	out, err := r.prompts.Run(ctx, suite.PromptID, api.RunInput{
		ProviderID: c.ProviderID,
		Variables:  c.Input,
	})
	if err != nil {
		result.Failures = append(result.Failures, fmt.Sprintf("prompt run failed: %v", err))
		r.log.WarnObj("eval case prompt run failed", "eval_case_error", map[string]any{
			"suite_id": suite.ID,
			"case_id":  c.ID,
			"error":    err.Error(),
		})
		return result
	}

	result.Output = out.Output
	for _, a := range c.Assertions {
		if err := checkAssertion(a, out.Output); err != nil {
			result.Failures = append(result.Failures, err.Error())
		}
	}
	result.Passed = len(result.Failures) == 0

	r.log.DebugObj("eval case completed", "eval_case", map[string]any{
		"suite_id": suite.ID,
		"case_id":  c.ID,
		"passed":   result.Passed,
	})
	return result
}

// RunAll executes every suite in order. Cancellation mid-pass returns the
// runs completed so far plus the context error.
func (r *Runner) RunAll(ctx context.Context, suites []Suite) ([]domain.EvalRun, error) {
	runs := make([]domain.EvalRun, 0, len(suites))
	for _, suite := range suites {
		run, err := r.RunSuite(ctx, suite)
		runs = append(runs, run)
		if err != nil {
			return runs, err
		}
	}
	return runs, nil
}

// finishRun stamps completion time and aggregate counters.
func finishRun(run domain.EvalRun) domain.EvalRun {
	run.CompletedAt = time.Now().UTC()
	run.Total = len(run.Cases)
	for _, c := range run.Cases {
		if c.Passed {
			run.Passed++
		} else {
			run.Failed++
		}
	}
	if run.Total > 0 {
		run.Score = float64(run.Passed) / float64(run.Total)
	}
	return run
}
