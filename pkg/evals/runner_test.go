package evals

import (
	"context"
	"fmt"
	"testing"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
	"github.com/promptrepo-hq/promptrepo-go/pkg/api"
)

// fakePromptRunner maps case input to canned outputs.
type fakePromptRunner struct {
	outputs map[string]string // keyed by variables["case"]
	err     error
	calls   int
}

func (f *fakePromptRunner) Run(_ context.Context, _ string, input api.RunInput) (domain.PromptOutput, error) {
	f.calls++
	if f.err != nil {
		return domain.PromptOutput{}, f.err
	}
	return domain.PromptOutput{Output: f.outputs[input.Variables["case"]]}, nil
}

func twoCaseSuite() Suite {
	return Suite{
		ID:       "s1",
		Name:     "Suite One",
		PromptID: "p1",
		Cases: []Case{
			{
				ID:         "pass",
				Input:      map[string]string{"case": "pass"},
				Assertions: []Assertion{{Type: AssertContains, Value: "hello"}},
			},
			{
				ID:         "fail",
				Input:      map[string]string{"case": "fail"},
				Assertions: []Assertion{{Type: AssertEquals, Value: "hello"}},
			},
		},
	}
}

func TestRunSuiteScoresCases(t *testing.T) {
	prompts := &fakePromptRunner{outputs: map[string]string{
		"pass": "hello world",
		"fail": "goodbye",
	}}
	runner := NewRunner(prompts, nil)

	run, err := runner.RunSuite(context.Background(), twoCaseSuite())
	if err != nil {
		t.Fatalf("RunSuite: %v", err)
	}
	if run.Total != 2 || run.Passed != 1 || run.Failed != 1 {
		t.Fatalf("run = %+v", run)
	}
	if run.Score != 0.5 {
		t.Fatalf("Score = %v", run.Score)
	}
	if run.SuiteName != "Suite One" || run.PromptID != "p1" {
		t.Fatalf("run identity = %+v", run)
	}
	if run.CompletedAt.Before(run.StartedAt) {
		t.Fatalf("timestamps out of order: %+v", run)
	}

	var failures []string
	for _, c := range run.Cases {
		if !c.Passed {
			failures = c.Failures
		}
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %v", failures)
	}
}

func TestRunSuitePromptErrorFailsCase(t *testing.T) {
	prompts := &fakePromptRunner{err: fmt.Errorf("provider unavailable")}
	runner := NewRunner(prompts, nil)

	run, err := runner.RunSuite(context.Background(), twoCaseSuite())
	if err != nil {
		t.Fatalf("RunSuite: %v", err)
	}
	if run.Passed != 0 || run.Failed != 2 {
		t.Fatalf("run = %+v", run)
	}
	for _, c := range run.Cases {
		if len(c.Failures) == 0 {
			t.Fatalf("case %q missing failure reason", c.CaseID)
		}
	}
}

func TestRunSuiteStopsOnCancellation(t *testing.T) {
	prompts := &fakePromptRunner{outputs: map[string]string{}}
	runner := NewRunner(prompts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := runner.RunSuite(ctx, twoCaseSuite())
	if err == nil {
		t.Fatalf("expected context error")
	}
	if prompts.calls != 0 {
		t.Fatalf("no cases should run after cancellation, got %d calls", prompts.calls)
	}
	if run.Total != 0 {
		t.Fatalf("partial run = %+v", run)
	}
}

func TestRunAllCollectsRuns(t *testing.T) {
	prompts := &fakePromptRunner{outputs: map[string]string{"pass": "hello", "fail": "hello"}}
	runner := NewRunner(prompts, nil)

	suites := []Suite{twoCaseSuite(), {
		ID:       "s2",
		PromptID: "p2",
		Cases: []Case{{
			ID:         "only",
			Input:      map[string]string{"case": "pass"},
			Assertions: []Assertion{{Type: AssertContains, Value: "hello"}},
		}},
	}}

	runs, err := runner.RunAll(context.Background(), suites)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d", len(runs))
	}
	if runs[1].SuiteID != "s2" || runs[1].Passed != 1 {
		t.Fatalf("runs[1] = %+v", runs[1])
	}
}
