// internal/core/usecases/executor_test.go
package usecases

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

func newTestExecutor(resolver ports.CollectorResolver, mutate func(*ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Resolver:    resolver,
		Logger:      logx.NewNop(),
		IDGenerator: func() string { return "run-1" },
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewExecutor(opts)
}

func TestExecutor_FailureContainment(t *testing.T) {
	a := mockCollectorWithFindings("a", domain.FindingSet{"emails": []string{"a@example.com"}})
	b := newMockCollector("b")
	b.runFunc = func(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
		panic("boom")
	}
	c := mockCollectorWithFindings("c", domain.FindingSet{"domains": []string{"example.com"}})

	exec := newTestExecutor(newMockResolver(a, b, c), nil)
	run, err := exec.Execute(context.Background(), workflowOf("a", "b", "c"), mustTarget("user@example.com"))

	testutil.AssertNoError(t, err, "collector faults never abort the run")
	testutil.AssertEqual(t, len(run.Results), 3, "all steps recorded")
	testutil.AssertTrue(t, run.Results[0].Result.IsSuccess(), "a succeeded")
	testutil.AssertEqual(t, run.Results[1].Result.Status, domain.StatusFailed, "b failed")
	testutil.AssertEqual(t, run.Results[1].Result.ErrorKind, domain.ErrorKindFault, "panic classified as fault")
	testutil.AssertContains(t, run.Results[1].Result.Error, "boom", "panic message kept")
	testutil.AssertTrue(t, run.Results[2].Result.IsSuccess(), "c succeeded")

	testutil.AssertEqual(t, run.Summary.Successful, 2, "successful")
	testutil.AssertEqual(t, run.Summary.Failed, 1, "failed")
	testutil.AssertEqual(t, run.Summary.Counts["total_emails"], 1, "a's findings aggregated")
	testutil.AssertEqual(t, run.Summary.Counts["total_domains"], 1, "c's findings aggregated")
	testutil.AssertTrue(t, run.Sealed(), "run sealed")
	testutil.AssertEqual(t, run.ID, "run-1", "run id")
}

func TestExecutor_InvalidWorkflow(t *testing.T) {
	a := newMockCollector("a")

	tests := []struct {
		name   string
		wf     domain.Workflow
		strict bool
	}{
		{"empty steps", domain.Workflow{Name: "empty"}, false},
		{"duplicate steps", workflowOf("a", "a"), false},
		{"no step resolves", workflowOf("x", "y"), false},
		{"strict unknown", workflowOf("a", "x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(newMockResolver(a), func(o *ExecutorOptions) { o.Strict = tt.strict })

			run, err := exec.Execute(context.Background(), tt.wf, mustTarget("example.com"))

			testutil.AssertErrorIs(t, err, domain.ErrInvalidWorkflow, "invalid workflow")
			testutil.AssertTrue(t, run == nil, "no run produced")
		})
	}

	testutil.AssertEqual(t, a.calls(), 0, "no step runs before validation fails")
}

func TestExecutor_EmptyTarget(t *testing.T) {
	exec := newTestExecutor(newMockResolver(newMockCollector("a")), nil)
	_, err := exec.Execute(context.Background(), workflowOf("a"), domain.Target{})
	testutil.AssertErrorIs(t, err, domain.ErrEmptyTarget, "empty target")
}

func TestExecutor_UnknownCollectorContinues(t *testing.T) {
	a := mockCollectorWithFindings("a", domain.FindingSet{"usernames": []string{"john"}})
	exec := newTestExecutor(newMockResolver(a), nil)

	run, err := exec.Execute(context.Background(), workflowOf("ghost", "a"), mustTarget("john"))

	testutil.AssertNoError(t, err, "non-strict run continues")
	testutil.AssertEqual(t, run.Results[0].Result.ErrorKind, domain.ErrorKindUnknownCollector, "unknown collector recorded")
	testutil.AssertTrue(t, run.Results[1].Result.IsSuccess(), "remaining step ran")
}

func TestExecutor_ConfigMergeAndTimeout(t *testing.T) {
	a := newMockCollector("a")
	exec := newTestExecutor(newMockResolver(a), func(o *ExecutorOptions) {
		o.GlobalConfig = map[string]map[string]any{
			"a": {"limit": 10, "mode": "global"},
		}
	})

	wf := domain.Workflow{Name: "cfg", Steps: []domain.Step{{Collector: "a", Config: map[string]any{"mode": "step"}}}}
	run, err := exec.Execute(context.Background(), wf, mustTarget("example.com"))
	testutil.AssertNoError(t, err, "run")

	want := map[string]any{"limit": 10, "mode": "step"}
	if diff := cmp.Diff(want, a.request().Config); diff != "" {
		t.Errorf("merged config (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, run.Results[0].Result.Config); diff != "" {
		t.Errorf("result metadata (-want +got):\n%s", diff)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	tests := []struct {
		name      string
		ignoreCtx bool
	}{
		{"collector honors context", false},
		{"collector ignores context", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slow := mockCollectorBlocking("slow", tt.ignoreCtx)
			fast := mockCollectorWithFindings("fast", domain.FindingSet{"emails": []string{"x@example.com"}})
			exec := newTestExecutor(newMockResolver(slow, fast), nil)

			wf := domain.Workflow{Name: "t", Steps: []domain.Step{
				{Collector: "slow", Config: map[string]any{"timeout": "50ms"}},
				domain.NewStep("fast"),
			}}

			start := time.Now()
			run, err := exec.Execute(context.Background(), wf, mustTarget("example.com"))
			elapsed := time.Since(start)

			testutil.AssertNoError(t, err, "timeout is not a hard error")
			res := run.Results[0].Result
			testutil.AssertEqual(t, res.Status, domain.StatusFailed, "timed out step failed")
			testutil.AssertEqual(t, res.Error, "timeout", "timeout message")
			testutil.AssertEqual(t, res.ErrorKind, domain.ErrorKindTimeout, "timeout kind")
			testutil.AssertTrue(t, run.Results[1].Result.IsSuccess(), "next step unaffected")
			testutil.AssertTrue(t, elapsed < 2*time.Second, "bounded by the step timeout")
		})
	}
}

func TestExecutor_MissingCredential(t *testing.T) {
	inner := mockCollectorWithFindings("hibp", domain.FindingSet{"breaches": []any{"x"}})
	hibp := &credentialedMock{mockCollector: inner, credential: "haveibeenpwned"}

	exec := newTestExecutor(newMockResolver(hibp), nil)
	run, err := exec.Execute(context.Background(), workflowOf("hibp"), mustTarget("a@example.com"))

	testutil.AssertNoError(t, err, "missing credential is a step failure")
	testutil.AssertEqual(t, run.Results[0].Result.ErrorKind, domain.ErrorKindMissingCredential, "error kind")
	testutil.AssertEqual(t, inner.calls(), 0, "collector never invoked")

	exec = newTestExecutor(newMockResolver(hibp), func(o *ExecutorOptions) {
		o.Credentials = ports.Credentials{"haveibeenpwned": "key"}
	})
	run, _ = exec.Execute(context.Background(), workflowOf("hibp"), mustTarget("a@example.com"))
	testutil.AssertTrue(t, run.Results[0].Result.IsSuccess(), "runs with credential")
	key, _ := inner.request().Credentials.Get("haveibeenpwned")
	testutil.AssertEqual(t, key, "key", "credentials passed through")
}

func TestExecutor_ConcurrentPreservesDeclarationOrder(t *testing.T) {
	names := []string{"s1", "s2", "s3", "s4", "s5"}
	delays := []time.Duration{50, 10, 40, 0, 20}

	var collectors []ports.Collector
	var running, peak int32
	for i, n := range names {
		d := delays[i] * time.Millisecond
		c := newMockCollector(n)
		c.runFunc = func(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
			cur := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
					break
				}
			}
			time.Sleep(d)
			atomic.AddInt32(&running, -1)
			return domain.FindingSet{"usernames": []string{"john"}}, nil
		}
		collectors = append(collectors, c)
	}

	exec := newTestExecutor(newMockResolver(collectors...), func(o *ExecutorOptions) { o.MaxConcurrency = 3 })
	run, err := exec.Execute(context.Background(), workflowOf(names...), mustTarget("john"))
	testutil.AssertNoError(t, err, "run")

	got := make([]string, len(run.Results))
	for i, sr := range run.Results {
		got[i] = sr.Collector
		testutil.AssertEqual(t, sr.Index, i, "index recorded")
	}
	if diff := cmp.Diff(names, got); diff != "" {
		t.Errorf("declaration order (-want +got):\n%s", diff)
	}
	testutil.AssertTrue(t, atomic.LoadInt32(&peak) <= 3, "concurrency limit respected")
	testutil.AssertEqual(t, run.Summary.Counts["total_usernames"], 1, "deduplicated across steps")
}

func TestExecutor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := newMockCollector("first")
	first.runFunc = func(c context.Context, req ports.Request) (domain.FindingSet, error) {
		return domain.FindingSet{"emails": []string{"kept@example.com"}}, nil
	}
	hang := newMockCollector("hang")
	hang.runFunc = func(c context.Context, req ports.Request) (domain.FindingSet, error) {
		cancel()
		<-c.Done()
		return domain.FindingSet{"emails": []string{"lost@example.com"}}, c.Err()
	}
	never := mockCollectorWithFindings("never", domain.FindingSet{"emails": []string{"never@example.com"}})

	agg := NewFindingAggregator()
	exec := newTestExecutor(newMockResolver(first, hang, never), nil)
	run, err := exec.ExecuteInto(ctx, workflowOf("first", "hang", "never"), mustTarget("example.com"), agg)

	testutil.AssertNoError(t, err, "cancellation is not a workflow error")
	testutil.AssertTrue(t, run.Results[0].Result.IsSuccess(), "completed step kept")
	testutil.AssertEqual(t, run.Results[1].Result.ErrorKind, domain.ErrorKindCanceled, "in-flight step canceled")
	testutil.AssertEqual(t, run.Results[1].Result.Error, "canceled", "canceled message")
	testutil.AssertEqual(t, run.Results[2].Result.ErrorKind, domain.ErrorKindCanceled, "pending step canceled")
	testutil.AssertEqual(t, never.calls(), 0, "pending step never invoked")

	if diff := cmp.Diff([]string{"kept@example.com"}, agg.Snapshot().Scalars(domain.KindEmails)); diff != "" {
		t.Errorf("aggregator holds only completed findings (-want +got):\n%s", diff)
	}
}

func TestExecutor_ProgressEvents(t *testing.T) {
	notifier := newMockNotifier()
	a := newMockCollector("a")
	b := mockCollectorWithError("b", errors.New("exit status 1"))

	exec := newTestExecutor(newMockResolver(a, b), func(o *ExecutorOptions) {
		o.Observers = []ports.Notifier{notifier}
	})
	_, err := exec.Execute(context.Background(), workflowOf("a", "b"), mustTarget("example.com"))
	testutil.AssertNoError(t, err, "run")

	testutil.AssertEqual(t, len(notifier.getEventsByType(ports.EventTypeWorkflowStarted)), 1, "started event")
	testutil.AssertEqual(t, len(notifier.getEventsByType(ports.EventTypeWorkflowCompleted)), 1, "completed event")

	progress := notifier.getEventsByType(ports.EventTypeStepCompleted)
	testutil.AssertEqual(t, len(progress), 2, "one progress event per step")

	statuses := map[string]domain.ResultStatus{}
	for _, ev := range progress {
		p := ev.Data.(ports.ProgressEvent)
		testutil.AssertEqual(t, p.TotalSteps, 2, "total steps")
		statuses[p.Collector] = p.Status
	}
	testutil.AssertEqual(t, statuses["a"], domain.StatusSuccess, "a progress")
	testutil.AssertEqual(t, statuses["b"], domain.StatusFailed, "b progress")
}

func TestExecutor_SlowObserverDoesNotAffectResults(t *testing.T) {
	notifier := newMockNotifier()
	notifier.notifyFunc = func(ctx context.Context, event ports.Event) error {
		return errors.New("observer down")
	}
	a := mockCollectorWithFindings("a", domain.FindingSet{"emails": []string{"a@example.com"}})

	exec := newTestExecutor(newMockResolver(a), func(o *ExecutorOptions) {
		o.Observers = []ports.Notifier{notifier}
	})
	run, err := exec.Execute(context.Background(), workflowOf("a"), mustTarget("example.com"))

	testutil.AssertNoError(t, err, "observer errors are ignored")
	testutil.AssertTrue(t, run.Results[0].Result.IsSuccess(), "step unaffected")
}
