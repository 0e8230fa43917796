// internal/core/domain/result_test.go
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"phineas/internal/testutil"
)

func TestNewFailedResult_Classification(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Second)

	tests := []struct {
		name         string
		err          error
		expectedKind ErrorKind
		expectedMsg  string
	}{
		{"timeout", fmt.Errorf("run: %w", ErrCollectorTimeout), ErrorKindTimeout, "timeout"},
		{"missing credential", fmt.Errorf("%w: API key not configured for hibp", ErrMissingCredential), ErrorKindMissingCredential, "missing credential: API key not configured for hibp"},
		{"unknown", fmt.Errorf("%w: nope", ErrUnknownCollector), ErrorKindUnknownCollector, "unknown collector: nope"},
		{"fault", errors.New("boom"), ErrorKindFault, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewFailedResult("c", "target", tt.err, start, end)
			testutil.AssertEqual(t, res.Status, StatusFailed, "status")
			testutil.AssertEqual(t, res.ErrorKind, tt.expectedKind, "error kind")
			testutil.AssertEqual(t, res.Error, tt.expectedMsg, "error message")
			testutil.AssertEqual(t, len(res.Findings), 0, "failed results carry no findings")
		})
	}
}

func TestCollectorResult_JSON(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := NewSuccessResult("sherlock", "johndoe", FindingSet{"usernames": []string{"johndoe"}}, start, start.Add(1500*time.Millisecond))

	data, err := json.Marshal(res)
	testutil.AssertNoError(t, err, "marshal")

	var doc map[string]any
	testutil.AssertNoError(t, json.Unmarshal(data, &doc), "decode")
	testutil.AssertEqual(t, doc["status"], "success", "status key")
	testutil.AssertEqual(t, doc["plugin"], "sherlock", "plugin key")
	testutil.AssertEqual(t, doc["duration_seconds"], 1.5, "duration")
	_, hasErr := doc["error"]
	testutil.AssertFalse(t, hasErr, "no error key on success")

	var back CollectorResult
	testutil.AssertNoError(t, json.Unmarshal(data, &back), "unmarshal")
	testutil.AssertEqual(t, back.Collector, "sherlock", "collector")
	testutil.AssertTrue(t, back.StartedAt.Equal(start), "start time")
	testutil.AssertEqual(t, back.Duration(), 1500*time.Millisecond, "duration round trip")
}

func TestWorkflowRun_JSON(t *testing.T) {
	target, _ := NewTarget("user@example.com")
	run := NewWorkflowRun("run-1", target, "email_intelligence")
	run.Results = []StepResult{
		{Index: 0, Collector: "holehe", Result: NewSuccessResult("holehe", target.Value, FindingSet{}, run.StartTime, run.StartTime)},
		{Index: 1, Collector: "haveibeenpwned", Result: NewFailedResult("haveibeenpwned", target.Value, ErrMissingCredential, run.StartTime, run.StartTime)},
	}
	run.Summary = RunSummary{TotalPlugins: 2, Successful: 1, Failed: 1, Counts: map[string]int{}, Highlights: []string{}}
	run.Seal()

	data, err := json.Marshal(run)
	testutil.AssertNoError(t, err, "marshal run")

	var doc map[string]any
	testutil.AssertNoError(t, json.Unmarshal(data, &doc), "decode")
	for _, key := range []string{"target", "workflow", "start_time", "end_time", "duration_seconds", "plugins", "summary"} {
		_, ok := doc[key]
		testutil.AssertTrue(t, ok, "persisted report key "+key)
	}

	var back WorkflowRun
	testutil.AssertNoError(t, json.Unmarshal(data, &back), "unmarshal run")
	testutil.AssertEqual(t, back.Target.Kind, TargetKindEmail, "target kind")
	testutil.AssertEqual(t, len(back.Results), 2, "results")
	testutil.AssertEqual(t, back.Results[0].Collector, "holehe", "declaration order kept")
	testutil.AssertEqual(t, back.Results[1].Result.ErrorKind, ErrorKindMissingCredential, "error kind kept")
	testutil.AssertEqual(t, back.Summary.Failed, 1, "summary")
}
