// internal/core/usecases/merge_service_test.go
package usecases

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"phineas/internal/core/domain"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

func writeRunFile(t *testing.T, dir, name string, run *domain.WorkflowRun) string {
	t.Helper()
	data, err := json.Marshal(run)
	if err != nil {
		t.Fatalf("failed to marshal run: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write run file: %v", err)
	}
	return path
}

func sampleRun(id, target string, findings domain.FindingSet) *domain.WorkflowRun {
	run := domain.NewWorkflowRun(id, mustTarget(target), "email_intelligence")
	run.Results = []domain.StepResult{
		{Index: 0, Collector: "holehe", Result: successResult("holehe", findings)},
	}
	run.Seal()
	return run
}

func TestMergeService_Merge(t *testing.T) {
	tmpDir := t.TempDir()

	writeRunFile(t, tmpDir, "phineas_a_at_example_com_20250119_100000.json",
		sampleRun("r1", "a@example.com", domain.FindingSet{
			"emails":   []string{"a@example.com"},
			"accounts": []any{map[string]any{"platform": "github", "email": "a@example.com"}},
		}))
	writeRunFile(t, tmpDir, "phineas_b_at_example_com_20250119_100500.json",
		sampleRun("r2", "b@example.com", domain.FindingSet{
			"emails": []string{"b@example.com", "A@EXAMPLE.COM"},
		}))
	// fichero ajeno al patrón
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	merger := NewMergeService(logx.NewNop())
	report, runs, err := merger.Merge(tmpDir)

	testutil.AssertNoError(t, err, "merge should succeed")
	testutil.AssertEqual(t, len(runs), 2, "two runs loaded")
	testutil.AssertEqual(t, report.Total(domain.KindEmails), 2, "emails deduplicated across targets")
	testutil.AssertEqual(t, report.Total(domain.KindAccounts), 1, "accounts decoded from JSON records")
	testutil.AssertEqual(t, runs[0].Target.Kind, domain.TargetKindEmail, "target kind restored")
}

func TestMergeService_SkipsCorruptFiles(t *testing.T) {
	tmpDir := t.TempDir()

	good := writeRunFile(t, tmpDir, "phineas_x_20250119_100000.json",
		sampleRun("r1", "x@example.com", domain.FindingSet{"emails": "x@example.com"}))
	bad := filepath.Join(tmpDir, "phineas_y_20250119_100000.json")
	if err := os.WriteFile(bad, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	merger := NewMergeService(logx.NewNop())
	runs, err := merger.LoadRuns(good, bad)

	testutil.AssertNoError(t, err, "one good file is enough")
	testutil.AssertEqual(t, len(runs), 1, "corrupt file skipped")
}

func TestMergeService_Errors(t *testing.T) {
	merger := NewMergeService(logx.NewNop())

	_, err := merger.LoadRuns(filepath.Join(t.TempDir(), "phineas_*.json"))
	testutil.AssertError(t, err, "no files matched")

	_, err = merger.LoadRuns(filepath.Join(t.TempDir(), "missing.json"))
	testutil.AssertError(t, err, "no loadable files")
}

func TestMergeService_ExpandPaths(t *testing.T) {
	tmpDir := t.TempDir()
	a := writeRunFile(t, tmpDir, "phineas_a_1.json", sampleRun("r1", "a@example.com", nil))
	b := writeRunFile(t, tmpDir, "phineas_b_1.json", sampleRun("r2", "b@example.com", nil))

	merger := NewMergeService(logx.NewNop())
	files, err := merger.ExpandPaths([]string{b, tmpDir, filepath.Join(tmpDir, "phineas_a_*.json")})

	testutil.AssertNoError(t, err, "expand")
	testutil.AssertEqual(t, len(files), 2, "duplicates removed")
	testutil.AssertEqual(t, files[0], a, "sorted")
}

func TestMergeService_ExpandPathsSkipsStreamingPartials(t *testing.T) {
	dir := t.TempDir()
	report := writeRunFile(t, dir, "phineas_john_20250119_100000.json", sampleRun("r1", "john", nil))
	oddStem := writeRunFile(t, dir, "phineas_my_partial_name_20250119_100000.json", sampleRun("r2", "my_partial_name", nil))
	partial := filepath.Join(dir, "phineas_john_20250119_100000_partial_sherlock.json")
	if err := os.WriteFile(partial, []byte(`{"collector":"sherlock"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	merger := NewMergeService(logx.NewNop())
	for _, input := range []string{dir, filepath.Join(dir, "phineas_*.json")} {
		files, err := merger.ExpandPaths([]string{input})
		testutil.AssertNoError(t, err, "expand "+input)
		testutil.AssertDeepEqual(t, files, []string{report, oddStem}, "partials excluded from "+input)
	}

	runs, err := merger.LoadRuns(dir)
	testutil.AssertNoError(t, err, "load runs")
	testutil.AssertEqual(t, len(runs), 2, "partial result not loaded as a run")
}
