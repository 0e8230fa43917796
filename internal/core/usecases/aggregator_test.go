// internal/core/usecases/aggregator_test.go
package usecases

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"phineas/internal/core/domain"
	"phineas/internal/testutil"
)

var testStart = time.Date(2025, 1, 19, 10, 0, 0, 0, time.UTC)

func TestFindingAggregator_IdempotentNormalization(t *testing.T) {
	agg := NewFindingAggregator()
	agg.AddResult("a", successResult("a", domain.FindingSet{
		"emails": []string{"User@Example.com", "  user@example.com  "},
	}))
	agg.AddResult("a", successResult("a", domain.FindingSet{
		"emails": "USER@EXAMPLE.COM",
	}))

	report := agg.Snapshot()

	testutil.AssertEqual(t, len(report.Scalars(domain.KindEmails)), 1, "one email after normalization")
	testutil.AssertEqual(t, report.Scalars(domain.KindEmails)[0], "user@example.com", "lower-cased")
	testutil.AssertEqual(t, report.Confidence["email:user@example.com"], 50, "single collector")
	testutil.AssertEqual(t, report.Total(domain.KindEmails), 1, "total_emails")
}

func TestFindingAggregator_ScenarioTwoCollectors(t *testing.T) {
	agg := NewFindingAggregator()
	agg.AddResult("emailCollector", successResult("emailCollector", domain.FindingSet{
		"emails": []string{"USER@Example.com"},
	}))
	agg.AddResult("socialCollector", successResult("socialCollector", domain.FindingSet{
		"emails": []string{"user@example.com"},
		"socialProfiles": []any{
			map[string]any{"platform": "x", "username": "user", "url": "https://x.com/user"},
		},
	}))

	report := agg.Snapshot()

	if diff := cmp.Diff([]string{"user@example.com"}, report.Scalars(domain.KindEmails)); diff != "" {
		t.Errorf("emails mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"emailCollector", "socialCollector"}, report.Sources["email:user@example.com"]); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertEqual(t, report.Confidence["email:user@example.com"], 75, "two distinct collectors")

	profiles := report.Records(domain.KindSocialProfiles)
	testutil.AssertEqual(t, len(profiles), 1, "one profile via camelCase alias")
	testutil.AssertEqual(t, profiles[0]["source"], "socialCollector", "profile stamped with source")
	testutil.AssertEqual(t, report.Summary["total_social_profiles"], 1, "total_social_profiles")
}

func TestFindingAggregator_OrderIndependence(t *testing.T) {
	results := []struct {
		name     string
		findings domain.FindingSet
	}{
		{"sherlock", domain.FindingSet{
			"usernames": []string{"johndoe"},
			"social_profiles": []any{
				map[string]any{"platform": "GitHub", "url": "https://github.com/johndoe", "username": "johndoe"},
			},
		}},
		{"holehe", domain.FindingSet{
			"emails":   []string{"john@example.com"},
			"accounts": []any{"twitter.com", map[string]any{"platform": "GitHub", "url": "https://github.com/johndoe"}},
			"social_profiles": []any{
				map[string]any{"platform": "GitHub", "url": "https://github.com/johndoe", "note": "from holehe"},
			},
		}},
		{"hibp", domain.FindingSet{
			"emails":   "John@Example.com",
			"breaches": []any{map[string]any{"name": "Adobe", "email": "john@example.com"}},
			"pastes":   []any{"ignored"},
		}},
		{"wayback", domain.FindingSet{
			"urls": []any{map[string]any{"url": "http://example.com/a", "timestamp": "20200101"}, "http://example.com/b"},
		}},
	}

	permutations := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}

	var baseline *domain.AggregatedReport
	for _, perm := range permutations {
		agg := NewFindingAggregator()
		for _, i := range perm {
			agg.AddResult(results[i].name, successResult(results[i].name, results[i].findings))
		}
		report := agg.Snapshot()

		if baseline == nil {
			baseline = report
			continue
		}
		if diff := cmp.Diff(baseline.Data, report.Data); diff != "" {
			t.Errorf("data depends on merge order %v (-first +got):\n%s", perm, diff)
		}
		if diff := cmp.Diff(baseline.Summary, report.Summary); diff != "" {
			t.Errorf("summary depends on merge order %v:\n%s", perm, diff)
		}
		if diff := cmp.Diff(baseline.Confidence, report.Confidence); diff != "" {
			t.Errorf("confidence depends on merge order %v:\n%s", perm, diff)
		}
	}

	profiles := baseline.Records(domain.KindSocialProfiles)
	testutil.AssertEqual(t, len(profiles), 1, "duplicate profile collapsed")
	testutil.AssertEqual(t, profiles[0]["source"], "holehe", "canonical first-seen wins")
	testutil.AssertEqual(t, len(baseline.Scalars(domain.KindURLs)), 2, "url records accepted for scalar kind")
	testutil.AssertEqual(t, baseline.Confidence["email:john@example.com"], 75, "holehe + hibp")
}

func TestFindingAggregator_DedupKeyDefaults(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.Kind
		record   domain.Record
		expected string
	}{
		{"missing platform", domain.KindSocialProfiles, domain.Record{"url": "https://a"}, "unknown:https://a"},
		{"username fallback", domain.KindSocialProfiles, domain.Record{"platform": "x", "username": "u"}, "x:u"},
		{"account fallback", domain.KindAccounts, domain.Record{"platform": "x", "account": "acc"}, "x:acc"},
		{"email fallback", domain.KindAccounts, domain.Record{"platform": "x", "email": "e@x.com"}, "x:e@x.com"},
		{"empty record", domain.KindAccounts, domain.Record{}, "unknown:"},
		{"breach by name", domain.KindBreaches, domain.Record{"name": "Adobe", "email": "a@b.c"}, "Adobe:a@b.c"},
		{"breach by title", domain.KindBreaches, domain.Record{"title": "Adobe"}, "Adobe:"},
		{"breach unknown", domain.KindBreaches, domain.Record{}, "unknown:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, DedupKey(tt.kind, tt.record), tt.expected, "dedup key")
		})
	}
}

func TestFindingAggregator_BareAccountsPromoted(t *testing.T) {
	agg := NewFindingAggregator()
	agg.AddResult("holehe", successResult("holehe", domain.FindingSet{
		"accounts": []string{"spotify.com", "spotify.com"},
	}))

	accounts := agg.Snapshot().Records(domain.KindAccounts)

	testutil.AssertEqual(t, len(accounts), 1, "bare duplicates collapsed")
	if diff := cmp.Diff(domain.Record{"platform": "unknown", "account": "spotify.com", "source": "holehe"}, accounts[0]); diff != "" {
		t.Errorf("promoted record mismatch (-want +got):\n%s", diff)
	}
}

func TestFindingAggregator_FailedResultsContributeNothing(t *testing.T) {
	agg := NewFindingAggregator()
	failed := domain.NewFailedResult("broken", "x", domain.ErrCollectorFault, testStart, testStart)
	failed.Findings = domain.FindingSet{"emails": []string{"leak@example.com"}}

	agg.AddResult("broken", failed)
	report := agg.Snapshot()

	testutil.AssertEqual(t, report.Total(domain.KindEmails), 0, "no findings from failed result")
	testutil.AssertEqual(t, len(report.Highlights), 0, "no highlights")
	testutil.AssertEqual(t, len(agg.Collectors()), 1, "failed collector still recorded as seen")
}

func TestFindingAggregator_DoesNotMutateResults(t *testing.T) {
	profile := map[string]any{"platform": "x", "url": "https://x.com/u"}
	res := successResult("sherlock", domain.FindingSet{"social_profiles": []any{profile}})

	agg := NewFindingAggregator()
	agg.AddResult("sherlock", res)
	report := agg.Snapshot()
	report.Records(domain.KindSocialProfiles)[0]["platform"] = "mutated"

	_, stamped := profile["source"]
	testutil.AssertFalse(t, stamped, "collector record not stamped in place")
	testutil.AssertEqual(t, agg.Snapshot().Records(domain.KindSocialProfiles)[0]["platform"], "x", "snapshot isolated from aggregator")
}

func TestFindingAggregator_SameCollectorTieIsOrderIndependent(t *testing.T) {
	first := successResult("holehe", domain.FindingSet{
		"accounts": []any{map[string]any{"platform": "github", "email": "a@x.com", "target": "a@x.com"}},
	})
	second := successResult("holehe", domain.FindingSet{
		"accounts": []any{map[string]any{"platform": "github", "email": "a@x.com", "target": "A@x.com"}},
	})

	forward := NewFindingAggregator()
	forward.AddResult("holehe", first)
	forward.AddResult("holehe", second)

	backward := NewFindingAggregator()
	backward.AddResult("holehe", second)
	backward.AddResult("holehe", first)

	if diff := cmp.Diff(forward.Snapshot().Data, backward.Snapshot().Data); diff != "" {
		t.Errorf("surviving record depends on arrival order (-forward +backward):\n%s", diff)
	}
	accounts := forward.Snapshot().Data[domain.KindAccounts].([]domain.Record)
	testutil.AssertEqual(t, len(accounts), 1, "deduplicated")
	testutil.AssertEqual(t, accounts[0].Get("target"), "A@x.com", "lowest canonical encoding wins")
}

func TestFindingAggregator_HighlightsInKindOrder(t *testing.T) {
	agg := NewFindingAggregator()
	agg.AddResult("c", successResult("c", domain.FindingSet{
		"breaches":   []any{map[string]any{"name": "Adobe"}},
		"subdomains": []string{"API.example.com"},
		"emails":     []string{"a@example.com", "b@example.com"},
	}))

	report := agg.Snapshot()

	want := []string{
		"2 unique email(s) discovered",
		"1 subdomain(s) enumerated",
		"1 data breach(es) identified",
	}
	if diff := cmp.Diff(want, report.Highlights); diff != "" {
		t.Errorf("highlights mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertEqual(t, report.Scalars(domain.KindSubdomains)[0], "api.example.com", "subdomains lower-cased")
	testutil.AssertEqual(t, report.Summary["total_urls"], 0, "zero totals present")
}

func TestFindingAggregator_ConcurrentAdds(t *testing.T) {
	agg := NewFindingAggregator()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := []string{"a", "b", "c", "d"}[i%4]
			agg.AddResult(name, successResult(name, domain.FindingSet{
				"domains": []string{"Example.com"},
			}))
		}(i)
	}
	wg.Wait()

	report := agg.Snapshot()
	testutil.AssertEqual(t, report.Total(domain.KindDomains), 1, "one domain")
	testutil.AssertEqual(t, len(report.Sources["domain:example.com"]), 4, "four distinct sources")
	testutil.AssertEqual(t, report.Confidence["domain:example.com"], 100, "three or more collectors")
}

func TestAggregateRunsAndBuildSummary(t *testing.T) {
	run1 := domain.NewWorkflowRun("r1", mustTarget("a@example.com"), "email_intelligence")
	run1.Results = []domain.StepResult{
		{Index: 0, Collector: "holehe", Result: successResult("holehe", domain.FindingSet{"emails": []string{"a@example.com"}})},
		{Index: 1, Collector: "hibp", Result: domain.NewFailedResult("hibp", "a@example.com", domain.ErrMissingCredential, testStart, testStart)},
	}
	run2 := domain.NewWorkflowRun("r2", mustTarget("b@example.com"), "email_intelligence")
	run2.Results = []domain.StepResult{
		{Index: 0, Collector: "holehe", Result: successResult("holehe", domain.FindingSet{"emails": []string{"b@example.com", "A@example.com"}})},
	}

	report := AggregateRuns(run1, nil, run2)
	testutil.AssertEqual(t, report.Total(domain.KindEmails), 2, "cross-target union")

	summary := BuildSummary(run1, AggregateRuns(run1))
	testutil.AssertEqual(t, summary.TotalPlugins, 2, "total plugins")
	testutil.AssertEqual(t, summary.Successful, 1, "successful")
	testutil.AssertEqual(t, summary.Failed, 1, "failed")
	testutil.AssertEqual(t, summary.Counts["total_emails"], 1, "counts")
	if diff := cmp.Diff([]string{"1 unique email(s) discovered"}, summary.Highlights); diff != "" {
		t.Errorf("highlights (-want +got):\n%s", diff)
	}
}
