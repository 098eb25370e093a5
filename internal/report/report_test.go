package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dcoric/website-security-scanner/internal/crawler"
	"github.com/dcoric/website-security-scanner/internal/liveness"
	"github.com/dcoric/website-security-scanner/internal/reputation"
)

func TestAggregateCleanRun(t *testing.T) {
	summary := Aggregate("https://example.com",
		&DeadDomainsReport{TotalChecked: 12},
		&BlacklistReport{Status: string(reputation.ClassClean)},
		&SafeBrowsingReport{Status: reputation.SafeBrowsingClean},
		ScanMetadata{ScannedURLCount: 5, DownloadedScriptCount: 2})

	if summary.Status != StatusClean {
		t.Errorf("status = %s, want %s", summary.Status, StatusClean)
	}
	if summary.TotalIssues != 0 {
		t.Errorf("totalIssues = %d, want 0", summary.TotalIssues)
	}
	if summary.ScannedURLCount != 5 || summary.DownloadedScripts != 2 {
		t.Errorf("crawl counts not carried: %+v", summary)
	}
}

func TestAggregateCountsEveryIssueClass(t *testing.T) {
	dead := &DeadDomainsReport{DeadDomains: []liveness.DeadDomain{
		{Domain: "gone-a.example.com"},
		{Domain: "gone-b.example.com"},
	}}
	summary := Aggregate("https://example.com",
		dead,
		&BlacklistReport{Status: string(reputation.ClassListed)},
		&SafeBrowsingReport{Status: reputation.SafeBrowsingUnsafe},
		ScanMetadata{})

	if summary.TotalIssues != 4 {
		t.Errorf("totalIssues = %d, want 4 (2 dead + blacklist + safe browsing)", summary.TotalIssues)
	}
	if summary.Status != StatusIssuesFound {
		t.Errorf("status = %s, want %s", summary.Status, StatusIssuesFound)
	}
	if !summary.BlacklistListed || !summary.SafeBrowsingListed {
		t.Errorf("listing flags not set: %+v", summary)
	}
}

func TestAggregateSkippedSafeBrowsingContributesNothing(t *testing.T) {
	summary := Aggregate("https://example.com",
		&DeadDomainsReport{},
		&BlacklistReport{Status: string(reputation.ClassClean)},
		&SafeBrowsingReport{Status: reputation.SafeBrowsingSkipped},
		ScanMetadata{})

	if summary.TotalIssues != 0 || summary.Status != StatusClean {
		t.Errorf("skipped safe browsing changed the outcome: %+v", summary)
	}
}

func TestAggregateBlockedBlacklistIsNotAnIssue(t *testing.T) {
	summary := Aggregate("https://example.com",
		&DeadDomainsReport{},
		&BlacklistReport{Status: string(reputation.ClassBlocked)},
		nil,
		ScanMetadata{})

	if summary.TotalIssues != 0 || summary.BlacklistListed {
		t.Errorf("blocked status counted as a listing: %+v", summary)
	}
}

func TestBuildBlacklistReportStatusPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []reputation.Verdict
		want     string
	}{
		{
			name: "listed wins over everything",
			verdicts: []reputation.Verdict{
				{Oracle: "a", Class: reputation.ClassListed, Codes: []string{"127.0.1.2"}},
				{Oracle: "b", Class: reputation.ClassBlocked, IgnoredCodes: []string{"127.0.0.1"}},
				{Oracle: "c", Class: reputation.ClassError, Error: "timeout"},
			},
			want: string(reputation.ClassListed),
		},
		{
			name: "blocked wins over clean and error",
			verdicts: []reputation.Verdict{
				{Oracle: "a", Class: reputation.ClassBlocked, IgnoredCodes: []string{"127.255.255.254"}},
				{Oracle: "b", Class: reputation.ClassClean},
			},
			want: string(reputation.ClassBlocked),
		},
		{
			name: "all errors with no clean is error",
			verdicts: []reputation.Verdict{
				{Oracle: "a", Class: reputation.ClassError, Error: "timeout"},
				{Oracle: "b", Class: reputation.ClassError, Error: "refused"},
			},
			want: string(reputation.ClassError),
		},
		{
			name: "errors alongside clean is still clean",
			verdicts: []reputation.Verdict{
				{Oracle: "a", Class: reputation.ClassError, Error: "timeout"},
				{Oracle: "b", Class: reputation.ClassClean},
			},
			want: string(reputation.ClassClean),
		},
		{
			name: "all clean",
			verdicts: []reputation.Verdict{
				{Oracle: "a", Class: reputation.ClassClean},
				{Oracle: "b", Class: reputation.ClassClean},
			},
			want: string(reputation.ClassClean),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := BuildBlacklistReport(reputation.DomainReport{
				Domain:   "example.com",
				Verdicts: tt.verdicts,
			})
			if rep.Status != tt.want {
				t.Errorf("status = %s, want %s", rep.Status, tt.want)
			}
			if rep.Details == "" {
				t.Error("details should never be empty")
			}
		})
	}
}

func TestGroupByPagePreservesOrder(t *testing.T) {
	refs := []crawler.ResourceReference{
		{URL: "https://a.example.com/1", FoundOnPage: "https://site.example/page1"},
		{URL: "https://b.example.com/2", FoundOnPage: "https://site.example/page2"},
		{URL: "https://c.example.com/3", FoundOnPage: "https://site.example/page1"},
	}

	grouped := GroupByPage(refs)

	if len(grouped) != 2 {
		t.Fatalf("got %d pages, want 2", len(grouped))
	}
	if grouped[0].Page != "https://site.example/page1" || len(grouped[0].URLs) != 2 {
		t.Errorf("page1 group = %+v", grouped[0])
	}
	if grouped[1].Page != "https://site.example/page2" || len(grouped[1].URLs) != 1 {
		t.Errorf("page2 group = %+v", grouped[1])
	}
}

func TestWriteAndReadFoundURLsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	grouped := []PageURLs{
		{Page: "https://site.example/", URLs: []string{"https://a.example.com/x", "https://b.example.com/y"}},
	}

	if err := WriteJSON(dir, FoundURLsFile, grouped); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadFoundURLs(dir)
	if err != nil {
		t.Fatal(err)
	}
	urls := loaded["https://site.example/"]
	if len(urls) != 2 || urls[0] != "https://a.example.com/x" {
		t.Errorf("loaded urls = %v", urls)
	}
}

func TestWriteJSONCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	if err := WriteJSON(dir, ScanMetadataFile, ScanMetadata{ScannedURLCount: 3}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ScanMetadataFile))
	if err != nil {
		t.Fatal(err)
	}
	var meta ScanMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.ScannedURLCount != 3 {
		t.Errorf("scannedUrlCount = %d, want 3", meta.ScannedURLCount)
	}
	if !strings.Contains(string(data), "scannedUrlCount") {
		t.Errorf("artifact does not carry the documented field name: %s", data)
	}
}

func TestRenderSummaryTextListsFindings(t *testing.T) {
	summary := Summary{
		Target:      "https://example.com",
		Status:      StatusIssuesFound,
		TotalIssues: 1,
	}
	dead := &DeadDomainsReport{
		DeadDomains: []liveness.DeadDomain{{
			Domain:  "gone.example.com",
			Error:   "no such host",
			Sources: []string{"Found on page: https://example.com/"},
		}},
		TotalChecked: 4,
	}

	text := RenderSummaryText(summary, dead, nil, nil)

	for _, want := range []string{
		"Issues Found",
		"gone.example.com",
		"Found on page: https://example.com/",
		"Not checked.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary text missing %q:\n%s", want, text)
		}
	}
}
