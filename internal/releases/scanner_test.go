package releases_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/jira/jiratest"
	"github.com/jiratool/jiratool/internal/releases"
)

func newScanServer(t *testing.T) *jiratest.Server {
	t.Helper()
	srv := jiratest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetVersions("PROJ",
		jira.Version{ID: "1", Name: "1.0"},
		jira.Version{ID: "2", Name: "1.1"},
		jira.Version{ID: "3", Name: ""},
		jira.Version{ID: "4", Name: "2.0"},
		jira.Version{ID: "5", Name: "empty"},
		jira.Version{ID: "6", Name: `quoted "rc"`},
	)
	srv.SetIssues(
		jiratest.MakeIssue("PROJ-1", "Bug", "1.0"),
		jiratest.MakeIssue("PROJ-2", "Customer bug", "1.0"),
		jiratest.MakeIssue("PROJ-3", "Bug", "1.1"),
		jiratest.MakeIssue("PROJ-4", "Story", "1.1"),
		jiratest.MakeIssue("PROJ-5", "Bug", "2.0"),
		jiratest.MakeIssue("PROJ-6", "Customer bug", `quoted "rc"`),
		jiratest.MakeIssue("OTHER-1", "Story", "2.0"),
	)
	return srv
}

func TestScanCollectsQualifyingInOrder(t *testing.T) {
	srv := newScanServer(t)
	scanner := releases.NewScanner(jira.NewAPI(srv.Client()))

	var seen []string
	scanner.OnResult = func(r releases.Result) { seen = append(seen, r.Release) }

	report, err := scanner.Scan(context.Background(), "PROJ")
	require.NoError(t, err)

	assert.Equal(t, []string{"1.0", "1.1", "2.0", "empty", `quoted "rc"`}, seen)
	assert.Equal(t, 5, report.Scanned)
	require.Len(t, report.Qualifying, 3)
	assert.Equal(t, "1.0", report.Qualifying[0].Release)
	assert.Equal(t, []string{"Bug", "Customer bug"}, report.Qualifying[0].IssueTypes)
	assert.Equal(t, 2, report.Qualifying[0].IssueCount)
	assert.Equal(t, "2.0", report.Qualifying[1].Release)
	assert.Equal(t, `quoted "rc"`, report.Qualifying[2].Release)

	reqs := srv.SearchRequests()
	require.Len(t, reqs, 5)
	assert.Equal(t, `project = "PROJ" AND fixVersion = "1.0"`, reqs[0].JQL)
	assert.Equal(t, releases.IssueCap, reqs[0].MaxResults)
	assert.Equal(t, []string{"issuetype"}, reqs[0].Fields)
}

func TestScanReportsNonQualifying(t *testing.T) {
	srv := newScanServer(t)
	scanner := releases.NewScanner(jira.NewAPI(srv.Client()))

	results := map[string]releases.Result{}
	scanner.OnResult = func(r releases.Result) { results[r.Release] = r }
	_, err := scanner.Scan(context.Background(), "PROJ")
	require.NoError(t, err)

	assert.Equal(t, "Contains other issue types: Story", results["1.1"].Reason)
	assert.Equal(t, releases.ReasonNoIssues, results["empty"].Reason)
	assert.False(t, results["empty"].Qualifies)
}

func TestScanReleaseListingFailure(t *testing.T) {
	srv := newScanServer(t)
	srv.FailPath("/versions", http.StatusInternalServerError)

	report, err := releases.NewScanner(jira.NewAPI(srv.Client())).Scan(context.Background(), "PROJ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching releases")
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Scanned)
	assert.Empty(t, report.Qualifying)
}

func TestScanSearchFailureCountsAsNoIssues(t *testing.T) {
	srv := newScanServer(t)
	srv.FailPath("/search/jql", http.StatusBadRequest)

	scanner := releases.NewScanner(jira.NewAPI(srv.Client()))
	var warnings []string
	var reasons []string
	scanner.OnWarning = func(msg string) { warnings = append(warnings, msg) }
	scanner.OnResult = func(r releases.Result) { reasons = append(reasons, r.Reason) }

	report, err := scanner.Scan(context.Background(), "PROJ")
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Empty(t, report.Qualifying)
	assert.Len(t, warnings, 5)
	assert.True(t, strings.HasPrefix(warnings[0], "Error fetching issues for release 1.0"))
	for _, r := range reasons {
		assert.Equal(t, releases.ReasonNoIssues, r)
	}
}

func TestScanNoReleases(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetVersions("EMPTY")

	scanner := releases.NewScanner(jira.NewAPI(srv.Client()))
	var warned bool
	scanner.OnWarning = func(string) { warned = true }
	report, err := scanner.Scan(context.Background(), "EMPTY")
	require.NoError(t, err)
	assert.True(t, warned)
	assert.Equal(t, 0, report.Scanned)
	assert.Empty(t, srv.SearchRequests())
}

func TestScanConcurrentKeepsListingOrder(t *testing.T) {
	srv := newScanServer(t)
	scanner := releases.NewScanner(jira.NewAPI(srv.Client()))
	scanner.Workers = 4

	var seen []string
	scanner.OnResult = func(r releases.Result) { seen = append(seen, r.Release) }
	report, err := scanner.Scan(context.Background(), "PROJ")
	require.NoError(t, err)

	assert.Equal(t, []string{"1.0", "1.1", "2.0", "empty", `quoted "rc"`}, seen)
	require.Len(t, report.Qualifying, 3)
	assert.Equal(t, "2.0", report.Qualifying[1].Release)
	assert.Len(t, srv.SearchRequests(), 5)
}

type countingSource struct {
	releases.Source
	searches int
}

func (c *countingSource) Search(ctx context.Context, req jira.SearchRequest) (*jira.SearchResponse, error) {
	c.searches++
	return c.Source.Search(ctx, req)
}

func TestScanSequentialQueriesOneReleaseAtATime(t *testing.T) {
	srv := newScanServer(t)
	src := &countingSource{Source: jira.NewAPI(srv.Client())}
	scanner := releases.NewScanner(src)

	var issuedAtResult []int
	scanner.OnResult = func(releases.Result) { issuedAtResult = append(issuedAtResult, src.searches) }
	report, err := scanner.Scan(context.Background(), "PROJ")
	require.NoError(t, err)

	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, issuedAtResult)
}

func TestScanReleasedSince(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetVersions("PROJ",
		jira.Version{Name: "old", ReleaseDate: "2024-12-31"},
		jira.Version{Name: "boundary", ReleaseDate: "2025-01-01"},
		jira.Version{Name: "new", ReleaseDate: "2025-02-10"},
		jira.Version{Name: "undated"},
	)
	srv.SetIssues(jiratest.MakeIssue("PROJ-1", "Bug", "boundary"))

	scanner := releases.NewScanner(jira.NewAPI(srv.Client()))
	scanner.ReleasedSince = time.Date(2025, 1, 1, 15, 30, 0, 0, time.Local)
	var msgs []string
	scanner.OnMessage = func(m string) { msgs = append(msgs, m) }

	report, err := scanner.Scan(context.Background(), "PROJ")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, report.Qualifying, 1)
	assert.Equal(t, "boundary", report.Qualifying[0].Release)
	assert.Contains(t, msgs, "2 release(s) released on or after 2025-01-01")
}

func TestScanCanceled(t *testing.T) {
	for _, workers := range []int{1, 2} {
		srv := newScanServer(t)
		ctx, cancel := context.WithCancel(context.Background())

		scanner := releases.NewScanner(jira.NewAPI(srv.Client()))
		scanner.Workers = workers
		scanner.OnResult = func(releases.Result) { cancel() }

		report, err := scanner.Scan(ctx, "PROJ")
		require.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
		assert.Equal(t, 1, report.Scanned, "workers=%d", workers)
		cancel()
	}
}
