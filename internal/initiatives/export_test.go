package initiatives_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiratool/jiratool/internal/initiatives"
	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/jira/jiratest"
)

func sampleRecords() []initiatives.Record {
	return []initiatives.Record{
		{
			IssueKey:          "PMT-1",
			Description:       "Ünïcode & <tags> stay as written",
			Requester:         "Zoë",
			LinkedIssuesCount: 2,
			LinkedIssues:      []initiatives.LinkedIssue{{Key: "PMT-9", Summary: "Child", IssueType: "Epic"}},
			FixVersions:       []string{"1.0"},
			AffectedVersions:  []string{},
		},
		{
			IssueKey:         "PMT-2",
			Requester:        "Unknown",
			LinkedIssues:     []initiatives.LinkedIssue{},
			FixVersions:      []string{},
			AffectedVersions: []string{"0.9"},
		},
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	for _, format := range []initiatives.Format{initiatives.FormatJSON, initiatives.FormatYAML, initiatives.FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+string(format))
			require.NoError(t, initiatives.WriteFile(path, sampleRecords(), format))

			got, err := initiatives.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, sampleRecords(), got)
		})
	}
}

func TestWriteFileJSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, initiatives.WriteFile(path, sampleRecords(), initiatives.FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"issueKey\": \"PMT-1\","), text)
	assert.Contains(t, text, "Ünïcode & <tags> stay as written")
	assert.Contains(t, text, `"requester": "Zoë"`)
}

func TestWriteFileEmptyListAndNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	require.NoError(t, initiatives.WriteFile(path, nil, initiatives.FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	err := initiatives.WriteFile(path, sampleRecords(), initiatives.FormatJSON)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]initiatives.Format{"": "json", "JSON": "json", "yaml": "yaml", "yml": "yaml", "TOML": "toml"} {
		got, err := initiatives.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := initiatives.ParseFormat("csv")
	assert.Error(t, err)
}

func TestDefaultFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
	assert.Equal(t, "initiatives_PMT_20240309_070502.json", initiatives.DefaultFileName("PMT", ts, initiatives.FormatJSON))
	assert.Equal(t, "initiatives_PMT_20240309_070502.yaml", initiatives.DefaultFileName("PMT", ts, initiatives.FormatYAML))
}

func initiativeServer(t *testing.T, n int) *jiratest.Server {
	t.Helper()
	srv := jiratest.NewServer()
	t.Cleanup(srv.Close)
	var issues []jira.Issue
	for i := 1; i <= n; i++ {
		issue := jiratest.MakeIssue("PMT-"+strconv.Itoa(i), "Initiative")
		issue.Fields.Reporter = &jira.User{DisplayName: "Owner " + strconv.Itoa(i)}
		issues = append(issues, issue)
	}
	issues = append(issues, jiratest.MakeIssue("PMT-999", "Epic"))
	srv.SetIssues(issues...)
	return srv
}

func TestExportPaginatesAndWrites(t *testing.T) {
	srv := initiativeServer(t, 150)
	dir := t.TempDir()

	exp := initiatives.NewExporter(jira.NewAPI(srv.Client()))
	exp.Dir = dir
	exp.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) }
	var msgs []string
	exp.OnMessage = func(m string) { msgs = append(msgs, m) }

	sum, err := exp.Export(context.Background(), "PMT", "")
	require.NoError(t, err)
	assert.Equal(t, 150, sum.Count)
	assert.Equal(t, filepath.Join(dir, "initiatives_PMT_20240102_030405.json"), sum.Path)
	assert.Contains(t, msgs, "Found 150 Initiative(s)")

	records, err := initiatives.ReadFile(sum.Path)
	require.NoError(t, err)
	require.Len(t, records, 150)
	assert.Equal(t, "PMT-1", records[0].IssueKey)
	assert.Equal(t, "PMT-150", records[149].IssueKey)
	assert.Equal(t, "Owner 150", records[149].Requester)

	reqs := srv.SearchRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, initiatives.PageSize, reqs[0].MaxResults)
	assert.Equal(t, initiatives.Fields, reqs[0].Fields)
	assert.Equal(t, "page-1", reqs[1].NextPageToken)
}

func TestExportExplicitPathYAML(t *testing.T) {
	srv := initiativeServer(t, 2)
	path := filepath.Join(t.TempDir(), "mine.yaml")

	exp := initiatives.NewExporter(jira.NewAPI(srv.Client()))
	exp.Format = initiatives.FormatYAML
	sum, err := exp.Export(context.Background(), "PMT", path)
	require.NoError(t, err)
	assert.Equal(t, path, sum.Path)

	records, err := initiatives.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExportNothingFound(t *testing.T) {
	srv := initiativeServer(t, 0)
	dir := t.TempDir()

	exp := initiatives.NewExporter(jira.NewAPI(srv.Client()))
	exp.Dir = dir
	var warnings []string
	exp.OnWarning = func(m string) { warnings = append(warnings, m) }

	sum, err := exp.Export(context.Background(), "PMT", "")
	require.NoError(t, err)
	assert.Empty(t, sum.Path)
	assert.Equal(t, 0, sum.Count)
	assert.Equal(t, []string{"No Initiatives found to export."}, warnings)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestExportSearchFailureWritesNothing(t *testing.T) {
	srv := initiativeServer(t, 3)
	srv.FailPath("/search/jql", http.StatusBadRequest)
	dir := t.TempDir()

	exp := initiatives.NewExporter(jira.NewAPI(srv.Client()))
	exp.Dir = dir
	sum, err := exp.Export(context.Background(), "PMT", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching initiatives")
	assert.Empty(t, sum.Path)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestExportInconsistentPagingKeepsPartialResults(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetSearchPages(jira.SearchResponse{
		Issues: []jira.Issue{jiratest.MakeIssue("PMT-1", "Initiative")},
		IsLast: false,
	})

	exp := initiatives.NewExporter(jira.NewAPI(srv.Client()))
	exp.Dir = t.TempDir()
	var warnings []string
	exp.OnWarning = func(m string) { warnings = append(warnings, m) }

	sum, err := exp.Export(context.Background(), "PMT", "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], jira.ErrPaginationInconsistent.Error())
}
