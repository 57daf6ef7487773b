package jira_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/jira/jiratest"
)

func TestAPIListCalls(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetProjects(jira.Project{ID: "1", Key: "PROJ", Name: "Project"})
	srv.SetFields(
		jira.Field{ID: "summary", Name: "Summary"},
		jira.Field{ID: "customfield_10010", Name: "Investment Category", Custom: true},
	)
	srv.SetVersions("PROJ", jira.Version{ID: "100", Name: "1.0", Released: true})
	srv.SetEditMeta("PROJ-1", jira.EditMeta{Fields: map[string]jira.EditMetaField{
		"customfield_10010": {Key: "customfield_10010", Name: "Investment category"},
	}})

	api := jira.NewAPI(srv.Client())
	ctx := context.Background()

	projects, err := api.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []jira.Project{{ID: "1", Key: "PROJ", Name: "Project"}}, projects)

	fields, err := api.ListFields(ctx)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.False(t, fields[0].IsCustom())
	assert.True(t, fields[1].IsCustom())

	versions, err := api.ListVersions(ctx, "PROJ")
	require.NoError(t, err)
	assert.Equal(t, "1.0", versions[0].Name)
	assert.True(t, versions[0].Released)

	meta, err := api.EditMeta(ctx, "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "Investment category", meta.Fields["customfield_10010"].Name)

	_, err = api.ListVersions(ctx, "NOPE")
	var apiErr *jira.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "list versions of NOPE")
}

func TestAPISearchAllAgainstServer(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	var issues []jira.Issue
	for _, key := range []string{"PROJ-1", "PROJ-2", "PROJ-3", "PROJ-4", "PROJ-5"} {
		issues = append(issues, jiratest.MakeIssue(key, "Bug", "1.0"))
	}
	issues = append(issues, jiratest.MakeIssue("OTHER-1", "Bug", "1.0"))
	srv.SetIssues(issues...)

	api := jira.NewAPI(srv.Client())
	got, err := api.SearchAll(context.Background(), jira.SearchRequest{
		JQL:        `project = "PROJ" AND fixVersion = "1.0"`,
		MaxResults: 2,
		Fields:     []string{"issuetype"},
	}, jira.PageOptions{})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "PROJ-5", got[4].Key)

	reqs := srv.SearchRequests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "", reqs[0].NextPageToken)
	assert.Equal(t, "page-1", reqs[1].NextPageToken)
	assert.Equal(t, "page-2", reqs[2].NextPageToken)
	assert.Equal(t, []string{"issuetype"}, reqs[0].Fields)
}

func TestJQLString(t *testing.T) {
	assert.Equal(t, `"PROJ"`, jira.JQLString("PROJ"))
	assert.Equal(t, `"say \"hi\""`, jira.JQLString(`say "hi"`))
}

func TestConnect(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetProjects(jira.Project{Key: "A", Name: "Alpha"}, jira.Project{Key: "B", Name: "Beta"})

	conn, err := jira.Connect(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Len(t, conn.Projects, 2)

	srv.RejectAuth()
	_, err = jira.Connect(context.Background(), srv.Client())
	require.Error(t, err)
	assert.True(t, jira.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestConnectTransportFailure(t *testing.T) {
	srv := jiratest.NewServer()
	srv.Close()

	_, err := jira.Connect(context.Background(), jira.NewClient(srv.URL, "u", "t"))
	require.Error(t, err)
	assert.False(t, jira.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "failed to connect to Jira")
}
