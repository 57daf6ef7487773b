package releases_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/jira/jiratest"
	"github.com/jiratool/jiratool/internal/releases"
)

func resolve(t *testing.T, srv *jiratest.Server) (string, error) {
	t.Helper()
	return releases.ResolveInvestmentCategoryField(context.Background(), jira.NewAPI(srv.Client()), "PROJ")
}

func TestResolveExactMatchWins(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetFields(
		jira.Field{ID: "customfield_1", Name: "investment category"},
		jira.Field{ID: "customfield_2", Name: "Investment Category", Custom: true},
	)

	id, err := resolve(t, srv)
	require.NoError(t, err)
	assert.Equal(t, "customfield_2", id)
	assert.Empty(t, srv.SearchRequests())
}

func TestResolveCaseInsensitive(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetFields(
		jira.Field{ID: "summary", Name: "Summary"},
		jira.Field{ID: "customfield_7", Name: "INVESTMENT category"},
	)

	id, err := resolve(t, srv)
	require.NoError(t, err)
	assert.Equal(t, "customfield_7", id)
}

func TestResolveFromEditMeta(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetFields(jira.Field{ID: "summary", Name: "Summary"})
	srv.SetIssues(jiratest.MakeIssue("PROJ-9", "Task"))
	srv.SetEditMeta("PROJ-9", jira.EditMeta{Fields: map[string]jira.EditMetaField{
		"summary":        {Name: "Summary"},
		"customfield_30": {Name: "Category of Investment"},
		"customfield_20": {Name: "Product Investment Category"},
		"customfield_10": {Name: "Category"},
	}})

	id, err := resolve(t, srv)
	require.NoError(t, err)
	assert.Equal(t, "customfield_20", id)

	reqs := srv.SearchRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `project = "PROJ"`, reqs[0].JQL)
	assert.Equal(t, 1, reqs[0].MaxResults)
}

func TestResolveNotFound(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.SetFields(jira.Field{ID: "summary", Name: "Summary"})

	id, err := resolve(t, srv)
	assert.Empty(t, id)
	assert.True(t, errors.Is(err, releases.ErrFieldNotFound))
}

func TestResolveJoinsTransportErrors(t *testing.T) {
	srv := jiratest.NewServer()
	defer srv.Close()
	srv.FailPath("/field", http.StatusInternalServerError)
	srv.FailPath("/search/jql", http.StatusBadRequest)

	_, err := resolve(t, srv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, releases.ErrFieldNotFound))
	var apiErr *jira.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
