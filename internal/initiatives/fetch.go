// Package initiatives exports the open Initiative issues of a project to a
// JSON (or YAML) file.
package initiatives

import (
	"context"
	"fmt"

	"github.com/jiratool/jiratool/internal/jira"
)

// PageSize is the number of issues requested per search page.
const PageSize = jira.MaxPageSize

// Fields are the issue fields an export needs.
var Fields = []string{"summary", "description", "reporter", "issuelinks", "fixVersions", "versions"}

// JQL selects the open initiatives of a project.
func JQL(projectKey string) string {
	return fmt.Sprintf("project = %s AND issuetype = Initiative AND status NOT IN (Done, Canceled)", jira.JQLString(projectKey))
}

// Fetch returns every open initiative of the project in search order,
// following page tokens. Any page failing fails the whole fetch.
func Fetch(ctx context.Context, s jira.Searcher, projectKey string, opts jira.PageOptions) ([]jira.Issue, error) {
	issues, err := jira.SearchAll(ctx, s, jira.SearchRequest{
		JQL:        JQL(projectKey),
		MaxResults: PageSize,
		Fields:     Fields,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("fetching initiatives: %w", err)
	}
	return issues, nil
}
