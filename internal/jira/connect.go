package jira

import (
	"context"
	"fmt"
)

// UnauthorizedHint lists the usual causes of a 401 from Jira Cloud.
const UnauthorizedHint = `This usually means:
  1. Your API token is incorrect or expired
  2. Your email doesn't match the Jira account
  3. Your API token doesn't have the right scopes

Please verify:
  - Your .env file exists and has the correct values
  - Your API token is valid (generate a new one at https://id.atlassian.com/manage-profile/security/api-tokens)
  - Your JIRA_EMAIL matches your Atlassian account email
  - Your API token has 'Read' scope for Jira`

// Connection is a verified session with a Jira instance.
type Connection struct {
	*API
	// Projects is the project listing fetched while verifying access.
	Projects []Project
}

// Connect verifies that gw can reach and authenticate against Jira by
// listing projects. Errors still satisfy IsUnauthorized after wrapping.
func Connect(ctx context.Context, gw Gateway) (*Connection, error) {
	api := NewAPI(gw)
	projects, err := api.ListProjects(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to Jira: %w", err)
	}
	return &Connection{API: api, Projects: projects}, nil
}
