package jira

import (
	"context"
	"fmt"
	"net/url"
)

// REST v3 paths.
const (
	pathProjects = "rest/api/3/project"
	pathFields   = "rest/api/3/field"
	pathSearch   = "rest/api/3/search/jql"
)

// API exposes typed read operations on top of a Gateway.
type API struct {
	gw Gateway
}

// NewAPI wraps gw.
func NewAPI(gw Gateway) *API {
	return &API{gw: gw}
}

// ListProjects returns every project visible to the authenticated account.
func (a *API) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := a.gw.Get(ctx, pathProjects, nil, &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListFields returns every system and custom field.
func (a *API) ListFields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := a.gw.Get(ctx, pathFields, nil, &fields); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	return fields, nil
}

// ListVersions returns the releases of a project in Jira's listing order.
func (a *API) ListVersions(ctx context.Context, projectKey string) ([]Version, error) {
	var versions []Version
	path := fmt.Sprintf("rest/api/3/project/%s/versions", url.PathEscape(projectKey))
	if err := a.gw.Get(ctx, path, nil, &versions); err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", projectKey, err)
	}
	return versions, nil
}

// Search fetches a single page of a JQL search.
func (a *API) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := a.gw.Post(ctx, pathSearch, req, &resp); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	return &resp, nil
}

// EditMeta returns the fields editable on an issue.
func (a *API) EditMeta(ctx context.Context, issueKey string) (*EditMeta, error) {
	var meta EditMeta
	path := fmt.Sprintf("rest/api/3/issue/%s/editmeta", url.PathEscape(issueKey))
	if err := a.gw.Get(ctx, path, nil, &meta); err != nil {
		return nil, fmt.Errorf("edit metadata of %s: %w", issueKey, err)
	}
	return &meta, nil
}

// SearchAll follows continuation tokens until the last page. See SearchAll.
func (a *API) SearchAll(ctx context.Context, req SearchRequest, opts PageOptions) ([]Issue, error) {
	return SearchAll(ctx, a, req, opts)
}

// JQLString quotes s for use as a JQL string literal.
func JQLString(s string) string {
	return fmt.Sprintf("%q", s)
}
