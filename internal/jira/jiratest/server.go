// Package jiratest provides an in-process fake Jira REST v3 server for tests.
package jiratest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jiratool/jiratool/internal/jira"
)

// Credentials accepted by the fake server.
const (
	Email = "user@example.com"
	Token = "test-token"
)

// RecordedRequest stores information about a request made to the server.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// Server is a fake Jira instance backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest

	projects []jira.Project
	fields   []jira.Field
	versions map[string][]jira.Version
	editMeta map[string]jira.EditMeta
	issues   []jira.Issue

	// pages, when set, are served in order by the search endpoint regardless
	// of the query. The token of the request selects the page.
	pages []jira.SearchResponse

	failures map[string]int // path -> status code
	authFail bool
}

// NewServer starts a fake Jira server. Close it when done.
func NewServer() *Server {
	s := &Server{
		versions: make(map[string][]jira.Version),
		editMeta: make(map[string]jira.EditMeta),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Client returns a jira.Client pointed at the server with valid credentials.
func (s *Server) Client() *jira.Client {
	return jira.NewClient(s.URL, Email, Token)
}

// SetProjects configures GET /project.
func (s *Server) SetProjects(projects ...jira.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
}

// SetFields configures GET /field.
func (s *Server) SetFields(fields ...jira.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = fields
}

// SetVersions configures GET /project/{key}/versions.
func (s *Server) SetVersions(projectKey string, versions ...jira.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[projectKey] = versions
}

// SetEditMeta configures GET /issue/{key}/editmeta.
func (s *Server) SetEditMeta(issueKey string, meta jira.EditMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMeta[issueKey] = meta
}

// SetIssues configures the issues the search endpoint filters and pages.
func (s *Server) SetIssues(issues ...jira.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = issues
}

// SetSearchPages makes the search endpoint replay pages verbatim. The first
// request gets pages[0]; a request carrying token "page-N" gets pages[N].
func (s *Server) SetSearchPages(pages ...jira.SearchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = pages
}

// FailPath makes requests whose path ends with suffix fail with status.
func (s *Server) FailPath(suffix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[suffix] = status
}

// RejectAuth makes every request fail with 401.
func (s *Server) RejectAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFail = true
}

// Requests returns a copy of all recorded requests.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// SearchRequests returns the decoded bodies of all search requests.
func (s *Server) SearchRequests() []jira.SearchRequest {
	var out []jira.SearchRequest
	for _, r := range s.Requests() {
		if strings.HasSuffix(r.Path, "/search/jql") {
			var req jira.SearchRequest
			_ = json.Unmarshal(r.Body, &req)
			out = append(out, req)
		}
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
	})
	authFail := s.authFail
	status := 0
	for suffix, code := range s.failures {
		if strings.HasSuffix(r.URL.Path, suffix) {
			status = code
		}
	}
	s.mu.Unlock()

	if authFail || r.Header.Get("Authorization") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"errorMessages": []string{"You are not authenticated."},
		})
		return
	}
	if status != 0 {
		writeJSON(w, status, map[string]interface{}{
			"errorMessages": []string{fmt.Sprintf("simulated failure for %s", r.URL.Path)},
		})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/rest/api/3/")
	switch {
	case r.Method == http.MethodGet && path == "project":
		s.mu.Lock()
		projects := s.projects
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, nonNil(projects))
	case r.Method == http.MethodGet && path == "field":
		s.mu.Lock()
		fields := s.fields
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, nonNil(fields))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "project/") && strings.HasSuffix(path, "/versions"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "project/"), "/versions")
		s.mu.Lock()
		versions, ok := s.versions[key]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"errorMessages": []string{fmt.Sprintf("No project could be found with key '%s'.", key)},
			})
			return
		}
		writeJSON(w, http.StatusOK, nonNil(versions))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "issue/") && strings.HasSuffix(path, "/editmeta"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "issue/"), "/editmeta")
		s.mu.Lock()
		meta, ok := s.editMeta[key]
		s.mu.Unlock()
		if !ok {
			meta = jira.EditMeta{Fields: map[string]jira.EditMetaField{}}
		}
		writeJSON(w, http.StatusOK, meta)
	case r.Method == http.MethodPost && path == "search/jql":
		s.handleSearch(w, body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"errorMessages": []string{"Not found"},
		})
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, body []byte) {
	var req jira.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errorMessages": []string{"Invalid request payload."},
		})
		return
	}

	s.mu.Lock()
	pages := s.pages
	issues := s.issues
	s.mu.Unlock()

	index, err := pageIndex(req.NextPageToken)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errorMessages": []string{err.Error()},
		})
		return
	}

	if pages != nil {
		if index >= len(pages) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"errorMessages": []string{"page token out of range"},
			})
			return
		}
		page := pages[index]
		page.Issues = nonNil(page.Issues)
		writeJSON(w, http.StatusOK, page)
		return
	}

	matched := filterIssues(issues, req.JQL)
	size := req.MaxResults
	if size <= 0 {
		size = 50
	}
	start := index * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	resp := jira.SearchResponse{Issues: nonNil(matched[start:end]), IsLast: end >= len(matched)}
	if !resp.IsLast {
		resp.NextPageToken = fmt.Sprintf("page-%d", index+1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func pageIndex(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(token, "page-"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return n, nil
}

var (
	fixVersionClause = regexp.MustCompile(`fixVersion = ("(?:[^"\\]|\\.)*")`)
	issueTypeClause  = regexp.MustCompile(`issuetype = (\w+)`)
	projectClause    = regexp.MustCompile(`project = ("(?:[^"\\]|\\.)*"|\w+)`)
)

// filterIssues understands the project, issuetype and fixVersion clauses jt
// generates; other clauses are ignored.
func filterIssues(issues []jira.Issue, jql string) []jira.Issue {
	var project, issueType, fixVersion string
	if m := projectClause.FindStringSubmatch(jql); m != nil {
		project = unquote(m[1])
	}
	if m := issueTypeClause.FindStringSubmatch(jql); m != nil {
		issueType = m[1]
	}
	hasFixVersion := false
	if m := fixVersionClause.FindStringSubmatch(jql); m != nil {
		fixVersion = unquote(m[1])
		hasFixVersion = true
	}

	var out []jira.Issue
	for _, issue := range issues {
		if project != "" && !strings.HasPrefix(issue.Key, project+"-") {
			continue
		}
		if issueType != "" && issue.Fields.TypeName() != issueType {
			continue
		}
		if hasFixVersion && !hasVersion(issue.Fields.FixVersions, fixVersion) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

func hasVersion(versions []jira.Version, name string) bool {
	for _, v := range versions {
		if v.Name == name {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Helper functions for creating test data

// MakeIssue creates an issue with a key, type and optional fix versions.
func MakeIssue(key, issueType string, fixVersions ...string) jira.Issue {
	issue := jira.Issue{
		ID:  "10" + key[strings.LastIndex(key, "-")+1:],
		Key: key,
		Fields: jira.Fields{
			Summary: "Summary of " + key,
		},
	}
	if issueType != "" {
		issue.Fields.IssueType = &jira.IssueType{Name: issueType}
	}
	for _, v := range fixVersions {
		issue.Fields.FixVersions = append(issue.Fields.FixVersions, jira.Version{Name: v})
	}
	return issue
}
