// Package jira provides the REST v3 client, wire types and read helpers used
// by jt to query a Jira Cloud (or Server/DC) instance.
package jira

import (
	"encoding/json"
	"strings"
	"time"
)

// API constants
const (
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 0
	DefaultRetryInterval = 500 * time.Millisecond
	MaxPageSize          = 100
)

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"` // e.g., "PROJ-123"
	Self   string `json:"self,omitempty"`
	Fields Fields `json:"fields"`
}

// Fields contains the issue field values jt requests. Only the fields named
// in a search's field projection are populated.
type Fields struct {
	Summary     string          `json:"summary,omitempty"`
	Description json.RawMessage `json:"description,omitempty"` // ADF document or plain string
	IssueType   *IssueType      `json:"issuetype,omitempty"`
	Status      *Status         `json:"status,omitempty"`
	Reporter    *User           `json:"reporter,omitempty"`
	IssueLinks  []IssueLink     `json:"issuelinks,omitempty"`
	FixVersions []Version       `json:"fixVersions,omitempty"`
	Versions    []Version       `json:"versions,omitempty"` // affected versions
}

// TypeName returns the issue type name, or "" when the type is missing.
func (f Fields) TypeName() string {
	if f.IssueType == nil {
		return ""
	}
	return f.IssueType.Name
}

// IssueType represents a Jira issue type.
type IssueType struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask,omitempty"`
}

// Status represents a Jira workflow status.
type Status struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User represents a Jira user.
type User struct {
	AccountID    string `json:"accountId,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// IssueLink represents a link between issues. Exactly one of InwardIssue and
// OutwardIssue is set on well-formed links.
type IssueLink struct {
	ID           string       `json:"id,omitempty"`
	Type         LinkType     `json:"type"`
	InwardIssue  *LinkedIssue `json:"inwardIssue,omitempty"`
	OutwardIssue *LinkedIssue `json:"outwardIssue,omitempty"`
}

// LinkType describes the type of link.
type LinkType struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Inward  string `json:"inward,omitempty"`
	Outward string `json:"outward,omitempty"`
}

// LinkedIssue is the abbreviated issue embedded in an issue link.
type LinkedIssue struct {
	ID     string            `json:"id,omitempty"`
	Key    string            `json:"key"`
	Fields LinkedIssueFields `json:"fields"`
}

// LinkedIssueFields are the fields Jira embeds for a linked issue.
type LinkedIssueFields struct {
	Summary   string     `json:"summary,omitempty"`
	Status    *Status    `json:"status,omitempty"`
	IssueType *IssueType `json:"issuetype,omitempty"`
}

// Project is an entry of the project listing.
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Field is an entry of the field listing.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom,omitempty"`
}

// IsCustom reports whether the field is a custom field.
func (f Field) IsCustom() bool {
	return f.Custom || strings.HasPrefix(f.ID, "customfield_")
}

// Version is a project release (fix version / affected version).
type Version struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Released    bool   `json:"released,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// SearchRequest is the body of POST /rest/api/3/search/jql.
type SearchRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults,omitempty"`
	Fields        []string `json:"fields,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// SearchResponse is one page of the token-paginated JQL search.
type SearchResponse struct {
	Issues        []Issue `json:"issues"`
	IsLast        bool    `json:"isLast"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// EditMeta is the response of GET /rest/api/3/issue/{key}/editmeta.
type EditMeta struct {
	Fields map[string]EditMetaField `json:"fields"`
}

// EditMetaField describes one field editable on an issue.
type EditMetaField struct {
	Key      string `json:"key,omitempty"`
	Name     string `json:"name"`
	Required bool   `json:"required,omitempty"`
}
