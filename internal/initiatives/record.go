package initiatives

import (
	"github.com/jiratool/jiratool/internal/jira"
)

// UnknownRequester is used when the reporter has neither a display name nor
// an email address.
const UnknownRequester = "Unknown"

// Record is one exported initiative.
type Record struct {
	IssueKey          string        `json:"issueKey" yaml:"issueKey" toml:"issueKey"`
	Description       string        `json:"description" yaml:"description" toml:"description"`
	Requester         string        `json:"requester" yaml:"requester" toml:"requester"`
	LinkedIssuesCount int           `json:"linkedIssuesCount" yaml:"linkedIssuesCount" toml:"linkedIssuesCount"`
	LinkedIssues      []LinkedIssue `json:"linkedIssues" yaml:"linkedIssues" toml:"linkedIssues"`
	FixVersions       []string      `json:"fixVersions" yaml:"fixVersions" toml:"fixVersions"`
	AffectedVersions  []string      `json:"affectedVersions" yaml:"affectedVersions" toml:"affectedVersions"`
}

// LinkedIssue is the issue on the other side of an issue link.
type LinkedIssue struct {
	Key       string `json:"key" yaml:"key" toml:"key"`
	Summary   string `json:"summary" yaml:"summary" toml:"summary"`
	IssueType string `json:"issueType" yaml:"issueType" toml:"issueType"`
}

// FormatRecord projects an initiative issue into an export record.
//
// LinkedIssuesCount is the raw number of links; links that reference
// neither an inward nor an outward issue are left out of LinkedIssues, so
// the two may differ. Lists are never nil.
func FormatRecord(issue jira.Issue) Record {
	f := issue.Fields
	rec := Record{
		IssueKey:          issue.Key,
		Description:       jira.DescriptionText(f.Description),
		Requester:         Requester(f.Reporter),
		LinkedIssuesCount: len(f.IssueLinks),
		LinkedIssues:      []LinkedIssue{},
		FixVersions:       versionNames(f.FixVersions),
		AffectedVersions:  versionNames(f.Versions),
	}
	for _, link := range f.IssueLinks {
		other := link.InwardIssue
		if other == nil {
			other = link.OutwardIssue
		}
		if other == nil {
			continue
		}
		li := LinkedIssue{Key: other.Key, Summary: other.Fields.Summary}
		if other.Fields.IssueType != nil {
			li.IssueType = other.Fields.IssueType.Name
		}
		rec.LinkedIssues = append(rec.LinkedIssues, li)
	}
	return rec
}

// FormatRecords formats issues in order.
func FormatRecords(issues []jira.Issue) []Record {
	records := make([]Record, 0, len(issues))
	for _, issue := range issues {
		records = append(records, FormatRecord(issue))
	}
	return records
}

// Requester returns the reporter's display name, else email, else "Unknown".
func Requester(u *jira.User) string {
	switch {
	case u == nil:
		return UnknownRequester
	case u.DisplayName != "":
		return u.DisplayName
	case u.EmailAddress != "":
		return u.EmailAddress
	default:
		return UnknownRequester
	}
}

func versionNames(versions []jira.Version) []string {
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		names = append(names, v.Name)
	}
	return names
}
