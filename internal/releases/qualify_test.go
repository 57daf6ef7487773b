package releases

import (
	"testing"

	"github.com/jiratool/jiratool/internal/jira"
)

func typed(names ...string) []jira.Issue {
	issues := make([]jira.Issue, len(names))
	for i, n := range names {
		if n != "" {
			issues[i].Fields.IssueType = &jira.IssueType{Name: n}
		}
	}
	return issues
}

func TestQualify(t *testing.T) {
	tests := []struct {
		name      string
		issues    []jira.Issue
		qualifies bool
		reason    string
		types     []string
	}{
		{"bug only", typed("Bug", "Bug"), true, ReasonOnlyBugs, []string{"Bug"}},
		{"both allowed types", typed("Customer bug", "Bug"), true, ReasonOnlyBugs, []string{"Bug", "Customer bug"}},
		{"mixed", typed("Bug", "Story"), false, "Contains other issue types: Story", []string{"Bug", "Story"}},
		{"several others sorted", typed("Task", "Bug", "Epic", "Task"), false, "Contains other issue types: Epic, Task", []string{"Bug", "Epic", "Task"}},
		{"case matters", typed("bug"), false, "Contains other issue types: bug", []string{"bug"}},
		{"no issues", nil, false, ReasonNoIssues, []string{}},
		{"untyped issues", typed("", ""), false, "Contains other issue types: ", []string{}},
		{"untyped ignored", typed("", "Bug"), true, ReasonOnlyBugs, []string{"Bug"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Qualify("1.0", tt.issues)
			if got.Qualifies != tt.qualifies {
				t.Errorf("Qualifies = %v, want %v", got.Qualifies, tt.qualifies)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
			if got.IssueCount != len(tt.issues) {
				t.Errorf("IssueCount = %d, want %d", got.IssueCount, len(tt.issues))
			}
			if len(got.IssueTypes) != len(tt.types) {
				t.Fatalf("IssueTypes = %v, want %v", got.IssueTypes, tt.types)
			}
			for i := range tt.types {
				if got.IssueTypes[i] != tt.types[i] {
					t.Errorf("IssueTypes = %v, want %v", got.IssueTypes, tt.types)
				}
			}
			if got.Release != "1.0" {
				t.Errorf("Release = %q", got.Release)
			}
		})
	}
}

func TestQualifiesTypes(t *testing.T) {
	tests := []struct {
		types []string
		want  bool
	}{
		{nil, false},
		{[]string{}, false},
		{[]string{"Bug"}, true},
		{[]string{"Customer bug"}, true},
		{[]string{"Bug", "Customer bug"}, true},
		{[]string{"Bug", "Story"}, false},
		{[]string{"Story"}, false},
	}
	for _, tt := range tests {
		if got := QualifiesTypes(tt.types); got != tt.want {
			t.Errorf("QualifiesTypes(%v) = %v, want %v", tt.types, got, tt.want)
		}
	}
}

func TestFormatResult(t *testing.T) {
	q := Result{Release: "1.2", Qualifies: true, IssueTypes: []string{"Bug", "Customer bug"}, IssueCount: 3}
	if got := FormatResult(q); got != "1.2: 3 issues - [Bug, Customer bug]" {
		t.Errorf("FormatResult = %q", got)
	}
	n := Result{Release: "1.3", Reason: "Contains other issue types: Story"}
	if got := FormatResult(n); got != "1.3: Contains other issue types: Story" {
		t.Errorf("FormatResult = %q", got)
	}
}
