// Package releases finds project releases made up only of defect issues and
// locates the Investment Category field used to classify them.
package releases

import (
	"sort"
	"strings"

	"github.com/jiratool/jiratool/internal/jira"
)

// Reasons reported by Qualify.
const (
	ReasonOnlyBugs   = "Only bugs"
	ReasonNoIssues   = "No issues found"
	reasonOtherTypes = "Contains other issue types: "
)

// AllowedTypes are the issue type names a qualifying release may contain.
var AllowedTypes = map[string]bool{
	"Bug":          true,
	"Customer bug": true,
}

// Result is the qualification outcome for one release.
type Result struct {
	Release    string   `json:"release"`
	Qualifies  bool     `json:"qualifies"`
	Reason     string   `json:"reason"`
	IssueTypes []string `json:"issueTypes"`
	IssueCount int      `json:"issueCount"`
}

// Qualify decides whether a release contains only allowed issue types.
// Issues with no type name are counted but contribute no type, so a release
// whose issues are all untyped reports an empty list of other types.
func Qualify(release string, issues []jira.Issue) Result {
	seen := make(map[string]bool)
	for _, issue := range issues {
		if name := issue.Fields.TypeName(); name != "" {
			seen[name] = true
		}
	}
	types := sortedKeys(seen)

	res := Result{
		Release:    release,
		IssueTypes: types,
		IssueCount: len(issues),
	}
	switch {
	case len(issues) == 0:
		res.Reason = ReasonNoIssues
	case QualifiesTypes(types):
		res.Qualifies = true
		res.Reason = ReasonOnlyBugs
	default:
		res.Reason = reasonOtherTypes + strings.Join(disallowed(types), ", ")
	}
	return res
}

// QualifiesTypes reports whether types is non-empty and every entry is an
// allowed type.
func QualifiesTypes(types []string) bool {
	if len(types) == 0 {
		return false
	}
	return len(disallowed(types)) == 0
}

// disallowed returns the entries of types outside AllowedTypes, in order.
func disallowed(types []string) []string {
	var out []string
	for _, t := range types {
		if !AllowedTypes[t] {
			out = append(out, t)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
