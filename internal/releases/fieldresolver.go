package releases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jiratool/jiratool/internal/debug"
	"github.com/jiratool/jiratool/internal/jira"
)

// InvestmentCategoryField is the display name of the field releases are
// classified with.
const InvestmentCategoryField = "Investment Category"

// SuggestedCategory is the value suggested for qualifying releases.
const SuggestedCategory = "Product Growth (Offense)"

// ErrFieldNotFound means no lookup strategy found the field. Transport errors
// met along the way are joined to it.
var ErrFieldNotFound = errors.New(`could not find "Investment Category" custom field`)

// FieldSource is the subset of the Jira API the resolver needs.
type FieldSource interface {
	ListFields(ctx context.Context) ([]jira.Field, error)
	Search(ctx context.Context, req jira.SearchRequest) (*jira.SearchResponse, error)
	EditMeta(ctx context.Context, issueKey string) (*jira.EditMeta, error)
}

// ResolveInvestmentCategoryField returns the id of the Investment Category
// field. It tries, in order: an exact name match in the field listing, a
// case-insensitive match, and finally the edit metadata of one issue of the
// project, looking for a name containing both "investment" and "category".
func ResolveInvestmentCategoryField(ctx context.Context, src FieldSource, projectKey string) (string, error) {
	var errs []error

	fields, err := src.ListFields(ctx)
	if err != nil {
		debug.Logf("releases: failed to retrieve fields: %v\n", err)
		errs = append(errs, err)
	}
	logFieldStats(fields)

	for _, f := range fields {
		if f.Name == InvestmentCategoryField {
			debug.Logf("releases: found %q field: %s\n", InvestmentCategoryField, f.ID)
			return f.ID, nil
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, InvestmentCategoryField) {
			debug.Logf("releases: found %q field (case mismatch): %s\n", f.Name, f.ID)
			return f.ID, nil
		}
	}
	logCandidates(fields)

	id, err := resolveFromIssue(ctx, src, projectKey)
	if err != nil {
		errs = append(errs, err)
	}
	if id != "" {
		return id, nil
	}
	return "", errors.Join(append([]error{ErrFieldNotFound}, errs...)...)
}

func resolveFromIssue(ctx context.Context, src FieldSource, projectKey string) (string, error) {
	debug.Logf("releases: looking for the field on a sample issue in %s\n", projectKey)
	resp, err := src.Search(ctx, jira.SearchRequest{
		JQL:        "project = " + jira.JQLString(projectKey),
		MaxResults: 1,
		Fields:     []string{"summary"},
	})
	if err != nil {
		return "", fmt.Errorf("searching sample issue: %w", err)
	}
	if len(resp.Issues) == 0 {
		debug.Logf("releases: no issues found in project %s\n", projectKey)
		return "", nil
	}

	key := resp.Issues[0].Key
	meta, err := src.EditMeta(ctx, key)
	if err != nil {
		return "", err
	}
	debug.Logf("releases: %s has %d editable fields\n", key, len(meta.Fields))

	ids := make([]string, 0, len(meta.Fields))
	for id := range meta.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		name := strings.ToLower(meta.Fields[id].Name)
		if strings.Contains(name, "investment") && strings.Contains(name, "category") {
			debug.Logf("releases: found via issue %s: %q = %s\n", key, meta.Fields[id].Name, id)
			return id, nil
		}
	}
	return "", nil
}

func logFieldStats(fields []jira.Field) {
	if !debug.Enabled() {
		return
	}
	custom := 0
	for _, f := range fields {
		if f.IsCustom() {
			custom++
		}
	}
	debug.Logf("releases: searching through %d fields (%d system, %d custom)\n", len(fields), len(fields)-custom, custom)
}

func logCandidates(fields []jira.Field) {
	if !debug.Enabled() {
		return
	}
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		if f.IsCustom() && (strings.Contains(name, "invest") || strings.Contains(name, "category")) {
			debug.Logf("releases: candidate field %s: %s\n", f.Name, f.ID)
		}
	}
}
