package jira

import (
	"context"
	"fmt"
)

// Searcher fetches one page of a JQL search.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// PageOptions customizes SearchAll.
type PageOptions struct {
	// OnPage is called after each page with its 1-based number and size.
	OnPage func(page, issues int)
	// OnWarning receives non-fatal pagination problems.
	OnWarning func(msg string)
}

// SearchAll repeatedly calls s.Search, passing the previous page's token,
// and returns the issues of every page in response order.
//
// The page size is clamped to MaxPageSize. Iteration stops when a page says
// isLast, even if it also carries a token. A page that is not last but has no
// token (or repeats an earlier one) also stops the loop and is reported
// through OnWarning as ErrPaginationInconsistent; the issues gathered so far
// are returned without error.
func SearchAll(ctx context.Context, s Searcher, req SearchRequest, opts PageOptions) ([]Issue, error) {
	if req.MaxResults <= 0 || req.MaxResults > MaxPageSize {
		req.MaxResults = MaxPageSize
	}
	req.NextPageToken = ""

	var all []Issue
	seen := make(map[string]bool)
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		resp, err := s.Search(ctx, req)
		if err != nil {
			return all, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, resp.Issues...)
		if opts.OnPage != nil {
			opts.OnPage(page, len(resp.Issues))
		}

		if resp.IsLast {
			return all, nil
		}

		token := resp.NextPageToken
		if token == "" || seen[token] {
			if opts.OnWarning != nil {
				opts.OnWarning(fmt.Sprintf("%v (stopped after page %d with %d issues)", ErrPaginationInconsistent, page, len(all)))
			}
			return all, nil
		}
		seen[token] = true
		req.NextPageToken = token
	}
}
