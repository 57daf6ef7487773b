package releases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/timeparsing"
)

// IssueCap is the maxResults of each per-release query. Releases with more
// issues are judged on the first IssueCap returned.
const IssueCap = 1000

// Source is the subset of the Jira API the scanner needs.
type Source interface {
	ListVersions(ctx context.Context, projectKey string) ([]jira.Version, error)
	Search(ctx context.Context, req jira.SearchRequest) (*jira.SearchResponse, error)
}

// Report summarizes a scan of one project.
type Report struct {
	Project string `json:"project"`
	// Scanned counts releases that were evaluated (named releases only).
	Scanned int `json:"scanned"`
	// Skipped counts releases left out by the release date cutoff.
	Skipped    int      `json:"skipped,omitempty"`
	Qualifying []Result `json:"qualifying"`
}

// Scanner evaluates every release of a project with Qualify.
type Scanner struct {
	Source Source

	// Workers bounds concurrent per-release queries. Values below 2 query
	// each release inline and qualify it before the next query. Results are
	// reported in listing order either way.
	Workers int
	// ReleasedSince, when non-zero, skips releases without a release date
	// or released before that day.
	ReleasedSince time.Time

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
	// OnResult receives every evaluated release, qualifying or not, in
	// listing order.
	OnResult func(Result)
}

// NewScanner creates a scanner backed by src.
func NewScanner(src Source) *Scanner {
	return &Scanner{Source: src}
}

// Scan lists the project's releases and qualifies each in listing order.
// Only a failure to list releases is returned as an error; a failed
// per-release query is reported as a warning and the release is evaluated
// as having no issues.
func (s *Scanner) Scan(ctx context.Context, projectKey string) (*Report, error) {
	report := &Report{Project: projectKey, Qualifying: []Result{}}

	s.msg("Analyzing releases in project %s...", projectKey)
	versions, err := s.Source.ListVersions(ctx, projectKey)
	if err != nil {
		return report, fmt.Errorf("fetching releases: %w", err)
	}
	if len(versions) == 0 {
		s.warn("No releases found for project %s", projectKey)
		return report, nil
	}
	s.msg("Found %d releases in project %s", len(versions), projectKey)

	selected := s.selectReleases(versions)
	if !s.ReleasedSince.IsZero() {
		report.Skipped = countNamed(versions) - len(selected)
		s.msg("%d release(s) released on or after %s", len(selected), s.ReleasedSince.Format("2006-01-02"))
	}

	next := func(ctx context.Context, i int) ([]jira.Issue, error) {
		return s.releaseIssues(ctx, projectKey, selected[i].Name)
	}
	if s.Workers > 1 {
		fetchCtx, cancel := context.WithCancel(ctx)
		pool := s.fetch(fetchCtx, projectKey, selected)
		defer pool.wait()
		defer cancel()
		next = pool.result
	}

	for i, v := range selected {
		issues, err := next(ctx, i)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		if err != nil {
			s.warn("Error fetching issues for release %s: %v", v.Name, err)
			issues = nil
		}

		res := Qualify(v.Name, issues)
		report.Scanned++
		if res.Qualifies {
			report.Qualifying = append(report.Qualifying, res)
		}
		if s.OnResult != nil {
			s.OnResult(res)
		}
	}
	return report, nil
}

// selectReleases drops unnamed releases and applies the release date
// cutoff.
func (s *Scanner) selectReleases(versions []jira.Version) []jira.Version {
	var cutoff time.Time
	if !s.ReleasedSince.IsZero() {
		cutoff = timeparsing.StartOfDay(s.ReleasedSince)
	}
	out := make([]jira.Version, 0, len(versions))
	for _, v := range versions {
		if v.Name == "" {
			continue
		}
		if !cutoff.IsZero() {
			released, err := time.ParseInLocation("2006-01-02", v.ReleaseDate, cutoff.Location())
			if err != nil || released.Before(cutoff) {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

func countNamed(versions []jira.Version) int {
	n := 0
	for _, v := range versions {
		if v.Name != "" {
			n++
		}
	}
	return n
}

type fetchSlot struct {
	issues []jira.Issue
	err    error
	done   chan struct{}
}

// fetchPool runs per-release queries on a bounded errgroup while results
// are consumed in order.
type fetchPool struct {
	g     errgroup.Group
	slots []fetchSlot
	fed   chan struct{}
}

func (s *Scanner) fetch(ctx context.Context, projectKey string, versions []jira.Version) *fetchPool {
	p := &fetchPool{slots: make([]fetchSlot, len(versions)), fed: make(chan struct{})}
	p.g.SetLimit(s.Workers)
	for i := range p.slots {
		p.slots[i].done = make(chan struct{})
	}

	go func() {
		defer close(p.fed)
		for i, v := range versions {
			if ctx.Err() != nil {
				return
			}
			slot := &p.slots[i]
			p.g.Go(func() error {
				defer close(slot.done)
				slot.issues, slot.err = s.releaseIssues(ctx, projectKey, v.Name)
				return nil
			})
		}
	}()
	return p
}

// result blocks until release i has been fetched or ctx ends.
func (p *fetchPool) result(ctx context.Context, i int) ([]jira.Issue, error) {
	select {
	case <-p.slots[i].done:
		return p.slots[i].issues, p.slots[i].err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *fetchPool) wait() {
	<-p.fed
	_ = p.g.Wait()
}

func (s *Scanner) releaseIssues(ctx context.Context, projectKey, release string) ([]jira.Issue, error) {
	resp, err := s.Source.Search(ctx, jira.SearchRequest{
		JQL:        ReleaseJQL(projectKey, release),
		MaxResults: IssueCap,
		Fields:     []string{"issuetype"},
	})
	if err != nil {
		return nil, err
	}
	return resp.Issues, nil
}

// ReleaseJQL selects the issues of a project whose fix version is release.
func ReleaseJQL(projectKey, release string) string {
	return fmt.Sprintf("project = %s AND fixVersion = %s", jira.JQLString(projectKey), jira.JQLString(release))
}

// FormatResult renders a result as a one-line status, e.g.
// "1.2: 3 issues - [Bug, Customer bug]" or "1.3: Contains other issue types: Story".
func FormatResult(r Result) string {
	if r.Qualifies {
		return fmt.Sprintf("%s: %d issues - [%s]", r.Release, r.IssueCount, strings.Join(r.IssueTypes, ", "))
	}
	return fmt.Sprintf("%s: %s", r.Release, r.Reason)
}

func (s *Scanner) msg(format string, args ...interface{}) {
	if s.OnMessage != nil {
		s.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (s *Scanner) warn(format string, args ...interface{}) {
	if s.OnWarning != nil {
		s.OnWarning(fmt.Sprintf(format, args...))
	}
}
