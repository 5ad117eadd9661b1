// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/naka-gawa/github-digest/internal/config"
	"github.com/naka-gawa/github-digest/internal/domain"
	"github.com/naka-gawa/github-digest/internal/gateway"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Collector is the use case for gathering per-repository activity.
// It orchestrates the fetching and isolates failures per repository.
type Collector struct {
	fetcher gateway.Fetcher
	logger  zerolog.Logger
	now     func() time.Time
}

// repoOutcome is the result of collecting one repository: either an
// activity record, a skip reason, or neither when nothing happened.
type repoOutcome struct {
	fullName string
	activity *domain.RepoActivity
	skipped  error
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, logger zerolog.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// ListOwnedRepos lists every repository owned by the authenticated user.
func (c *Collector) ListOwnedRepos(ctx context.Context) ([]domain.RepoInfo, error) {
	return c.fetcher.ListOwnedRepos(ctx)
}

// FetchWorkflowRuns returns the runs created at or after since.
func (c *Collector) FetchWorkflowRuns(ctx context.Context, repo domain.RepoInfo, since time.Time) ([]domain.WorkflowRun, error) {
	runs, err := c.fetcher.ListWorkflowRuns(ctx, repo.FullName, since)
	if err != nil {
		return nil, err
	}
	kept := filterWindow(workflowRunsWindow, runs, func(r domain.WorkflowRun) time.Time { return r.CreatedAt }, since)
	c.logWindow(workflowRunsWindow, repo.FullName, len(runs), len(kept))
	return kept, nil
}

// FetchRecentPullRequests returns the pull requests updated at or after since,
// each carrying a review decision when one could be determined.
func (c *Collector) FetchRecentPullRequests(ctx context.Context, repo domain.RepoInfo, since time.Time, reviewSource string) ([]domain.PullRequest, error) {
	prs, err := c.fetcher.ListPullRequests(ctx, repo.FullName, since)
	if err != nil {
		return nil, err
	}
	kept := filterWindow(pullRequestsWindow, prs, func(pr domain.PullRequest) time.Time { return pr.UpdatedAt }, since)
	c.logWindow(pullRequestsWindow, repo.FullName, len(prs), len(kept))
	for i := range kept {
		kept[i].ReviewDecision = c.reviewDecision(ctx, repo.FullName, kept[i].Number, reviewSource)
	}
	return kept, nil
}

// reviewDecision never fails: an unreadable decision is reported as nil.
func (c *Collector) reviewDecision(ctx context.Context, fullName string, number int, reviewSource string) *domain.ReviewDecision {
	if reviewSource == config.ReviewSourceGraphQL {
		decision, err := c.fetcher.FetchReviewDecision(ctx, fullName, number)
		if err != nil {
			c.logger.Warn().Str("repo", fullName).Int("pr", number).Err(err).Msg("could not fetch review decision")
			return nil
		}
		return decision
	}
	reviews, err := c.fetcher.ListReviews(ctx, fullName, number)
	if err != nil {
		c.logger.Warn().Str("repo", fullName).Int("pr", number).Err(err).Msg("could not fetch reviews")
		return nil
	}
	return DeriveReviewDecision(reviews)
}

// DeriveReviewDecision reduces reviews to the latest decisive outcome.
// Only APPROVED and CHANGES_REQUESTED reviews count; comments, pending and
// dismissed reviews do not change the decision. Without a decisive review
// the result is nil.
func DeriveReviewDecision(reviews []domain.Review) *domain.ReviewDecision {
	ordered := make([]domain.Review, len(reviews))
	copy(ordered, reviews)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	var decision *domain.ReviewDecision
	for _, r := range ordered {
		switch domain.ReviewDecision(r.State) {
		case domain.ReviewApproved:
			decision = domain.ReviewApproved.Ptr()
		case domain.ReviewChangesRequested:
			decision = domain.ReviewChangesRequested.Ptr()
		}
	}
	return decision
}

// FetchRecentIssues returns the issues updated at or after since.
// The gateway already drops pull requests listed by the issues endpoint.
func (c *Collector) FetchRecentIssues(ctx context.Context, repo domain.RepoInfo, since time.Time) ([]domain.Issue, error) {
	issues, err := c.fetcher.ListIssues(ctx, repo.FullName, since)
	if err != nil {
		return nil, err
	}
	kept := filterWindow(issuesWindow, issues, func(is domain.Issue) time.Time { return is.UpdatedAt }, since)
	c.logWindow(issuesWindow, repo.FullName, len(issues), len(kept))
	return kept, nil
}

func (c *Collector) logWindow(p windowPolicy, fullName string, listed, kept int) {
	c.logger.Debug().
		Str("repo", fullName).
		Str("resource", p.Resource).
		Str("field", p.Field).
		Bool("native", p.Native).
		Int("listed", listed).
		Int("kept", kept).
		Msg("applied lookback window")
}

// CollectAll gathers activity for every owned, non-excluded repository over
// the last cfg.LookbackHours. A repository whose fetches fail is logged and
// skipped; only a failure to list repositories is returned.
func (c *Collector) CollectAll(ctx context.Context, cfg config.Config) ([]domain.RepoActivity, error) {
	repos, err := c.ListOwnedRepos(ctx)
	if err != nil {
		return nil, err
	}
	since := c.now().Add(-time.Duration(cfg.LookbackHours) * time.Hour)

	targets := make([]domain.RepoInfo, 0, len(repos))
	for _, repo := range repos {
		if cfg.IsExcluded(repo.FullName) {
			c.logger.Debug().Str("repo", repo.FullName).Msg("repository excluded")
			continue
		}
		targets = append(targets, repo)
	}
	c.logger.Info().Int("repos", len(targets)).Int("excluded", len(repos)-len(targets)).Time("since", since).Msg("collecting activity")

	// Each worker writes only its own slot; errors never reach the group.
	outcomes := make([]repoOutcome, len(targets))
	eg, egCtx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		eg.SetLimit(cfg.Concurrency)
	}
	for i, repo := range targets {
		i, repo := i, repo
		eg.Go(func() error {
			outcomes[i] = c.collectRepo(egCtx, repo, since, cfg.ReviewSource)
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	activities := make([]domain.RepoActivity, 0, len(outcomes))
	skipped := 0
	for _, o := range outcomes {
		switch {
		case o.skipped != nil:
			skipped++
			c.logger.Warn().Str("repo", o.fullName).Err(o.skipped).Msgf("Skipping %s: %v", o.fullName, o.skipped)
		case o.activity != nil:
			activities = append(activities, *o.activity)
		}
	}
	c.logger.Info().Int("with_activity", len(activities)).Int("skipped", skipped).Msg("collection complete")
	return activities, nil
}

func (c *Collector) collectRepo(ctx context.Context, repo domain.RepoInfo, since time.Time, reviewSource string) repoOutcome {
	outcome := repoOutcome{fullName: repo.FullName}

	runs, err := c.FetchWorkflowRuns(ctx, repo, since)
	if err != nil {
		outcome.skipped = fmt.Errorf("workflow runs: %w", err)
		return outcome
	}
	prs, err := c.FetchRecentPullRequests(ctx, repo, since, reviewSource)
	if err != nil {
		outcome.skipped = fmt.Errorf("pull requests: %w", err)
		return outcome
	}
	issues, err := c.FetchRecentIssues(ctx, repo, since)
	if err != nil {
		outcome.skipped = fmt.Errorf("issues: %w", err)
		return outcome
	}

	activity := domain.RepoActivity{
		RepoName:     repo.Name,
		FullName:     repo.FullName,
		WorkflowRuns: runs,
		PullRequests: prs,
		Issues:       issues,
	}
	if activity.Empty() {
		c.logger.Debug().Str("repo", repo.FullName).Msg("no activity in window")
		return outcome
	}
	outcome.activity = &activity
	return outcome
}
