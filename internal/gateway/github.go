// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/naka-gawa/github-digest/internal/domain"
)

const perPage = 100

// Fetcher defines the behavior of a gateway for reading activity from GitHub.
type Fetcher interface {
	ListOwnedRepos(ctx context.Context) ([]domain.RepoInfo, error)
	// ListWorkflowRuns returns runs created at or after createdSince, filtered by GitHub.
	ListWorkflowRuns(ctx context.Context, fullName string, createdSince time.Time) ([]domain.WorkflowRun, error)
	// ListPullRequests returns pull requests ordered by most recently updated.
	// GitHub cannot filter them by update time, so paging merely stops once a
	// page ends before stopBefore; callers must filter the result themselves.
	ListPullRequests(ctx context.Context, fullName string, stopBefore time.Time) ([]domain.PullRequest, error)
	ListReviews(ctx context.Context, fullName string, number int) ([]domain.Review, error)
	// ListIssues returns issues updated at or after updatedSince. Pull requests are excluded.
	ListIssues(ctx context.Context, fullName string, updatedSince time.Time) ([]domain.Issue, error)
	// FetchReviewDecision asks GraphQL for the decision GitHub computed itself.
	FetchReviewDecision(ctx context.Context, fullName string, number int) (*domain.ReviewDecision, error)
}

// Publisher defines the write operations needed to deliver a digest.
type Publisher interface {
	GetLabel(ctx context.Context, fullName, name string) error
	CreateLabel(ctx context.Context, fullName, name, color, description string) error
	CreateIssue(ctx context.Context, fullName, title, body string, labels []string) (string, error)
}

// GitHubGateway is the concrete implementation of the Fetcher and Publisher interfaces.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        zerolog.Logger
}

// reviewDecisionQuery reads the decision GitHub derives from branch protection and reviews.
type reviewDecisionQuery struct {
	Repository struct {
		PullRequest struct {
			ReviewDecision *githubv4.PullRequestReviewDecision
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger zerolog.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) ListOwnedRepos(ctx context.Context) ([]domain.RepoInfo, error) {
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Affiliation: "owner",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var repos []domain.RepoInfo
	for {
		page, resp, err := g.restClient.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list owned repositories: %w", err)
		}
		for _, r := range page {
			repos = append(repos, domain.RepoInfo{
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				Owner:         r.GetOwner().GetLogin(),
				DefaultBranch: r.GetDefaultBranch(),
				HasIssues:     r.GetHasIssues(),
				UpdatedAt:     r.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug().Int("page", opts.Page).Msg("fetching next page of repositories")
	}
	g.logger.Debug().Int("count", len(repos)).Msg("listed owned repositories")
	return repos, nil
}

func (g *GitHubGateway) ListWorkflowRuns(ctx context.Context, fullName string, createdSince time.Time) ([]domain.WorkflowRun, error) {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	opts := &github.ListWorkflowRunsOptions{
		Created:     ">=" + createdSince.UTC().Format(time.RFC3339),
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	runs := []domain.WorkflowRun{}
	for {
		result, resp, err := g.restClient.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflow runs for %s: %w", fullName, err)
		}
		for _, r := range result.WorkflowRuns {
			runs = append(runs, domain.WorkflowRun{
				Name:       r.GetName(),
				Status:     r.GetStatus(),
				Conclusion: r.Conclusion,
				URL:        r.GetHTMLURL(),
				CreatedAt:  r.GetCreatedAt().Time,
				HeadBranch: r.GetHeadBranch(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return runs, nil
}

func (g *GitHubGateway) ListPullRequests(ctx context.Context, fullName string, stopBefore time.Time) ([]domain.PullRequest, error) {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	prs := []domain.PullRequest{}
	for {
		page, resp, err := g.restClient.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s: %w", fullName, err)
		}
		for _, pr := range page {
			prs = append(prs, domain.PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				State:     pr.GetState(),
				Author:    pr.GetUser().GetLogin(),
				URL:       pr.GetHTMLURL(),
				UpdatedAt: pr.GetUpdatedAt().Time,
				IsDraft:   pr.GetDraft(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		if n := len(page); n > 0 && page[n-1].GetUpdatedAt().Time.Before(stopBefore) {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

func (g *GitHubGateway) ListReviews(ctx context.Context, fullName string, number int) ([]domain.Review, error) {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	opts := &github.ListOptions{PerPage: perPage}
	var reviews []domain.Review
	for {
		page, resp, err := g.restClient.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews for %s#%d: %w", fullName, number, err)
		}
		for _, r := range page {
			reviews = append(reviews, domain.Review{
				Author:      r.GetUser().GetLogin(),
				State:       r.GetState(),
				SubmittedAt: r.GetSubmittedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return reviews, nil
}

func (g *GitHubGateway) ListIssues(ctx context.Context, fullName string, updatedSince time.Time) ([]domain.Issue, error) {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Since:       updatedSince,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	issues := []domain.Issue{}
	for {
		page, resp, err := g.restClient.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues for %s: %w", fullName, err)
		}
		for _, is := range page {
			// The issues endpoint also returns pull requests.
			if is.IsPullRequest() {
				continue
			}
			labels := make([]string, 0, len(is.Labels))
			for _, l := range is.Labels {
				labels = append(labels, l.GetName())
			}
			issues = append(issues, domain.Issue{
				Number:    is.GetNumber(),
				Title:     is.GetTitle(),
				State:     is.GetState(),
				Author:    is.GetUser().GetLogin(),
				URL:       is.GetHTMLURL(),
				CreatedAt: is.GetCreatedAt().Time,
				UpdatedAt: is.GetUpdatedAt().Time,
				Labels:    labels,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

// FetchReviewDecision returns nil when GitHub reports no decision for the pull request.
func (g *GitHubGateway) FetchReviewDecision(ctx context.Context, fullName string, number int) (*domain.ReviewDecision, error) {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"number": githubv4.Int(number),
	}
	var q reviewDecisionQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for review decision: %w", err)
	}
	d := q.Repository.PullRequest.ReviewDecision
	if d == nil || *d == "" {
		return nil, nil
	}
	return domain.ReviewDecision(*d).Ptr(), nil
}

func (g *GitHubGateway) GetLabel(ctx context.Context, fullName, name string) error {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return err
	}
	if _, _, err := g.restClient.Issues.GetLabel(ctx, owner, repo, name); err != nil {
		return fmt.Errorf("failed to get label %q on %s: %w", name, fullName, mapError(err))
	}
	return nil
}

func (g *GitHubGateway) CreateLabel(ctx context.Context, fullName, name, color, description string) error {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return err
	}
	label := &github.Label{
		Name:        github.String(name),
		Color:       github.String(color),
		Description: github.String(description),
	}
	if _, _, err := g.restClient.Issues.CreateLabel(ctx, owner, repo, label); err != nil {
		return fmt.Errorf("failed to create label %q on %s: %w", name, fullName, mapError(err))
	}
	g.logger.Info().Str("repo", fullName).Str("label", name).Msg("created label")
	return nil
}

// CreateIssue opens an issue and returns its HTML URL.
func (g *GitHubGateway) CreateIssue(ctx context.Context, fullName, title, body string, labels []string) (string, error) {
	owner, repo, err := domain.SplitFullName(fullName)
	if err != nil {
		return "", err
	}
	req := &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
	}
	issue, _, err := g.restClient.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return "", fmt.Errorf("failed to create issue on %s: %w", fullName, mapError(err))
	}
	return issue.GetHTMLURL(), nil
}

// mapError translates GitHub 404 responses into domain.ErrNotFound.
func mapError(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, ghErr.Message)
	}
	return err
}
