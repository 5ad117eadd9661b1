// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Workflow run conclusion reported by GitHub Actions for a failed run.
const ConclusionFailure = "failure"

// Pull request states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// ReviewDecision is the aggregate outcome of the reviews on a pull request.
type ReviewDecision string

const (
	ReviewApproved         ReviewDecision = "APPROVED"
	ReviewChangesRequested ReviewDecision = "CHANGES_REQUESTED"
	ReviewRequired         ReviewDecision = "REVIEW_REQUIRED"
)

// Ptr returns a pointer to d, for populating nullable decision fields.
func (d ReviewDecision) Ptr() *ReviewDecision {
	return &d
}

// RepoInfo describes a repository owned by the authenticated user.
type RepoInfo struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Owner         string    `json:"owner"`
	DefaultBranch string    `json:"default_branch"`
	HasIssues     bool      `json:"has_issues"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WorkflowRun is a single GitHub Actions execution.
type WorkflowRun struct {
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion *string   `json:"conclusion"` // nil while the run is in progress
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	HeadBranch string    `json:"head_branch"`
}

// Failed reports whether the run concluded with a failure.
func (r WorkflowRun) Failed() bool {
	return r.Conclusion != nil && *r.Conclusion == ConclusionFailure
}

// PullRequest is a pull request touched within the lookback window.
type PullRequest struct {
	Number         int             `json:"number"`
	Title          string          `json:"title"`
	State          string          `json:"state"`
	Author         string          `json:"author"`
	URL            string          `json:"url"`
	UpdatedAt      time.Time       `json:"updated_at"`
	IsDraft        bool            `json:"is_draft"`
	ReviewDecision *ReviewDecision `json:"review_decision"`
	RepoFullName   string          `json:"repo_full_name,omitempty"`
}

// Approved reports whether the pull request carries an explicit approval.
func (p PullRequest) Approved() bool {
	return p.ReviewDecision != nil && *p.ReviewDecision == ReviewApproved
}

// Review is a single review submitted on a pull request.
type Review struct {
	Author      string    `json:"author"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Issue is an issue updated within the lookback window.
// Pull requests returned by the issues endpoint never become an Issue.
type Issue struct {
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	State        string    `json:"state"`
	Author       string    `json:"author"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Labels       []string  `json:"labels"`
	RepoFullName string    `json:"repo_full_name,omitempty"`
}

// RepoActivity aggregates everything collected for one repository in a run.
type RepoActivity struct {
	RepoName     string        `json:"repo_name"`
	FullName     string        `json:"full_name"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	PullRequests []PullRequest `json:"pull_requests"`
	Issues       []Issue       `json:"issues"`
}

// Empty reports whether nothing was observed for the repository.
func (a RepoActivity) Empty() bool {
	return len(a.WorkflowRuns) == 0 && len(a.PullRequests) == 0 && len(a.Issues) == 0
}

// Events is the total number of runs, pull requests and issues.
func (a RepoActivity) Events() int {
	return len(a.WorkflowRuns) + len(a.PullRequests) + len(a.Issues)
}
