package domain

import "time"

// CIFailure marks a workflow whose latest run in the window failed.
type CIFailure struct {
	Repo         string    `json:"repo"`
	WorkflowName string    `json:"workflow_name"`
	URL          string    `json:"url"`
	FailedAt     time.Time `json:"failed_at"`
}

// ActivitySummary holds aggregate counts over all repositories with activity.
type ActivitySummary struct {
	ReposWithActivity int `json:"repos_with_activity"`
	TotalWorkflowRuns int `json:"total_workflow_runs"`
	TotalPRs          int `json:"total_prs"`
	TotalIssues       int `json:"total_issues"`
}

// ActivityStats describes how activity is spread across repositories.
type ActivityStats struct {
	MeanEventsPerRepo   float64 `json:"mean_events_per_repo"`
	MedianEventsPerRepo float64 `json:"median_events_per_repo"`
	BusiestRepo         string  `json:"busiest_repo,omitempty"`
	BusiestRepoEvents   int     `json:"busiest_repo_events"`
}

// DigestReport is the result of one run, ready to be rendered and published.
type DigestReport struct {
	CIFailures        []CIFailure     `json:"ci_failures"`
	PRsAwaitingReview []PullRequest   `json:"prs_awaiting_review"`
	NewIssues         []Issue         `json:"new_issues"`
	ActivitySummary   ActivitySummary `json:"activity_summary"`
	ReposWithoutCI    []string        `json:"repos_without_ci"`
	Stats             ActivityStats   `json:"stats"`
}
