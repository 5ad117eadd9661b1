package usecase

import (
	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-digest/internal/domain"
)

// Analyze reduces the collected activity to a DigestReport.
// It is pure: inputs are not modified and every report slice is non-nil.
func Analyze(activities []domain.RepoActivity) domain.DigestReport {
	report := domain.DigestReport{
		CIFailures:        []domain.CIFailure{},
		PRsAwaitingReview: []domain.PullRequest{},
		NewIssues:         []domain.Issue{},
		ReposWithoutCI:    []string{},
	}

	for _, a := range activities {
		report.CIFailures = append(report.CIFailures, detectCIFailures(a)...)

		for _, pr := range a.PullRequests {
			if awaitingReview(pr) {
				pr.RepoFullName = a.FullName
				report.PRsAwaitingReview = append(report.PRsAwaitingReview, pr)
			}
		}

		// The window was applied to updated_at during collection, so every
		// issue seen here is reported as new.
		for _, is := range a.Issues {
			is.RepoFullName = a.FullName
			report.NewIssues = append(report.NewIssues, is)
		}

		if len(a.WorkflowRuns) == 0 {
			report.ReposWithoutCI = append(report.ReposWithoutCI, a.FullName)
		}

		report.ActivitySummary.TotalWorkflowRuns += len(a.WorkflowRuns)
		report.ActivitySummary.TotalPRs += len(a.PullRequests)
		report.ActivitySummary.TotalIssues += len(a.Issues)
	}
	report.ActivitySummary.ReposWithActivity = len(activities)
	report.Stats = activityStats(activities)

	return report
}

// detectCIFailures reports each workflow whose latest run failed. When two
// runs share the latest created_at, the one listed first wins. Failures are
// emitted in the order each workflow name first appears.
func detectCIFailures(a domain.RepoActivity) []domain.CIFailure {
	var names []string
	latest := make(map[string]domain.WorkflowRun)
	for _, run := range a.WorkflowRuns {
		current, seen := latest[run.Name]
		if !seen {
			names = append(names, run.Name)
		}
		if !seen || run.CreatedAt.After(current.CreatedAt) {
			latest[run.Name] = run
		}
	}

	var failures []domain.CIFailure
	for _, name := range names {
		run := latest[name]
		if run.Failed() {
			failures = append(failures, domain.CIFailure{
				Repo:         a.FullName,
				WorkflowName: run.Name,
				URL:          run.URL,
				FailedAt:     run.CreatedAt,
			})
		}
	}
	return failures
}

// awaitingReview is true for open, non-draft pull requests without an approval.
func awaitingReview(pr domain.PullRequest) bool {
	return pr.State == domain.StateOpen && !pr.IsDraft && !pr.Approved()
}

func activityStats(activities []domain.RepoActivity) domain.ActivityStats {
	var result domain.ActivityStats
	if len(activities) == 0 {
		return result
	}

	counts := make([]int, len(activities))
	for i, a := range activities {
		counts[i] = a.Events()
		if counts[i] > result.BusiestRepoEvents {
			result.BusiestRepo = a.FullName
			result.BusiestRepoEvents = counts[i]
		}
	}

	data := stats.LoadRawData(counts)
	if mean, err := data.Mean(); err == nil {
		result.MeanEventsPerRepo = mean
	}
	if median, err := data.Median(); err == nil {
		result.MedianEventsPerRepo = median
	}
	return result
}
