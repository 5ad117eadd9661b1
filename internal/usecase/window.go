package usecase

import "time"

// windowPolicy records how the lookback window is applied to one resource.
// GitHub filters some listings itself; for the others the collector must
// drop entries outside the window.
type windowPolicy struct {
	Resource string
	Field    string
	Native   bool
}

var (
	workflowRunsWindow = windowPolicy{Resource: "workflow_runs", Field: "created_at", Native: true}
	pullRequestsWindow = windowPolicy{Resource: "pull_requests", Field: "updated_at", Native: false}
	issuesWindow       = windowPolicy{Resource: "issues", Field: "updated_at", Native: true}
)

// filterWindow keeps the items whose stamp is at or after since. Native
// policies trust the host's boundary check and return items unchanged.
// The result is never nil.
func filterWindow[T any](p windowPolicy, items []T, stamp func(T) time.Time, since time.Time) []T {
	if p.Native {
		if items == nil {
			return []T{}
		}
		return items
	}
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if !stamp(it).Before(since) {
			kept = append(kept, it)
		}
	}
	return kept
}
