// Package render turns a DigestReport into the Markdown posted as the digest issue.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/naka-gawa/github-digest/internal/domain"
)

const dateLayout = "2006-01-02"

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format(dateLayout) },
	"stamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
	"decision": func(d *domain.ReviewDecision) string {
		if d == nil {
			return "no reviews"
		}
		return strings.ToLower(strings.ReplaceAll(string(*d), "_", " "))
	},
	"labels": func(ls []string) string {
		if len(ls) == 0 {
			return ""
		}
		quoted := make([]string, len(ls))
		for i, l := range ls {
			quoted[i] = "`" + l + "`"
		}
		return " " + strings.Join(quoted, " ")
	},
	"float": func(f float64) string { return fmt.Sprintf("%.1f", f) },
}

var digestTemplate = template.Must(template.New("digest").Funcs(funcs).Parse(`# Daily Digest: {{ date .GeneratedAt }}

_Generated {{ stamp .GeneratedAt }}_

## Summary

| Metric | Count |
| --- | ---: |
| Repositories with activity | {{ .Report.ActivitySummary.ReposWithActivity }} |
| Workflow runs | {{ .Report.ActivitySummary.TotalWorkflowRuns }} |
| Pull requests | {{ .Report.ActivitySummary.TotalPRs }} |
| Issues | {{ .Report.ActivitySummary.TotalIssues }} |

## CI Failures
{{ if .Report.CIFailures }}
{{ range .Report.CIFailures }}- **{{ .Repo }}**: [{{ .WorkflowName }}]({{ .URL }}) failed at {{ stamp .FailedAt }}
{{ end }}{{ else }}
No CI failures.
{{ end }}
## PRs Awaiting Review
{{ if .Report.PRsAwaitingReview }}
{{ range .Report.PRsAwaitingReview }}- [{{ .RepoFullName }}#{{ .Number }}]({{ .URL }}) {{ .Title }} by @{{ .Author }} ({{ decision .ReviewDecision }})
{{ end }}{{ else }}
Nothing awaiting review.
{{ end }}
## New Issues
{{ if .Report.NewIssues }}
{{ range .Report.NewIssues }}- [{{ .RepoFullName }}#{{ .Number }}]({{ .URL }}) {{ .Title }} by @{{ .Author }}{{ labels .Labels }}
{{ end }}{{ else }}
No new issues.
{{ end }}
## Repos Without CI
{{ if .Report.ReposWithoutCI }}
{{ range .Report.ReposWithoutCI }}- {{ . }}
{{ end }}{{ else }}
Every active repository ran CI.
{{ end }}{{ with .Report.Stats }}{{ if .BusiestRepo }}
---

Mean events per repository: {{ float .MeanEventsPerRepo }}, median: {{ float .MedianEventsPerRepo }}. Busiest: **{{ .BusiestRepo }}** ({{ .BusiestRepoEvents }} events).
{{ end }}{{ end }}`))

// Markdown renders report as the body of a digest issue.
func Markdown(report domain.DigestReport, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Report      domain.DigestReport
		GeneratedAt time.Time
	}{report, generatedAt}
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}
