package service

import (
	"bytes"
	"context"
	"html/template"
	"math"
	"time"

	"offrecord/internal/apperr"
	"offrecord/internal/models"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Feedback report - {{.GroupName}}</title>
	<style>
		body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; max-width: 720px; margin: 2rem auto; color: #1a1a1a; }
		h1 { font-size: 1.4rem; }
		.meta { color: #666; font-size: 0.9rem; margin-bottom: 2rem; }
		.entry { border: 1px solid #ddd; border-radius: 8px; padding: 1rem 1.25rem; margin-bottom: 1rem; }
		.score { float: right; font-weight: 600; }
		.label { font-size: 0.8rem; text-transform: uppercase; letter-spacing: 0.05em; color: #888; margin: 0.75rem 0 0.25rem; }
		.average { font-size: 1.1rem; margin-top: 1.5rem; }
	</style>
</head>
<body>
	<h1>Feedback for {{.RecipientName}}</h1>
	<div class="meta">Group &ldquo;{{.GroupName}}&rdquo; &middot; generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</div>
	{{range .Entries}}
	<div class="entry">
		<span class="score">{{.Score}} points</span>
		<div class="label">Strengths</div>
		<div>{{.Strengths}}</div>
		<div class="label">Improvements</div>
		<div>{{.Improvements}}</div>
	</div>
	{{end}}
	<div class="average">Average score: <strong>{{.AverageScore}}</strong></div>
</body>
</html>
`

// ReportService renders a recipient's feedback as an HTML report
type ReportService struct {
	feedback *FeedbackService
	groups   GroupStore
	users    UserStore
	tmpl     *template.Template
}

// NewReportService creates a new report service
func NewReportService(feedback *FeedbackService, groups GroupStore, users UserStore) *ReportService {
	return &ReportService{
		feedback: feedback,
		groups:   groups,
		users:    users,
		tmpl:     template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// Render builds the caller's report for a group. The same disclosure rules
// apply as for the raw feedback rows.
func (s *ReportService) Render(ctx context.Context, callerID, groupID uint) ([]byte, error) {
	entries, err := s.feedback.FeedbackFor(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("failed to load group", err)
	}
	if group == nil {
		return nil, apperr.NotFound("group %d not found", groupID)
	}

	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", callerID)
	}

	report := models.Report{
		GroupName:     group.Name,
		RecipientName: user.DisplayName,
		Entries:       entries,
		AverageScore:  AverageScore(entries),
		GeneratedAt:   time.Now(),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, report); err != nil {
		return nil, apperr.Internal("failed to render report", err)
	}
	return buf.Bytes(), nil
}

// AverageScore is the mean score rounded to the nearest integer, zero for an
// empty entry list
func AverageScore(entries []models.FeedbackEntry) int {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Score
	}
	return int(math.Round(float64(sum) / float64(len(entries))))
}
