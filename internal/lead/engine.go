package lead

import (
	"time"

	"github.com/google/uuid"
)

// scoreHistoryWindow bounds the samples kept on the lead record. Trend
// classification only ever looks at the last three.
const scoreHistoryWindow = 50

// RecordActivity appends an activity to the lead, bumps the engagement
// counters the kind maps to, and recomputes the score. The returned Activity
// carries the timestamp used for all updates. Not safe for concurrent calls
// on the same Lead; callers serialize through the store.
func RecordActivity(l *Lead, kind, description string, metadata JSON) Activity {
	now := time.Now().UTC()

	activity := Activity{
		ID:          uuid.New(),
		LeadID:      l.ID,
		Kind:        kind,
		Description: description,
		Metadata:    metadata,
		Timestamp:   now,
	}

	switch kind {
	case ActivityEmailSent:
		l.TotalEmailsSent++
	case ActivityEmailOpened:
		l.EmailsOpened++
		l.LastEmailOpenedAt = &now
	case ActivityLinkClicked:
		l.LinksClicked++
	}

	l.EngagementScore = ComputeScore(l, now)
	l.LastActivityAt = &now
	l.UpdatedAt = now

	l.ScoreHistory = append(l.ScoreHistory, ScoreSample{Timestamp: now, Value: l.EngagementScore})
	if len(l.ScoreHistory) > scoreHistoryWindow {
		l.ScoreHistory = l.ScoreHistory[len(l.ScoreHistory)-scoreHistoryWindow:]
	}

	return activity
}

// ComputeScore derives the [0,100] engagement score from the lead's
// counters, open recency, and profile completeness. Pure function of the
// lead and the reference time.
//
//	open rate      -> up to 40 points
//	click-through  -> up to 30 points
//	open recency   -> up to 20 points, decaying 1 point per 7 days
//	profile fields -> 2 points each, up to 10
func ComputeScore(l *Lead, now time.Time) float64 {
	var score float64

	if l.TotalEmailsSent > 0 {
		score += float64(l.EmailsOpened) / float64(l.TotalEmailsSent) * 40
	}
	if l.EmailsOpened > 0 {
		score += float64(l.LinksClicked) / float64(l.EmailsOpened) * 30
	}
	if l.LastEmailOpenedAt != nil {
		days := now.Sub(*l.LastEmailOpenedAt).Hours() / 24
		recency := 20 - days/7
		if recency > 0 {
			score += recency
		}
	}
	for _, field := range []string{l.FirstName, l.LastName, l.Phone, l.Company, l.JobTitle} {
		if field != "" {
			score += 2
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ClassifyTrend compares the endpoints of the last three score samples:
// most recent above the window start is increasing, below is decreasing,
// anything else is stable. Fewer than two samples is stable.
func ClassifyTrend(history ScoreHistory) string {
	if len(history) < 2 {
		return TrendStable
	}

	window := history
	if len(window) > 3 {
		window = window[len(window)-3:]
	}

	first := window[0].Value
	last := window[len(window)-1].Value
	switch {
	case last > first:
		return TrendIncreasing
	case last < first:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
