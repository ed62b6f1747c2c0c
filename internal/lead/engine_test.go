package lead

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestComputeScoreScenario(t *testing.T) {
	lastOpen := time.Now().UTC().Add(-3 * 24 * time.Hour)
	l := &Lead{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Company:           "Analytical Engines",
		TotalEmailsSent:   10,
		EmailsOpened:      5,
		LinksClicked:      2,
		LastEmailOpenedAt: &lastOpen,
	}

	// open rate 5/10*40 = 20, click rate 2/5*30 = 12,
	// recency 20 - 3/7 = 19.57, three profile fields = 6
	got := ComputeScore(l, time.Now().UTC())
	want := 57.571428
	if math.Abs(got-want) > 0.01 {
		t.Errorf("ComputeScore() = %.4f, want %.4f", got, want)
	}
}

func TestComputeScoreZeroCounters(t *testing.T) {
	l := &Lead{}
	if got := ComputeScore(l, time.Now()); got != 0 {
		t.Errorf("ComputeScore(empty lead) = %v, want 0", got)
	}
}

func TestComputeScoreDivisionGuards(t *testing.T) {
	tests := []struct {
		name string
		lead Lead
	}{
		{"sent zero opened zero", Lead{LinksClicked: 5}},
		{"sent zero opened nonzero", Lead{EmailsOpened: 3, LinksClicked: 1}},
		{"opened zero clicked nonzero", Lead{TotalEmailsSent: 4, LinksClicked: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(&tt.lead, time.Now())
			if got < 0 || got > 100 {
				t.Errorf("ComputeScore() = %v, out of [0,100]", got)
			}
		})
	}
}

func TestComputeScoreBounds(t *testing.T) {
	old := time.Now().Add(-365 * 24 * time.Hour)
	leads := []Lead{
		{TotalEmailsSent: 1, EmailsOpened: 1, LinksClicked: 1, LastEmailOpenedAt: &old,
			FirstName: "a", LastName: "b", Phone: "c", Company: "d", JobTitle: "e"},
		{TotalEmailsSent: 1000, EmailsOpened: 1000, LinksClicked: 1000},
		{TotalEmailsSent: 0, EmailsOpened: 0, LinksClicked: 0},
	}
	for i, l := range leads {
		got := ComputeScore(&l, time.Now())
		if got < 0 || got > 100 {
			t.Errorf("lead %d: ComputeScore() = %v, out of [0,100]", i, got)
		}
	}
}

func TestComputeScoreMonotonicInOpens(t *testing.T) {
	prev := -1.0
	for opened := 0; opened <= 10; opened++ {
		l := &Lead{TotalEmailsSent: 10, EmailsOpened: opened}
		got := ComputeScore(l, time.Now())
		if got < prev {
			t.Fatalf("score decreased from %.2f to %.2f at opened=%d", prev, got, opened)
		}
		prev = got
	}
}

func TestComputeScoreRecencyDecay(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo float64
		want    float64
	}{
		{"today", 0, 20},
		{"one week", 7, 19},
		{"ten weeks", 70, 10},
		{"twenty weeks floors at zero", 140, 0},
		{"forty weeks still zero", 280, 0},
	}

	now := time.Now().UTC()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened := now.Add(-time.Duration(tt.daysAgo * 24 * float64(time.Hour)))
			l := &Lead{LastEmailOpenedAt: &opened}
			got := ComputeScore(l, now)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("ComputeScore() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestRecordActivityCounters(t *testing.T) {
	l := &Lead{ID: uuid.New()}

	RecordActivity(l, ActivityEmailSent, "campaign sent", nil)
	RecordActivity(l, ActivityEmailSent, "campaign sent", nil)
	RecordActivity(l, ActivityEmailOpened, "opened welcome email", nil)
	RecordActivity(l, ActivityLinkClicked, "clicked pricing link", nil)
	RecordActivity(l, ActivityNoteAdded, "spoke at event", nil)

	if l.TotalEmailsSent != 2 {
		t.Errorf("TotalEmailsSent = %d, want 2", l.TotalEmailsSent)
	}
	if l.EmailsOpened != 1 {
		t.Errorf("EmailsOpened = %d, want 1", l.EmailsOpened)
	}
	if l.LinksClicked != 1 {
		t.Errorf("LinksClicked = %d, want 1", l.LinksClicked)
	}
	if l.LastEmailOpenedAt == nil {
		t.Error("LastEmailOpenedAt not set after email_opened")
	}
	if l.LastActivityAt == nil {
		t.Error("LastActivityAt not set")
	}
	if len(l.ScoreHistory) != 5 {
		t.Errorf("ScoreHistory length = %d, want 5", len(l.ScoreHistory))
	}
}

func TestRecordActivityReturnsActivity(t *testing.T) {
	l := &Lead{ID: uuid.New()}
	act := RecordActivity(l, ActivityFormSubmitted, "demo request", JSON{"form": "demo"})

	if act.LeadID != l.ID {
		t.Errorf("activity LeadID = %v, want %v", act.LeadID, l.ID)
	}
	if act.Kind != ActivityFormSubmitted {
		t.Errorf("activity Kind = %q, want %q", act.Kind, ActivityFormSubmitted)
	}
	if act.Timestamp.IsZero() {
		t.Error("activity timestamp not set")
	}
	if act.Metadata["form"] != "demo" {
		t.Errorf("activity metadata = %v", act.Metadata)
	}
}

func TestRecordActivityScoreRecomputed(t *testing.T) {
	l := &Lead{ID: uuid.New(), FirstName: "Ada"}

	RecordActivity(l, ActivityEmailSent, "", nil)
	afterSend := l.EngagementScore
	RecordActivity(l, ActivityEmailOpened, "", nil)

	if l.EngagementScore <= afterSend {
		t.Errorf("score after open (%.2f) should exceed score after send (%.2f)",
			l.EngagementScore, afterSend)
	}
}

func TestRecordActivityHistoryBounded(t *testing.T) {
	l := &Lead{ID: uuid.New()}
	for i := 0; i < scoreHistoryWindow+20; i++ {
		RecordActivity(l, ActivityPageVisited, "", nil)
	}
	if len(l.ScoreHistory) != scoreHistoryWindow {
		t.Errorf("ScoreHistory length = %d, want %d", len(l.ScoreHistory), scoreHistoryWindow)
	}
}

func TestClassifyTrend(t *testing.T) {
	at := func(v float64) ScoreSample { return ScoreSample{Timestamp: time.Now(), Value: v} }

	tests := []struct {
		name    string
		history ScoreHistory
		want    string
	}{
		{"empty", ScoreHistory{}, TrendStable},
		{"single point", ScoreHistory{at(42)}, TrendStable},
		{"two rising", ScoreHistory{at(10), at(15)}, TrendIncreasing},
		{"two falling", ScoreHistory{at(15), at(10)}, TrendDecreasing},
		{"dip then recover below start", ScoreHistory{at(10), at(12), at(9)}, TrendDecreasing},
		{"dip then recover above start", ScoreHistory{at(10), at(8), at(14)}, TrendIncreasing},
		{"flat endpoints", ScoreHistory{at(10), at(25), at(10)}, TrendStable},
		{"window ignores older samples", ScoreHistory{at(99), at(10), at(12), at(11)}, TrendIncreasing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.history); got != tt.want {
				t.Errorf("ClassifyTrend() = %q, want %q", got, tt.want)
			}
		})
	}
}
