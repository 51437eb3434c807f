package detector

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/models"
)

var (
	matchID = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	indiaID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	ausID   = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func india() models.Team {
	return models.Team{ID: indiaID, ExternalID: "t-ind", Name: "India", IsNational: true}
}

func australia() models.Team {
	return models.Team{ID: ausID, ExternalID: "t-aus", Name: "Australia", IsNational: true}
}

func baseMatch(status models.MatchStatus) models.Match {
	return models.Match{
		ID:         matchID,
		ExternalID: "m-1",
		HomeTeamID: indiaID,
		AwayTeamID: ausID,
		Format:     models.FormatODI,
		Status:     status,
		Venue:      "Eden Gardens",
		StartTime:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func detect(prev *models.Match, next models.Match) []models.DomainEvent {
	return Detect(Input{Prev: prev, Next: next, Home: india(), Away: australia()})
}

func eventTypes(events []models.DomainEvent) []models.NotificationType {
	types := make([]models.NotificationType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestDetectFirstObservationEmitsNothing(t *testing.T) {
	// Discovered already live, with toss data present.
	next := baseMatch(models.StatusLive)
	winner := indiaID
	next.TossWinnerID = &winner

	assert.Empty(t, detect(nil, next))
}

func TestDetectMatchStart(t *testing.T) {
	tests := []struct {
		name string
		from models.MatchStatus
		to   models.MatchStatus
		want bool
	}{
		{"scheduled to live", models.StatusScheduled, models.StatusLive, true},
		{"toss done to live", models.StatusTossDone, models.StatusLive, true},
		{"innings break back to live", models.StatusInningsBreak, models.StatusLive, false},
		{"stumps back to live", models.StatusStumps, models.StatusLive, false},
		{"delayed back to live", models.StatusDelayed, models.StatusLive, false},
		{"scheduled unchanged", models.StatusScheduled, models.StatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := baseMatch(tt.from)
			next := baseMatch(tt.to)
			events := detect(&prev, next)
			if tt.want {
				require.Len(t, events, 1)
				assert.Equal(t, models.NotifyMatchStart, events[0].Type)
				assert.Equal(t, "India vs Australia", events[0].Title)
				assert.ElementsMatch(t, []uuid.UUID{indiaID, ausID}, events[0].TeamIDs)
			} else {
				assert.Empty(t, events)
			}
		})
	}
}

func TestDetectTossResult(t *testing.T) {
	prev := baseMatch(models.StatusScheduled)
	next := baseMatch(models.StatusTossDone)
	winner := indiaID
	decision := models.TossBat
	next.TossWinnerID = &winner
	next.TossDecision = &decision

	events := detect(&prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotifyTossResult, events[0].Type)
	assert.Equal(t, "India won the toss and chose to bat", events[0].Body)

	// Re-applying the same snapshot yields nothing further.
	assert.Empty(t, detect(&next, next))
}

func TestDetectSkippedTossStillFiresOnce(t *testing.T) {
	// Provider never reported TOSS_DONE: the match jumps straight to LIVE
	// with toss fields attached. Both events fire in one diff.
	prev := baseMatch(models.StatusScheduled)
	next := baseMatch(models.StatusLive)
	winner := indiaID
	decision := models.TossBat
	next.TossWinnerID = &winner
	next.TossDecision = &decision

	events := detect(&prev, next)
	assert.ElementsMatch(t,
		[]models.NotificationType{models.NotifyMatchStart, models.NotifyTossResult},
		eventTypes(events))

	assert.Empty(t, detect(&next, next))
}

func TestDetectTossBowlDecision(t *testing.T) {
	prev := baseMatch(models.StatusScheduled)
	next := baseMatch(models.StatusTossDone)
	winner := ausID
	decision := models.TossBowl
	next.TossWinnerID = &winner
	next.TossDecision = &decision

	events := detect(&prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, "Australia won the toss and chose to bowl", events[0].Body)
}

func TestDetectInningsBreak(t *testing.T) {
	prev := baseMatch(models.StatusLive)
	next := baseMatch(models.StatusInningsBreak)
	score := "287/6"
	next.CurrentScore = &score

	events := detect(&prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotifyInningsBreak, events[0].Type)
	assert.Equal(t, "Innings break. Score: 287/6", events[0].Body)

	assert.Empty(t, detect(&next, next))
}

func TestDetectMatchResult(t *testing.T) {
	prev := baseMatch(models.StatusLive)
	next := baseMatch(models.StatusCompleted)
	winner := ausID
	result := "Australia won by 5 wickets"
	next.WinnerID = &winner
	next.Result = &result

	events := detect(&prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotifyMatchResult, events[0].Type)
	assert.Equal(t, "Australia won by 5 wickets", events[0].Body)
	assert.Equal(t, matchID, events[0].MatchID)

	// Re-polling the completed match with identical fields is silent.
	assert.Empty(t, detect(&next, next))
}

func TestDetectCompletedWithoutWinnerEmitsNothing(t *testing.T) {
	prev := baseMatch(models.StatusLive)
	next := baseMatch(models.StatusCompleted)

	assert.Empty(t, detect(&prev, next))
}

func TestDetectLateResultCorrectionDoesNotRenotify(t *testing.T) {
	// A provider correction after the fact updates the row silently.
	winner := ausID
	prev := baseMatch(models.StatusCompleted)
	prevResult := "Australia won by 5 wickets"
	prev.WinnerID = &winner
	prev.Result = &prevResult

	next := prev
	corrected := "Australia won by 4 wickets (DLS)"
	next.Result = &corrected

	assert.Empty(t, detect(&prev, next))
}

func TestDetectAbandonedEmitsNothing(t *testing.T) {
	prev := baseMatch(models.StatusLive)
	next := baseMatch(models.StatusAbandoned)

	assert.Empty(t, detect(&prev, next))
}
