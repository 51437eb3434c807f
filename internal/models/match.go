package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchFormat is the playing format of a fixture.
type MatchFormat string

const (
	FormatTest       MatchFormat = "TEST"
	FormatODI        MatchFormat = "ODI"
	FormatT20I       MatchFormat = "T20I"
	FormatT20        MatchFormat = "T20"
	FormatListA      MatchFormat = "LIST_A"
	FormatFirstClass MatchFormat = "FIRST_CLASS"
)

// MatchStatus is the lifecycle state of a fixture.
//
// SCHEDULED -> TOSS_DONE -> LIVE -> {INNINGS_BREAK, STUMPS, DELAYED} -> LIVE -> COMPLETED
// ABANDONED and NO_RESULT are terminal and reachable from any in-play state.
type MatchStatus string

const (
	StatusScheduled    MatchStatus = "SCHEDULED"
	StatusTossDone     MatchStatus = "TOSS_DONE"
	StatusLive         MatchStatus = "LIVE"
	StatusInningsBreak MatchStatus = "INNINGS_BREAK"
	StatusStumps       MatchStatus = "STUMPS"
	StatusDelayed      MatchStatus = "DELAYED"
	StatusCompleted    MatchStatus = "COMPLETED"
	StatusAbandoned    MatchStatus = "ABANDONED"
	StatusNoResult     MatchStatus = "NO_RESULT"
)

// IsPreMatch reports whether the status precedes the first ball.
func (s MatchStatus) IsPreMatch() bool {
	return s == StatusScheduled || s == StatusTossDone
}

// IsInPlay reports whether the match is between first ball and a terminal state.
func (s MatchStatus) IsInPlay() bool {
	switch s {
	case StatusLive, StatusInningsBreak, StatusStumps, StatusDelayed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusAbandoned, StatusNoResult:
		return true
	}
	return false
}

// TossDecision is what the toss winner elected to do.
type TossDecision string

const (
	TossBat  TossDecision = "BAT"
	TossBowl TossDecision = "BOWL"
)

// Match is the canonical record of one cricket fixture. All updates are
// upserts keyed on ExternalID; rows are never deleted by the pipeline.
type Match struct {
	ID            uuid.UUID     `json:"id"`
	ExternalID    string        `json:"external_id"`
	CompetitionID uuid.UUID     `json:"competition_id"`
	HomeTeamID    uuid.UUID     `json:"home_team_id"`
	AwayTeamID    uuid.UUID     `json:"away_team_id"`
	Format        MatchFormat   `json:"format"`
	Status        MatchStatus   `json:"status"`
	Venue         string        `json:"venue"`
	StartTime     time.Time     `json:"start_time"`
	TossWinnerID  *uuid.UUID    `json:"toss_winner_id,omitempty"`
	TossDecision  *TossDecision `json:"toss_decision,omitempty"`
	WinnerID      *uuid.UUID    `json:"winner_id,omitempty"`
	Result        *string       `json:"result,omitempty"`
	CurrentScore  *string       `json:"current_score,omitempty"`
	CurrentOvers  *string       `json:"current_overs,omitempty"`
	LastPolledAt  time.Time     `json:"last_polled_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
