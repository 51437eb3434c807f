package models

import "time"

// TeamStub is the normalized team data embedded in a snapshot, before the
// reference resolver has assigned a canonical id.
type TeamStub struct {
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	ShortName  *string `json:"short_name,omitempty"`
	LogoURL    *string `json:"logo_url,omitempty"`
	IsNational bool    `json:"is_national"`
}

// CompetitionStub is the normalized series data embedded in a snapshot.
type CompetitionStub struct {
	ExternalID string          `json:"external_id"`
	Name       string          `json:"name"`
	Type       CompetitionType `json:"type"`
}

// MatchSnapshot is the canonical form of one provider match payload. It is
// the normalizer's output and carries team/competition stubs rather than
// canonical ids; the reference resolver fills those in before the match
// upsert.
type MatchSnapshot struct {
	ExternalID         string           `json:"external_id"`
	Format             MatchFormat      `json:"format"`
	Status             MatchStatus      `json:"status"`
	Venue              string           `json:"venue"`
	StartTime          time.Time        `json:"start_time"`
	HomeTeam           TeamStub         `json:"home_team"`
	AwayTeam           TeamStub         `json:"away_team"`
	Competition        *CompetitionStub `json:"competition,omitempty"`
	TossWinnerExternal *string          `json:"toss_winner_external,omitempty"`
	TossDecision       *TossDecision    `json:"toss_decision,omitempty"`
	WinnerExternal     *string          `json:"winner_external,omitempty"`
	Result             *string          `json:"result,omitempty"`
	CurrentScore       *string          `json:"current_score,omitempty"`
	CurrentOvers       *string          `json:"current_overs,omitempty"`
}
