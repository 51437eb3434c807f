package cricketdata

import "encoding/json"

// envelope is the common response wrapper of every endpoint.
type envelope struct {
	Status string          `json:"status"`
	Reason string          `json:"reason,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RawTeam is a team reference as the provider reports it inside a match.
type RawTeam struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortname,omitempty"`
	Img       string `json:"img,omitempty"`
	National  bool   `json:"national"`
}

// RawScore is one innings line of the live score.
type RawScore struct {
	Runs    int     `json:"r"`
	Wickets int     `json:"w"`
	Overs   float64 `json:"o"`
	Inning  string  `json:"inning"`
}

// RawSeries is a series/tournament as the provider reports it.
type RawSeries struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"` // international | domestic | league
}

// RawMatch is the provider-specific match payload. State and MatchType use
// the provider's own vocabulary; the normalizer maps them to canonical
// enums.
type RawMatch struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	MatchType   string     `json:"matchType"`
	State       string     `json:"state"`
	StatusText  string     `json:"status,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	DateTimeGMT string     `json:"dateTimeGMT,omitempty"`
	SeriesID    string     `json:"series_id,omitempty"`
	SeriesName  string     `json:"series_name,omitempty"`
	TeamInfo    []RawTeam  `json:"teamInfo"`
	Score       []RawScore `json:"score,omitempty"`
	TossWinner  string     `json:"tossWinner,omitempty"` // team id
	TossChoice  string     `json:"tossChoice,omitempty"` // bat | bowl
	MatchWinner string     `json:"matchWinner,omitempty"` // team id
	MatchEnded  bool       `json:"matchEnded"`
}
