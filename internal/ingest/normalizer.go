package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/pitchside/clients/cricketdata"
	"github.com/pitchside/pitchside/internal/models"
)

// statusVocab maps the provider's match-state vocabulary to canonical
// statuses. Unrecognized values fail closed to SCHEDULED so an unexpected
// provider value can never crash the pipeline or fabricate a transition.
var statusVocab = map[string]models.MatchStatus{
	"scheduled":     models.StatusScheduled,
	"fixture":       models.StatusScheduled,
	"preview":       models.StatusScheduled,
	"toss":          models.StatusTossDone,
	"live":          models.StatusLive,
	"innings break": models.StatusInningsBreak,
	"break":         models.StatusInningsBreak,
	"tea":           models.StatusInningsBreak,
	"stumps":        models.StatusStumps,
	"delay":         models.StatusDelayed,
	"rain delay":    models.StatusDelayed,
	"complete":      models.StatusCompleted,
	"result":        models.StatusCompleted,
	"abandoned":     models.StatusAbandoned,
	"no result":     models.StatusNoResult,
}

// formatVocab maps provider match types to canonical formats. Unrecognized
// values fail closed to T20, the most common short format in the feed.
var formatVocab = map[string]models.MatchFormat{
	"test":        models.FormatTest,
	"odi":         models.FormatODI,
	"t20i":        models.FormatT20I,
	"t20":         models.FormatT20,
	"list a":      models.FormatListA,
	"lista":       models.FormatListA,
	"first class": models.FormatFirstClass,
	"firstclass":  models.FormatFirstClass,
	"fc":          models.FormatFirstClass,
}

// mapStatus resolves a provider state string to a canonical status.
func mapStatus(state string) models.MatchStatus {
	if status, ok := statusVocab[strings.ToLower(strings.TrimSpace(state))]; ok {
		return status
	}
	return models.StatusScheduled
}

// mapFormat resolves a provider match type to a canonical format.
func mapFormat(matchType string) models.MatchFormat {
	if format, ok := formatVocab[strings.ToLower(strings.TrimSpace(matchType))]; ok {
		return format
	}
	return models.FormatT20
}

// mapCategory resolves a series category to a competition type, defaulting
// to DOMESTIC.
func mapCategory(category string) models.CompetitionType {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "international":
		return models.CompetitionInternational
	case "league", "franchise":
		return models.CompetitionFranchise
	default:
		return models.CompetitionDomestic
	}
}

func teamStub(raw cricketdata.RawTeam) models.TeamStub {
	stub := models.TeamStub{
		ExternalID: raw.ID,
		Name:       raw.Name,
		IsNational: raw.National,
	}
	if raw.ShortName != "" {
		short := raw.ShortName
		stub.ShortName = &short
	}
	if raw.Img != "" {
		img := raw.Img
		stub.LogoURL = &img
	}
	return stub
}

// Normalize maps one provider match payload to the canonical snapshot
// shape. It returns an error only for structurally unusable records
// (missing id, fewer than two sides); vocabulary surprises are absorbed by
// the fail-closed enum maps.
func Normalize(raw cricketdata.RawMatch) (models.MatchSnapshot, error) {
	if raw.ID == "" {
		return models.MatchSnapshot{}, fmt.Errorf("match payload has no id")
	}
	if len(raw.TeamInfo) < 2 {
		return models.MatchSnapshot{}, fmt.Errorf("match %s has %d teams, need 2", raw.ID, len(raw.TeamInfo))
	}
	home := teamStub(raw.TeamInfo[0])
	away := teamStub(raw.TeamInfo[1])
	if home.ExternalID == "" || away.ExternalID == "" || home.ExternalID == away.ExternalID {
		return models.MatchSnapshot{}, fmt.Errorf("match %s has invalid team ids", raw.ID)
	}

	snap := models.MatchSnapshot{
		ExternalID: raw.ID,
		Format:     mapFormat(raw.MatchType),
		Status:     mapStatus(raw.State),
		Venue:      raw.Venue,
		HomeTeam:   home,
		AwayTeam:   away,
	}

	if t, err := time.Parse(time.RFC3339, raw.DateTimeGMT); err == nil {
		snap.StartTime = t
	} else if t, err := time.Parse("2006-01-02T15:04:05", raw.DateTimeGMT); err == nil {
		snap.StartTime = t.UTC()
	}

	if raw.SeriesID != "" {
		category := ""
		if home.IsNational && away.IsNational {
			category = "international"
		}
		snap.Competition = &models.CompetitionStub{
			ExternalID: raw.SeriesID,
			Name:       raw.SeriesName,
			Type:       mapCategory(category),
		}
	}

	if raw.TossWinner != "" {
		winner := raw.TossWinner
		snap.TossWinnerExternal = &winner
		switch strings.ToLower(raw.TossChoice) {
		case "bat", "batting":
			decision := models.TossBat
			snap.TossDecision = &decision
		case "bowl", "bowling", "field", "fielding":
			decision := models.TossBowl
			snap.TossDecision = &decision
		}
	}

	if raw.MatchWinner != "" {
		winner := raw.MatchWinner
		snap.WinnerExternal = &winner
	}
	if raw.MatchEnded && raw.StatusText != "" {
		result := raw.StatusText
		snap.Result = &result
	}

	if len(raw.Score) > 0 {
		latest := raw.Score[len(raw.Score)-1]
		score := fmt.Sprintf("%d/%d", latest.Runs, latest.Wickets)
		overs := fmt.Sprintf("%.1f", latest.Overs)
		snap.CurrentScore = &score
		snap.CurrentOvers = &overs
	}

	return snap, nil
}

// NormalizeSeries maps a provider series record to a competition stub.
func NormalizeSeries(raw cricketdata.RawSeries) (models.CompetitionStub, error) {
	if raw.ID == "" {
		return models.CompetitionStub{}, fmt.Errorf("series payload has no id")
	}
	return models.CompetitionStub{
		ExternalID: raw.ID,
		Name:       raw.Name,
		Type:       mapCategory(raw.Category),
	}, nil
}
