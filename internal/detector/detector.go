// Package detector computes notification-worthy domain events by diffing a
// match's previously persisted state against its freshly upserted state.
//
// Derivation is anchored to field values rather than the new status alone,
// so skipped intermediate polls (a provider jumping straight from SCHEDULED
// to LIVE with toss data attached) still surface each event exactly once.
package detector

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pitchside/pitchside/internal/models"
)

// Input is one diff request. Prev is nil on the first-ever observation of
// a match, in which case no events are emitted: there is no before-state
// to diff against, and flooding users over a match discovered mid-play
// would be worse than missing its start.
type Input struct {
	Prev *models.Match
	Next models.Match
	Home models.Team
	Away models.Team
}

// Detect returns the domain events implied by the transition from Prev to
// Next. Applying the same snapshot twice yields events on the first
// application only.
func Detect(in Input) []models.DomainEvent {
	if in.Prev == nil {
		return nil
	}

	var events []models.DomainEvent
	title := fmt.Sprintf("%s vs %s", in.Home.Name, in.Away.Name)
	teamIDs := []uuid.UUID{in.Home.ID, in.Away.ID}

	event := func(typ models.NotificationType, body string) models.DomainEvent {
		return models.DomainEvent{
			MatchID: in.Next.ID,
			Type:    typ,
			Title:   title,
			Body:    body,
			TeamIDs: teamIDs,
		}
	}

	if in.Prev.Status.IsPreMatch() && in.Next.Status == models.StatusLive {
		events = append(events, event(models.NotifyMatchStart,
			fmt.Sprintf("%s has started at %s", title, in.Next.Venue)))
	}

	if in.Prev.TossWinnerID == nil && in.Next.TossWinnerID != nil {
		events = append(events, event(models.NotifyTossResult, tossBody(in)))
	}

	if in.Prev.Status != models.StatusInningsBreak && in.Next.Status == models.StatusInningsBreak {
		body := "Innings break"
		if in.Next.CurrentScore != nil {
			body = fmt.Sprintf("Innings break. Score: %s", *in.Next.CurrentScore)
		}
		events = append(events, event(models.NotifyInningsBreak, body))
	}

	if in.Prev.Status != models.StatusCompleted && in.Next.Status == models.StatusCompleted && in.Next.WinnerID != nil {
		body := fmt.Sprintf("%s: result declared", title)
		if in.Next.Result != nil {
			body = *in.Next.Result
		}
		events = append(events, event(models.NotifyMatchResult, body))
	}

	return events
}

func tossBody(in Input) string {
	name := teamName(in, *in.Next.TossWinnerID)
	if in.Next.TossDecision == nil {
		return fmt.Sprintf("%s won the toss", name)
	}
	choice := "bat"
	if *in.Next.TossDecision == models.TossBowl {
		choice = "bowl"
	}
	return fmt.Sprintf("%s won the toss and chose to %s", name, choice)
}

func teamName(in Input, id uuid.UUID) string {
	switch id {
	case in.Home.ID:
		return in.Home.Name
	case in.Away.ID:
		return in.Away.Name
	}
	return "Unknown team"
}
