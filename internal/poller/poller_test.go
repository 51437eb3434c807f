package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/matches"
	"github.com/pitchside/pitchside/internal/models"
	"github.com/pitchside/pitchside/internal/refdata"
)

type fakeSource struct {
	live     []models.MatchSnapshot
	upcoming []models.MatchSnapshot
	series   []models.CompetitionStub
	fetchErr error
}

func (f *fakeSource) Provider() string { return "cricketdata" }

func (f *fakeSource) FetchLive(context.Context) ([]models.MatchSnapshot, error) {
	return f.live, f.fetchErr
}

func (f *fakeSource) FetchUpcoming(context.Context, int) ([]models.MatchSnapshot, error) {
	return f.upcoming, f.fetchErr
}

func (f *fakeSource) FetchCompetitions(context.Context) ([]models.CompetitionStub, error) {
	return f.series, f.fetchErr
}

type fakeMatchStore struct {
	byExternalID map[string]*models.Match
	failFor      map[string]bool
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{
		byExternalID: make(map[string]*models.Match),
		failFor:      make(map[string]bool),
	}
}

func (f *fakeMatchStore) GetByExternalID(_ context.Context, externalID string) (*models.Match, error) {
	m, ok := f.byExternalID[externalID]
	if !ok {
		return nil, matches.ErrMatchNotFound
	}
	copy := *m
	return &copy, nil
}

func (f *fakeMatchStore) Upsert(_ context.Context, m models.Match) (*models.Match, error) {
	if f.failFor[m.ExternalID] {
		return nil, errors.New("store unavailable")
	}
	if existing, ok := f.byExternalID[m.ExternalID]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	} else {
		m.ID = uuid.New()
		m.CreatedAt = time.Now()
	}
	m.LastPolledAt = time.Now()
	stored := m
	f.byExternalID[m.ExternalID] = &stored
	copy := stored
	return &copy, nil
}

// fakeResolver assigns stable ids per external id.
type fakeResolver struct {
	teams map[string]*models.Team
	comps map[string]*models.Competition
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		teams: make(map[string]*models.Team),
		comps: make(map[string]*models.Competition),
	}
}

func (f *fakeResolver) team(stub models.TeamStub) *models.Team {
	if t, ok := f.teams[stub.ExternalID]; ok {
		return t
	}
	t := &models.Team{ID: uuid.New(), ExternalID: stub.ExternalID, Name: stub.Name}
	f.teams[stub.ExternalID] = t
	return t
}

func (f *fakeResolver) Resolve(_ context.Context, snap models.MatchSnapshot) (refdata.Resolved, error) {
	compKey := models.DefaultCompetitionExternalID
	compName := "Other Matches"
	if snap.Competition != nil {
		compKey = snap.Competition.ExternalID
		compName = snap.Competition.Name
	}
	comp, ok := f.comps[compKey]
	if !ok {
		comp = &models.Competition{ID: uuid.New(), ExternalID: compKey, Name: compName}
		f.comps[compKey] = comp
	}
	return refdata.Resolved{
		Home:        f.team(snap.HomeTeam),
		Away:        f.team(snap.AwayTeam),
		Competition: comp,
	}, nil
}

func (f *fakeResolver) SyncCompetitions(_ context.Context, stubs []models.CompetitionStub) refdata.SyncResult {
	result := refdata.SyncResult{TotalProcessed: len(stubs), Synced: len(stubs)}
	for _, stub := range stubs {
		if _, ok := f.comps[stub.ExternalID]; !ok {
			f.comps[stub.ExternalID] = &models.Competition{ID: uuid.New(), ExternalID: stub.ExternalID, Name: stub.Name}
		}
	}
	return result
}

type fakeSink struct {
	events []models.DomainEvent
}

func (f *fakeSink) Fanout(_ context.Context, event models.DomainEvent) (int, error) {
	f.events = append(f.events, event)
	return 1, nil
}

type fakeSyncLog struct {
	entries []models.SyncLogEntry
}

func (f *fakeSyncLog) Append(_ context.Context, entry models.SyncLogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func scheduledSnapshot(externalID string) models.MatchSnapshot {
	return models.MatchSnapshot{
		ExternalID: externalID,
		Format:     models.FormatODI,
		Status:     models.StatusScheduled,
		Venue:      "Eden Gardens",
		StartTime:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		HomeTeam:   models.TeamStub{ExternalID: "t-ind", Name: "India", IsNational: true},
		AwayTeam:   models.TeamStub{ExternalID: "t-aus", Name: "Australia", IsNational: true},
	}
}

type harness struct {
	source  *fakeSource
	store   *fakeMatchStore
	sink    *fakeSink
	syncLog *fakeSyncLog
	poller  *Poller
}

func newHarness() *harness {
	h := &harness{
		source:  &fakeSource{},
		store:   newFakeMatchStore(),
		sink:    &fakeSink{},
		syncLog: &fakeSyncLog{},
	}
	h.poller = New(h.source, h.store, newFakeResolver(), h.sink, h.syncLog, nil,
		Config{NotificationsEnabled: true})
	return h
}

func TestPollLiveFirstObservationCreatesWithoutEvents(t *testing.T) {
	h := newHarness()
	snap := scheduledSnapshot("m-1")
	snap.Status = models.StatusLive // discovered mid-play
	h.source.live = []models.MatchSnapshot{snap}

	result, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Events)
	assert.Empty(t, h.sink.events)
	assert.Len(t, h.store.byExternalID, 1)
}

func TestPollLiveEmitsStartAndTossTogether(t *testing.T) {
	h := newHarness()
	h.source.live = []models.MatchSnapshot{scheduledSnapshot("m-1")}

	_, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	// Next cycle: straight to LIVE with toss attached.
	next := scheduledSnapshot("m-1")
	next.Status = models.StatusLive
	toss := "t-ind"
	decision := models.TossBat
	next.TossWinnerExternal = &toss
	next.TossDecision = &decision
	h.source.live = []models.MatchSnapshot{next}

	result, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Events)
	assert.Equal(t, 2, result.Notifications)
	require.Len(t, h.sink.events, 2)

	types := []models.NotificationType{h.sink.events[0].Type, h.sink.events[1].Type}
	assert.ElementsMatch(t, []models.NotificationType{models.NotifyMatchStart, models.NotifyTossResult}, types)
	assert.Equal(t, "India won the toss and chose to bat",
		findEvent(h.sink.events, models.NotifyTossResult).Body)
}

func findEvent(events []models.DomainEvent, typ models.NotificationType) models.DomainEvent {
	for _, ev := range events {
		if ev.Type == typ {
			return ev
		}
	}
	return models.DomainEvent{}
}

func TestPollLiveRepollWithoutChangesIsSilent(t *testing.T) {
	h := newHarness()
	snap := scheduledSnapshot("m-1")
	snap.Status = models.StatusLive
	h.source.live = []models.MatchSnapshot{snap}

	_, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := h.poller.PollLive(context.Background())
		require.NoError(t, err)
		assert.Zero(t, result.Events)
	}
	assert.Empty(t, h.sink.events)
}

func TestPollLiveIsolatesPerMatchFailures(t *testing.T) {
	h := newHarness()
	h.store.failFor["m-bad"] = true
	h.source.live = []models.MatchSnapshot{
		scheduledSnapshot("m-1"),
		scheduledSnapshot("m-bad"),
		scheduledSnapshot("m-2"),
	}

	result, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "m-bad")

	// The audit entry records the degraded cycle.
	require.Len(t, h.syncLog.entries, 1)
	entry := h.syncLog.entries[0]
	assert.Equal(t, models.SyncSuccess, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "1 of 3 matches failed")
	assert.Contains(t, *entry.ErrorMessage, "m-bad")
}

func TestPollLiveWritesSyncLog(t *testing.T) {
	h := newHarness()
	h.source.live = []models.MatchSnapshot{scheduledSnapshot("m-1")}

	_, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	require.Len(t, h.syncLog.entries, 1)
	entry := h.syncLog.entries[0]
	assert.Equal(t, "cricketdata", entry.Provider)
	assert.Equal(t, "currentMatches", entry.Endpoint)
	assert.Equal(t, models.SyncSuccess, entry.Status)
	require.NotNil(t, entry.RecordsCount)
	assert.Equal(t, 1, *entry.RecordsCount)
}

func TestPollLiveFetchFailureLogsAndReturnsError(t *testing.T) {
	h := newHarness()
	h.source.fetchErr = errors.New("rate limited")

	_, err := h.poller.PollLive(context.Background())
	require.Error(t, err)

	require.Len(t, h.syncLog.entries, 1)
	entry := h.syncLog.entries[0]
	assert.Equal(t, models.SyncError, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "rate limited")
}

func TestPollLiveNotificationsDisabled(t *testing.T) {
	h := newHarness()
	h.poller = New(h.source, h.store, newFakeResolver(), h.sink, h.syncLog, nil,
		Config{NotificationsEnabled: false})
	h.source.live = []models.MatchSnapshot{scheduledSnapshot("m-1")}

	_, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	live := scheduledSnapshot("m-1")
	live.Status = models.StatusLive
	h.source.live = []models.MatchSnapshot{live}

	result, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	// Detection still runs; materialization is suppressed.
	assert.Equal(t, 1, result.Events)
	assert.Zero(t, result.Notifications)
	assert.Empty(t, h.sink.events)
}

func TestPollUpcomingUsesUpcomingFeed(t *testing.T) {
	h := newHarness()
	h.source.upcoming = []models.MatchSnapshot{scheduledSnapshot("m-9")}

	result, err := h.poller.PollUpcoming(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	require.Len(t, h.syncLog.entries, 1)
	assert.Equal(t, "matches", h.syncLog.entries[0].Endpoint)
}

func TestSyncReferenceData(t *testing.T) {
	h := newHarness()
	h.source.series = []models.CompetitionStub{
		{ExternalID: "s-1", Name: "IPL", Type: models.CompetitionFranchise},
		{ExternalID: "s-2", Name: "Ashes", Type: models.CompetitionInternational},
	}

	result, err := h.poller.SyncReferenceData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	require.Len(t, h.syncLog.entries, 1)
	assert.Equal(t, "series", h.syncLog.entries[0].Endpoint)
}

func TestPollWinnerMappedToCanonicalTeam(t *testing.T) {
	h := newHarness()
	h.source.live = []models.MatchSnapshot{scheduledSnapshot("m-1")}
	_, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)

	done := scheduledSnapshot("m-1")
	done.Status = models.StatusCompleted
	winner := "t-aus"
	resultText := "Australia won by 5 wickets"
	done.WinnerExternal = &winner
	done.Result = &resultText
	h.source.live = []models.MatchSnapshot{done}

	cycle, err := h.poller.PollLive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cycle.Events)

	stored := h.store.byExternalID["m-1"]
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, "Australia won by 5 wickets", findEvent(h.sink.events, models.NotifyMatchResult).Body)
}
