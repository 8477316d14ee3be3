package copilot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/cache"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/jobcontext"
)

func (f *fixture) service(t *testing.T, c *fakeCompleter, debouncer Debouncer) *copilotService {
	t.Helper()
	f.completer = c
	svc := NewCopilotService(Dependencies{
		Store:     f.store,
		Completer: c,
		Locker:    f.locker,
		Notifier:  f.notifier,
		Archive:   f.archive,
		Debouncer: debouncer,
	}, f.cfg, nil)
	return svc.(*copilotService)
}

func TestTriggerRun_RealtimeIsQueued(t *testing.T) {
	f := newFixture(t, 12)
	f.cfg.QueueSize = 1
	svc := f.service(t, completer(reply(minimalResponse)), nil)
	ctx := context.Background()

	run, err := svc.TriggerRun(ctx, f.meeting.ID, entities.RunModeRealtime)
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.Equal(t, 1, svc.queue.Len())

	_, err = svc.TriggerRun(ctx, f.meeting.ID, entities.RunModeRealtime)
	assert.ErrorIs(t, err, ucerr.ErrRunInProgress)
}

func TestTriggerRun_PostMeetingRunsInline(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(mustJSON(t, f.modelOutput()))), nil)

	run, err := svc.TriggerRun(context.Background(), f.meeting.ID, entities.RunModePostMeeting)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, entities.RunStatusSuccess, run.Status)
	assert.Equal(t, entities.RunModePostMeeting, run.Mode)
	assert.Equal(t, 0, svc.queue.Len())
}

func TestTriggerRun_Errors(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(minimalResponse)), nil)

	_, err := svc.TriggerRun(context.Background(), f.meeting.ID, entities.RunMode("hourly"))
	assert.ErrorIs(t, err, ucerr.ErrInvalidInput)

	_, err = svc.TriggerRun(context.Background(), uuid.New(), entities.RunModeRealtime)
	assert.ErrorIs(t, err, ucerr.ErrMeetingNotFound)
	assert.Equal(t, 0, svc.queue.Len())
}

func TestOnSegmentFinalized(t *testing.T) {
	f := newFixture(t, 12)
	debounce := cache.NewMemoryStore()
	t.Cleanup(debounce.Close)
	svc := f.service(t, completer(reply(minimalResponse)), debounce)
	ctx := context.Background()

	// not live yet
	require.NoError(t, svc.OnSegmentFinalized(ctx, f.meeting.ID, f.segments[0].ID.String()))
	assert.Equal(t, 0, svc.queue.Len())

	require.NoError(t, svc.OnLiveSessionStarted(ctx, f.meeting.ID, "RM_abc"))
	require.NoError(t, svc.OnSegmentFinalized(ctx, f.meeting.ID, f.segments[1].ID.String()))
	assert.Equal(t, 1, svc.queue.Len())

	// inside the debounce window
	require.NoError(t, svc.OnSegmentFinalized(ctx, f.meeting.ID, f.segments[2].ID.String()))
	assert.Equal(t, 1, svc.queue.Len())

	req := <-svc.queue.jobs
	assert.Equal(t, RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModeRealtime, Trigger: TriggerSegmentFinalized}, req)
}

func TestOnSegmentFinalized_QueueFull(t *testing.T) {
	f := newFixture(t, 12)
	f.cfg.QueueSize = 1
	f.cfg.RealtimeMinInterval = 0
	svc := f.service(t, completer(reply(minimalResponse)), nil)
	ctx := context.Background()
	require.NoError(t, svc.OnLiveSessionStarted(ctx, f.meeting.ID, ""))

	require.NoError(t, svc.OnSegmentFinalized(ctx, f.meeting.ID, "s1"))
	assert.ErrorIs(t, svc.OnSegmentFinalized(ctx, f.meeting.ID, "s2"), ucerr.ErrRunInProgress)
}

func TestLiveSessionLifecycle(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(minimalResponse)), nil)
	ctx := context.Background()

	require.NoError(t, svc.OnLiveSessionStarted(ctx, f.meeting.ID, "RM_abc"))
	// a second start keeps the open session
	require.NoError(t, svc.OnLiveSessionStarted(ctx, f.meeting.ID, "RM_other"))
	session, err := f.store.LiveSessions().FindActiveByMeeting(ctx, f.meeting.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "RM_abc", *session.LivekitRoomSID)

	status, err := svc.GetStatus(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.True(t, status.IsLive)

	require.NoError(t, svc.OnLiveSessionEnded(ctx, f.meeting.ID))
	session, err = f.store.LiveSessions().FindActiveByMeeting(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.Nil(t, session)

	req := <-svc.queue.jobs
	assert.Equal(t, RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModePostMeeting, Trigger: TriggerSessionEnded}, req)

	// ending a meeting that is not live still queues the post-meeting run
	require.NoError(t, svc.OnLiveSessionEnded(ctx, f.meeting.ID))
	assert.Equal(t, 1, svc.queue.Len())
}

func TestRunQueue_ExhaustedAttemptsRecordSyntheticRun(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(fail(errUpstream)), nil)

	err := svc.queue.Process(context.Background(), 0, RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModePostMeeting, Trigger: TriggerSessionEnded})
	require.Error(t, err)
	assert.ErrorIs(t, err, jobcontext.ErrRetriesExhausted)
	assert.ErrorIs(t, err, ucerr.ErrGateway)

	// one call per attempt, the gateway does not retry upstream errors
	assert.Equal(t, f.cfg.RunAttempts, f.completer.Calls())

	runs := f.store.AllRuns(f.meeting.ID)
	require.Len(t, runs, f.cfg.RunAttempts+1)
	for _, run := range runs {
		assert.Equal(t, entities.RunStatusFailed, run.Status)
	}
	synthetic := runs[len(runs)-1]
	assert.Equal(t, 0, synthetic.SegmentCount)
	require.NotNil(t, synthetic.ErrorMessage)
	assert.Contains(t, *synthetic.ErrorMessage, "exhausted 2 attempts")
}

func TestRunQueue_PermanentFailureIsNotRetried(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply("no json here")), nil)

	err := svc.queue.Process(context.Background(), 0, RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModePostMeeting, Trigger: TriggerExplicit})
	assert.ErrorIs(t, err, ucerr.ErrMalformedResponse)
	assert.NotErrorIs(t, err, jobcontext.ErrRetriesExhausted)
	assert.Equal(t, 1, f.completer.Calls())
	assert.Len(t, f.store.AllRuns(f.meeting.ID), 1)
}

func TestRunQueue_InProgressIsSkipped(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(minimalResponse)), nil)
	_, ok, err := f.locker.TryLock(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	require.True(t, ok)

	err = svc.queue.Process(context.Background(), 0, RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModeRealtime, Trigger: TriggerExplicit})
	assert.NoError(t, err)
	assert.Empty(t, f.store.AllRuns(f.meeting.ID))
}

func TestWorkerPool_ProcessesSessionEnd(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(mustJSON(t, f.modelOutput()))), nil)
	ctx := context.Background()

	require.NoError(t, svc.StartWorkerPool(ctx, 2))
	assert.Error(t, svc.StartWorkerPool(ctx, 2))

	require.NoError(t, svc.OnLiveSessionStarted(ctx, f.meeting.ID, ""))
	require.NoError(t, svc.OnLiveSessionEnded(ctx, f.meeting.ID))

	require.Eventually(t, func() bool {
		runs := f.store.AllRuns(f.meeting.ID)
		return len(runs) == 1 && runs[0].Status == entities.RunStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.StopWorkerPool())
	assert.Error(t, svc.StopWorkerPool())

	runs, err := svc.ListRuns(ctx, f.meeting.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.RunModePostMeeting, runs[0].Mode)

	suggestions, err := svc.ListSuggestions(ctx, f.meeting.ID, repositories.SuggestionFilters{})
	require.NoError(t, err)
	assert.Len(t, suggestions, 4)
}

func TestCleanupExpired(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(minimalResponse)), nil)
	ctx := context.Background()
	old := time.Now().Add(-f.cfg.Retention - time.Hour)

	oldSuccess := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 10)
	require.NoError(t, oldSuccess.MarkSuccess(0, entities.RunMetadata{}))
	oldSuccess.StartedAt = old
	oldFailed := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 10)
	require.NoError(t, oldFailed.MarkFailed("boom"))
	oldFailed.StartedAt = old
	oldStarted := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 10)
	oldStarted.StartedAt = old
	recent := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 10)
	require.NoError(t, recent.MarkSuccess(0, entities.RunMetadata{}))
	for _, r := range []*entities.CopilotRun{oldSuccess, oldFailed, oldStarted, recent} {
		f.store.PutRun(r)
	}

	ev := []entities.Evidence{{SegmentID: "s", StartMs: 0, EndMs: 1, Quote: "q"}}
	oldRejected, err := entities.NewSuggestion(f.meeting.ID, &entities.DecisionPayload{Text: "old", Evidence: ev}, "k1", 0.8, nil)
	require.NoError(t, err)
	require.NoError(t, oldRejected.MarkRejected(uuid.New(), old))
	oldRejected.CreatedAt = old
	oldProposed, err := entities.NewSuggestion(f.meeting.ID, &entities.DecisionPayload{Text: "still open", Evidence: ev}, "k2", 0.8, nil)
	require.NoError(t, err)
	oldProposed.CreatedAt = old
	f.store.PutSuggestion(oldRejected)
	f.store.PutSuggestion(oldProposed)

	result, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{RunsDeleted: 2, SuggestionsDeleted: 1}, result)

	assert.Len(t, f.store.AllRuns(f.meeting.ID), 2)
	remaining := f.store.AllSuggestions(f.meeting.ID)
	require.Len(t, remaining, 1)
	assert.Equal(t, oldProposed.ID, remaining[0].ID)
}

func TestSweepStaleRuns(t *testing.T) {
	f := newFixture(t, 12)
	svc := f.service(t, completer(reply(minimalResponse)), nil)
	ctx := context.Background()

	stale := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 10)
	stale.StartedAt = time.Now().Add(-f.cfg.StaleRunAfter - time.Minute)
	fresh := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 10)
	f.store.PutRun(stale)
	f.store.PutRun(fresh)

	swept, err := svc.SweepStaleRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got, err := svc.GetRun(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusTimeout, got.Status)
	require.NotNil(t, got.ErrorMessage)

	got, err = svc.GetRun(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusStarted, got.Status)

	swept, err = svc.SweepStaleRuns(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestGetStatus(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeRisk)
	_, err := o.Reject(ctx, s.ID, f.alice.ID)
	require.NoError(t, err)

	status, err := o.GetStatus(ctx, f.meeting.ID)
	require.NoError(t, err)

	assert.False(t, status.IsLive)
	assert.Equal(t, int64(4), status.Suggestions.Total)
	assert.Equal(t, int64(3), status.Suggestions.ByStatus[entities.SuggestionStatusProposed])
	assert.Equal(t, int64(1), status.Suggestions.ByStatus[entities.SuggestionStatusRejected])
	assert.Equal(t, int64(1), status.Suggestions.ByType[entities.SuggestionTypeActionItem])
	assert.Equal(t, 1, status.SpeakerMappings)
	require.NotNil(t, status.LatestRun)
	assert.Equal(t, entities.RunStatusSuccess, status.LatestRun.Status)

	_, err = o.GetStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, ucerr.ErrMeetingNotFound)
}

func TestListSuggestions_Filters(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()

	decisions := entities.SuggestionTypeDecision
	list, err := o.ListSuggestions(ctx, f.meeting.ID, repositories.SuggestionFilters{Type: &decisions})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.SuggestionTypeDecision, list[0].Type)

	list, err = o.ListSuggestions(ctx, f.meeting.ID, repositories.SuggestionFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	bogus := entities.SuggestionStatus("archived")
	_, err = o.ListSuggestions(ctx, f.meeting.ID, repositories.SuggestionFilters{Status: &bogus})
	assert.ErrorIs(t, err, ucerr.ErrInvalidInput)
}

func TestGetRun_NotFound(t *testing.T) {
	f := newFixture(t, 0)
	o := f.orchestrator(completer(reply(minimalResponse)))

	_, err := o.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ucerr.ErrNotFound)
}
