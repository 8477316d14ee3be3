package copilot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

// reviewFixture runs one post-meeting pass so every suggestion type exists
func reviewFixture(t *testing.T) (*fixture, *Orchestrator) {
	t.Helper()
	f := newFixture(t, 12)
	o := f.orchestrator(completer(reply(mustJSON(t, f.modelOutput()))))
	_, err := o.Execute(context.Background(), RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModePostMeeting, Trigger: TriggerExplicit})
	require.NoError(t, err)
	return f, o
}

func TestAccept_ActionItem(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	reviewer := uuid.New()
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeActionItem)

	ref, accepted, err := o.Accept(ctx, s.ID, reviewer)
	require.NoError(t, err)

	assert.Equal(t, entities.EntityKindActionItem, ref.Kind)
	assert.Equal(t, "Send launch checklist", ref.Label)
	assert.Equal(t, "high", ref.Priority)
	require.NotNil(t, ref.AssigneeID)
	assert.Equal(t, f.alice.ID.String(), *ref.AssigneeID)

	assert.Equal(t, entities.SuggestionStatusAccepted, accepted.Status)
	assert.Equal(t, reviewer, *accepted.ReviewedBy)
	require.NotNil(t, accepted.AcceptedActionItemID)
	assert.Equal(t, ref.ID, accepted.AcceptedActionItemID.String())

	items := f.store.ActionItems(f.meeting.ID)
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "Send launch checklist", item.Title)
	assert.Equal(t, "Share the launch checklist with the team", item.Description)
	assert.Equal(t, f.alice.ID, *item.AssigneeID)
	assert.Equal(t, s.ID, *item.SuggestionID)
	assert.Equal(t, reviewer, item.CreatedBy)
	require.NotNil(t, item.DueDate)
	assert.Equal(t, "2025-03-07", item.DueDate.Format("2006-01-02"))
	assert.Equal(t, []string{f.segments[2].ID.String(), f.segments[3].ID.String()}, item.SourceSegmentIDs)

	minutes := f.store.MinutesOf(f.meeting.ID)
	require.NotNil(t, minutes)
	assert.Equal(t, minutes.ID, item.MinutesID)

	events := f.notifier.Events()
	last := events[len(events)-1]
	assert.Equal(t, EventSuggestionStatusUpdated, last.Type)
	assert.Equal(t, SuggestionStatusUpdated{SuggestionID: s.ID, Status: entities.SuggestionStatusAccepted, MeetingID: f.meeting.ID}, last.Data)
}

func TestAccept_UnknownAssigneeIsLeftEmpty(t *testing.T) {
	f := newFixture(t, 12)
	doc := f.modelOutput()
	firstItem(doc, "action_items")["assignee"] = map[string]any{"speaker_label": "Speaker 2", "user_id": uuid.New().String()}
	o := f.orchestrator(completer(reply(mustJSON(t, doc))))
	_, err := o.Execute(context.Background(), RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModePostMeeting, Trigger: TriggerExplicit})
	require.NoError(t, err)

	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeActionItem)
	ref, _, err := o.Accept(context.Background(), s.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, ref.AssigneeID)
	assert.Nil(t, f.store.ActionItems(f.meeting.ID)[0].AssigneeID)
}

func TestAccept_MinutesSections(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	all := f.store.AllSuggestions(f.meeting.ID)

	for _, typ := range []entities.SuggestionType{entities.SuggestionTypeDecision, entities.SuggestionTypeRisk, entities.SuggestionTypeQuestion} {
		s := suggestionOfType(t, all, typ)
		ref, _, err := o.Accept(ctx, s.ID, f.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID.String(), ref.ID)
	}

	minutes := f.store.MinutesOf(f.meeting.ID)
	require.NotNil(t, minutes)
	require.Len(t, minutes.Content.Decisions, 1)
	require.Len(t, minutes.Content.Risks, 1)
	require.Len(t, minutes.Content.OpenQuestions, 1)

	assert.Equal(t, "Ship version two on March 3rd", minutes.Content.Decisions[0].Text)
	assert.Equal(t, "medium", minutes.Content.Risks[0].Severity)
	assert.Equal(t, f.alice.ID.String(), minutes.Content.OpenQuestions[0].RecordedBy)
	assert.Empty(t, f.store.ActionItems(f.meeting.ID))
}

func TestAccept_Twice(t *testing.T) {
	f, o := reviewFixture(t)
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeActionItem)

	_, _, err := o.Accept(context.Background(), s.ID, uuid.New())
	require.NoError(t, err)

	_, _, err = o.Accept(context.Background(), s.ID, uuid.New())
	assert.ErrorIs(t, err, ucerr.ErrSuggestionClosed)
	assert.ErrorIs(t, err, ucerr.ErrConflict)
	assert.Len(t, f.store.ActionItems(f.meeting.ID), 1)
}

func TestAccept_Concurrent(t *testing.T) {
	f, o := reviewFixture(t)
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeActionItem)

	const reviewers = 8
	errs := make([]error, reviewers)
	var wg sync.WaitGroup
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = o.Accept(context.Background(), s.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ucerr.ErrSuggestionClosed)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.ActionItems(f.meeting.ID), 1)
}

func TestAccept_MaterializationFailureRollsBack(t *testing.T) {
	f, o := reviewFixture(t)
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeActionItem)
	f.store.FailOn("Suggestions.Update", errBoom)

	_, _, err := o.Accept(context.Background(), s.ID, uuid.New())
	assert.ErrorIs(t, err, errBoom)

	f.store.FailOn("Suggestions.Update", nil)
	assert.Empty(t, f.store.ActionItems(f.meeting.ID))
	assert.Nil(t, f.store.MinutesOf(f.meeting.ID))

	current, err := f.store.Suggestions().FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SuggestionStatusProposed, current.Status)
}

func TestReject(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeRisk)

	rejected, err := o.Reject(ctx, s.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SuggestionStatusRejected, rejected.Status)
	assert.Nil(t, rejected.Materialized)

	_, _, err = o.Accept(ctx, s.ID, f.alice.ID)
	assert.ErrorIs(t, err, ucerr.ErrSuggestionClosed)
	_, err = o.Reject(ctx, s.ID, f.alice.ID)
	assert.ErrorIs(t, err, ucerr.ErrSuggestionClosed)
	assert.Nil(t, f.store.MinutesOf(f.meeting.ID))
}

func TestEdit(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeActionItem)

	edited, err := o.Edit(ctx, s.ID, f.alice.ID, json.RawMessage(`{"title":"Send the final checklist","description":"Include QA sign-off","priority":"medium"}`))
	require.NoError(t, err)
	assert.Equal(t, entities.SuggestionStatusEdited, edited.Status)

	payload, err := edited.DecodePayload()
	require.NoError(t, err)
	ap := payload.(*entities.ActionItemPayload)
	assert.Equal(t, "Send the final checklist", ap.Title)
	assert.Equal(t, entities.LevelMedium, ap.Priority)
	// evidence survives an edit that omits it
	assert.Len(t, ap.Evidence, 2)
	assert.Equal(t, s.SourceSegmentIDs, edited.SourceSegmentIDs)

	// edited suggestions can still be accepted
	ref, accepted, err := o.Accept(ctx, s.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Send the final checklist", ref.Label)
	assert.Equal(t, entities.SuggestionStatusAccepted, accepted.Status)
}

func TestEdit_Errors(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeDecision)

	_, err := o.Edit(ctx, s.ID, f.alice.ID, json.RawMessage(`"just a string"`))
	assert.ErrorIs(t, err, ucerr.ErrInvalidInput)

	for _, ev := range []string{
		`{"segment_id":"s1","start_ms":5000,"end_ms":5000,"quote":"Agreed"}`,
		`{"segment_id":"s1","start_ms":5000,"end_ms":6000,"quote":"  "}`,
		`{"segment_id":"","start_ms":5000,"end_ms":6000,"quote":"Agreed"}`,
	} {
		_, err = o.Edit(ctx, s.ID, f.alice.ID, json.RawMessage(`{"text":"x","evidence":[`+ev+`]}`))
		assert.ErrorIs(t, err, ucerr.ErrInvalidInput, ev)
	}
	unchanged := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeDecision)
	assert.Equal(t, entities.SuggestionStatusProposed, unchanged.Status)

	_, err = o.Edit(ctx, uuid.New(), f.alice.ID, json.RawMessage(`{"text":"x"}`))
	assert.ErrorIs(t, err, ucerr.ErrSuggestionNotFound)
	assert.ErrorIs(t, err, ucerr.ErrNotFound)

	_, err = o.Reject(ctx, s.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = o.Edit(ctx, s.ID, f.alice.ID, json.RawMessage(`{"text":"x"}`))
	assert.ErrorIs(t, err, ucerr.ErrSuggestionClosed)
}

func TestEditedSuggestionStillMerges(t *testing.T) {
	f, o := reviewFixture(t)
	ctx := context.Background()
	s := suggestionOfType(t, f.store.AllSuggestions(f.meeting.ID), entities.SuggestionTypeQuestion)

	_, err := o.Edit(ctx, s.ID, f.alice.ID, json.RawMessage(`{"text":"Who owns the press release?","owner":{"speaker_label":"Speaker 2"}}`))
	require.NoError(t, err)

	_, err = o.Execute(ctx, RunRequest{MeetingID: f.meeting.ID, Mode: entities.RunModePostMeeting, Trigger: TriggerExplicit})
	require.NoError(t, err)

	assert.Len(t, f.store.AllSuggestions(f.meeting.ID), 4)
	current, err := f.store.Suggestions().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SuggestionStatusEdited, current.Status)
}
