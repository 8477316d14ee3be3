package copilot

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "send the report by friday", Normalize("  Send the REPORT, by Friday!! "))
	assert.Equal(t, "réunion à 10h", Normalize("Réunion à 10h."))
	assert.Equal(t, "", Normalize("?!..."))
}

func TestDedupeKey(t *testing.T) {
	meetingID := uuid.New().String()

	a := DedupeKey("Send the report by Friday.", "action_items", meetingID)
	b := DedupeKey("send   the report, by friday", "action_items", meetingID)
	assert.Equal(t, a, b)
	assert.Equal(t, meetingID+":action_items:send the report by friday", a)

	assert.NotEqual(t, a, DedupeKey("Send the report by Friday.", "decisions", meetingID))
	assert.NotEqual(t, a, DedupeKey("Send the report by Friday.", "action_items", uuid.New().String()))

	long := DedupeKey(strings.Repeat("é", 150), "risks", meetingID)
	assert.Equal(t, meetingID+":risks:"+strings.Repeat("é", 100), long)
}

func TestPayloadDedupeKey_UsesTitleAndDescription(t *testing.T) {
	meetingID := uuid.New()
	p := &entities.ActionItemPayload{Title: "Send checklist", Description: "To the whole team"}
	assert.Equal(t, meetingID.String()+":action_items:send checklist to the whole team", PayloadDedupeKey(meetingID, p))

	q := &entities.QuestionPayload{Text: "Who owns PR?"}
	assert.Equal(t, meetingID.String()+":open_questions:who owns pr", PayloadDedupeKey(meetingID, q))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("hello", ""))
	assert.Equal(t, 1.0, Similarity("Ship It", "ship it"))
	assert.InDelta(t, 0.5, Similarity("ship the app", "ship the build"), 1e-9)
}

func TestUnionEvidence(t *testing.T) {
	a := []entities.Evidence{
		{SegmentID: "s1", StartMs: 0, EndMs: 10, Quote: "one"},
		{SegmentID: "s2", StartMs: 10, EndMs: 20, Quote: "two"},
	}
	b := []entities.Evidence{
		{SegmentID: "s2", StartMs: 10, EndMs: 20, Quote: "two"},
		{SegmentID: "s3", StartMs: 20, EndMs: 30, Quote: "three"},
		{SegmentID: "s3", StartMs: 20, EndMs: 30, Quote: "three"},
	}

	out := UnionEvidence(a, b)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, entities.SegmentIDs(out))
	assert.Equal(t, a, UnionEvidence(a, a))
}

func sanitizedFor(t *testing.T, f *fixture, mutate func(doc map[string]any)) *entities.SanitizedOutput {
	t.Helper()
	doc := f.modelOutput()
	if mutate != nil {
		mutate(doc)
	}
	out, err := NewOutputValidator().Validate(toModelOutput(t, doc))
	require.NoError(t, err)
	return out
}

func TestMergeOrCreate_CreatesThenMerges(t *testing.T) {
	f := newFixture(t, 12)
	ctx := context.Background()
	engine := NewMergeEngine(0.8, nil)

	first := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 12)
	result, err := engine.MergeOrCreate(ctx, f.store, f.meeting.ID, sanitizedFor(t, f, nil), first)
	require.NoError(t, err)
	assert.Equal(t, 4, result.CreatedCount())
	assert.Equal(t, 0, result.MergedCount())
	require.Len(t, result.Suggestions, 4)

	risk := suggestionOfType(t, result.Suggestions, entities.SuggestionTypeRisk)
	require.NotNil(t, risk.Confidence)
	assert.InDelta(t, 0.8, *risk.Confidence, 1e-9)
	assert.Equal(t, first.ID, *risk.RunID)

	// same items again, the risk now cites one more segment with a new severity
	second := entities.NewCopilotRun(f.meeting.ID, entities.RunModeRealtime, "openai", "m", 12)
	out := sanitizedFor(t, f, func(doc map[string]any) {
		item := firstItem(doc, "risks")
		item["severity"] = "high"
		item["text"] = "Payment provider migration could slip!"
		item["evidence"] = append(item["evidence"].([]any), evidenceFor(f.segments[7]))
	})
	result, err = engine.MergeOrCreate(ctx, f.store, f.meeting.ID, out, second)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedCount())
	assert.Equal(t, 4, result.MergedCount())

	all := f.store.AllSuggestions(f.meeting.ID)
	require.Len(t, all, 4)

	merged := suggestionOfType(t, all, entities.SuggestionTypeRisk)
	assert.Equal(t, risk.ID, merged.ID)
	assert.Equal(t, first.ID, *merged.RunID)
	assert.Equal(t, second.ID, *merged.LastRunID)

	payload, err := merged.DecodePayload()
	require.NoError(t, err)
	rp := payload.(*entities.RiskPayload)
	assert.Equal(t, entities.LevelHigh, rp.Severity)
	assert.Equal(t, "Payment provider migration could slip!", rp.Text)
	assert.Equal(t, []string{f.segments[6].ID.String(), f.segments[7].ID.String()}, entities.SegmentIDs(rp.Evidence))
}

func TestMergeOrCreate_Idempotent(t *testing.T) {
	f := newFixture(t, 12)
	ctx := context.Background()
	engine := NewMergeEngine(0.8, nil)
	out := sanitizedFor(t, f, nil)

	_, err := engine.MergeOrCreate(ctx, f.store, f.meeting.ID, out, nil)
	require.NoError(t, err)
	before := f.store.AllSuggestions(f.meeting.ID)

	_, err = engine.MergeOrCreate(ctx, f.store, f.meeting.ID, out, nil)
	require.NoError(t, err)
	after := f.store.AllSuggestions(f.meeting.ID)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.JSONEq(t, string(before[i].Payload), string(after[i].Payload))
	}
}

func TestMergeOrCreate_ClosedSuggestionsAreNotMergeTargets(t *testing.T) {
	f := newFixture(t, 12)
	ctx := context.Background()
	engine := NewMergeEngine(0.8, nil)
	out := sanitizedFor(t, f, nil)

	result, err := engine.MergeOrCreate(ctx, f.store, f.meeting.ID, out, nil)
	require.NoError(t, err)

	decision := suggestionOfType(t, result.Suggestions, entities.SuggestionTypeDecision)
	require.NoError(t, decision.MarkRejected(uuid.New(), decision.CreatedAt))
	require.NoError(t, f.store.Suggestions().Update(ctx, decision))

	result, err = engine.MergeOrCreate(ctx, f.store, f.meeting.ID, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created[entities.SuggestionTypeDecision])
	assert.Equal(t, 3, result.MergedCount())
	assert.Len(t, f.store.AllSuggestions(f.meeting.ID), 5)
}

func TestMergeOrCreate_SameKeyTwiceInOneOutput(t *testing.T) {
	f := newFixture(t, 12)
	out := sanitizedFor(t, f, func(doc map[string]any) {
		doc["action_items"] = []any{}
		doc["risks"] = []any{}
		doc["open_questions"] = []any{}
	})
	// a decision whose text normalizes to the same key
	again := *out.Items[0].Payload.(*entities.DecisionPayload)
	again.Text = "ship version two, on March 3rd"
	again.Evidence = []entities.Evidence{{SegmentID: f.segments[5].ID.String(), StartMs: 25000, EndMs: 29000, Quote: "Agreed"}}
	out.Items = append(out.Items, entities.ExtractedItem{Payload: &again})

	result, err := NewMergeEngine(0.8, nil).MergeOrCreate(context.Background(), f.store, f.meeting.ID, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount())
	assert.Equal(t, 1, result.MergedCount())
	require.Len(t, result.Suggestions, 1)

	payload, err := result.Suggestions[0].DecodePayload()
	require.NoError(t, err)
	assert.Len(t, payload.EvidenceList(), 2)
}

func TestMergeOrCreate_ExplicitNullClearsField(t *testing.T) {
	f := newFixture(t, 12)
	ctx := context.Background()
	engine := NewMergeEngine(0.8, nil)

	_, err := engine.MergeOrCreate(ctx, f.store, f.meeting.ID, sanitizedFor(t, f, nil), nil)
	require.NoError(t, err)

	// keys left out keep the stored value
	_, err = engine.MergeOrCreate(ctx, f.store, f.meeting.ID, sanitizedFor(t, f, func(doc map[string]any) {
		delete(firstItem(doc, "action_items"), "due_date")
		delete(firstItem(doc, "open_questions"), "owner")
	}), nil)
	require.NoError(t, err)

	all := f.store.AllSuggestions(f.meeting.ID)
	action := decodeAs[*entities.ActionItemPayload](t, suggestionOfType(t, all, entities.SuggestionTypeActionItem))
	question := decodeAs[*entities.QuestionPayload](t, suggestionOfType(t, all, entities.SuggestionTypeQuestion))
	require.NotNil(t, action.DueDate)
	assert.Equal(t, "2025-03-07", *action.DueDate)
	require.NotNil(t, question.Owner)

	// keys sent as null clear it
	_, err = engine.MergeOrCreate(ctx, f.store, f.meeting.ID, sanitizedFor(t, f, func(doc map[string]any) {
		firstItem(doc, "action_items")["due_date"] = nil
		firstItem(doc, "open_questions")["owner"] = nil
	}), nil)
	require.NoError(t, err)

	all = f.store.AllSuggestions(f.meeting.ID)
	require.Len(t, all, 4)
	action = decodeAs[*entities.ActionItemPayload](t, suggestionOfType(t, all, entities.SuggestionTypeActionItem))
	question = decodeAs[*entities.QuestionPayload](t, suggestionOfType(t, all, entities.SuggestionTypeQuestion))
	assert.Nil(t, action.DueDate)
	assert.Nil(t, question.Owner)
	assert.Equal(t, "Send launch checklist", action.Title)
}

func decodeAs[P entities.Payload](t *testing.T, s *entities.Suggestion) P {
	t.Helper()
	payload, err := s.DecodePayload()
	require.NoError(t, err)
	typed, ok := payload.(P)
	require.True(t, ok)
	return typed
}
