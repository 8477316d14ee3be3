package copilot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

func toModelOutput(t *testing.T, doc map[string]any) *entities.ModelOutput {
	t.Helper()
	parsed, err := ParseModelResponse(mustJSON(t, doc))
	require.NoError(t, err)
	return &entities.ModelOutput{Document: parsed}
}

func TestValidate_SanitizesEveryType(t *testing.T) {
	f := newFixture(t, 12)
	doc := f.modelOutput()
	action := doc["action_items"].([]any)[0].(map[string]any)
	action["internal_notes"] = "should never reach the database"
	action["evidence"].([]any)[0].(map[string]any)["speaker"] = "dropped too"

	out, err := NewOutputValidator().Validate(toModelOutput(t, doc))
	require.NoError(t, err)

	assert.Equal(t, entities.LanguageEnglish, out.Language)
	require.Len(t, out.Items, 4)
	assert.Equal(t, map[entities.SuggestionType]int{
		entities.SuggestionTypeActionItem: 1,
		entities.SuggestionTypeDecision:   1,
		entities.SuggestionTypeRisk:       1,
		entities.SuggestionTypeQuestion:   1,
	}, out.CountByType())

	ai, ok := out.Items[0].Payload.(*entities.ActionItemPayload)
	require.True(t, ok)
	assert.Equal(t, "Send launch checklist", ai.Title)
	assert.Equal(t, entities.LevelHigh, ai.Priority)
	require.NotNil(t, ai.Assignee)
	assert.Equal(t, "Speaker 2", ai.Assignee.SpeakerLabel)
	require.NotNil(t, ai.DueDate)
	assert.Equal(t, "2025-03-07", *ai.DueDate)
	assert.Empty(t, ai.Extra)
	require.NotNil(t, out.Items[0].Confidence)
	assert.InDelta(t, 0.9, *out.Items[0].Confidence, 1e-9)

	raw, err := json.Marshal(ai)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "internal_notes")
	assert.NotContains(t, string(raw), "dropped too")

	risk := out.Items[2].Payload.(*entities.RiskPayload)
	assert.Equal(t, entities.LevelMedium, risk.Severity)
	question := out.Items[3].Payload.(*entities.QuestionPayload)
	require.NotNil(t, question.Owner)
	assert.Equal(t, "Speaker 1", question.Owner.SpeakerLabel)
	assert.Nil(t, out.Items[3].Confidence)

	assert.True(t, out.Items[0].Present.Has("due_date"))
	assert.False(t, out.Items[0].Present.Has("internal_notes"))
	assert.False(t, out.Items[1].Present.Has("owner"))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc map[string]any)
		wantErr string
	}{
		{
			name:    "unsupported language",
			mutate:  func(doc map[string]any) { doc["language"] = "de" },
			wantErr: `invalid language "de"`,
		},
		{
			name:    "language not a string",
			mutate:  func(doc map[string]any) { doc["language"] = 3 },
			wantErr: "language must be a string",
		},
		{
			name: "action item without assignee",
			mutate: func(doc map[string]any) {
				delete(firstItem(doc, "action_items"), "assignee")
			},
			wantErr: "action_items 0 missing required field: assignee",
		},
		{
			name: "bad priority",
			mutate: func(doc map[string]any) {
				firstItem(doc, "action_items")["priority"] = "urgent"
			},
			wantErr: "action_items 0 has invalid priority",
		},
		{
			name: "assignee without speaker label",
			mutate: func(doc map[string]any) {
				firstItem(doc, "action_items")["assignee"] = map[string]any{"user_id": nil}
			},
			wantErr: "action_items 0 has invalid assignee",
		},
		{
			name: "empty decision text",
			mutate: func(doc map[string]any) {
				firstItem(doc, "decisions")["text"] = "   "
			},
			wantErr: "decisions 0 has invalid text",
		},
		{
			name: "risk without severity",
			mutate: func(doc map[string]any) {
				delete(firstItem(doc, "risks"), "severity")
			},
			wantErr: "risks 0 missing required field: severity",
		},
		{
			name: "evidence ends before it starts",
			mutate: func(doc map[string]any) {
				ev := firstItem(doc, "decisions")["evidence"].([]any)[0].(map[string]any)
				ev["end_ms"] = ev["start_ms"]
			},
			wantErr: "decisions 0 evidence 0 has invalid time range",
		},
		{
			name: "fractional timing",
			mutate: func(doc map[string]any) {
				firstItem(doc, "risks")["evidence"].([]any)[0].(map[string]any)["start_ms"] = 1.5
			},
			wantErr: "risks 0 evidence 0 has invalid timing",
		},
		{
			name: "evidence without end",
			mutate: func(doc map[string]any) {
				delete(firstItem(doc, "open_questions")["evidence"].([]any)[0].(map[string]any), "end_ms")
			},
			wantErr: "open_questions 0 evidence 0 missing required field: end_ms",
		},
		{
			name: "duplicate titles ignoring case",
			mutate: func(doc map[string]any) {
				items := doc["decisions"].([]any)
				dup := map[string]any{}
				for k, v := range items[0].(map[string]any) {
					dup[k] = v
				}
				dup["text"] = "SHIP VERSION TWO ON MARCH 3RD"
				doc["decisions"] = append(items, dup)
			},
			wantErr: "duplicate titles found in decisions",
		},
		{
			name: "field errors win over an earlier duplicate",
			mutate: func(doc map[string]any) {
				items := doc["decisions"].([]any)
				doc["decisions"] = append(items, items[0])
				firstItem(doc, "risks")["severity"] = "catastrophic"
			},
			wantErr: "risks 0 has invalid severity",
		},
		{
			name:    "open_questions missing",
			mutate:  func(doc map[string]any) { delete(doc, "open_questions") },
			wantErr: "missing required field: open_questions",
		},
		{
			name: "confidence out of range",
			mutate: func(doc map[string]any) {
				firstItem(doc, "risks")["confidence"] = 1.2
			},
			wantErr: "risks 0 has invalid confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 12)
			doc := f.modelOutput()
			tt.mutate(doc)

			raw := mustJSON(t, doc)
			var parsed map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(raw), &parsed))

			_, err := NewOutputValidator().Validate(&entities.ModelOutput{Document: parsed})
			require.Error(t, err)
			assert.ErrorIs(t, err, ucerr.ErrInvalidOutput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptySectionsAreValid(t *testing.T) {
	parsed, err := ParseModelResponse(minimalResponse)
	require.NoError(t, err)

	out, err := NewOutputValidator().Validate(&entities.ModelOutput{Document: parsed})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestValidate_NilOutput(t *testing.T) {
	_, err := NewOutputValidator().Validate(nil)
	assert.ErrorIs(t, err, ucerr.ErrInvalidOutput)
}

func firstItem(doc map[string]any, section string) map[string]any {
	return doc[section].([]any)[0].(map[string]any)
}
