package copilot

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

func TestPromptBuilder_English(t *testing.T) {
	f := newFixture(t, 3)
	mc := entities.MeetingContext{
		Title:        "Launch sync",
		Description:  "Weekly launch check-in",
		Language:     entities.LanguageEnglish,
		SpeakerCount: 2,
		Participants: []entities.Participant{
			{SpeakerLabel: "Speaker 1"},
			{SpeakerLabel: "Speaker 2", DisplayName: "Alice", UserEmail: "alice@example.com"},
		},
	}
	existing := []ExistingItem{{Title: "Book the venue", Description: "Confirm the room for the demo"}}

	prompt, err := NewPromptBuilder().Build(f.segments, mc, entities.LanguageEnglish, existing)
	require.NoError(t, err)

	assert.Contains(t, prompt.System, "Return ONLY valid JSON")
	assert.Contains(t, prompt.User, "- Title: Launch sync")
	assert.Contains(t, prompt.User, "- Description: Weekly launch check-in")
	assert.Contains(t, prompt.User, "- Language: English")
	assert.Contains(t, prompt.User, "- Participants: Speaker 1, Alice → alice@example.com")
	assert.Contains(t, prompt.User, "- Speakers detected: 2")
	assert.Contains(t, prompt.User, "[0.0s] Speaker 1: Good morning everyone, let's review the launch plan.")
	assert.Contains(t, prompt.User, "[5.0s] Speaker 2: The landing page copy is almost done.")
	assert.Contains(t, prompt.User, f.segments[2].ID.String()+" (10000-14000 ms)")
	assert.Contains(t, prompt.User, "EXISTING ITEMS TO AVOID DUPLICATING:\n- Book the venue: Confirm the room for the demo")
	assert.Contains(t, prompt.User, `"action_items"`)
}

func TestPromptBuilder_French(t *testing.T) {
	f := newFixture(t, 1)
	prompt, err := NewPromptBuilder().Build(f.segments, entities.MeetingContext{}, entities.LanguageFrench, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt.System, "Retournez UNIQUEMENT du JSON valide")
	assert.Contains(t, prompt.User, "- Titre: Réunion")
	assert.Contains(t, prompt.User, "- Langue: Français")
	assert.NotContains(t, prompt.User, "ÉLÉMENTS EXISTANTS")
}

var exampleTiming = regexp.MustCompile(`"start_ms": (\d+), "end_ms": (\d+)`)

func TestPromptBuilder_SchemaExampleTimingsAreValid(t *testing.T) {
	f := newFixture(t, 1)
	for _, lang := range []entities.Language{entities.LanguageEnglish, entities.LanguageFrench} {
		prompt, err := NewPromptBuilder().Build(f.segments, entities.MeetingContext{}, lang, nil)
		require.NoError(t, err)

		matches := exampleTiming.FindAllStringSubmatch(prompt.User, -1)
		require.Len(t, matches, 4, lang)
		for _, m := range matches {
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			assert.Less(t, start, end, "%s example %s", lang, m[0])
		}
	}
}

func TestPromptBuilder_UnsupportedLanguage(t *testing.T) {
	_, err := NewPromptBuilder().Build(nil, entities.MeetingContext{}, entities.Language("de"), nil)
	assert.ErrorIs(t, err, ucerr.ErrUnsupportedLanguage)
}

func TestPromptBuilder_SkipsPartialSegments(t *testing.T) {
	f := newFixture(t, 2)
	partial := f.store.AddPartialSegment(f.meeting.ID, 20000, 21000, "Speaker 1", "half a thou")
	window := append(f.segments, partial)

	prompt, err := NewPromptBuilder().Build(window, entities.MeetingContext{Title: "x"}, entities.LanguageEnglish, nil)
	require.NoError(t, err)

	assert.NotContains(t, prompt.User, "half a thou")
	assert.NotContains(t, prompt.User, partial.ID.String())
}

func TestFormatTranscript_UsesDisplayName(t *testing.T) {
	name := "Bob"
	seg := &entities.TranscriptSegment{StartMs: 12345, SpeakerLabel: "Speaker 3", SpeakerDisplayName: &name, Text: "hello", IsFinal: true}
	anon := &entities.TranscriptSegment{StartMs: 0, Text: "who am I", IsFinal: true}

	out := FormatTranscript([]*entities.TranscriptSegment{seg, anon, nil})
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Len(t, lines, 2)
	assert.Equal(t, "[12.3s] Bob: hello", lines[0])
	assert.Equal(t, "[0.0s] Unknown: who am I", lines[1])
}

func TestExistingItemsFrom(t *testing.T) {
	f := newFixture(t, 1)
	ev := []entities.Evidence{{SegmentID: f.segments[0].ID.String(), StartMs: 0, EndMs: 4000, Quote: "q"}}

	action, err := entities.NewSuggestion(f.meeting.ID, &entities.ActionItemPayload{Title: "Ship it", Description: "by Monday", Priority: entities.LevelLow, Evidence: ev}, "k1", 0.8, nil)
	require.NoError(t, err)
	decision, err := entities.NewSuggestion(f.meeting.ID, &entities.DecisionPayload{Text: "Use Postgres", Evidence: ev}, "k2", 0.8, nil)
	require.NoError(t, err)

	items := ExistingItemsFrom([]*entities.Suggestion{action, decision})
	assert.Equal(t, []ExistingItem{
		{Title: "Ship it", Description: "by Monday"},
		{Title: "Use Postgres"},
	}, items)
}
