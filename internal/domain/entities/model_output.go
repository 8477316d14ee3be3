package entities

import "encoding/json"

// Language is an output language the copilot can prompt in
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

func (l Language) IsSupported() bool {
	return l == LanguageEnglish || l == LanguageFrench
}

// OutputSection maps a top-level array of the model response to a suggestion type
type OutputSection struct {
	Key  string
	Type SuggestionType
}

// OutputSections in processing order
var OutputSections = []OutputSection{
	{Key: "action_items", Type: SuggestionTypeActionItem},
	{Key: "decisions", Type: SuggestionTypeDecision},
	{Key: "risks", Type: SuggestionTypeRisk},
	{Key: "open_questions", Type: SuggestionTypeQuestion},
}

// ModelOutput is the parsed but unvalidated JSON object returned by the reasoning service
type ModelOutput struct {
	Document map[string]json.RawMessage
	Metadata RunMetadata
}

// ExtractedItem is one validated, allow-listed item
type ExtractedItem struct {
	Payload    Payload  `json:"payload"`
	Confidence *float64 `json:"confidence,omitempty"`
	// Present holds the allow-listed keys the model actually sent, null ones included
	Present FieldSet `json:"-"`
}

// FieldSet is a set of payload keys. A nil set stands for every key.
type FieldSet map[string]struct{}

func NewFieldSet(keys ...string) FieldSet {
	set := make(FieldSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (s FieldSet) Has(key string) bool {
	if s == nil {
		return true
	}
	_, ok := s[key]
	return ok
}

// SanitizedOutput is what the validator hands to the merge engine
type SanitizedOutput struct {
	Language Language        `json:"language"`
	Items    []ExtractedItem `json:"items"`
}

// CountByType returns how many items of each type the output holds
func (o *SanitizedOutput) CountByType() map[SuggestionType]int {
	counts := make(map[SuggestionType]int, len(SuggestionTypes))
	for _, item := range o.Items {
		counts[item.Payload.Type()]++
	}
	return counts
}
