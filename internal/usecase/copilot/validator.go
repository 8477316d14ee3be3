package copilot

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

// OutputValidator enforces the output schema and business rules, then strips
// every field outside a type's allow-list. It performs no I/O.
type OutputValidator struct{}

func NewOutputValidator() *OutputValidator {
	return &OutputValidator{}
}

type rawItem map[string]json.RawMessage

// Validate checks, in order: top-level shape and language, required fields per
// item type, evidence entries, and only once every section is clean, duplicate
// labels within a type.
func (v *OutputValidator) Validate(out *entities.ModelOutput) (*entities.SanitizedOutput, error) {
	if out == nil || out.Document == nil {
		return nil, ucerr.InvalidOutput("empty output")
	}
	doc := out.Document

	for _, key := range []string{"language", "action_items", "decisions", "risks", "open_questions"} {
		if _, ok := doc[key]; !ok {
			return nil, ucerr.InvalidOutput("missing required field: %s", key)
		}
	}

	var language string
	if err := json.Unmarshal(doc["language"], &language); err != nil {
		return nil, ucerr.InvalidOutput("language must be a string")
	}
	lang := entities.Language(language)
	if !lang.IsSupported() {
		return nil, ucerr.InvalidOutput("invalid language %q, must be 'en' or 'fr'", language)
	}

	sanitized := &entities.SanitizedOutput{Language: lang}
	for _, section := range entities.OutputSections {
		items, err := decodeSection(doc[section.Key], section.Key)
		if err != nil {
			return nil, err
		}

		for i, item := range items {
			payload, err := sanitizeItem(section, i, item)
			if err != nil {
				return nil, err
			}
			confidence, err := optionalConfidence(item, section.Key, i)
			if err != nil {
				return nil, err
			}
			sanitized.Items = append(sanitized.Items, entities.ExtractedItem{
				Payload:    payload,
				Confidence: confidence,
				Present:    presentFields(item, section.Type),
			})
		}
	}

	if err := checkDuplicateLabels(sanitized.Items); err != nil {
		return nil, err
	}
	return sanitized, nil
}

// checkDuplicateLabels rejects two items of one type sharing a case-insensitive label
func checkDuplicateLabels(items []entities.ExtractedItem) error {
	for _, section := range entities.OutputSections {
		seen := make(map[string]struct{})
		for _, item := range items {
			if item.Payload.Type() != section.Type {
				continue
			}
			label := strings.ToLower(item.Payload.Label())
			if _, dup := seen[label]; dup {
				return ucerr.InvalidOutput("duplicate titles found in %s", section.Key)
			}
			seen[label] = struct{}{}
		}
	}
	return nil
}

func decodeSection(raw json.RawMessage, key string) ([]rawItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ucerr.InvalidOutput("field %s must be an array", key)
	}
	var items []rawItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, ucerr.InvalidOutput("field %s must contain objects", key)
	}
	for i, item := range items {
		if item == nil {
			return nil, ucerr.InvalidOutput("%s %d must be an object", key, i)
		}
	}
	return items, nil
}

func sanitizeItem(section entities.OutputSection, index int, item rawItem) (entities.Payload, error) {
	ctx := itemContext{section: section.Key, index: index}

	switch section.Type {
	case entities.SuggestionTypeActionItem:
		if err := ctx.require(item, "title", "description", "assignee", "priority", "evidence"); err != nil {
			return nil, err
		}
		p := &entities.ActionItemPayload{}
		var err error
		if p.Title, err = ctx.text(item, "title"); err != nil {
			return nil, err
		}
		if p.Description, err = ctx.text(item, "description"); err != nil {
			return nil, err
		}
		if p.Assignee, err = ctx.assignee(item["assignee"]); err != nil {
			return nil, err
		}
		if p.DueDate, err = ctx.nullableString(item, "due_date"); err != nil {
			return nil, err
		}
		if p.Priority, err = ctx.level(item, "priority"); err != nil {
			return nil, err
		}
		if p.Evidence, err = ctx.evidence(item["evidence"]); err != nil {
			return nil, err
		}
		return p, nil

	case entities.SuggestionTypeDecision:
		if err := ctx.require(item, "text", "evidence"); err != nil {
			return nil, err
		}
		p := &entities.DecisionPayload{}
		var err error
		if p.Text, err = ctx.text(item, "text"); err != nil {
			return nil, err
		}
		if p.Evidence, err = ctx.evidence(item["evidence"]); err != nil {
			return nil, err
		}
		return p, nil

	case entities.SuggestionTypeRisk:
		if err := ctx.require(item, "text", "severity", "evidence"); err != nil {
			return nil, err
		}
		p := &entities.RiskPayload{}
		var err error
		if p.Text, err = ctx.text(item, "text"); err != nil {
			return nil, err
		}
		if p.Severity, err = ctx.level(item, "severity"); err != nil {
			return nil, err
		}
		if p.Evidence, err = ctx.evidence(item["evidence"]); err != nil {
			return nil, err
		}
		return p, nil

	case entities.SuggestionTypeQuestion:
		if err := ctx.require(item, "text", "evidence"); err != nil {
			return nil, err
		}
		p := &entities.QuestionPayload{}
		var err error
		if p.Text, err = ctx.text(item, "text"); err != nil {
			return nil, err
		}
		if p.Owner, err = ctx.owner(item["owner"]); err != nil {
			return nil, err
		}
		if p.Evidence, err = ctx.evidence(item["evidence"]); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, ucerr.InvalidOutput("unknown section %s", section.Key)
}

type itemContext struct {
	section string
	index   int
}

func (c itemContext) require(item rawItem, fields ...string) error {
	for _, f := range fields {
		if _, ok := item[f]; !ok {
			return ucerr.InvalidOutput("%s %d missing required field: %s", c.section, c.index, f)
		}
	}
	return nil
}

func (c itemContext) text(item rawItem, field string) (string, error) {
	var s string
	if err := json.Unmarshal(item[field], &s); err != nil || strings.TrimSpace(s) == "" {
		return "", ucerr.InvalidOutput("%s %d has invalid %s", c.section, c.index, field)
	}
	return s, nil
}

func (c itemContext) nullableString(item rawItem, field string) (*string, error) {
	raw, ok := item[field]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ucerr.InvalidOutput("%s %d has invalid %s", c.section, c.index, field)
	}
	return &s, nil
}

func (c itemContext) level(item rawItem, field string) (entities.Level, error) {
	var s string
	if err := json.Unmarshal(item[field], &s); err != nil || !entities.Level(s).IsValid() {
		return "", ucerr.InvalidOutput("%s %d has invalid %s", c.section, c.index, field)
	}
	return entities.Level(s), nil
}

func (c itemContext) assignee(raw json.RawMessage) (*entities.Assignee, error) {
	var obj rawItem
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, ucerr.InvalidOutput("%s %d has invalid assignee", c.section, c.index)
	}
	label, ok := obj["speaker_label"]
	if !ok {
		return nil, ucerr.InvalidOutput("%s %d has invalid assignee", c.section, c.index)
	}
	a := &entities.Assignee{}
	if err := json.Unmarshal(label, &a.SpeakerLabel); err != nil || isNull(label) {
		return nil, ucerr.InvalidOutput("%s %d has invalid assignee speaker_label", c.section, c.index)
	}
	var err error
	if a.UserID, err = c.nullableString(obj, "user_id"); err != nil {
		return nil, err
	}
	if a.Name, err = c.nullableString(obj, "name"); err != nil {
		return nil, err
	}
	return a, nil
}

func (c itemContext) owner(raw json.RawMessage) (*entities.Owner, error) {
	if raw == nil || isNull(raw) {
		return nil, nil
	}
	var obj rawItem
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, ucerr.InvalidOutput("%s %d has invalid owner", c.section, c.index)
	}
	o := &entities.Owner{}
	if label, ok := obj["speaker_label"]; ok {
		if err := json.Unmarshal(label, &o.SpeakerLabel); err != nil {
			return nil, ucerr.InvalidOutput("%s %d has invalid owner speaker_label", c.section, c.index)
		}
	}
	return o, nil
}

func (c itemContext) evidence(raw json.RawMessage) ([]entities.Evidence, error) {
	var entries []rawItem
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil, ucerr.InvalidOutput("%s %d must have at least one evidence item", c.section, c.index)
	}

	out := make([]entities.Evidence, 0, len(entries))
	for i, ev := range entries {
		for _, f := range []string{"segment_id", "start_ms", "end_ms", "quote"} {
			if _, ok := ev[f]; !ok {
				return nil, ucerr.InvalidOutput("%s %d evidence %d missing required field: %s", c.section, c.index, i, f)
			}
		}

		var e entities.Evidence
		if err := json.Unmarshal(ev["segment_id"], &e.SegmentID); err != nil || strings.TrimSpace(e.SegmentID) == "" {
			return nil, ucerr.InvalidOutput("%s %d evidence %d has invalid segment_id", c.section, c.index, i)
		}
		// int64 decoding rejects 1.5 and "100"
		if isNull(ev["start_ms"]) || isNull(ev["end_ms"]) ||
			json.Unmarshal(ev["start_ms"], &e.StartMs) != nil || json.Unmarshal(ev["end_ms"], &e.EndMs) != nil {
			return nil, ucerr.InvalidOutput("%s %d evidence %d has invalid timing", c.section, c.index, i)
		}
		if e.StartMs >= e.EndMs {
			return nil, ucerr.InvalidOutput("%s %d evidence %d has invalid time range", c.section, c.index, i)
		}
		if err := json.Unmarshal(ev["quote"], &e.Quote); err != nil || strings.TrimSpace(e.Quote) == "" {
			return nil, ucerr.InvalidOutput("%s %d evidence %d has invalid quote", c.section, c.index, i)
		}
		out = append(out, e)
	}
	return out, nil
}

func optionalConfidence(item rawItem, section string, index int) (*float64, error) {
	raw, ok := item["confidence"]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f < 0 || f > 1 {
		return nil, ucerr.InvalidOutput("%s %d has invalid confidence", section, index)
	}
	return &f, nil
}

func presentFields(item rawItem, t entities.SuggestionType) entities.FieldSet {
	set := entities.NewFieldSet()
	for _, key := range entities.PayloadFields[t] {
		if _, ok := item[key]; ok {
			set[key] = struct{}{}
		}
	}
	return set
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
