package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Evidence anchors a claim to a transcript segment
type Evidence struct {
	SegmentID string `json:"segment_id"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
	Quote     string `json:"quote"`
}

// Valid reports whether the citation has a usable time range and quote
func (e Evidence) Valid() bool {
	return e.SegmentID != "" && e.StartMs < e.EndMs && strings.TrimSpace(e.Quote) != ""
}

// Level is the shared low/medium/high scale for priority and severity
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Assignee is the speaker (and optionally the known user) an action item belongs to
type Assignee struct {
	SpeakerLabel string  `json:"speaker_label"`
	UserID       *string `json:"user_id"`
	Name         *string `json:"name,omitempty"`
}

// Owner is the speaker expected to answer an open question
type Owner struct {
	SpeakerLabel string `json:"speaker_label"`
}

// MaterializeRequest describes who accepts which suggestion, and when
type MaterializeRequest struct {
	Suggestion *Suggestion
	Actor      uuid.UUID
	At         time.Time
}

// MaterializationSink is the durable store accepted payloads write into
type MaterializationSink interface {
	ResolveAssignee(ctx context.Context, userID string) (*uuid.UUID, error)
	CreateActionItem(ctx context.Context, item *ActionItem) error
	AppendMinutesEntry(ctx context.Context, meetingID uuid.UUID, entry MinutesEntry) error
}

// EntityKind names what an accepted suggestion turned into
type EntityKind string

const (
	EntityKindActionItem   EntityKind = "action_item"
	EntityKindDecision     EntityKind = "decision"
	EntityKindRisk         EntityKind = "risk"
	EntityKindOpenQuestion EntityKind = "open_question"
)

// EntityRef points at the durable entity created on acceptance
type EntityRef struct {
	Kind       EntityKind `json:"kind"`
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	AssigneeID *string    `json:"assignee_id,omitempty"`
	Priority   string     `json:"priority,omitempty"`
}

// Payload is the typed content of a suggestion. The set of variants is closed:
// ActionItemPayload, DecisionPayload, RiskPayload and QuestionPayload.
type Payload interface {
	Type() SuggestionType
	// PrimaryText feeds the dedupe key
	PrimaryText() string
	// Label is the title or text shown to reviewers and compared for duplicates
	Label() string
	EvidenceList() []Evidence
	SetEvidence(evidence []Evidence)
	// Overlay copies every non-evidence field listed in present from newer onto
	// the receiver. A present null clears the field.
	Overlay(newer Payload, present FieldSet)
	Materialize(ctx context.Context, sink MaterializationSink, req MaterializeRequest) (*EntityRef, error)
}

// ActionItemPayload is a task somebody committed to
type ActionItemPayload struct {
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Assignee    *Assignee                  `json:"assignee,omitempty"`
	DueDate     *string                    `json:"due_date"`
	Priority    Level                      `json:"priority"`
	Evidence    []Evidence                 `json:"evidence"`
	Extra       map[string]json.RawMessage `json:"-"`
}

// DecisionPayload is something the meeting agreed on
type DecisionPayload struct {
	Text     string                     `json:"text"`
	Evidence []Evidence                 `json:"evidence"`
	Extra    map[string]json.RawMessage `json:"-"`
}

// RiskPayload is a concern raised during the meeting
type RiskPayload struct {
	Text     string                     `json:"text"`
	Severity Level                      `json:"severity"`
	Evidence []Evidence                 `json:"evidence"`
	Extra    map[string]json.RawMessage `json:"-"`
}

// QuestionPayload is a question left unanswered
type QuestionPayload struct {
	Text     string                     `json:"text"`
	Owner    *Owner                     `json:"owner,omitempty"`
	Evidence []Evidence                 `json:"evidence"`
	Extra    map[string]json.RawMessage `json:"-"`
}

var (
	_ Payload = (*ActionItemPayload)(nil)
	_ Payload = (*DecisionPayload)(nil)
	_ Payload = (*RiskPayload)(nil)
	_ Payload = (*QuestionPayload)(nil)
)

// PayloadFields lists the allow-listed keys of each variant
var PayloadFields = map[SuggestionType][]string{
	SuggestionTypeActionItem: {"title", "description", "assignee", "due_date", "priority", "evidence"},
	SuggestionTypeDecision:   {"text", "evidence"},
	SuggestionTypeRisk:       {"text", "severity", "evidence"},
	SuggestionTypeQuestion:   {"text", "owner", "evidence"},
}

// NewPayload returns an empty variant for the given type
func NewPayload(t SuggestionType) (Payload, error) {
	switch t {
	case SuggestionTypeActionItem:
		return &ActionItemPayload{}, nil
	case SuggestionTypeDecision:
		return &DecisionPayload{}, nil
	case SuggestionTypeRisk:
		return &RiskPayload{}, nil
	case SuggestionTypeQuestion:
		return &QuestionPayload{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSuggestionType, t)
}

// DecodePayload parses raw JSON into the variant for t. Unknown keys are kept in Extra.
func DecodePayload(t SuggestionType, raw []byte) (Payload, error) {
	p, err := NewPayload(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

// SegmentIDs returns the distinct segment ids cited by the evidence, in order
func SegmentIDs(evidence []Evidence) []string {
	seen := make(map[string]struct{}, len(evidence))
	ids := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		if _, ok := seen[ev.SegmentID]; ok {
			continue
		}
		seen[ev.SegmentID] = struct{}{}
		ids = append(ids, ev.SegmentID)
	}
	return ids
}

// ---- ActionItemPayload ----

func (p *ActionItemPayload) Type() SuggestionType { return SuggestionTypeActionItem }

func (p *ActionItemPayload) PrimaryText() string {
	return strings.TrimSpace(p.Title + " " + p.Description)
}

func (p *ActionItemPayload) Label() string { return p.Title }
func (p *ActionItemPayload) EvidenceList() []Evidence { return p.Evidence }
func (p *ActionItemPayload) SetEvidence(ev []Evidence) { p.Evidence = ev }

func (p *ActionItemPayload) Overlay(newer Payload, present FieldSet) {
	n, ok := newer.(*ActionItemPayload)
	if !ok {
		return
	}
	if present.Has("title") {
		p.Title = n.Title
	}
	if present.Has("description") {
		p.Description = n.Description
	}
	if present.Has("assignee") {
		p.Assignee = n.Assignee
	}
	if present.Has("due_date") {
		p.DueDate = n.DueDate
	}
	if present.Has("priority") {
		p.Priority = n.Priority
	}
	p.Extra = mergeExtra(p.Extra, n.Extra)
}

// Materialize creates a durable action item linked back to the suggestion
func (p *ActionItemPayload) Materialize(ctx context.Context, sink MaterializationSink, req MaterializeRequest) (*EntityRef, error) {
	var assigneeID *uuid.UUID
	if p.Assignee != nil && p.Assignee.UserID != nil && *p.Assignee.UserID != "" {
		id, err := sink.ResolveAssignee(ctx, *p.Assignee.UserID)
		if err != nil {
			return nil, err
		}
		assigneeID = id
	}

	priority := p.Priority
	if !priority.IsValid() {
		priority = LevelMedium
	}

	item := NewActionItem(req.Suggestion.MeetingID, p.Title, p.Description, string(priority), req.Actor)
	item.AssigneeID = assigneeID
	item.DueDate = ParseDueDate(p.DueDate)
	item.SourceSegmentIDs = SegmentIDs(p.Evidence)
	item.SuggestionID = &req.Suggestion.ID
	item.CreatedAt = req.At
	item.UpdatedAt = req.At

	if err := sink.CreateActionItem(ctx, item); err != nil {
		return nil, err
	}

	ref := &EntityRef{
		Kind:     EntityKindActionItem,
		ID:       item.ID.String(),
		Label:    item.Title,
		Priority: item.Priority,
	}
	if assigneeID != nil {
		s := assigneeID.String()
		ref.AssigneeID = &s
	}
	return ref, nil
}

func (p *ActionItemPayload) UnmarshalJSON(data []byte) error {
	type plain ActionItemPayload
	var v plain
	extra, err := decodeWithExtra(data, &v, PayloadFields[SuggestionTypeActionItem])
	if err != nil {
		return err
	}
	*p = ActionItemPayload(v)
	p.Extra = extra
	return nil
}

func (p ActionItemPayload) MarshalJSON() ([]byte, error) {
	type plain ActionItemPayload
	return encodeWithExtra(plain(p), p.Extra)
}

// ---- DecisionPayload ----

func (p *DecisionPayload) Type() SuggestionType { return SuggestionTypeDecision }
func (p *DecisionPayload) PrimaryText() string { return strings.TrimSpace(p.Text) }
func (p *DecisionPayload) Label() string { return p.Text }
func (p *DecisionPayload) EvidenceList() []Evidence { return p.Evidence }
func (p *DecisionPayload) SetEvidence(ev []Evidence) { p.Evidence = ev }

func (p *DecisionPayload) Overlay(newer Payload, present FieldSet) {
	n, ok := newer.(*DecisionPayload)
	if !ok {
		return
	}
	if present.Has("text") {
		p.Text = n.Text
	}
	p.Extra = mergeExtra(p.Extra, n.Extra)
}

func (p *DecisionPayload) Materialize(ctx context.Context, sink MaterializationSink, req MaterializeRequest) (*EntityRef, error) {
	entry := MinutesEntry{
		ID:         req.Suggestion.ID.String(),
		Section:    MinutesSectionDecisions,
		Text:       p.Text,
		Evidence:   p.Evidence,
		RecordedBy: req.Actor.String(),
		RecordedAt: req.At,
	}
	if err := sink.AppendMinutesEntry(ctx, req.Suggestion.MeetingID, entry); err != nil {
		return nil, err
	}
	return &EntityRef{Kind: EntityKindDecision, ID: entry.ID, Label: p.Text}, nil
}

func (p *DecisionPayload) UnmarshalJSON(data []byte) error {
	type plain DecisionPayload
	var v plain
	extra, err := decodeWithExtra(data, &v, PayloadFields[SuggestionTypeDecision])
	if err != nil {
		return err
	}
	*p = DecisionPayload(v)
	p.Extra = extra
	return nil
}

func (p DecisionPayload) MarshalJSON() ([]byte, error) {
	type plain DecisionPayload
	return encodeWithExtra(plain(p), p.Extra)
}

// ---- RiskPayload ----

func (p *RiskPayload) Type() SuggestionType { return SuggestionTypeRisk }
func (p *RiskPayload) PrimaryText() string { return strings.TrimSpace(p.Text) }
func (p *RiskPayload) Label() string { return p.Text }
func (p *RiskPayload) EvidenceList() []Evidence { return p.Evidence }
func (p *RiskPayload) SetEvidence(ev []Evidence) { p.Evidence = ev }

func (p *RiskPayload) Overlay(newer Payload, present FieldSet) {
	n, ok := newer.(*RiskPayload)
	if !ok {
		return
	}
	if present.Has("text") {
		p.Text = n.Text
	}
	if present.Has("severity") {
		p.Severity = n.Severity
	}
	p.Extra = mergeExtra(p.Extra, n.Extra)
}

func (p *RiskPayload) Materialize(ctx context.Context, sink MaterializationSink, req MaterializeRequest) (*EntityRef, error) {
	severity := p.Severity
	if !severity.IsValid() {
		severity = LevelMedium
	}
	entry := MinutesEntry{
		ID:         req.Suggestion.ID.String(),
		Section:    MinutesSectionRisks,
		Text:       p.Text,
		Severity:   string(severity),
		Evidence:   p.Evidence,
		RecordedBy: req.Actor.String(),
		RecordedAt: req.At,
	}
	if err := sink.AppendMinutesEntry(ctx, req.Suggestion.MeetingID, entry); err != nil {
		return nil, err
	}
	return &EntityRef{Kind: EntityKindRisk, ID: entry.ID, Label: p.Text}, nil
}

func (p *RiskPayload) UnmarshalJSON(data []byte) error {
	type plain RiskPayload
	var v plain
	extra, err := decodeWithExtra(data, &v, PayloadFields[SuggestionTypeRisk])
	if err != nil {
		return err
	}
	*p = RiskPayload(v)
	p.Extra = extra
	return nil
}

func (p RiskPayload) MarshalJSON() ([]byte, error) {
	type plain RiskPayload
	return encodeWithExtra(plain(p), p.Extra)
}

// ---- QuestionPayload ----

func (p *QuestionPayload) Type() SuggestionType { return SuggestionTypeQuestion }
func (p *QuestionPayload) PrimaryText() string { return strings.TrimSpace(p.Text) }
func (p *QuestionPayload) Label() string { return p.Text }
func (p *QuestionPayload) EvidenceList() []Evidence { return p.Evidence }
func (p *QuestionPayload) SetEvidence(ev []Evidence) { p.Evidence = ev }

func (p *QuestionPayload) Overlay(newer Payload, present FieldSet) {
	n, ok := newer.(*QuestionPayload)
	if !ok {
		return
	}
	if present.Has("text") {
		p.Text = n.Text
	}
	if present.Has("owner") {
		p.Owner = n.Owner
	}
	p.Extra = mergeExtra(p.Extra, n.Extra)
}

func (p *QuestionPayload) Materialize(ctx context.Context, sink MaterializationSink, req MaterializeRequest) (*EntityRef, error) {
	entry := MinutesEntry{
		ID:         req.Suggestion.ID.String(),
		Section:    MinutesSectionOpenQuestions,
		Text:       p.Text,
		Owner:      p.Owner,
		Evidence:   p.Evidence,
		RecordedBy: req.Actor.String(),
		RecordedAt: req.At,
	}
	if err := sink.AppendMinutesEntry(ctx, req.Suggestion.MeetingID, entry); err != nil {
		return nil, err
	}
	return &EntityRef{Kind: EntityKindOpenQuestion, ID: entry.ID, Label: p.Text}, nil
}

func (p *QuestionPayload) UnmarshalJSON(data []byte) error {
	type plain QuestionPayload
	var v plain
	extra, err := decodeWithExtra(data, &v, PayloadFields[SuggestionTypeQuestion])
	if err != nil {
		return err
	}
	*p = QuestionPayload(v)
	p.Extra = extra
	return nil
}

func (p QuestionPayload) MarshalJSON() ([]byte, error) {
	type plain QuestionPayload
	return encodeWithExtra(plain(p), p.Extra)
}

// ---- helpers ----

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp; anything else yields nil
func ParseDueDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func decodeWithExtra(data []byte, v any, known []string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	var extra map[string]json.RawMessage
	for key, raw := range all {
		if containsString(known, key) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = raw
	}
	return extra, nil
}

func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, raw := range extra {
		if _, exists := all[key]; !exists {
			all[key] = raw
		}
	}
	return json.Marshal(all)
}

func mergeExtra(base, newer map[string]json.RawMessage) map[string]json.RawMessage {
	if len(newer) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]json.RawMessage, len(newer))
	}
	for key, raw := range newer {
		base[key] = raw
	}
	return base
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
