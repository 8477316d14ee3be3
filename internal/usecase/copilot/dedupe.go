package copilot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

const dedupeTextLimit = 100

var punctuation = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)

// Normalize lowercases, strips punctuation and collapses whitespace
func Normalize(text string) string {
	text = punctuation.ReplaceAllString(strings.ToLower(text), "")
	return strings.Join(strings.Fields(text), " ")
}

// DedupeKey builds "<meeting>:<section>:<normalized text>" with the text capped at 100 characters.
// section is the output section name, e.g. "action_items" or "decisions".
func DedupeKey(primaryText, section, meetingID string) string {
	normalized := []rune(Normalize(primaryText))
	if len(normalized) > dedupeTextLimit {
		normalized = normalized[:dedupeTextLimit]
	}
	return fmt.Sprintf("%s:%s:%s", meetingID, section, string(normalized))
}

// PayloadDedupeKey is the dedupe key of a typed payload within a meeting
func PayloadDedupeKey(meetingID uuid.UUID, p entities.Payload) string {
	return DedupeKey(p.PrimaryText(), sectionKey(p.Type()), meetingID.String())
}

// Similarity is the Jaccard index of the two texts' lowercase word sets.
// It is informational only; merges rely on the exact dedupe key.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1.0
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func sectionKey(t entities.SuggestionType) string {
	for _, s := range entities.OutputSections {
		if s.Type == t {
			return s.Key
		}
	}
	return string(t)
}

// MergeResult lists the suggestions a run touched, in processing order
type MergeResult struct {
	Suggestions []*entities.Suggestion
	Created     map[entities.SuggestionType]int
	Merged      map[entities.SuggestionType]int
}

// CreatedCount is the number of new suggestions
func (r *MergeResult) CreatedCount() int { return sumCounts(r.Created) }

// MergedCount is the number of items folded into existing suggestions
func (r *MergeResult) MergedCount() int { return sumCounts(r.Merged) }

func sumCounts(m map[entities.SuggestionType]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// MergeEngine merges extracted items into a meeting's open suggestions
type MergeEngine struct {
	defaultConfidence float64
	logger            *zap.Logger
}

func NewMergeEngine(defaultConfidence float64, logger *zap.Logger) *MergeEngine {
	return &MergeEngine{defaultConfidence: defaultConfidence, logger: logger}
}

// MergeOrCreate must run inside the run's transaction: tx is the transactional store.
// Items sharing a dedupe key with an open suggestion extend its evidence and overlay
// its other fields; the rest become new proposed suggestions.
func (m *MergeEngine) MergeOrCreate(ctx context.Context, tx repositories.Store, meetingID uuid.UUID, out *entities.SanitizedOutput, run *entities.CopilotRun) (*MergeResult, error) {
	open, err := tx.Suggestions().ListOpen(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open suggestions: %w", err)
	}

	byKey := make(map[string]*entities.Suggestion, len(open))
	for _, s := range open {
		byKey[s.DedupeKey] = s
	}

	var runID *uuid.UUID
	if run != nil {
		runID = &run.ID
	}

	result := &MergeResult{
		Created: make(map[entities.SuggestionType]int),
		Merged:  make(map[entities.SuggestionType]int),
	}
	touched := make(map[uuid.UUID]struct{})
	now := time.Now()

	for _, item := range out.Items {
		key := PayloadDedupeKey(meetingID, item.Payload)

		existing, ok := byKey[key]
		if ok {
			if err := m.merge(existing, item, runID, now); err != nil {
				return nil, err
			}
			if err := tx.Suggestions().Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to update suggestion: %w", err)
			}
			result.Merged[existing.Type]++
			if _, seen := touched[existing.ID]; !seen {
				touched[existing.ID] = struct{}{}
				result.Suggestions = append(result.Suggestions, existing)
			}
			continue
		}

		confidence := m.defaultConfidence
		if item.Confidence != nil {
			confidence = *item.Confidence
		}
		created, err := entities.NewSuggestion(meetingID, item.Payload, key, confidence, runID)
		if err != nil {
			return nil, err
		}
		if err := tx.Suggestions().Create(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to create suggestion: %w", err)
		}
		byKey[key] = created
		touched[created.ID] = struct{}{}
		result.Suggestions = append(result.Suggestions, created)
		result.Created[created.Type]++
	}

	if m.logger != nil {
		m.logger.Info("🧩 Copilot suggestions merged",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("created", result.CreatedCount()),
			zap.Int("merged", result.MergedCount()),
		)
	}
	return result, nil
}

func (m *MergeEngine) merge(existing *entities.Suggestion, item entities.ExtractedItem, runID *uuid.UUID, now time.Time) error {
	current, err := existing.DecodePayload()
	if err != nil {
		return fmt.Errorf("failed to decode suggestion %s: %w", existing.ID, err)
	}

	current.SetEvidence(UnionEvidence(current.EvidenceList(), item.Payload.EvidenceList()))
	current.Overlay(item.Payload, item.Present)

	if err := existing.SetPayload(current); err != nil {
		return err
	}
	if item.Confidence != nil {
		c := *item.Confidence
		existing.Confidence = &c
	}
	existing.LastRunID = runID
	existing.UpdatedAt = now
	return nil
}

// UnionEvidence appends the entries of b that are not already in a
func UnionEvidence(a, b []entities.Evidence) []entities.Evidence {
	out := make([]entities.Evidence, 0, len(a)+len(b))
	seen := make(map[entities.Evidence]struct{}, len(a)+len(b))
	for _, list := range [][]entities.Evidence{a, b} {
		for _, ev := range list {
			if _, dup := seen[ev]; dup {
				continue
			}
			seen[ev] = struct{}{}
			out = append(out, ev)
		}
	}
	return out
}
