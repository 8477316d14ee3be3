package copilot

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

// Prompt is the instruction document sent to the reasoning service
type Prompt struct {
	System string
	User   string
}

// ExistingItem is an accepted item the model is told not to propose again
type ExistingItem struct {
	Title       string
	Description string
}

// ExistingItemsFrom turns accepted suggestions into prompt entries, skipping undecodable payloads
func ExistingItemsFrom(accepted []*entities.Suggestion) []ExistingItem {
	items := make([]ExistingItem, 0, len(accepted))
	for _, s := range accepted {
		p, err := s.DecodePayload()
		if err != nil {
			continue
		}
		item := ExistingItem{Title: p.Label()}
		if ai, ok := p.(*entities.ActionItemPayload); ok {
			item.Description = ai.Description
		}
		items = append(items, item)
	}
	return items
}

type promptCatalog struct {
	system        string
	header        string
	contextTitle  string
	defaultTitle  string
	titleLabel    string
	descLabel     string
	languageLabel string
	languageName  string
	partLabel     string
	speakersLabel string
	transcript    string
	segmentIndex  string
	existing      string
	instructions  string
	schema        string
}

var catalogs = map[entities.Language]promptCatalog{
	entities.LanguageEnglish: {
		system: `You are an expert assistant specializing in meeting analysis. Your task is to extract action items, decisions, risks, and open questions from transcripts.

IMPORTANT RULES:
- Return ONLY valid JSON, no prose
- Every item must have evidence with timestamps
- Be precise and base only on what was said
- Do not invent information
- Use the requested language for output`,
		header:        "ANALYZE THE FOLLOWING TRANSCRIPT AND GENERATE STRUCTURED ACTION ITEMS.",
		contextTitle:  "MEETING CONTEXT:",
		defaultTitle:  "Meeting",
		titleLabel:    "Title",
		descLabel:     "Description",
		languageLabel: "Language",
		languageName:  "English",
		partLabel:     "Participants",
		speakersLabel: "Speakers detected",
		transcript:    "TRANSCRIPT (Recent segments):",
		segmentIndex:  "SEGMENT IDS (cite them in evidence):",
		existing:      "EXISTING ITEMS TO AVOID DUPLICATING:",
		instructions: `INSTRUCTIONS:
1. Return ONLY valid JSON matching the provided schema
2. Every item must include evidence (segment_ids and timestamps)
3. Do not invent names; use speaker labels if uncertain
4. Do not guess due dates; use null if not specified
5. Be precise and base only on what was said in the transcript`,
		schema: `REQUIRED JSON FORMAT:
{
    "language": "en",
    "action_items": [
        {
            "title": "clear title",
            "description": "detailed description",
            "assignee": {"speaker_label": "Speaker 1", "user_id": null, "name": null},
            "due_date": null,
            "priority": "low|medium|high",
            "evidence": [
                {"segment_id": "uuid", "start_ms": 123000, "end_ms": 126000, "quote": "exact text"}
            ]
        }
    ],
    "decisions": [
        {
            "text": "decision made",
            "evidence": [{"segment_id": "uuid", "start_ms": 245000, "end_ms": 249500, "quote": "text"}]
        }
    ],
    "risks": [
        {
            "text": "identified risk",
            "severity": "low|medium|high",
            "evidence": [{"segment_id": "uuid", "start_ms": 310000, "end_ms": 313000, "quote": "text"}]
        }
    ],
    "open_questions": [
        {
            "text": "open question",
            "owner": {"speaker_label": "Speaker 2"},
            "evidence": [{"segment_id": "uuid", "start_ms": 402000, "end_ms": 405500, "quote": "text"}]
        }
    ]
}`,
	},
	entities.LanguageFrench: {
		system: `Vous êtes un assistant expert spécialisé dans l'analyse des réunions. Votre tâche est d'extraire des éléments d'action, des décisions, des risques et des questions ouvertes à partir des transcriptions.

RÈGLES IMPORTANTES:
- Retournez UNIQUEMENT du JSON valide, pas de prose
- Chaque élément doit avoir des preuves avec des timestamps
- Soyez précis et basez-vous uniquement sur ce qui est dit
- N'inventez pas d'informations
- Utilisez la langue demandée pour la sortie`,
		header:        "ANALYSEZ LA TRANSCRIPTION SUIVANTE ET GÉNÉREZ DES ÉLÉMENTS D'ACTION STRUCTURÉS.",
		contextTitle:  "CONTEXTE DE LA RÉUNION:",
		defaultTitle:  "Réunion",
		titleLabel:    "Titre",
		descLabel:     "Description",
		languageLabel: "Langue",
		languageName:  "Français",
		partLabel:     "Participants",
		speakersLabel: "Intervenants détectés",
		transcript:    "TRANSCRIPTION (Derniers segments):",
		segmentIndex:  "IDENTIFIANTS DES SEGMENTS (à citer dans les preuves):",
		existing:      "ÉLÉMENTS EXISTANTS À ÉVITER:",
		instructions: `INSTRUCTIONS:
1. Retournez UNIQUEMENT du JSON valide correspondant au schéma fourni
2. Chaque élément doit inclure des preuves (segment_ids et timestamps)
3. N'inventez pas de noms; utilisez les étiquettes des intervenants si incertain
4. Ne devinez pas les dates d'échéance; utilisez null si non spécifié
5. Soyez précis et basez-vous uniquement sur ce qui est dit dans la transcription`,
		schema: `FORMAT JSON REQUIS:
{
    "language": "fr",
    "action_items": [
        {
            "title": "titre clair",
            "description": "description détaillée",
            "assignee": {"speaker_label": "Speaker 1", "user_id": null, "name": null},
            "due_date": null,
            "priority": "low|medium|high",
            "evidence": [
                {"segment_id": "uuid", "start_ms": 123000, "end_ms": 126000, "quote": "texte exact"}
            ]
        }
    ],
    "decisions": [
        {
            "text": "décision prise",
            "evidence": [{"segment_id": "uuid", "start_ms": 245000, "end_ms": 249500, "quote": "texte"}]
        }
    ],
    "risks": [
        {
            "text": "risque identifié",
            "severity": "low|medium|high",
            "evidence": [{"segment_id": "uuid", "start_ms": 310000, "end_ms": 313000, "quote": "texte"}]
        }
    ],
    "open_questions": [
        {
            "text": "question ouverte",
            "owner": {"speaker_label": "Speaker 2"},
            "evidence": [{"segment_id": "uuid", "start_ms": 402000, "end_ms": 405500, "quote": "texte"}]
        }
    ]
}`,
	},
}

// PromptBuilder renders transcript windows into prompts. It has no side effects.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build renders the prompt for a window of segments. Non-final segments are skipped.
func (b *PromptBuilder) Build(window []*entities.TranscriptSegment, mc entities.MeetingContext, lang entities.Language, existing []ExistingItem) (*Prompt, error) {
	cat, ok := catalogs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ucerr.ErrUnsupportedLanguage, lang)
	}

	var sb strings.Builder
	sb.WriteString(cat.header)
	sb.WriteString("\n\n")

	// Context block
	title := mc.Title
	if title == "" {
		title = cat.defaultTitle
	}
	sb.WriteString(cat.contextTitle + "\n")
	fmt.Fprintf(&sb, "- %s: %s\n", cat.titleLabel, title)
	if mc.Description != "" {
		fmt.Fprintf(&sb, "- %s: %s\n", cat.descLabel, mc.Description)
	}
	fmt.Fprintf(&sb, "- %s: %s\n", cat.languageLabel, cat.languageName)
	fmt.Fprintf(&sb, "- %s: %s\n", cat.partLabel, strings.Join(participantNames(mc.Participants), ", "))
	if mc.SpeakerCount > 0 {
		fmt.Fprintf(&sb, "- %s: %d\n", cat.speakersLabel, mc.SpeakerCount)
	}

	sb.WriteString("\n" + cat.transcript + "\n")
	sb.WriteString(FormatTranscript(window))

	sb.WriteString("\n" + cat.segmentIndex + "\n")
	for _, seg := range window {
		if seg == nil || !seg.IsFinal {
			continue
		}
		fmt.Fprintf(&sb, "- [%ss] %s (%d-%d ms)\n", seg.OffsetSeconds(), seg.ID, seg.StartMs, seg.EndMs)
	}

	if len(existing) > 0 {
		sb.WriteString("\n" + cat.existing + "\n")
		for _, item := range existing {
			fmt.Fprintf(&sb, "- %s: %s\n", item.Title, item.Description)
		}
	}

	sb.WriteString("\n\n" + cat.instructions + "\n\n")
	sb.WriteString(cat.schema + "\n")

	return &Prompt{System: cat.system, User: sb.String()}, nil
}

// FormatTranscript renders final segments as "[12.3s] Speaker: text" lines
func FormatTranscript(window []*entities.TranscriptSegment) string {
	var sb strings.Builder
	for _, seg := range window {
		if seg == nil || !seg.IsFinal {
			continue
		}
		fmt.Fprintf(&sb, "[%ss] %s: %s\n", seg.OffsetSeconds(), seg.Speaker(), seg.Text)
	}
	return sb.String()
}

func participantNames(participants []entities.Participant) []string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		name := p.DisplayName
		if name == "" {
			name = p.SpeakerLabel
		}
		if name == "" {
			continue
		}
		if p.UserEmail != "" {
			name += " → " + p.UserEmail
		}
		names = append(names, name)
	}
	return names
}
