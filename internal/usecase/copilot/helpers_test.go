package copilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/testutil"
	"github.com/johnquangdev/meeting-copilot/pkg/ai"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

func testConfig() config.CopilotConfig {
	return config.CopilotConfig{
		Provider:            "openai",
		Model:               "gpt-4o-mini",
		BaseURL:             "http://localhost",
		Timeout:             200 * time.Millisecond,
		MaxAttempts:         3,
		RetryMin:            time.Millisecond,
		RetryMax:            2 * time.Millisecond,
		Temperature:         0.3,
		MaxTokens:           2000,
		DefaultLanguage:     "en",
		RealtimeWindow:      50,
		RealtimeMinSegments: 10,
		RealtimeMinInterval: 20 * time.Second,
		DefaultConfidence:   0.8,
		Workers:             1,
		QueueSize:           4,
		RunAttempts:         2,
		RunRetryBase:        time.Millisecond,
		RunTimeout:          5 * time.Second,
		Retention:           90 * 24 * time.Hour,
		CleanupInterval:     time.Hour,
		StaleRunAfter:       10 * time.Minute,
		LockTTL:             time.Minute,
		LockWait:            200 * time.Millisecond,
	}
}

// fakeCompleter answers with the scripted replies in order and repeats the last one
type fakeCompleter struct {
	mu       sync.Mutex
	replies  []func(ctx context.Context) (*ai.Completion, error)
	requests []ai.ChatRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req ai.ChatRequest) (*ai.Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	next := f.replies[idx]
	f.mu.Unlock()
	return next(ctx)
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeCompleter) LastRequest() ai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func reply(content string) func(context.Context) (*ai.Completion, error) {
	return func(context.Context) (*ai.Completion, error) {
		return &ai.Completion{
			Content: content,
			Model:   "gpt-4o-mini-2024",
			Usage:   ai.Usage{PromptTokens: 900, CompletionTokens: 300, TotalTokens: 1200},
		}, nil
	}
}

func fail(err error) func(context.Context) (*ai.Completion, error) {
	return func(context.Context) (*ai.Completion, error) { return nil, err }
}

// hang blocks until the per-call deadline fires
func hang() func(context.Context) (*ai.Completion, error) {
	return func(ctx context.Context) (*ai.Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func completer(replies ...func(context.Context) (*ai.Completion, error)) *fakeCompleter {
	return &fakeCompleter{replies: replies}
}

var (
	errRateLimited = &ai.APIError{StatusCode: 429, Body: "slow down"}
	errUpstream    = &ai.APIError{StatusCode: 503, Body: "unavailable"}
)

type fakeLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[uuid.UUID]bool{}}
}

func (l *fakeLocker) TryLock(ctx context.Context, meetingID uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[meetingID] {
		return nil, false, nil
	}
	l.held[meetingID] = true
	return func() { l.release(meetingID) }, true, nil
}

func (l *fakeLocker) Lock(ctx context.Context, meetingID uuid.UUID) (func(), error) {
	for {
		unlock, ok, _ := l.TryLock(ctx, meetingID)
		if ok {
			return unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (l *fakeLocker) release(meetingID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, meetingID)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Publish(ctx context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

type fakeArchive struct {
	mu   sync.Mutex
	keys map[uuid.UUID]*entities.SanitizedOutput
	err  error
}

func (a *fakeArchive) Store(ctx context.Context, run *entities.CopilotRun, out *entities.SanitizedOutput) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	if a.keys == nil {
		a.keys = map[uuid.UUID]*entities.SanitizedOutput{}
	}
	a.keys[run.ID] = out
	return fmt.Sprintf("copilot-runs/%s/%s.json", run.MeetingID, run.ID), nil
}

// fixture is a meeting with a transcript and the pipeline around it
type fixture struct {
	store     *testutil.MemoryStore
	completer *fakeCompleter
	locker    *fakeLocker
	notifier  *recordingNotifier
	archive   *fakeArchive
	meeting   *entities.Meeting
	alice     *entities.User
	segments  []*entities.TranscriptSegment
	cfg       config.CopilotConfig
}

var sampleLines = []struct {
	speaker string
	text    string
}{
	{"Speaker 1", "Good morning everyone, let's review the launch plan."},
	{"Speaker 2", "The landing page copy is almost done."},
	{"Speaker 1", "Alice, can you send the launch checklist by Friday?"},
	{"Speaker 2", "Sure, I will send the checklist by Friday."},
	{"Speaker 1", "We agreed to ship version two on March 3rd."},
	{"Speaker 2", "Agreed, March 3rd it is."},
	{"Speaker 1", "The payment provider migration could slip."},
	{"Speaker 2", "That is a real risk for the launch date."},
	{"Speaker 1", "Who owns the press release?"},
	{"Speaker 2", "Not sure yet, we need to decide."},
	{"Speaker 1", "Let's keep an eye on the support backlog."},
	{"Speaker 2", "I will share the numbers tomorrow."},
}

func newFixture(t *testing.T, segmentCount int) *fixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	meeting := store.NewMeeting("Launch sync", "en")
	alice := store.AddUser("Alice", "alice@example.com")
	store.AddSpeaker(meeting.ID, "Speaker 1", nil)
	store.AddSpeaker(meeting.ID, "Speaker 2", alice)

	f := &fixture{
		store:    store,
		locker:   newFakeLocker(),
		notifier: &recordingNotifier{},
		archive:  &fakeArchive{},
		meeting:  meeting,
		alice:    alice,
		cfg:      testConfig(),
	}
	for i := 0; i < segmentCount; i++ {
		line := sampleLines[i%len(sampleLines)]
		start := int64(i) * 5000
		f.segments = append(f.segments, store.AddSegment(meeting.ID, start, start+4000, line.speaker, line.text))
	}
	return f
}

func (f *fixture) orchestrator(c *fakeCompleter) *Orchestrator {
	f.completer = c
	gateway := NewModelGateway(c, f.cfg, nil, nil)
	return NewOrchestrator(f.store, gateway, f.locker, f.notifier, f.archive, nil, f.cfg, nil)
}

func (f *fixture) goLive(t *testing.T) {
	t.Helper()
	_, err := NewSessionRegistry(f.store, nil).Open(context.Background(), f.meeting.ID, "RM_test")
	require.NoError(t, err)
}

func evidenceFor(seg *entities.TranscriptSegment) map[string]any {
	return map[string]any{
		"segment_id": seg.ID.String(),
		"start_ms":   seg.StartMs,
		"end_ms":     seg.EndMs,
		"quote":      seg.Text,
	}
}

// modelOutput is a well-formed response citing the fixture transcript
func (f *fixture) modelOutput() map[string]any {
	segs := f.segments
	return map[string]any{
		"language": "en",
		"action_items": []any{
			map[string]any{
				"title":       "Send launch checklist",
				"description": "Share the launch checklist with the team",
				"assignee": map[string]any{
					"speaker_label": "Speaker 2",
					"user_id":       f.alice.ID.String(),
					"name":          "Alice",
				},
				"due_date":   "2025-03-07",
				"priority":   "high",
				"confidence": 0.9,
				"evidence":   []any{evidenceFor(segs[2]), evidenceFor(segs[3])},
			},
		},
		"decisions": []any{
			map[string]any{
				"text":     "Ship version two on March 3rd",
				"evidence": []any{evidenceFor(segs[4])},
			},
		},
		"risks": []any{
			map[string]any{
				"text":     "Payment provider migration could slip",
				"severity": "medium",
				"evidence": []any{evidenceFor(segs[6])},
			},
		},
		"open_questions": []any{
			map[string]any{
				"text":     "Who owns the press release?",
				"owner":    map[string]any{"speaker_label": "Speaker 1"},
				"evidence": []any{evidenceFor(segs[8])},
			},
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func suggestionOfType(t *testing.T, list []*entities.Suggestion, typ entities.SuggestionType) *entities.Suggestion {
	t.Helper()
	for _, s := range list {
		if s.Type == typ {
			return s
		}
	}
	require.FailNow(t, "no suggestion of type "+string(typ))
	return nil
}

var errBoom = errors.New("boom")
