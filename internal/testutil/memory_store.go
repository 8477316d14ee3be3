// Package testutil holds in-memory doubles for the persistence ports.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

type tables struct {
	meetings    map[uuid.UUID]entities.Meeting
	sessions    map[uuid.UUID]entities.LiveSession
	speakers    map[uuid.UUID]entities.Speaker
	mappings    map[uuid.UUID]entities.SpeakerUserMap
	users       map[uuid.UUID]entities.User
	segments    map[uuid.UUID]entities.TranscriptSegment
	suggestions map[uuid.UUID]entities.Suggestion
	runs        map[uuid.UUID]entities.CopilotRun
	minutes     map[uuid.UUID]entities.Minutes // keyed by meeting
	actionItems map[uuid.UUID]entities.ActionItem
}

func newTables() *tables {
	return &tables{
		meetings:    map[uuid.UUID]entities.Meeting{},
		sessions:    map[uuid.UUID]entities.LiveSession{},
		speakers:    map[uuid.UUID]entities.Speaker{},
		mappings:    map[uuid.UUID]entities.SpeakerUserMap{},
		users:       map[uuid.UUID]entities.User{},
		segments:    map[uuid.UUID]entities.TranscriptSegment{},
		suggestions: map[uuid.UUID]entities.Suggestion{},
		runs:        map[uuid.UUID]entities.CopilotRun{},
		minutes:     map[uuid.UUID]entities.Minutes{},
		actionItems: map[uuid.UUID]entities.ActionItem{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.meetings {
		c.meetings[k] = v
	}
	for k, v := range t.sessions {
		c.sessions[k] = v
	}
	for k, v := range t.speakers {
		c.speakers[k] = v
	}
	for k, v := range t.mappings {
		c.mappings[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.segments {
		c.segments[k] = v
	}
	for k, v := range t.suggestions {
		c.suggestions[k] = copySuggestion(v)
	}
	for k, v := range t.runs {
		c.runs[k] = v
	}
	for k, v := range t.minutes {
		c.minutes[k] = copyMinutes(v)
	}
	for k, v := range t.actionItems {
		c.actionItems[k] = v
	}
	return c
}

// MemoryStore implements repositories.Store on maps. Transactions are
// serialized and roll back by restoring a snapshot.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *tables

	failures map[string]error
	calls    map[string]int

	Commits   int
	Rollbacks int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     newTables(),
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

// FailOn makes every call to op ("Suggestions.Create", "Runs.Update", ...) return err
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls reports how many times op was invoked
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records a call and returns the injected failure, if any. Caller holds mu.
func (s *MemoryStore) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *MemoryStore) Meetings() repositories.MeetingRepository         { return meetingRepo{s} }
func (s *MemoryStore) LiveSessions() repositories.LiveSessionRepository { return sessionRepo{s} }
func (s *MemoryStore) Speakers() repositories.SpeakerRepository         { return speakerRepo{s} }
func (s *MemoryStore) Users() repositories.UserRepository               { return userRepo{s} }
func (s *MemoryStore) Transcripts() repositories.TranscriptRepository   { return transcriptRepo{s} }
func (s *MemoryStore) Suggestions() repositories.SuggestionRepository   { return suggestionRepo{s} }
func (s *MemoryStore) Runs() repositories.RunRepository                 { return runRepo{s} }
func (s *MemoryStore) Minutes() repositories.MinutesRepository          { return minutesRepo{s} }

// Transaction runs fn against the same tables and restores the snapshot when fn fails
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	if err := s.enter("Transaction"); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(txStore{s}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// txStore is the view handed to a transaction body; nested calls join the outer transaction
type txStore struct{ *MemoryStore }

func (t txStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return fn(t)
}

// Seeding

// AddMeeting stores a meeting, filling ID and timestamps when empty
func (s *MemoryStore) AddMeeting(m *entities.Meeting) *entities.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.LanguagePreference == "" {
		m.LanguagePreference = "en"
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.data.meetings[m.ID] = *m
	return m
}

// NewMeeting seeds a meeting with a title and language
func (s *MemoryStore) NewMeeting(title, language string) *entities.Meeting {
	return s.AddMeeting(&entities.Meeting{Title: title, LanguagePreference: language})
}

// AddUser stores a user
func (s *MemoryStore) AddUser(name, email string) *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := entities.User{ID: uuid.New(), Name: name, Email: email, IsActive: true, CreatedAt: time.Now()}
	s.data.users[u.ID] = u
	return &u
}

// AddSpeaker stores a speaker and, when user is non-nil, its user mapping
func (s *MemoryStore) AddSpeaker(meetingID uuid.UUID, label string, user *entities.User) *entities.Speaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := entities.Speaker{ID: uuid.New(), MeetingID: meetingID, Label: label, CreatedAt: time.Now()}
	s.data.speakers[sp.ID] = sp
	if user != nil {
		m := entities.SpeakerUserMap{
			ID:        uuid.New(),
			MeetingID: meetingID,
			SpeakerID: sp.ID,
			UserID:    user.ID,
			CreatedAt: time.Now(),
		}
		s.data.mappings[m.ID] = m
	}
	return &sp
}

// AddSegment stores a final transcript segment
func (s *MemoryStore) AddSegment(meetingID uuid.UUID, startMs, endMs int64, speaker, text string) *entities.TranscriptSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg := entities.TranscriptSegment{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		StartMs:      startMs,
		EndMs:        endMs,
		SpeakerLabel: speaker,
		Text:         text,
		Confidence:   0.95,
		IsFinal:      true,
		CreatedAt:    time.Now(),
	}
	s.data.segments[seg.ID] = seg
	return &seg
}

// AddPartialSegment stores a non-final segment
func (s *MemoryStore) AddPartialSegment(meetingID uuid.UUID, startMs, endMs int64, speaker, text string) *entities.TranscriptSegment {
	seg := s.AddSegment(meetingID, startMs, endMs, speaker, text)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.data.segments[seg.ID]
	stored.IsFinal = false
	s.data.segments[seg.ID] = stored
	seg.IsFinal = false
	return seg
}

// Inspection

// AllSuggestions returns every stored suggestion of a meeting, oldest first
func (s *MemoryStore) AllSuggestions(meetingID uuid.UUID) []*entities.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestionsWhere(func(x *entities.Suggestion) bool { return x.MeetingID == meetingID }, false)
}

// AllRuns returns every stored run of a meeting, oldest first
func (s *MemoryStore) AllRuns(meetingID uuid.UUID) []*entities.CopilotRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entities.CopilotRun
	for _, r := range s.data.runs {
		if r.MeetingID == meetingID {
			r := r
			out = append(out, &r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// ActionItems returns the materialized action items of a meeting
func (s *MemoryStore) ActionItems(meetingID uuid.UUID) []*entities.ActionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entities.ActionItem
	for _, a := range s.data.actionItems {
		if a.MeetingID == meetingID {
			a := a
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MinutesOf returns the meeting's minutes, or nil
func (s *MemoryStore) MinutesOf(meetingID uuid.UUID) *entities.Minutes {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.minutes[meetingID]
	if !ok {
		return nil
	}
	m = copyMinutes(m)
	return &m
}

// PutSuggestion stores a suggestion as-is, bypassing Create
func (s *MemoryStore) PutSuggestion(x *entities.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.suggestions[x.ID] = copySuggestion(*x)
}

// PutRun stores a run as-is, bypassing Create
func (s *MemoryStore) PutRun(r *entities.CopilotRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.runs[r.ID] = *r
}

// suggestionsWhere returns matching copies sorted by creation. Caller holds mu.
func (s *MemoryStore) suggestionsWhere(keep func(*entities.Suggestion) bool, newestFirst bool) []*entities.Suggestion {
	var out []*entities.Suggestion
	for _, v := range s.data.suggestions {
		c := copySuggestion(v)
		if keep(&c) {
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func copySuggestion(v entities.Suggestion) entities.Suggestion {
	if v.Payload != nil {
		v.Payload = append([]byte(nil), v.Payload...)
	}
	if v.SourceSegmentIDs != nil {
		v.SourceSegmentIDs = append([]string(nil), v.SourceSegmentIDs...)
	}
	if v.Materialized != nil {
		ref := *v.Materialized
		v.Materialized = &ref
	}
	return v
}

func copyMinutes(m entities.Minutes) entities.Minutes {
	m.Content.Decisions = append([]entities.MinutesEntry(nil), m.Content.Decisions...)
	m.Content.Risks = append([]entities.MinutesEntry(nil), m.Content.Risks...)
	m.Content.OpenQuestions = append([]entities.MinutesEntry(nil), m.Content.OpenQuestions...)
	return m
}

type meetingRepo struct{ s *MemoryStore }

func (r meetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Meetings.FindByID"); err != nil {
		return nil, err
	}
	m, ok := r.s.data.meetings[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r meetingRepo) FindByLivekitRoomName(ctx context.Context, roomName string) (*entities.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Meetings.FindByLivekitRoomName"); err != nil {
		return nil, err
	}
	for _, m := range r.s.data.meetings {
		if m.LivekitRoomName != nil && *m.LivekitRoomName == roomName {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

type sessionRepo struct{ s *MemoryStore }

func (r sessionRepo) Create(ctx context.Context, session *entities.LiveSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("LiveSessions.Create"); err != nil {
		return err
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.s.data.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) Update(ctx context.Context, session *entities.LiveSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("LiveSessions.Update"); err != nil {
		return err
	}
	r.s.data.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) FindActiveByMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.LiveSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("LiveSessions.FindActiveByMeeting"); err != nil {
		return nil, err
	}
	var latest *entities.LiveSession
	for _, v := range r.s.data.sessions {
		if v.MeetingID != meetingID || v.Status != entities.LiveSessionStatusActive {
			continue
		}
		v := v
		if latest == nil || v.StartedAt.After(latest.StartedAt) {
			latest = &v
		}
	}
	return latest, nil
}

type speakerRepo struct{ s *MemoryStore }

func (r speakerRepo) CountByMeeting(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Speakers.CountByMeeting"); err != nil {
		return 0, err
	}
	var n int64
	for _, sp := range r.s.data.speakers {
		if sp.MeetingID == meetingID {
			n++
		}
	}
	return n, nil
}

func (r speakerRepo) ListMappings(ctx context.Context, meetingID uuid.UUID) ([]*entities.SpeakerUserMap, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Speakers.ListMappings"); err != nil {
		return nil, err
	}
	var out []*entities.SpeakerUserMap
	for _, m := range r.s.data.mappings {
		if m.MeetingID != meetingID {
			continue
		}
		m := m
		if sp, ok := r.s.data.speakers[m.SpeakerID]; ok {
			m.Speaker = &sp
		}
		if u, ok := r.s.data.users[m.UserID]; ok {
			m.User = &u
		}
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Speaker == nil || out[j].Speaker == nil {
			return false
		}
		return out[i].Speaker.Label < out[j].Speaker.Label
	})
	return out, nil
}

type userRepo struct{ s *MemoryStore }

func (r userRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Users.FindByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type transcriptRepo struct{ s *MemoryStore }

func (r transcriptRepo) finalSegments(meetingID uuid.UUID) []*entities.TranscriptSegment {
	var out []*entities.TranscriptSegment
	for _, seg := range r.s.data.segments {
		if seg.MeetingID == meetingID && seg.IsFinal {
			seg := seg
			out = append(out, &seg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	return out
}

func (r transcriptRepo) ListRecentFinal(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.TranscriptSegment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Transcripts.ListRecentFinal"); err != nil {
		return nil, err
	}
	out := r.finalSegments(meetingID)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r transcriptRepo) ListFinal(ctx context.Context, meetingID uuid.UUID) ([]*entities.TranscriptSegment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Transcripts.ListFinal"); err != nil {
		return nil, err
	}
	return r.finalSegments(meetingID), nil
}

type suggestionRepo struct{ s *MemoryStore }

func (r suggestionRepo) Create(ctx context.Context, x *entities.Suggestion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.Create"); err != nil {
		return err
	}
	if x.ID == uuid.Nil {
		x.ID = uuid.New()
	}
	if _, exists := r.s.data.suggestions[x.ID]; exists {
		return fmt.Errorf("suggestion %s already exists", x.ID)
	}
	if x.CreatedAt.IsZero() {
		x.CreatedAt = time.Now()
	}
	r.s.data.suggestions[x.ID] = copySuggestion(*x)
	return nil
}

func (r suggestionRepo) Update(ctx context.Context, x *entities.Suggestion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.Update"); err != nil {
		return err
	}
	x.UpdatedAt = time.Now()
	r.s.data.suggestions[x.ID] = copySuggestion(*x)
	return nil
}

func (r suggestionRepo) find(op string, id uuid.UUID) (*entities.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(op); err != nil {
		return nil, err
	}
	v, ok := r.s.data.suggestions[id]
	if !ok {
		return nil, nil
	}
	c := copySuggestion(v)
	return &c, nil
}

func (r suggestionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Suggestion, error) {
	return r.find("Suggestions.FindByID", id)
}

// FindByIDForUpdate relies on Transaction serializing writers
func (r suggestionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Suggestion, error) {
	return r.find("Suggestions.FindByIDForUpdate", id)
}

func (r suggestionRepo) ListOpen(ctx context.Context, meetingID uuid.UUID) ([]*entities.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.ListOpen"); err != nil {
		return nil, err
	}
	return r.s.suggestionsWhere(func(x *entities.Suggestion) bool {
		return x.MeetingID == meetingID && x.IsOpen()
	}, false), nil
}

func (r suggestionRepo) ListAccepted(ctx context.Context, meetingID uuid.UUID) ([]*entities.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.ListAccepted"); err != nil {
		return nil, err
	}
	return r.s.suggestionsWhere(func(x *entities.Suggestion) bool {
		return x.MeetingID == meetingID && x.Status == entities.SuggestionStatusAccepted
	}, false), nil
}

func (r suggestionRepo) List(ctx context.Context, meetingID uuid.UUID, filters repositories.SuggestionFilters) ([]*entities.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.List"); err != nil {
		return nil, err
	}
	out := r.s.suggestionsWhere(func(x *entities.Suggestion) bool {
		if x.MeetingID != meetingID {
			return false
		}
		if filters.Type != nil && x.Type != *filters.Type {
			return false
		}
		if filters.Status != nil && x.Status != *filters.Status {
			return false
		}
		return true
	}, true)
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (r suggestionRepo) Count(ctx context.Context, meetingID uuid.UUID) (*repositories.SuggestionCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.Count"); err != nil {
		return nil, err
	}
	counts := &repositories.SuggestionCounts{
		ByStatus: map[entities.SuggestionStatus]int64{},
		ByType:   map[entities.SuggestionType]int64{},
	}
	for _, x := range r.s.data.suggestions {
		if x.MeetingID != meetingID {
			continue
		}
		counts.ByStatus[x.Status]++
		counts.ByType[x.Type]++
		counts.Total++
	}
	return counts, nil
}

func (r suggestionRepo) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Suggestions.DeleteRejectedBefore"); err != nil {
		return 0, err
	}
	var n int64
	for id, x := range r.s.data.suggestions {
		if x.Status == entities.SuggestionStatusRejected && x.CreatedAt.Before(cutoff) {
			delete(r.s.data.suggestions, id)
			n++
		}
	}
	return n, nil
}

type runRepo struct{ s *MemoryStore }

func (r runRepo) Create(ctx context.Context, run *entities.CopilotRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.Create"); err != nil {
		return err
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	r.s.data.runs[run.ID] = *run
	return nil
}

func (r runRepo) Update(ctx context.Context, run *entities.CopilotRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.Update"); err != nil {
		return err
	}
	run.UpdatedAt = time.Now()
	r.s.data.runs[run.ID] = *run
	return nil
}

func (r runRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.CopilotRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.FindByID"); err != nil {
		return nil, err
	}
	run, ok := r.s.data.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

// newest returns a meeting's runs, newest first. Caller holds mu.
func (r runRepo) newest(meetingID uuid.UUID) []*entities.CopilotRun {
	var out []*entities.CopilotRun
	for _, run := range r.s.data.runs {
		if run.MeetingID == meetingID {
			run := run
			out = append(out, &run)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (r runRepo) FindLatest(ctx context.Context, meetingID uuid.UUID) (*entities.CopilotRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.FindLatest"); err != nil {
		return nil, err
	}
	runs := r.newest(meetingID)
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (r runRepo) List(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.CopilotRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.List"); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 50
	}
	runs := r.newest(meetingID)
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r runRepo) ListStale(ctx context.Context, cutoff time.Time) ([]*entities.CopilotRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.ListStale"); err != nil {
		return nil, err
	}
	var out []*entities.CopilotRun
	for _, run := range r.s.data.runs {
		if run.Status == entities.RunStatusStarted && run.StartedAt.Before(cutoff) {
			run := run
			out = append(out, &run)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (r runRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Runs.DeleteFinishedBefore"); err != nil {
		return 0, err
	}
	var n int64
	for id, run := range r.s.data.runs {
		finished := run.Status == entities.RunStatusSuccess || run.Status == entities.RunStatusFailed
		if finished && run.StartedAt.Before(cutoff) {
			delete(r.s.data.runs, id)
			n++
		}
	}
	return n, nil
}

type minutesRepo struct{ s *MemoryStore }

func (r minutesRepo) FindOrCreateForUpdate(ctx context.Context, meetingID uuid.UUID) (*entities.Minutes, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Minutes.FindOrCreateForUpdate"); err != nil {
		return nil, err
	}
	m, ok := r.s.data.minutes[meetingID]
	if !ok {
		m = *entities.NewMinutes(meetingID)
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		r.s.data.minutes[meetingID] = m
	}
	m = copyMinutes(m)
	return &m, nil
}

func (r minutesRepo) Save(ctx context.Context, minutes *entities.Minutes) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Minutes.Save"); err != nil {
		return err
	}
	r.s.data.minutes[minutes.MeetingID] = copyMinutes(*minutes)
	return nil
}

func (r minutesRepo) CreateActionItem(ctx context.Context, item *entities.ActionItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("Minutes.CreateActionItem"); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.SuggestionID != nil {
		for _, existing := range r.s.data.actionItems {
			if existing.SuggestionID != nil && *existing.SuggestionID == *item.SuggestionID {
				return fmt.Errorf("action item for suggestion %s already exists", *item.SuggestionID)
			}
		}
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	r.s.data.actionItems[item.ID] = *item
	return nil
}

var _ repositories.Store = (*MemoryStore)(nil)
