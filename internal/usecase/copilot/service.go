package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

// Service is the copilot use case surface used by handlers and event consumers
type Service interface {
	// TriggerRun starts a run on demand. Realtime runs are queued and return a nil run;
	// post-meeting runs execute inline and return the finalized run.
	TriggerRun(ctx context.Context, meetingID uuid.UUID, mode entities.RunMode) (*entities.CopilotRun, error)
	GetStatus(ctx context.Context, meetingID uuid.UUID) (*Status, error)
	ListSuggestions(ctx context.Context, meetingID uuid.UUID, filters repositories.SuggestionFilters) ([]*entities.Suggestion, error)
	ListRuns(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.CopilotRun, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*entities.CopilotRun, error)

	Accept(ctx context.Context, suggestionID, actor uuid.UUID) (*entities.EntityRef, *entities.Suggestion, error)
	Reject(ctx context.Context, suggestionID, actor uuid.UUID) (*entities.Suggestion, error)
	Edit(ctx context.Context, suggestionID, actor uuid.UUID, payload json.RawMessage) (*entities.Suggestion, error)

	OnLiveSessionStarted(ctx context.Context, meetingID uuid.UUID, roomSID string) error
	OnSegmentFinalized(ctx context.Context, meetingID uuid.UUID, segmentID string) error
	OnLiveSessionEnded(ctx context.Context, meetingID uuid.UUID) error

	CleanupExpired(ctx context.Context) (CleanupResult, error)
	SweepStaleRuns(ctx context.Context) (int64, error)

	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

type copilotService struct {
	*Orchestrator
	queue      *RunQueue
	dispatcher *Dispatcher
	cfg        config.CopilotConfig
	logger     *zap.Logger

	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// Dependencies are the adapters the copilot service runs on. Notifier, Archive,
// Debouncer and Metrics are optional.
type Dependencies struct {
	Store     repositories.Store
	Completer ChatCompleter
	Locker    MeetingLocker
	Notifier  Notifier
	Archive   RunArchive
	Debouncer Debouncer
	Metrics   Metrics
}

// NewCopilotService constructs the copilot service
func NewCopilotService(deps Dependencies, cfg config.CopilotConfig, logger *zap.Logger) Service {
	gateway := NewModelGateway(deps.Completer, cfg, deps.Metrics, logger)
	orchestrator := NewOrchestrator(deps.Store, gateway, deps.Locker, deps.Notifier, deps.Archive, deps.Metrics, cfg, logger)
	queue := NewRunQueue(orchestrator, cfg, logger)
	registry := NewSessionRegistry(deps.Store, logger)

	return &copilotService{
		Orchestrator:        orchestrator,
		queue:               queue,
		dispatcher:          NewDispatcher(queue, registry, deps.Debouncer, cfg, logger),
		cfg:                 cfg,
		logger:              logger,
		workerStopChan:      make(chan struct{}),
		isWorkerPoolRunning: false,
	}
}

func (s *copilotService) TriggerRun(ctx context.Context, meetingID uuid.UUID, mode entities.RunMode) (*entities.CopilotRun, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown run mode %q", ucerr.ErrInvalidInput, mode)
	}

	if mode == entities.RunModePostMeeting {
		return s.Execute(ctx, RunRequest{MeetingID: meetingID, Mode: mode, Trigger: TriggerExplicit})
	}

	if err := s.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	if !s.queue.TrySubmit(RunRequest{MeetingID: meetingID, Mode: mode, Trigger: TriggerExplicit}) {
		return nil, ucerr.ErrRunInProgress
	}

	if s.logger != nil {
		s.logger.Info("📥 Realtime run queued",
			zap.String("meeting_id", meetingID.String()),
		)
	}
	return nil, nil
}

func (s *copilotService) OnLiveSessionStarted(ctx context.Context, meetingID uuid.UUID, roomSID string) error {
	return s.dispatcher.OnLiveSessionStarted(ctx, meetingID, roomSID)
}

func (s *copilotService) OnSegmentFinalized(ctx context.Context, meetingID uuid.UUID, segmentID string) error {
	return s.dispatcher.OnSegmentFinalized(ctx, meetingID, segmentID)
}

func (s *copilotService) OnLiveSessionEnded(ctx context.Context, meetingID uuid.UUID) error {
	return s.dispatcher.OnLiveSessionEnded(ctx, meetingID)
}

// StartWorkerPool starts the run workers and the maintenance loop
func (s *copilotService) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting copilot worker pool",
			zap.Int("worker_count", workerCount),
			zap.Int("queue_size", cap(s.queue.jobs)),
		)
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.runWorker(ctx, i)
	}

	s.workerWg.Add(1)
	go s.maintenanceWorker(ctx)

	return nil
}

// StopWorkerPool waits for in-flight runs and stops every worker. Queued
// requests that were not picked up are dropped.
func (s *copilotService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping copilot worker pool...",
			zap.Int("queued", s.queue.Len()),
		)
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Copilot worker pool stopped")
	}
	return nil
}

func (s *copilotService) runWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	if s.logger != nil {
		s.logger.Info("👷 Worker started",
			zap.Int("worker_id", workerID),
		)
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Worker stopping",
					zap.Int("worker_id", workerID),
				)
			}
			return

		case <-parentCtx.Done():
			return

		case req := <-s.queue.jobs:
			_ = s.queue.Process(parentCtx, workerID, req)
		}
	}
}

// maintenanceWorker sweeps stale runs and applies retention on their own tickers
func (s *copilotService) maintenanceWorker(parentCtx context.Context) {
	defer s.workerWg.Done()

	cleanup := time.NewTicker(s.cfg.CleanupInterval)
	defer cleanup.Stop()
	sweep := time.NewTicker(s.cfg.StaleRunAfter)
	defer sweep.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return

		case <-parentCtx.Done():
			return

		case <-sweep.C:
			if _, err := s.SweepStaleRuns(parentCtx); err != nil && s.logger != nil {
				s.logger.Error("❌ Failed to sweep stale runs", zap.Error(err))
			}

		case <-cleanup.C:
			if _, err := s.CleanupExpired(parentCtx); err != nil && s.logger != nil {
				s.logger.Error("❌ Failed to clean up expired copilot data", zap.Error(err))
			}
		}
	}
}
