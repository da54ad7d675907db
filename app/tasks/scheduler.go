package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/regcheck/app/cfg"
	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize   = 300
	taskTimeout = 5 * time.Minute
	maxDelay    = 30 * time.Second
)

type Scheduler struct {
	configCache *source.ConfigCache
	deps        Deps
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *source.ConfigCache, deps Deps) *Scheduler {
	cfg := cfg.Get()
	return newScheduler(configCache, deps, time.Duration(cfg.SchedulerInterval)*time.Second, cfg.WorkerCount)
}

func newScheduler(configCache *source.ConfigCache, deps Deps, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache: configCache,
		deps:        deps,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Processing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		syncTask := NewSyncSourceConfigTask(sourceConfig.Name, sourceConfig, s.deps.SourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", sourceConfig.Name, "error", err)
		}
	}
}

// enqueueTasks starts a run for every scheduled source that is due and has
// no run in flight.
func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	now := time.Now().UTC()

	for _, sourceConfig := range sourceConfigs {
		if !sourceConfig.Scheduled() {
			continue
		}

		src, err := s.deps.SourceRepo.GetSource(sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}
		if src == nil {
			slog.Warn("Source not found in database, skipping", "source", sourceConfig.Name)
			continue
		}
		if src.NextRunAt != nil && src.NextRunAt.After(now) {
			slog.Debug("Source not due for refresh yet", "source", sourceConfig.Name, "next_run_at", src.NextRunAt)
			continue
		}

		last, err := s.deps.RunRepo.GetLastRun(sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to get last run, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}
		if last != nil && (last.State == database.RunStatePending || last.State == database.RunStateRunning) {
			slog.Debug("Run already in flight", "source", sourceConfig.Name, "run_id", last.ID)
			continue
		}

		if _, err := s.Submit(sourceConfig, "", nil); err != nil {
			slog.Warn("Failed to submit scheduled run", "source", sourceConfig.Name, "error", err)
		}
	}
}

// Submit creates a run record for config and enqueues its ReconcileTask.
// If the queue rejects the task the run is marked failed right away.
func (s *Scheduler) Submit(config *source.Config, referenceDate string, document []byte) (*database.Run, error) {
	run, err := s.deps.RunRepo.CreateRun(config.Name, config.Domain, referenceDate)
	if err != nil {
		return nil, err
	}

	task := NewReconcileTask(run, config, s.deps, document)
	if err := s.EnqueueTask(task); err != nil {
		if failErr := s.deps.RunRepo.FailRun(run.ID, err.Error()); failErr != nil {
			slog.Error("Failed to mark run failed", "run_id", run.ID, "error", failErr)
		}
		return nil, fmt.Errorf("failed to enqueue run: %w", err)
	}

	slog.Debug("Run submitted", "source", config.Name, "run_id", run.ID, "task_id", task.ID)

	return run, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := retryDelay(task.GetRetryCount())

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				timer := time.NewTimer(retryDelay)
				defer timer.Stop()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					task.Abandon(s.ctx.Err())
				case <-timer.C:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
						task.Abandon(retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}

func retryDelay(retryCount int) time.Duration {
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
