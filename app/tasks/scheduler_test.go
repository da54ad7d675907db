package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/registry"
	"github.com/lysyi3m/regcheck/app/source"
)

func newTestConfigCache(t *testing.T, configs map[string]string) *source.ConfigCache {
	t.Helper()

	dir := t.TempDir()
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	configCache := source.NewConfigCache(dir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	return configCache
}

const scheduledBanks = `
domain: banks
url: "https://registry.example/banks?date={date}"
local:
  path: "/data/book.xlsx"
settings:
  enabled: true
  refresh_interval: 3600
`

const uploadOnlyWatchlist = `
domain: watchlist
local:
  path: "/data/people.xlsx"
settings:
  enabled: true
`

func drainQueue(s *Scheduler) []TaskInterface {
	var tasks []TaskInterface
	for {
		select {
		case task := <-s.taskQueue:
			tasks = append(tasks, task)
		default:
			return tasks
		}
	}
}

func TestSchedulerEnqueuesStartupSync(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{
		"banks":     scheduledBanks,
		"watchlist": uploadOnlyWatchlist,
	})
	deps, _, _ := newTestDeps(&mockAcquirer{})
	scheduler := newScheduler(configCache, deps, time.Hour, 1)
	defer scheduler.cancel()

	scheduler.enqueueStartupTasks()

	tasks := drainQueue(scheduler)
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 sync tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.GetType() != TaskTypeSyncSourceConfig {
			t.Errorf("Expected sync task, got %s", task.GetType())
		}
	}
}

func TestSchedulerEnqueuesDueSources(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{
		"banks":     scheduledBanks,
		"watchlist": uploadOnlyWatchlist,
	})
	deps, sourceRepo, runRepo := newTestDeps(&mockAcquirer{})
	_ = sourceRepo.UpsertSource("banks", registry.DomainBanks, "https://registry.example/banks?date={date}")
	_ = sourceRepo.UpsertSource("watchlist", registry.DomainWatchlist, "")

	scheduler := newScheduler(configCache, deps, time.Hour, 1)
	defer scheduler.cancel()

	scheduler.enqueueTasks()

	tasks := drainQueue(scheduler)
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 reconcile task, got %d", len(tasks))
	}
	task, ok := tasks[0].(*ReconcileTask)
	if !ok {
		t.Fatalf("Expected *ReconcileTask, got %T", tasks[0])
	}
	if task.SourceName != "banks" {
		t.Errorf("Expected source 'banks', got '%s'", task.SourceName)
	}

	run, _ := runRepo.GetRun(task.RunID)
	if run == nil || run.State != database.RunStatePending {
		t.Errorf("Expected a pending run to be created, got %+v", run)
	}

	// The pending run blocks a second one.
	scheduler.enqueueTasks()
	if tasks := drainQueue(scheduler); len(tasks) != 0 {
		t.Errorf("Expected no task while a run is in flight, got %d", len(tasks))
	}
}

func TestSchedulerSkipsSourcesNotDue(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{"banks": scheduledBanks})
	deps, sourceRepo, _ := newTestDeps(&mockAcquirer{})
	_ = sourceRepo.UpsertSource("banks", registry.DomainBanks, "https://registry.example/banks?date={date}")
	_ = sourceRepo.UpdateNextRun("banks", time.Now().UTC(), timePtr(time.Now().UTC().Add(time.Hour)))

	scheduler := newScheduler(configCache, deps, time.Hour, 1)
	defer scheduler.cancel()

	scheduler.enqueueTasks()

	if tasks := drainQueue(scheduler); len(tasks) != 0 {
		t.Errorf("Expected no task before next run time, got %d", len(tasks))
	}
}

func TestSchedulerSkipsUnsyncedSources(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{"banks": scheduledBanks})
	deps, _, _ := newTestDeps(&mockAcquirer{})

	scheduler := newScheduler(configCache, deps, time.Hour, 1)
	defer scheduler.cancel()

	scheduler.enqueueTasks()

	if tasks := drainQueue(scheduler); len(tasks) != 0 {
		t.Errorf("Expected no task for a source missing from the database, got %d", len(tasks))
	}
}

func TestSchedulerSubmitAfterStopFailsRun(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	deps, _, runRepo := newTestDeps(&mockAcquirer{})
	scheduler := newScheduler(configCache, deps, time.Hour, 1)
	scheduler.cancel()

	config := bankConfig()
	if _, err := scheduler.Submit(config, "", nil); err == nil {
		t.Fatal("Expected error when submitting to a stopped scheduler")
	}

	last, _ := runRepo.GetLastRun(config.Name)
	if last == nil {
		t.Fatal("Expected the run record to exist")
	}
	if last.State != database.RunStateFailed {
		t.Errorf("Expected rejected run to be failed, got %s", last.State)
	}
}

func TestSchedulerRunsSubmittedTask(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	acquirer := &mockAcquirer{
		registrySheet: registry.Grid{{"", "", "", "ОГРН"}},
		book:          registry.Grid{{"1027700000009"}},
	}
	deps, _, runRepo := newTestDeps(acquirer)
	scheduler := newScheduler(configCache, deps, time.Hour, 2)
	scheduler.Start()
	defer scheduler.Stop()

	run, err := scheduler.Submit(bankConfig(), "", nil)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		stored, _ := runRepo.GetRun(run.ID)
		if stored.State == database.RunStateCompleted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Expected submitted run to complete")
}

func TestSchedulerStopFailsRunAwaitingRetry(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	deps, _, runRepo := newTestDeps(&mockAcquirer{})
	scheduler := newScheduler(configCache, deps, time.Hour, 1)

	config := bankConfig()
	run, _ := runRepo.CreateRun(config.Name, config.Domain, "")
	task := NewReconcileTask(run, config, deps, nil)

	scheduler.cancel()
	scheduler.executeTask(0, task)
	scheduler.wg.Wait()

	stored, _ := runRepo.GetRun(run.ID)
	if stored.State != database.RunStateFailed {
		t.Errorf("Expected run to fail when its retry is dropped on stop, got %s", stored.State)
	}
	if !strings.Contains(stored.Error, "context canceled") {
		t.Errorf("Expected stored error to mention cancellation, got '%s'", stored.Error)
	}
}

func TestSchedulerFullQueueFailsRunAwaitingRetry(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	acquirer := &mockAcquirer{
		err: &source.AcquisitionError{Domain: registry.DomainBanks, Source: source.OriginRegistry, Err: errors.New("status 503")},
	}
	deps, _, runRepo := newTestDeps(acquirer)
	scheduler := newScheduler(configCache, deps, time.Hour, 1)
	defer scheduler.cancel()

	config := bankConfig()
	filler := NewReconcileTask(&database.Run{ID: "filler"}, config, deps, nil)
	for len(scheduler.taskQueue) < cap(scheduler.taskQueue) {
		scheduler.taskQueue <- filler
	}

	run, _ := runRepo.CreateRun(config.Name, config.Domain, "")
	task := NewReconcileTask(run, config, deps, nil)

	scheduler.executeTask(0, task)
	scheduler.wg.Wait()

	stored, _ := runRepo.GetRun(run.ID)
	if stored.State != database.RunStateFailed {
		t.Errorf("Expected run to fail when its retry cannot be queued, got %s", stored.State)
	}
	if !strings.Contains(stored.Error, "task queue is full") {
		t.Errorf("Expected stored error to mention the full queue, got '%s'", stored.Error)
	}
	if acquirer.calls != 1 {
		t.Errorf("Expected a single attempt, got %d", acquirer.calls)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry); got != tt.expected {
			t.Errorf("Expected delay %v for retry %d, got %v", tt.expected, tt.retry, got)
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
