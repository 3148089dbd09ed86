package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"reelcheck/config"
	"reelcheck/models"
	"reelcheck/services/availability"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskAlreadyRunning = errors.New("task is already running")
)

// SettingsStore loads and saves the settings file holding task definitions.
type SettingsStore interface {
	Load() (config.Settings, error)
	Save(config.Settings) error
}

// WatchlistSource enumerates users and loads their watchlists.
type WatchlistSource interface {
	UserIDs(ctx context.Context) ([]string, error)
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}

// Sweeper runs availability sweeps.
type Sweeper interface {
	Sweep(ctx context.Context, userID string, entries []models.WatchlistEntry, trigger availability.Trigger) models.SweepReport
}

// StaleFilter picks the entries due for a recheck.
type StaleFilter interface {
	StaleEntries(entries []models.WatchlistEntry) []models.WatchlistEntry
}

// ListSyncer resyncs curated lists whose last sync is stale.
type ListSyncer interface {
	UserIDs(ctx context.Context) ([]string, error)
	SyncStale(ctx context.Context, userID string) (int, error)
}

// Service manages scheduled task execution
type Service struct {
	configManager SettingsStore
	watchlists    WatchlistSource
	sweeper       Sweeper
	stale         StaleFilter
	lists         ListSyncer
	onReload      availability.ReloadFunc
	now           func() time.Time

	// Runtime state
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Task state tracking (in-memory, not persisted)
	taskRunning map[string]bool
	taskMu      sync.RWMutex

	// serialises the load-modify-save of task status
	statusMu sync.Mutex
}

// NewService creates a new scheduler service. lists may be nil when curated
// lists are not configured. onReload, when set, receives the re-read
// watchlist of every user whose scheduled sweep completed.
func NewService(
	configManager SettingsStore,
	watchlists WatchlistSource,
	sweeper Sweeper,
	stale StaleFilter,
	lists ListSyncer,
	onReload availability.ReloadFunc,
) *Service {
	return &Service{
		configManager: configManager,
		watchlists:    watchlists,
		sweeper:       sweeper,
		stale:         stale,
		lists:         lists,
		onReload:      onReload,
		now:           time.Now,
		ctx:           context.Background(),
		taskRunning:   make(map[string]bool),
	}
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.schedulerLoop(s.ctx)

	log.Println("[scheduler] Scheduler service started")
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Scheduler service stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Scheduler service stopped (timeout)")
	}

	s.running = false
	return nil
}

// schedulerLoop is the main background loop that checks for tasks to run
func (s *Service) schedulerLoop(ctx context.Context) {
	defer s.wg.Done()

	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	checkInterval := time.Duration(settings.ScheduledTasks.CheckIntervalSeconds) * time.Second
	if checkInterval < time.Second {
		checkInterval = 60 * time.Second
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	s.checkAndRunTasks(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunTasks(ctx)
		}
	}
}

// checkAndRunTasks starts every enabled task that is due. It returns the
// number of tasks started.
func (s *Service) checkAndRunTasks(ctx context.Context) int {
	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return 0
	}

	started := 0
	for _, task := range settings.ScheduledTasks.Tasks {
		if !task.Enabled {
			continue
		}
		if !s.shouldRun(task) {
			continue
		}
		if !s.markRunning(task.ID) {
			continue
		}
		started++
		s.wg.Add(1)
		go func(t config.ScheduledTask) {
			defer s.wg.Done()
			s.executeTask(ctx, t)
		}(task)
	}
	return started
}

// shouldRun checks if a task is due to run
func (s *Service) shouldRun(task config.ScheduledTask) bool {
	if s.IsTaskRunning(task.ID) {
		return false
	}
	if task.LastRunAt == nil {
		return true
	}
	return s.now().Sub(*task.LastRunAt) >= getInterval(task.Frequency)
}

// getInterval returns the duration for a given frequency
func getInterval(freq config.ScheduledTaskFrequency) time.Duration {
	switch freq {
	case config.ScheduledTaskFrequency1Min:
		return 1 * time.Minute
	case config.ScheduledTaskFrequency5Min:
		return 5 * time.Minute
	case config.ScheduledTaskFrequency15Min:
		return 15 * time.Minute
	case config.ScheduledTaskFrequency30Min:
		return 30 * time.Minute
	case config.ScheduledTaskFrequencyHourly:
		return 1 * time.Hour
	case config.ScheduledTaskFrequency6Hours:
		return 6 * time.Hour
	case config.ScheduledTaskFrequency12Hours:
		return 12 * time.Hour
	case config.ScheduledTaskFrequencyDaily:
		return 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (s *Service) markRunning(taskID string) bool {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()
	if s.taskRunning[taskID] {
		return false
	}
	s.taskRunning[taskID] = true
	return true
}

// executeTask runs a task already marked running and updates its status
func (s *Service) executeTask(ctx context.Context, task config.ScheduledTask) {
	defer func() {
		s.taskMu.Lock()
		delete(s.taskRunning, task.ID)
		s.taskMu.Unlock()
	}()

	log.Printf("[scheduler] Executing task: %s (%s)", task.Name, task.Type)

	var err error
	var processed int

	switch task.Type {
	case config.ScheduledTaskTypeAvailabilityRefresh:
		processed, err = s.executeAvailabilityRefresh(ctx, task)
	case config.ScheduledTaskTypeListSync:
		processed, err = s.executeListSync(ctx, task)
	default:
		log.Printf("[scheduler] Unknown task type: %s", task.Type)
		return
	}

	s.updateTaskStatus(task.ID, err, processed)
}

// updateTaskStatus updates a task's status in the settings file
func (s *Service) updateTaskStatus(taskID string, err error, processed int) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	settings, loadErr := s.configManager.Load()
	if loadErr != nil {
		log.Printf("[scheduler] Failed to load settings to update task status: %v", loadErr)
		return
	}

	now := s.now().UTC()
	for i := range settings.ScheduledTasks.Tasks {
		if settings.ScheduledTasks.Tasks[i].ID == taskID {
			settings.ScheduledTasks.Tasks[i].LastRunAt = &now
			settings.ScheduledTasks.Tasks[i].ItemsProcessed = processed

			if err != nil {
				settings.ScheduledTasks.Tasks[i].LastStatus = config.ScheduledTaskStatusError
				settings.ScheduledTasks.Tasks[i].LastError = err.Error()
				log.Printf("[scheduler] Task %s failed: %v", taskID, err)
			} else {
				settings.ScheduledTasks.Tasks[i].LastStatus = config.ScheduledTaskStatusSuccess
				settings.ScheduledTasks.Tasks[i].LastError = ""
				log.Printf("[scheduler] Task %s completed successfully, processed %d items", taskID, processed)
			}
			break
		}
	}

	if saveErr := s.configManager.Save(settings); saveErr != nil {
		log.Printf("[scheduler] Failed to save task status: %v", saveErr)
	}
}

// RunTaskNow triggers immediate execution of a task
func (s *Service) RunTaskNow(taskID string) error {
	settings, err := s.configManager.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, task := range settings.ScheduledTasks.Tasks {
		if task.ID != taskID {
			continue
		}
		if !s.markRunning(taskID) {
			return ErrTaskAlreadyRunning
		}
		s.mu.RLock()
		ctx := s.ctx
		s.mu.RUnlock()

		s.wg.Add(1)
		go func(t config.ScheduledTask) {
			defer s.wg.Done()
			s.executeTask(ctx, t)
		}(task)
		return nil
	}

	return ErrTaskNotFound
}

// GetTaskStatus returns all tasks with their current status
// Running tasks will have their status overridden to "running"
func (s *Service) GetTaskStatus() []config.ScheduledTask {
	settings, err := s.configManager.Load()
	if err != nil {
		return nil
	}

	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	tasks := make([]config.ScheduledTask, len(settings.ScheduledTasks.Tasks))
	for i, task := range settings.ScheduledTasks.Tasks {
		tasks[i] = task
		if s.taskRunning[task.ID] {
			tasks[i].LastStatus = config.ScheduledTaskStatusRunning
		}
	}

	return tasks
}

// IsTaskRunning checks if a specific task is currently running
func (s *Service) IsTaskRunning(taskID string) bool {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	return s.taskRunning[taskID]
}

// targetUsers returns the task's configured userId, or every user from all.
func targetUsers(ctx context.Context, task config.ScheduledTask, all func(context.Context) ([]string, error)) ([]string, error) {
	if userID := strings.TrimSpace(task.Config["userId"]); userID != "" {
		return []string{userID}, nil
	}
	return all(ctx)
}

// executeAvailabilityRefresh sweeps the stale entries of each target user.
func (s *Service) executeAvailabilityRefresh(ctx context.Context, task config.ScheduledTask) (int, error) {
	userIDs, err := targetUsers(ctx, task, s.watchlists.UserIDs)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	checked := 0
	var errs []error
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return checked, ctx.Err()
		}

		entries, err := s.watchlists.List(ctx, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("load watchlist for %s: %w", userID, err))
			continue
		}
		stale := s.stale.StaleEntries(entries)
		if len(stale) == 0 {
			continue
		}

		report := s.sweeper.Sweep(ctx, userID, stale, availability.TriggerScheduled)
		checked += report.Checked
		switch report.Outcome {
		case models.SweepOutcomeCompleted:
			s.publish(ctx, userID)
		case models.SweepOutcomeUnreachable:
			// The server is global; other users would fail the same way.
			return checked, availability.ErrServerUnreachable
		case models.SweepOutcomeAborted:
			errs = append(errs, fmt.Errorf("sweep for %s aborted", userID))
		case models.SweepOutcomeBusy:
			log.Printf("[scheduler] skipping %s: sweep already running", userID)
		}
	}
	return checked, errors.Join(errs...)
}

// publish hands the user's freshly written watchlist to the reload hook.
func (s *Service) publish(ctx context.Context, userID string) {
	if s.onReload == nil {
		return
	}
	entries, err := s.watchlists.List(ctx, userID)
	if err != nil {
		log.Printf("[scheduler] reload watchlist for %s: %v", userID, err)
		return
	}
	s.onReload(userID, entries)
}

// executeListSync resyncs stale curated lists for each target user.
func (s *Service) executeListSync(ctx context.Context, task config.ScheduledTask) (int, error) {
	if s.lists == nil {
		return 0, errors.New("curated lists are not configured")
	}

	userIDs, err := targetUsers(ctx, task, s.lists.UserIDs)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	synced := 0
	var errs []error
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		n, err := s.lists.SyncStale(ctx, userID)
		synced += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return synced, errors.Join(errs...)
}
