package sys_manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xpanvictor/parley/pkg/Logger"
	"golang.org/x/sync/errgroup"
)

// Component is a long-running part of the process. Run returns when ctx
// is done; a non-nil error stops every other component.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

// SystemTask represents a background task that can be executed
type SystemTask interface {
	// Execute runs the task
	Execute(ctx context.Context) error
	// GetName returns the task name for logging
	GetName() string
	// GetInterval returns how often this task should run
	GetInterval() time.Duration
}

// ComponentFunc adapts a plain run function.
type ComponentFunc struct {
	ComponentName string
	Fn            func(ctx context.Context) error
}

func (c ComponentFunc) Name() string                  { return c.ComponentName }
func (c ComponentFunc) Run(ctx context.Context) error { return c.Fn(ctx) }

// SystemManager runs registered components and scheduled tasks under
// one errgroup.
type SystemManager struct {
	components []Component
	logger     *Logger.Logger
	cancel     context.CancelFunc
	group      *errgroup.Group
	running    bool
	mu         sync.RWMutex
}

// NewSystemManager creates a new system manager
func NewSystemManager(logger *Logger.Logger) *SystemManager {
	return &SystemManager{
		components: make([]Component, 0),
		logger:     logger,
	}
}

func (sm *SystemManager) Register(c Component) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.components = append(sm.components, c)
	sm.logger.Infow("registered component", "component", c.Name())
}

// RegisterTask schedules a task to run now and then on its interval.
func (sm *SystemManager) RegisterTask(task SystemTask) {
	sm.Register(scheduledTask{task: task, logger: sm.logger})
	sm.logger.Infow("registered system task", "task", task.GetName(), "interval", task.GetInterval())
}

// Start launches every component.
func (sm *SystemManager) Start(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.running {
		return fmt.Errorf("system manager is already running")
	}

	ctx, sm.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	sm.group = group
	sm.running = true
	sm.logger.Infow("starting system manager", "components", len(sm.components))

	for _, c := range sm.components {
		c := c
		group.Go(func() error {
			err := c.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				sm.logger.Errorw("component failed", "component", c.Name(), "error", err)
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			sm.logger.Debugw("component stopped", "component", c.Name())
			return nil
		})
	}
	return nil
}

// Wait blocks until every component has returned and reports the first
// failure.
func (sm *SystemManager) Wait() error {
	sm.mu.RLock()
	group := sm.group
	sm.mu.RUnlock()
	if group == nil {
		return nil
	}
	return group.Wait()
}

// Stop gracefully shuts down all components
func (sm *SystemManager) Stop() error {
	sm.mu.Lock()
	if !sm.running {
		sm.mu.Unlock()
		return nil
	}
	sm.logger.Info("Stopping system manager...")
	sm.cancel()
	group := sm.group
	sm.mu.Unlock()

	err := group.Wait()

	sm.mu.Lock()
	sm.running = false
	sm.mu.Unlock()
	sm.logger.Info("System manager stopped")
	return err
}

// IsRunning returns whether the system manager is currently running
func (sm *SystemManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.running
}

func (sm *SystemManager) GetComponentCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.components)
}

type scheduledTask struct {
	task   SystemTask
	logger *Logger.Logger
}

func (s scheduledTask) Name() string { return s.task.GetName() }

func (s scheduledTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.task.GetInterval())
	defer ticker.Stop()

	// Execute immediately on start
	s.execute(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

// execute logs failures; a failing task never stops the process.
func (s scheduledTask) execute(ctx context.Context) {
	start := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.task.Execute(taskCtx); err != nil {
		s.logger.Errorw("system task failed", "task", s.task.GetName(), "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Debugw("system task completed", "task", s.task.GetName(), "duration", time.Since(start))
}

// StatsReporter is implemented by the voice loop.
type StatsReporter interface {
	StatsFields() []any
}

// StatsLoggerTask periodically logs a snapshot of the voice loop.
type StatsLoggerTask struct {
	source   StatsReporter
	logger   *Logger.Logger
	interval time.Duration
}

func NewStatsLoggerTask(source StatsReporter, logger *Logger.Logger, interval time.Duration) *StatsLoggerTask {
	if interval == 0 {
		interval = time.Minute
	}
	return &StatsLoggerTask{source: source, logger: logger, interval: interval}
}

func (t *StatsLoggerTask) Execute(ctx context.Context) error {
	t.logger.Infow("voice loop stats", t.source.StatsFields()...)
	return nil
}

func (t *StatsLoggerTask) GetName() string            { return "StatsLoggerTask" }
func (t *StatsLoggerTask) GetInterval() time.Duration { return t.interval }
