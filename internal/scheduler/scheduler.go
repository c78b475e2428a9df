package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Task is a named job run on a cron schedule.
type Task struct {
	Name        string
	Description string
	Schedule    string
	Enabled     bool
	Handler     func(ctx context.Context) error
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	tasks     map[string]Task
	ctx       context.Context
	cancel    context.CancelFunc
	log       *slog.Logger
}

func New(log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		tasks:     make(map[string]Task),
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
	}
}

// Register adds the task to the registry and schedules it. Disabled tasks
// are kept for RunTaskNow but never scheduled.
func (s *Scheduler) Register(task Task) error {
	if _, ok := s.tasks[task.Name]; ok {
		return fmt.Errorf("task %s already registered", task.Name)
	}

	if !task.Enabled {
		s.tasks[task.Name] = task
		s.log.Info("registered disabled task", "task", task.Name)
		return nil
	}

	job, err := s.scheduler.Cron(task.Schedule).Do(func() {
		s.run(task)
	})
	if err != nil {
		return fmt.Errorf("schedule task %s: %w", task.Name, err)
	}
	job.Tag(task.Name)

	s.tasks[task.Name] = task
	s.log.Info("registered task", "task", task.Name, "schedule", task.Schedule)
	return nil
}

func (s *Scheduler) run(task Task) {
	start := time.Now()
	s.log.Info("running task", "task", task.Name)

	if err := task.Handler(s.ctx); err != nil {
		s.log.Error("task failed", "task", task.Name, "duration", time.Since(start), "error", err)
		return
	}
	s.log.Info("task completed", "task", task.Name, "duration", time.Since(start))
}

func (s *Scheduler) Tasks() []Task {
	tasks := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// RunTaskNow runs a registered task in the caller's goroutine.
func (s *Scheduler) RunTaskNow(ctx context.Context, name string) error {
	task, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("task %s not found", name)
	}
	return task.Handler(ctx)
}

func (s *Scheduler) Start() {
	s.log.Info("starting scheduler", "tasks", len(s.tasks), "scheduled", s.scheduler.Len())
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	s.scheduler.Stop()
	s.cancel()
}
