package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/robfig/cron/v3"

	"ChartDataset/internal/pipeline"
)

// Runner performs one dataset build.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunSummary, error)
}

// Scheduler runs the build on a cron spec. Runs never overlap: a tick that
// fires while a build is still going is dropped.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	OnFinish func(*pipeline.RunSummary)
	Logger   log.Logger
	Ctx      context.Context

	mu      sync.Mutex
	running bool
	async   sync.WaitGroup
}

// NewScheduler creates a new Scheduler. onFinish may be nil.
func NewScheduler(ctx context.Context, runner Runner, onFinish func(*pipeline.RunSummary), logger log.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Runner:   runner,
		OnFinish: onFinish,
		Logger:   logger,
		Ctx:      ctx,
	}
}

// Register adds the build job on spec (six fields, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.buildTask); err != nil {
		return fmt.Errorf("register build task: %w", err)
	}
	_ = level.Info(s.Logger).Log("msg", "build task registered", "cron", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	_ = level.Info(s.Logger).Log("msg", "scheduler started")
}

// Stop stops the cron scheduler and waits for running builds, scheduled or
// started with RunAsync, to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	_ = level.Info(s.Logger).Log("msg", "scheduler stopped")
}

// RunNow executes the build immediately (for RUN_ON_START). It is a no-op
// while another build is in progress.
func (s *Scheduler) RunNow() {
	s.buildTask()
}

// RunAsync starts RunNow in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		s.RunNow()
	}()
}

func (s *Scheduler) buildTask() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = level.Info(s.Logger).Log("msg", "build already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.Ctx.Err() != nil {
		return
	}
	_ = level.Info(s.Logger).Log("msg", "running build task")
	summary, err := s.Runner.Run(s.Ctx)
	if err != nil {
		_ = level.Error(s.Logger).Log("msg", "build task", "err", err)
	}
	if summary != nil && s.OnFinish != nil {
		s.OnFinish(summary)
	}
}

// cronLogger adapts a go-kit logger to cron.Logger.
type cronLogger struct {
	logger log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	_ = level.Debug(c.logger).Log(append([]interface{}{"msg", msg}, keysAndValues...)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	_ = level.Error(c.logger).Log(append([]interface{}{"msg", msg, "err", err}, keysAndValues...)...)
}
