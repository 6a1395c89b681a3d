package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler executes one run of a recurring job.
type Handler func(context.Context) error

// RunnerConfig configures recurring job behaviour.
type RunnerConfig struct {
	Interval   time.Duration
	RunAtStart bool
	Logger     *zap.Logger
}

// Runner drives a handler on a fixed interval until stopped.
type Runner struct {
	name    string
	handler Handler

	interval   time.Duration
	runAtStart bool
	logger     *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRunner builds a runner for the provided handler.
func NewRunner(name string, handler Handler, cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Runner{
		name:       name,
		handler:    handler,
		interval:   cfg.Interval,
		runAtStart: cfg.RunAtStart,
		logger:     cfg.Logger,
	}
}

// Start launches the ticking loop. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop()
	r.started = true
	r.logger.Sugar().Infow("runner started", "job", r.name, "interval", r.interval)
}

// Stop cancels the loop and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Sugar().Infow("runner stopped", "job", r.name)
}

func (r *Runner) loop() {
	defer r.wg.Done()

	if r.runAtStart {
		r.run()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.run()
		}
	}
}

func (r *Runner) run() {
	if err := r.handler(r.ctx); err != nil {
		r.logger.Sugar().Errorw("job run failed", "job", r.name, "error", err)
	}
}
