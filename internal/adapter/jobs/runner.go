package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/internal/core/telemetry"
	"todolists/pkg/config"
)

type Runner struct {
	repo     port.JobRepository
	cfg      config.JobsConfig
	metrics  *telemetry.AppMetrics
	logger   *zap.Logger
	handlers map[domain.JobKind]port.JobHandler

	work  chan domain.Job
	nudge chan struct{}
	idle  atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	now func() time.Time
}

func NewRunner(repo port.JobRepository, cfg config.JobsConfig, metrics *telemetry.AppMetrics, logger *zap.Logger) *Runner {
	defaults := config.GetDefaultConfig().Jobs

	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = defaults.BaseRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.BaseRetryDelay {
		cfg.MaxRetryDelay = cfg.BaseRetryDelay
	}

	return &Runner{
		repo:     repo,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		handlers: make(map[domain.JobKind]port.JobHandler),
		work:     make(chan domain.Job),
		nudge:    make(chan struct{}, 1),
		now:      time.Now,
	}
}

var _ port.JobRunner = (*Runner)(nil)

// Register binds a handler to a job kind. Handlers must be registered before Start.
func (r *Runner) Register(kind domain.JobKind, handler port.JobHandler) {
	r.handlers[kind] = handler
}

func (r *Runner) RegisterAll(handlers map[domain.JobKind]port.JobHandler) {
	for kind, handler := range handlers {
		r.Register(kind, handler)
	}
}

func (r *Runner) Enqueue(ctx context.Context, spec domain.JobSpec) (uuid.UUID, error) {
	jobs, err := r.repo.Insert(ctx, []domain.Job{r.newJob(spec)})
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s: %w", spec.Kind, err)
	}

	r.enqueued(ctx, jobs...)

	return jobs[0].UUID, nil
}

// EnqueueUnique adds the job to a named scope. APPEND runs it after the
// scope's current work settles; REPLACE drops the scope's queued work first.
func (r *Runner) EnqueueUnique(ctx context.Context, scope string, policy domain.UniquePolicy, spec domain.JobSpec) (uuid.UUID, error) {
	job, err := r.repo.InsertUnique(ctx, scope, policy, r.newJob(spec))
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s in %s: %w", spec.Kind, scope, err)
	}

	r.enqueued(ctx, job)

	return job.UUID, nil
}

// EnqueueChain runs the jobs one after another. A job that does not succeed
// cancels the rest of the chain.
func (r *Runner) EnqueueChain(ctx context.Context, specs ...domain.JobSpec) ([]uuid.UUID, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	chain := make([]domain.Job, 0, len(specs))
	for _, spec := range specs {
		job := r.newJob(spec)
		job.StrictDependency = true
		chain = append(chain, job)
	}

	jobs, err := r.repo.Insert(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("enqueue chain: %w", err)
	}

	r.enqueued(ctx, jobs...)

	ids := make([]uuid.UUID, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.UUID)
	}

	return ids, nil
}

// Start returns jobs interrupted by a previous run to the queue and starts
// the poller and workers. It returns immediately.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("job runner already started")
	}

	requeued, err := r.repo.RequeueRunning(ctx)
	if err != nil {
		return fmt.Errorf("requeue interrupted jobs: %w", err)
	}

	if requeued > 0 {
		r.logger.Info("Interrupted jobs requeued", zap.Int64("count", requeued))
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.logger.Info("Job runner started",
		zap.Int("workers", r.cfg.Workers),
		zap.Duration("poll_interval", r.cfg.PollInterval))

	return nil
}

// Stop cancels in-flight handlers and waits for the workers to return or ctx
// to end. Cancelled jobs are retried on the next start.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}

	r.cancel()
	r.running = false
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Job runner stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping job runner: %w", ctx.Err())
	}
}

// Nudge wakes the poller without waiting for the next tick.
func (r *Runner) Nudge() {
	select {
	case r.nudge <- struct{}{}:
	default:
	}
}

func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		r.dispatch(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reportDepth(ctx)
		case <-r.nudge:
		}
	}
}

func (r *Runner) dispatch(ctx context.Context) {
	for {
		free := int(r.idle.Load())
		if free <= 0 || ctx.Err() != nil {
			return
		}

		jobs, err := r.repo.ClaimReady(ctx, r.now(), free)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Error("Failed to claim jobs", zap.Error(err))
			}
			return
		}

		for _, job := range jobs {
			select {
			case r.work <- job:
			case <-ctx.Done():
				return
			}
		}

		if len(jobs) < free {
			return
		}
	}
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()

	for {
		r.idle.Add(1)

		select {
		case <-ctx.Done():
			r.idle.Add(-1)
			return
		case job := <-r.work:
			r.idle.Add(-1)
			r.execute(ctx, job)
			r.Nudge()
		}
	}
}

func (r *Runner) execute(ctx context.Context, job domain.Job) {
	logger := r.logger.With(
		zap.Int64("job_id", job.ID),
		zap.String("job_uuid", job.UUID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Int("attempt", job.Attempts))

	startTime := r.now()
	err := r.run(ctx, job)
	duration := r.now().Sub(startTime)

	// state changes must land even when the runner is shutting down
	settleCtx := context.WithoutCancel(ctx)

	var outcome string

	switch {
	case err == nil:
		outcome = "succeeded"
		if markErr := r.repo.MarkSucceeded(settleCtx, job.ID); markErr != nil {
			logger.Error("Failed to mark job succeeded", zap.Error(markErr))
		}
		logger.Debug("Job succeeded", zap.Duration("duration", duration))

	case ctx.Err() != nil:
		outcome = "interrupted"
		if markErr := r.repo.Reschedule(settleCtx, job.ID, r.now(), err.Error()); markErr != nil {
			logger.Error("Failed to requeue interrupted job", zap.Error(markErr))
		}
		logger.Info("Job interrupted by shutdown")

	case domain.IsPermanent(err) || job.Attempts >= job.MaxAttempts:
		outcome = "failed"
		if markErr := r.repo.MarkFailed(settleCtx, job.ID, err.Error()); markErr != nil {
			logger.Error("Failed to mark job failed", zap.Error(markErr))
		}
		logger.Warn("Job failed", zap.Error(err), zap.Bool("permanent", domain.IsPermanent(err)))

	default:
		outcome = "retried"
		delay := r.backoff(job.Attempts)
		if markErr := r.repo.Reschedule(settleCtx, job.ID, r.now().Add(delay), err.Error()); markErr != nil {
			logger.Error("Failed to reschedule job", zap.Error(markErr))
		}
		logger.Info("Job will be retried", zap.Error(err), zap.Duration("delay", delay))
	}

	if r.metrics != nil {
		r.metrics.RecordJob(ctx, string(job.Kind), outcome, duration)
	}
}

func (r *Runner) run(ctx context.Context, job domain.Job) (err error) {
	handler, ok := r.handlers[job.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownJobKind, job.Kind)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Kind, recovered)
		}
	}()

	return handler(ctx, job.Input)
}

// backoff doubles the base delay for every attempt already made.
func (r *Runner) backoff(attempts int) time.Duration {
	delay := r.cfg.BaseRetryDelay

	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= r.cfg.MaxRetryDelay {
			return r.cfg.MaxRetryDelay
		}
	}

	return delay
}

func (r *Runner) newJob(spec domain.JobSpec) domain.Job {
	return domain.Job{
		UUID:        uuid.New(),
		Kind:        spec.Kind,
		Input:       spec.Input,
		MaxAttempts: r.cfg.MaxAttempts,
		RunAfter:    r.now(),
	}
}

func (r *Runner) enqueued(ctx context.Context, jobs ...domain.Job) {
	for _, job := range jobs {
		if r.metrics != nil {
			r.metrics.RecordJobEnqueued(ctx, string(job.Kind))
		}

		r.logger.Debug("Job enqueued",
			zap.Int64("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.String("scope", job.Scope))
	}

	r.Nudge()
}

func (r *Runner) reportDepth(ctx context.Context) {
	if r.metrics == nil {
		return
	}

	counts, err := r.repo.CountByState(ctx)
	if err != nil {
		r.logger.Warn("Failed to count jobs", zap.Error(err))
		return
	}

	for _, state := range []domain.JobState{domain.JobQueued, domain.JobRunning, domain.JobFailed} {
		r.metrics.SetJobQueueDepth(ctx, string(state), counts[state])
	}
}
