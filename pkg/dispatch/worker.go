package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/history"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/retry"
	"github.com/dmitrymomot/notifykit/pkg/sender"
)

// Worker drains one channel's queue. It pulls due units on a ticker,
// bounded by a concurrency semaphore, sends them and applies the retry
// controller's decision.
type Worker struct {
	store      Store
	sender     sender.Sender
	controller *retry.Controller
	tracker    *history.Tracker
	channel    notification.Channel
	workerID   uuid.UUID
	cfg        QueueConfig
	backoff    retry.BackoffStrategy
	log        *slog.Logger
	now        func() time.Time

	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	stopMu sync.Mutex

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// WithWorkerClock overrides the worker's time source for tests.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWorker creates a worker for the sender's channel.
func NewWorker(store Store, snd sender.Sender, controller *retry.Controller, tracker *history.Tracker, cfg QueueConfig, opts ...WorkerOption) (*Worker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if snd == nil {
		return nil, errors.New("dispatch: sender cannot be nil")
	}
	if controller == nil {
		return nil, errors.New("dispatch: retry controller cannot be nil")
	}
	if tracker == nil {
		return nil, errors.New("dispatch: tracker cannot be nil")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.PullInterval <= 0 {
		cfg.PullInterval = time.Second
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Minute
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultQueueConfig().Retry
	}

	w := &Worker{
		store:      store,
		sender:     snd,
		controller: controller,
		tracker:    tracker,
		channel:    snd.Channel(),
		workerID:   uuid.New(),
		cfg:        cfg,
		backoff:    cfg.Retry.Backoff(),
		log:        slog.Default(),
		now:        time.Now,
		sem:        make(chan struct{}, cfg.MaxConcurrency),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins pulling units in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerStarted
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)
	go w.run()

	w.log.Info("dispatch worker started",
		slog.String("worker_id", w.workerID.String()),
		logger.Channel(string(w.channel)),
		slog.Int("max_concurrent", cap(w.sem)),
	)
	return nil
}

// Stop shuts the worker down after in-flight sends complete.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	w.log.Info("dispatch worker stopped",
		slog.String("worker_id", w.workerID.String()),
		logger.Channel(string(w.channel)),
	)
	return nil
}

// Run returns a function suitable for errgroup: it starts the worker,
// waits for the context and stops it.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.cfg.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				// Never add to the WaitGroup after Stop started
				// waiting on it.
				w.stopMu.Lock()
				if w.stopping.Load() {
					w.stopMu.Unlock()
					<-w.sem
					return
				}
				w.wg.Add(1)
				w.stopMu.Unlock()

				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()
					w.pullAndProcess()
				}()
			default:
				// All slots busy, skip this tick.
			}
		}
	}
}

func (w *Worker) pullAndProcess() {
	unit, err := w.store.ClaimDue(w.ctx, w.workerID, w.channel, w.cfg.LockTimeout)
	if err != nil {
		if !errors.Is(err, ErrNothingDue) && !errors.Is(err, context.Canceled) {
			w.log.Error("failed to claim delivery unit",
				slog.String("worker_id", w.workerID.String()),
				logger.Channel(string(w.channel)),
				logger.Error(err),
			)
		}
		return
	}

	w.process(unit)
}

func (w *Worker) process(unit notification.DeliveryUnit) {
	// Detached from the worker context so graceful shutdown lets the
	// attempt finish.
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.SendTimeout)
	defer cancel()

	now := w.now()
	if unit.IsExpired(now) {
		if err := w.store.MarkExpired(ctx, unit.ID); err != nil {
			w.log.Error("failed to expire unit",
				logger.DeliveryUnitID(unit.ID.String()),
				logger.Error(err),
			)
			return
		}
		_ = w.tracker.Finalized(ctx, unit, notification.StatusExpired, "expired before send")
		return
	}

	start := w.now()
	outcome := w.send(ctx, unit)
	latency := w.now().Sub(start)

	decision, err := w.controller.OnOutcome(ctx, unit, outcome, w.backoff)
	if err != nil {
		w.log.Error("retry controller failed",
			logger.DeliveryUnitID(unit.ID.String()),
			logger.Error(err),
		)
		return
	}

	switch decision.Action {
	case retry.ActionDeliver:
		if err := w.store.MarkDelivered(ctx, unit.ID); err != nil {
			w.log.Error("failed to mark unit delivered",
				logger.DeliveryUnitID(unit.ID.String()),
				logger.Error(err),
			)
			return
		}
		_ = w.tracker.Delivered(ctx, unit, latency)

	case retry.ActionRetry:
		if err := w.store.MarkRetryWait(ctx, unit.ID, decision.NextAttemptAt, decision.Reason); err != nil {
			w.log.Error("failed to park unit for retry",
				logger.DeliveryUnitID(unit.ID.String()),
				logger.Error(err),
			)
			return
		}
		_ = w.tracker.FailedAttempt(ctx, unit, outcome, latency)

	case retry.ActionFail:
		if err := w.store.MarkFailed(ctx, unit.ID, decision.Reason); err != nil {
			w.log.Error("failed to mark unit failed",
				logger.DeliveryUnitID(unit.ID.String()),
				logger.Error(err),
			)
			return
		}
		_ = w.tracker.Finalized(ctx, unit, notification.StatusFailed, decision.Reason)
	}
}

// send executes one attempt with panic recovery. A panicking sender is
// classified as a retryable failure rather than taking the worker down.
func (w *Worker) send(ctx context.Context, unit notification.DeliveryUnit) (outcome notification.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("sender panicked",
				slog.String("worker_id", w.workerID.String()),
				logger.DeliveryUnitID(unit.ID.String()),
				slog.Any("panic", r),
			)
			outcome = notification.RetryableFailure(fmt.Sprintf("sender panic: %v", r))
		}
	}()

	outcome, err := w.sender.Send(ctx, unit)
	if err != nil {
		// Routing violations are bugs, not transport failures.
		return notification.PermanentFailure(err.Error())
	}
	return outcome
}

// Pool runs one worker per registered channel.
type Pool struct {
	workers []*Worker
}

// NewPool builds a worker per sender in the registry, each tuned by its
// channel config.
func NewPool(store Store, reg sender.Registry, controller *retry.Controller, tracker *history.Tracker, configs Configs, opts ...WorkerOption) (*Pool, error) {
	p := &Pool{}
	for _, snd := range reg {
		w, err := NewWorker(store, snd, controller, tracker, configs.For(snd.Channel()), opts...)
		if err != nil {
			return nil, fmt.Errorf("dispatch: worker for %s: %w", snd.Channel(), err)
		}
		p.workers = append(p.workers, w)
	}
	return p, nil
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) error {
	for _, w := range p.workers {
		if err := w.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop shuts every worker down, waiting for in-flight sends.
func (p *Pool) Stop() error {
	var errs []error
	for _, w := range p.workers {
		if err := w.Stop(); err != nil && !errors.Is(err, ErrWorkerNotStarted) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
