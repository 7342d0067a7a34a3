// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
	"github.com/AleutianAI/AleutianLife/services/life/rule"
)

// DefaultProgressEvery is the default progress throttle in generations.
const DefaultProgressEvery = 10

// Mode reports how an adapter executes runs.
type Mode string

const (
	// ModePending means no run has been issued yet.
	ModePending Mode = "pending"
	ModeWorker  Mode = "worker"
	ModeInline  Mode = "inline"
)

// Config configures an Adapter.
type Config struct {
	// Inline disables the worker; runs execute on the waiting goroutine.
	Inline bool

	// ProgressEvery forwards a progress event only when it is at least
	// this many generations past the last forwarded one. 0 means
	// DefaultProgressEvery.
	ProgressEvery int

	// ProgressRate caps forwarded progress events per second. 0 means
	// unlimited.
	ProgressRate float64

	// Engine configures the worker's engine. Inline runs with the Conway
	// rule share the process-wide engine.Default.
	Engine engine.Config

	// Logger for adapter output. Nil means slog.Default().
	Logger *slog.Logger
}

// SpawnFunc creates the Stepper a worker will own. An error makes the
// adapter fall back to inline execution.
type SpawnFunc func(cfg engine.Config) (Stepper, error)

// Option customizes an Adapter.
type Option func(*Adapter)

// WithSpawn replaces the worker spawn hook.
func WithSpawn(fn SpawnFunc) Option {
	return func(a *Adapter) { a.spawn = fn }
}

// WithInlineStepper replaces the Stepper used for inline runs.
func WithInlineStepper(s Stepper) Option {
	return func(a *Adapter) { a.inlineStepper = s }
}

// Adapter exposes the engine through an asynchronous, cancelable API.
//
// Thread Safety: All methods are safe for concurrent use.
type Adapter struct {
	id            string
	cfg           Config
	logger        *slog.Logger
	spawn         SpawnFunc
	limiter       *rate.Limiter
	inlineStepper Stepper

	mu           sync.Mutex
	worker       *worker
	inline       bool
	pending      map[uint64]*Pending
	inlineRuns   map[uint64]context.CancelFunc
	nextID       uint64
	crashed      error
	closed       bool
	dispatchDone chan struct{}

	onProgress   engine.ProgressFunc
	progressRun  uint64
	progressSeen bool
	lastProgress int

	cleared atomic.Int64
}

// New creates an adapter. The worker is spawned lazily by the first Run.
func New(cfg Config, opts ...Option) *Adapter {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.ProgressRate > 0 {
		limit = rate.Limit(cfg.ProgressRate)
	}

	id := uuid.NewString()
	a := &Adapter{
		id:         id,
		cfg:        cfg,
		logger:     cfg.Logger.With(slog.String("component", "hashlife_adapter"), slog.String("adapter_id", id)),
		spawn:      spawnEngine,
		limiter:    rate.NewLimiter(limit, 1),
		pending:    make(map[uint64]*Pending),
		inlineRuns: make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.inlineStepper == nil {
		a.inlineStepper = defaultInlineStepper(cfg.Engine)
	}
	return a
}

// spawnEngine creates a private engine, reporting an invalid rule as an
// error instead of a panic.
func spawnEngine(cfg engine.Config) (Stepper, error) {
	if cfg.Rule != (rule.Rule{}) {
		if err := cfg.Rule.Validate(); err != nil {
			return nil, fmt.Errorf("spawn engine: %w", err)
		}
	}
	return engine.New(cfg), nil
}

func defaultInlineStepper(cfg engine.Config) Stepper {
	if cfg.Rule == (rule.Rule{}) || cfg.Rule == rule.Conway {
		return engine.Default()
	}
	return engine.New(cfg)
}

// ID returns the adapter's instance id.
func (a *Adapter) ID() string {
	return a.id
}

// Mode reports the execution mode chosen by the first Run.
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.worker != nil:
		return ModeWorker
	case a.inline:
		return ModeInline
	default:
		return ModePending
	}
}

// OnProgress sets the progress receiver, replacing any previous one. It
// runs on the dispatcher goroutine (worker mode) or the computing goroutine
// (inline mode). It may call Cancel, ClearCache and Run, but must not Wait
// on this adapter: in inline mode the engine is still locked by the run
// that emitted the event, so a nested inline computation would deadlock.
func (a *Adapter) OnProgress(fn engine.ProgressFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onProgress = fn
}

// Run starts advancing cells by n generations.
//
// Description:
//
//	Never blocks on the computation. In worker mode the request is posted
//	to the worker; in inline mode the computation is deferred until the
//	first Pending.Wait or Pending.Done. Errors are delivered through the
//	Pending.
//
// Inputs:
//   - ctx: Parent context of the computation.
//   - cells: Starting pattern. Must not be modified until the run ends.
//   - n: Generations. Negative values are treated as 0.
//
// Outputs:
//   - *Pending: Resolves with the outcome, or with ErrAlreadyRunning,
//     ErrWorkerCrashed, ErrClosed or a wrapped engine.ErrCancelled.
func (a *Adapter) Run(ctx context.Context, cells []grid.Cell, n int) *Pending {
	a.mu.Lock()
	a.nextID++
	id := a.nextID

	switch {
	case a.closed:
		a.mu.Unlock()
		return settled(id, ErrClosed)
	case a.crashed != nil:
		err := a.crashed
		a.mu.Unlock()
		return settled(id, err)
	}

	p := newPending(id)
	w := a.ensureWorkerLocked()
	if w == nil {
		a.mu.Unlock()
		p.start = func(waitCtx context.Context) { a.runInline(ctx, waitCtx, p, cells, n) }
		a.logger.Debug("run deferred inline", slog.Uint64("run_id", id), slog.Int("generations", n))
		return p
	}
	a.pending[id] = p
	a.mu.Unlock()

	a.logger.Debug("run posted to worker", slog.Uint64("run_id", id), slog.Int("cells", len(cells)), slog.Int("generations", n))
	env := envelope{
		msg: Message{ID: id, Type: TypeRun, Payload: RunPayload{Cells: cells, Generations: n}},
		ctx: ctx,
	}
	// A worker that has exited is settled by the dispatcher: crash and
	// close both reject everything still pending.
	w.send(env)
	return p
}

// Cancel asks the in-flight run to stop. It is advisory: the engine stops
// at its next macro-step or generation boundary and the run resolves with
// a wrapped engine.ErrCancelled. Without a run in flight it does nothing.
func (a *Adapter) Cancel() {
	a.mu.Lock()
	w := a.worker
	for _, cancel := range a.inlineRuns {
		cancel()
	}
	a.mu.Unlock()

	if w != nil {
		w.send(envelope{msg: Message{Type: TypeCancel}})
	}
}

// ClearCache drops the engine tables used by this adapter. Idempotent.
//
// In worker mode only the worker's private engine is cleared, after any
// in-flight run. In inline mode the inline engine is cleared; for the
// Conway rule that is the process-wide engine.Default, shared with other
// inline adapters and with engine.Advance, so their next runs start cold
// and trees they obtained from Engine.Tree become invalid. A clear issued
// while an inline run holds the engine takes effect once the run ends.
// Before the first Run only an adapter configured Inline clears anything.
func (a *Adapter) ClearCache() {
	a.mu.Lock()
	w := a.worker
	var id uint64
	if w != nil {
		a.nextID++
		id = a.nextID
	}
	inline := a.inline || (w == nil && a.cfg.Inline)
	busy := len(a.inlineRuns) > 0
	a.mu.Unlock()

	switch {
	case w != nil:
		w.send(envelope{msg: Message{ID: id, Type: TypeClear}})
	case inline && busy:
		// The caller may be a progress callback running under the engine
		// lock.
		go a.inlineStepper.ClearCache()
	case inline:
		a.inlineStepper.ClearCache()
	}
}

// Close stops the worker and rejects pending requests with ErrClosed.
// Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	w, done := a.worker, a.dispatchDone
	for _, cancel := range a.inlineRuns {
		cancel()
	}
	a.mu.Unlock()

	if w != nil {
		close(w.quit)
		<-done
	}
	a.logger.Debug("adapter closed")
	return nil
}

// ensureWorkerLocked spawns the worker on first use. It returns nil in
// inline mode. Caller holds a.mu.
func (a *Adapter) ensureWorkerLocked() *worker {
	if a.worker != nil || a.inline {
		return a.worker
	}
	if a.cfg.Inline {
		a.inline = true
		return nil
	}

	s, err := a.spawn(a.cfg.Engine)
	if err != nil {
		a.logger.Warn("hashlife worker unavailable, running inline", slog.String("error", err.Error()))
		a.inline = true
		return nil
	}

	a.worker = startWorker(s, a.logger)
	a.dispatchDone = make(chan struct{})
	go a.dispatch(a.worker, a.dispatchDone)
	a.logger.Debug("hashlife worker started")
	return a.worker
}

// dispatch routes worker replies until the worker's outbox closes.
func (a *Adapter) dispatch(w *worker, done chan<- struct{}) {
	defer close(done)

	for msg := range w.outbox {
		switch msg.Type {
		case TypeProgress:
			if p, ok := msg.Payload.(engine.Progress); ok {
				a.deliverProgress(msg.ID, p)
			}
		case TypeResult:
			out, _ := msg.Payload.(engine.Outcome)
			a.settle(msg.ID, out, nil)
		case TypeError:
			f, _ := msg.Payload.(Failure)
			a.settle(msg.ID, f.Outcome, f.Err)
		case TypeCancelled:
			a.logger.Debug("worker acknowledged cancel")
		case TypeCleared:
			a.cleared.Add(1)
			a.logger.Debug("worker cache cleared")
		case TypeCrashed:
			err, _ := msg.Payload.(error)
			a.crash(err)
		}
	}
	a.rejectAll(ErrClosed)
}

func (a *Adapter) runInline(runCtx, waitCtx context.Context, p *Pending, cells []grid.Cell, n int) {
	ctx, cancel := context.WithCancel(runCtx)
	defer cancel()
	stop := context.AfterFunc(waitCtx, cancel)
	defer stop()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		p.settle(engine.Outcome{}, ErrClosed)
		return
	}
	a.inlineRuns[p.id] = cancel
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.inlineRuns, p.id)
		a.mu.Unlock()

		if r := recover(); r != nil {
			a.logger.Error("inline run panicked", slog.Uint64("run_id", p.id), slog.Any("panic", r))
			recordRun(ModeInline, ErrPanicked)
			p.settle(engine.Outcome{}, fmt.Errorf("%w: %v", ErrPanicked, r))
		}
	}()

	out, err := a.inlineStepper.Advance(ctx, cells, n, func(pr engine.Progress) {
		a.deliverProgress(p.id, pr)
	})
	recordRun(ModeInline, err)
	p.settle(out, err)
}

// deliverProgress forwards a progress event subject to the generation
// throttle and the rate limiter.
func (a *Adapter) deliverProgress(id uint64, p engine.Progress) {
	a.mu.Lock()
	fn := a.onProgress
	if fn == nil {
		a.mu.Unlock()
		return
	}
	if id != a.progressRun {
		a.progressRun, a.progressSeen = id, false
	}
	if a.progressSeen && p.Generation-a.lastProgress < a.cfg.ProgressEvery {
		a.mu.Unlock()
		return
	}
	if !a.limiter.Allow() {
		a.mu.Unlock()
		return
	}
	a.progressSeen, a.lastProgress = true, p.Generation
	a.mu.Unlock()

	fn(p)
}

func (a *Adapter) settle(id uint64, out engine.Outcome, err error) {
	a.mu.Lock()
	p, ok := a.pending[id]
	delete(a.pending, id)
	a.mu.Unlock()
	if !ok {
		return
	}
	recordRun(ModeWorker, err)
	p.settle(out, err)
}

func (a *Adapter) crash(err error) {
	if err == nil {
		err = ErrWorkerCrashed
	}
	a.mu.Lock()
	a.crashed = err
	a.mu.Unlock()
	a.logger.Error("rejecting pending runs after worker crash", slog.String("error", err.Error()))
	a.rejectAll(err)
}

func (a *Adapter) rejectAll(err error) {
	a.mu.Lock()
	pending := a.pending
	a.pending = make(map[uint64]*Pending)
	a.mu.Unlock()

	for _, p := range pending {
		recordRun(ModeWorker, err)
		p.settle(engine.Outcome{}, err)
	}
}
