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

	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

// Stepper is the engine surface driven by the adapter. *engine.Engine
// implements it.
type Stepper interface {
	Advance(ctx context.Context, cells []grid.Cell, n int, onProgress engine.ProgressFunc) (engine.Outcome, error)
	ClearCache()
}

// job is a request accepted by the worker loop for the compute goroutine.
type job struct {
	msg    Message
	ctx    context.Context
	cancel context.CancelFunc
}

// worker owns a Stepper and serves Messages.
//
// Two goroutines cooperate: loop accepts requests, answers cancel and busy
// checks immediately, and queues runs and clears for compute, which
// executes them one at a time. Replies are written to outbox, which is
// closed once both goroutines have exited.
type worker struct {
	stepper Stepper
	inbox   chan envelope
	outbox  chan Message
	quit    chan struct{}
	exited  chan struct{}
	logger  *slog.Logger
}

func startWorker(s Stepper, logger *slog.Logger) *worker {
	w := &worker{
		stepper: s,
		inbox:   make(chan envelope),
		outbox:  make(chan Message, 64),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
		logger:  logger,
	}
	go w.loop()
	return w
}

// send delivers a request unless the worker has exited.
func (w *worker) send(env envelope) bool {
	select {
	case w.inbox <- env:
		return true
	case <-w.exited:
		return false
	}
}

func (w *worker) loop() {
	defer close(w.exited)

	jobs := make(chan job, 64)
	finished := make(chan uint64)
	computeDone := make(chan struct{})
	go w.compute(jobs, finished, computeDone)

	var running bool
	var cancelRun context.CancelFunc

	defer func() {
		if cancelRun != nil {
			cancelRun()
		}
		close(jobs)
		for {
			select {
			case <-finished:
			case <-computeDone:
				close(w.outbox)
				return
			}
		}
	}()

	enqueue := func(j job) bool {
		for {
			select {
			case jobs <- j:
				return true
			case <-finished:
				running, cancelRun = false, nil
			case <-computeDone:
				return false
			}
		}
	}

	for {
		select {
		case env := <-w.inbox:
			switch env.msg.Type {
			case TypeRun:
				if running {
					w.outbox <- Message{ID: env.msg.ID, Type: TypeError, Payload: Failure{Err: ErrAlreadyRunning}}
					continue
				}
				ctx, cancel := context.WithCancel(env.ctx)
				if !enqueue(job{msg: env.msg, ctx: ctx, cancel: cancel}) {
					cancel()
					return
				}
				running, cancelRun = true, cancel

			case TypeCancel:
				if cancelRun != nil {
					cancelRun()
				}
				w.outbox <- Message{ID: env.msg.ID, Type: TypeCancelled}

			case TypeClear:
				if !enqueue(job{msg: env.msg}) {
					return
				}
			}

		case <-finished:
			running, cancelRun = false, nil

		case <-computeDone:
			return

		case <-w.quit:
			return
		}
	}
}

func (w *worker) compute(jobs <-chan job, finished chan<- uint64, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("hashlife worker crashed", slog.Any("panic", r))
			w.outbox <- Message{Type: TypeCrashed, Payload: fmt.Errorf("%w: %w: %v", ErrWorkerCrashed, ErrPanicked, r)}
		}
	}()

	for j := range jobs {
		switch j.msg.Type {
		case TypeRun:
			// The loop must see the run end before anyone sees its
			// reply, or an immediate follow-up run would look busy.
			reply := w.run(j)
			finished <- j.msg.ID
			w.outbox <- reply
		case TypeClear:
			w.stepper.ClearCache()
			w.outbox <- Message{ID: j.msg.ID, Type: TypeCleared}
		}
	}
}

func (w *worker) run(j job) Message {
	defer j.cancel()

	req, ok := j.msg.Payload.(RunPayload)
	if !ok {
		return Message{ID: j.msg.ID, Type: TypeError, Payload: Failure{Err: fmt.Errorf("unexpected run payload %T", j.msg.Payload)}}
	}

	out, err := w.stepper.Advance(j.ctx, req.Cells, req.Generations, func(p engine.Progress) {
		// Progress is advisory; drop it rather than stall the run when
		// the dispatcher is behind.
		select {
		case w.outbox <- Message{ID: j.msg.ID, Type: TypeProgress, Payload: p}:
		default:
		}
	})
	if err != nil {
		return Message{ID: j.msg.ID, Type: TypeError, Payload: Failure{Outcome: out, Err: err}}
	}
	return Message{ID: j.msg.ID, Type: TypeResult, Payload: out}
}
