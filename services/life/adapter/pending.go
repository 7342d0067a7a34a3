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
	"sync"
	"sync/atomic"

	"github.com/AleutianAI/AleutianLife/services/life/engine"
)

// Pending is the eventual outcome of a Run.
type Pending struct {
	id   uint64
	done chan struct{}

	settleOnce sync.Once
	outcome    engine.Outcome
	err        error

	// start is set for inline runs and executes the computation on the
	// goroutine of the first Wait, or on one spawned by Done.
	start    func(ctx context.Context)
	launched atomic.Bool
}

func newPending(id uint64) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

// ID returns the request id.
func (p *Pending) ID() uint64 {
	return p.id
}

// Done is closed once the outcome is available. For an inline run not yet
// started by Wait, Done starts it on a new goroutine; Adapter.Cancel and
// the context given to Run still stop it.
func (p *Pending) Done() <-chan struct{} {
	if p.claimStart() {
		go p.start(context.Background())
	}
	return p.done
}

// Wait blocks until the run completes or ctx ends.
//
// Description:
//
//	For inline runs the first Wait performs the computation itself; ctx
//	then also cancels the computation. Otherwise (worker runs, or inline
//	runs already started by Done) ctx only bounds the wait: the computation
//	keeps going, use Adapter.Cancel to stop it.
//
// Outputs:
//   - engine.Outcome: The result. On cancellation, the partial result.
//   - error: The run's error, or ctx.Err() if the wait was abandoned.
func (p *Pending) Wait(ctx context.Context) (engine.Outcome, error) {
	if p.claimStart() {
		p.start(ctx)
	}
	select {
	case <-p.done:
		return p.outcome, p.err
	default:
	}
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
		return engine.Outcome{}, ctx.Err()
	}
}

// claimStart reports whether the caller is the one to run a deferred inline
// computation.
func (p *Pending) claimStart() bool {
	return p.start != nil && p.launched.CompareAndSwap(false, true)
}

func (p *Pending) settle(out engine.Outcome, err error) {
	p.settleOnce.Do(func() {
		p.outcome, p.err = out, err
		close(p.done)
	})
}

func settled(id uint64, err error) *Pending {
	p := newPending(id)
	p.settle(engine.Outcome{}, err)
	return p
}
