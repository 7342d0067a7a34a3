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

import "errors"

var (
	// ErrAlreadyRunning rejects a run issued while the worker is busy.
	ErrAlreadyRunning = errors.New("already running")

	// ErrWorkerCrashed rejects requests pending on, or later sent to, a
	// worker that panicked.
	ErrWorkerCrashed = errors.New("hashlife worker crashed")

	// ErrPanicked wraps a recovered panic from the stepper.
	ErrPanicked = errors.New("stepper panicked")

	// ErrClosed rejects requests on a closed adapter.
	ErrClosed = errors.New("adapter closed")
)
