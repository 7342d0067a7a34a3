// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package adapter runs the Hashlife engine asynchronously.
//
// # Execution Modes
//
// Worker mode (the default) spawns a dedicated goroutine that owns its own
// engine. Requests and replies travel as Messages tagged with a
// monotonically increasing id; a dispatcher goroutine routes replies to the
// waiting Pending. The worker processes one run at a time: a run issued
// while another is in flight is rejected with ErrAlreadyRunning and the
// in-flight run is unaffected.
//
// Inline mode is used when Config.Inline is set or the worker cannot be
// spawned. Run returns immediately and the computation is deferred until
// the first Wait, which executes it on the waiting goroutine. Inline mode is
// not parallel: it only keeps Run itself from blocking.
//
// # Cancellation and Caches
//
// Cancel is advisory. It cancels the in-flight run's context, which the
// engine observes between macro-steps and between brute-force generations.
// ClearCache drops the worker's tables and the inline engine's tables; it is
// idempotent and queued behind any in-flight run.
//
// # Failure
//
// A panic inside the worker rejects every pending request with
// ErrWorkerCrashed. The worker is not restarted; later runs fail with the
// same error until the Adapter is replaced.
package adapter
