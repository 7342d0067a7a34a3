// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command hashlife advances Game of Life patterns with the Hashlife engine.
//
// Usage:
//
//	hashlife run --pattern gosper --generations 1000
//	echo '[[0,0],[1,0],[2,0]]' | hashlife run -n 1
//	hashlife verify --pattern acorn -n 500
//	hashlife bench --pattern gosper -n 4096
//	hashlife config init
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := newApp()
	err := app.rootCmd().ExecuteContext(ctx)
	app.close()
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
