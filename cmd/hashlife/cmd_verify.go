// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

var errMismatch = errors.New("hashlife and brute force disagree")

// verifyReport is printed by "hashlife verify".
type verifyReport struct {
	Generations     int   `json:"generations"`
	Match           bool  `json:"match"`
	HashlifeCells   int   `json:"hashlife_cells"`
	BruteForceCells int   `json:"brute_force_cells"`
	HashlifeMillis  int64 `json:"hashlife_ms"`
	BruteMillis     int64 `json:"brute_force_ms"`
}

func (a *app) verifyCmd() *cobra.Command {
	var generations int
	var patternName, input string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check Hashlife against direct simulation",
		Long: `Advance the same pattern with Hashlife and with one-generation-at-a-time
simulation, concurrently, and compare the final populations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cells, err := loadCells(patternName, input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			report, err := a.verify(cmd.Context(), cells, generations)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Match {
				return fmt.Errorf("%w after %d generations", errMismatch, generations)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&generations, "generations", "n", 0, "generations to advance")
	cmd.Flags().StringVarP(&patternName, "pattern", "p", "", "built-in pattern name")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON cell file, - for stdin")
	_ = cmd.MarkFlagRequired("generations")
	return cmd
}

func (a *app) verify(ctx context.Context, cells []grid.Cell, n int) (verifyReport, error) {
	eng := engine.New(a.cfg.EngineOptions(a.logger))
	r := eng.Rule()

	var fast engine.Outcome
	var slow *grid.Index
	var fastTook, slowTook time.Duration

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		out, err := eng.Advance(gctx, cells, n, nil)
		fastTook = time.Since(start)
		fast = out
		return err
	})
	g.Go(func() error {
		start := time.Now()
		idx, _, err := r.Evolve(gctx, grid.FromCells(cells), n, 0, nil)
		slowTook = time.Since(start)
		slow = idx
		return err
	})
	if err := g.Wait(); err != nil {
		return verifyReport{}, err
	}

	report := verifyReport{
		Generations:     n,
		Match:           grid.FromCells(fast.Cells).Equal(slow),
		HashlifeCells:   len(fast.Cells),
		BruteForceCells: slow.Len(),
		HashlifeMillis:  fastTook.Milliseconds(),
		BruteMillis:     slowTook.Milliseconds(),
	}
	a.logger.Info("verify finished",
		slog.Int("generations", n),
		slog.Bool("match", report.Match),
		slog.Duration("hashlife", fastTook),
		slog.Duration("brute_force", slowTook))
	return report, nil
}
