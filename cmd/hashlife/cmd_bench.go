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
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

// benchRow is one timed Advance.
type benchRow struct {
	Phase    string
	Duration time.Duration
	Cells    int
	Stats    engine.Stats
}

func (a *app) benchCmd() *cobra.Command {
	var generations int
	var patternName string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time cold, warm and cleared runs on one engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cells, err := pattern(patternName)
			if err != nil {
				return err
			}
			rows, err := a.bench(cmd.Context(), cells, generations)
			if err != nil {
				return err
			}
			return printBench(cmd.OutOrStdout(), patternName, generations, rows)
		},
	}
	cmd.Flags().IntVarP(&generations, "generations", "n", 1<<12, "generations to advance")
	cmd.Flags().StringVarP(&patternName, "pattern", "p", "gosper", "built-in pattern name")
	return cmd
}

// bench advances cells three times on a private engine: with empty memo
// tables, again with the tables from the first run, and after ClearCache.
func (a *app) bench(ctx context.Context, cells []grid.Cell, n int) ([]benchRow, error) {
	eng := engine.New(a.cfg.EngineOptions(a.logger))

	var rows []benchRow
	for _, phase := range []string{"cold", "warm", "cleared"} {
		if phase == "cleared" {
			eng.ClearCache()
		}
		start := time.Now()
		out, err := eng.Advance(ctx, cells, n, nil)
		if err != nil {
			return nil, fmt.Errorf("%s run: %w", phase, err)
		}
		rows = append(rows, benchRow{
			Phase:    phase,
			Duration: time.Since(start),
			Cells:    len(out.Cells),
			Stats:    eng.Stats(),
		})
	}
	return rows, nil
}

func printBench(w io.Writer, patternName string, n int, rows []benchRow) error {
	fmt.Fprintf(w, "pattern %s, %d generations\n\n", patternName, n)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tDURATION\tCELLS\tNODES\tRESULTS\tHITS\tMISSES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.Phase, r.Duration.Round(time.Microsecond), r.Cells,
			r.Stats.Nodes, r.Stats.Results, r.Stats.ResultHits, r.Stats.ResultMiss)
	}
	return tw.Flush()
}
