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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLife/services/life/adapter"
	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

type runFlags struct {
	generations int
	pattern     string
	input       string
	rule        string
	inline      bool
	progress    bool
}

func (a *app) runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Advance a pattern and print the resulting cells as JSON",
		Long: `Advance a pattern by the requested number of generations.

The starting cells come from --pattern or from a JSON array of coordinates
read from --input (default stdin). Interrupting the command cancels the run
and prints the partial result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRun(cmd, f)
		},
	}
	cmd.Flags().IntVarP(&f.generations, "generations", "n", 0, "generations to advance")
	cmd.Flags().StringVarP(&f.pattern, "pattern", "p", "", "built-in pattern name")
	cmd.Flags().StringVarP(&f.input, "input", "i", "-", "JSON cell file, - for stdin")
	cmd.Flags().StringVar(&f.rule, "rule", "", "rule in B/S notation, overrides the config")
	cmd.Flags().BoolVar(&f.inline, "inline", false, "compute on the calling goroutine instead of a worker")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "log progress events")
	_ = cmd.MarkFlagRequired("generations")
	return cmd
}

func (a *app) runRun(cmd *cobra.Command, f runFlags) error {
	cfg := a.cfg
	if f.rule != "" {
		cfg.Rule = f.rule
	}
	if f.inline {
		cfg.Adapter.Inline = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cells, err := loadCells(f.pattern, f.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ad := adapter.New(cfg.AdapterOptions(a.logger))
	defer ad.Close()

	if f.progress {
		ad.OnProgress(func(p engine.Progress) {
			a.logger.Info("progress",
				slog.Int("generation", p.Generation),
				slog.Int("cells", len(p.Cells)))
		})
	}

	ctx := cmd.Context()
	pending := ad.Run(ctx, cells, f.generations)
	stopCancel := context.AfterFunc(ctx, ad.Cancel)
	defer stopCancel()

	// Wait past an interrupt so the partial outcome is still printed.
	out, err := pending.Wait(context.WithoutCancel(ctx))
	if err != nil && !errors.Is(err, engine.ErrCancelled) {
		return err
	}

	a.logger.Info("run finished",
		slog.String("adapter_id", ad.ID()),
		slog.String("mode", string(ad.Mode())),
		slog.Int("generations", out.Generations),
		slog.Int("cells", len(out.Cells)))

	if writeErr := writeOutcome(cmd, out); writeErr != nil {
		return writeErr
	}
	return err
}

func writeOutcome(cmd *cobra.Command, out engine.Outcome) error {
	if out.Cells == nil {
		out.Cells = []grid.Cell{}
	}
	grid.SortCells(out.Cells)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
