// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"log/slog"
	"sync"

	"github.com/AleutianAI/AleutianLife/services/life/quadtree"
	"github.com/AleutianAI/AleutianLife/services/life/rule"
)

// DefaultProgressEvery is the brute-force progress interval in generations.
const DefaultProgressEvery = 10

// Config configures an Engine.
type Config struct {
	// Rule is the B/S rule to evolve with. The zero value means Conway.
	Rule rule.Rule

	// ProgressEvery is the progress interval while brute-forcing the
	// remainder of an Advance. 0 means DefaultProgressEvery; negative
	// disables brute-force progress.
	ProgressEvery int

	// Logger for debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Rule == (rule.Rule{}) {
		c.Rule = rule.Conway
	}
	if c.ProgressEvery == 0 {
		c.ProgressEvery = DefaultProgressEvery
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// resultKey identifies a memoized result: the node and the step exponent.
// Positions never take part.
type resultKey struct {
	id   quadtree.NodeID
	step int
}

// Engine advances Life patterns with Hashlife.
//
// Description:
//
//	An Engine owns a node factory and a result table. Both grow
//	monotonically until ClearCache. Nodes handed to Result and StepPow2
//	must come from this engine (via Tree) and must not outlive a
//	ClearCache.
//
// Thread Safety:
//
//	All exported methods serialize on an internal mutex.
type Engine struct {
	mu      sync.Mutex
	factory *quadtree.Factory
	results map[resultKey]*quadtree.Node

	rule          rule.Rule
	progressEvery int
	logger        *slog.Logger

	// Result table counters since the last ClearCache.
	hits   int64
	misses int64
}

// Stats is a snapshot of an engine's tables.
type Stats struct {
	Nodes       int   `json:"nodes"`
	Results     int   `json:"results"`
	ResultHits  int64 `json:"result_hits"`
	ResultMiss  int64 `json:"result_misses"`
	NodeHits    int64 `json:"node_hits"`
	NodeCreated int64 `json:"node_created"`
}

// New creates an engine with empty tables.
//
// Panics if cfg.Rule is invalid (B0 rules cannot be stepped with Hashlife).
func New(cfg Config) *Engine {
	cfg.ApplyDefaults()
	if err := cfg.Rule.Validate(); err != nil {
		panic("engine.New: " + err.Error())
	}
	return &Engine{
		factory:       quadtree.NewFactory(),
		results:       make(map[resultKey]*quadtree.Node),
		rule:          cfg.Rule,
		progressEvery: cfg.ProgressEvery,
		logger:        cfg.Logger.With(slog.String("component", "hashlife_engine")),
	}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return New(Config{})
})

// Default returns the process-wide Conway engine.
//
// Its tables are shared by every caller in the process and persist until
// ClearCache.
func Default() *Engine {
	return defaultEngine()
}

// Rule returns the engine's rule.
func (e *Engine) Rule() rule.Rule {
	return e.rule
}

// ClearCache drops the node and result tables.
//
// Previously returned nodes must not be passed back to this engine
// afterwards. Calling it on empty tables is a no-op.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()

	nodes, results := e.factory.Len(), len(e.results)
	e.factory.Clear()
	e.results = make(map[resultKey]*quadtree.Node)
	e.hits, e.misses = 0, 0
	recordTableSizes(0, 0)

	e.logger.Debug("engine cache cleared",
		slog.Int("nodes", nodes),
		slog.Int("results", results),
	)
}

// Stats returns table sizes and counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *Engine) statsLocked() Stats {
	fs := e.factory.Stats()
	return Stats{
		Nodes:       fs.Nodes,
		Results:     len(e.results),
		ResultHits:  e.hits,
		ResultMiss:  e.misses,
		NodeHits:    fs.Hits,
		NodeCreated: fs.Created,
	}
}
