package atcf

import (
	"log/slog"
	"slices"
	"strings"
)

// Conventions are the per-run naming rules applied while decoding headers.
type Conventions struct {
	// BasinMap renames basins, e.g. "SH" -> "SP".
	BasinMap map[string]string
	// BestTechniques flag best tracks in addition to "BEST".
	BestTechniques []string
	// OperTechniques flag operational tracks in addition to "CARQ".
	OperTechniques []string
	// TechSuffix is appended to every technique that is neither best nor operational.
	TechSuffix string
}

// RunContext carries run-scoped state through the parser: the logger, the
// naming conventions, and the set of notices already emitted. One RunContext
// belongs to one run and is not safe for concurrent use.
type RunContext struct {
	Logger *slog.Logger
	Conventions

	noted map[string]struct{}
}

// NewRunContext creates a RunContext with default conventions.
func NewRunContext(logger *slog.Logger, conv Conventions) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{
		Logger:      logger,
		Conventions: conv,
		noted:       make(map[string]struct{}),
	}
}

// WithSuffix returns a copy using a different technique suffix. The copy
// shares the notice set with rc so warn-once markers stay run-wide.
func (rc *RunContext) WithSuffix(suffix string) *RunContext {
	c := *rc
	c.TechSuffix = suffix
	return &c
}

// Fork returns a copy with its own notice set, for use by one worker.
func (rc *RunContext) Fork() *RunContext {
	c := *rc
	c.noted = make(map[string]struct{}, len(rc.noted))
	for k := range rc.noted {
		c.noted[k] = struct{}{}
	}
	return &c
}

// Once reports true the first time key is seen during the run.
func (rc *RunContext) Once(key string) bool {
	if _, ok := rc.noted[key]; ok {
		return false
	}
	rc.noted[key] = struct{}{}
	return true
}

// IsBest reports whether technique names a best track.
func (rc *RunContext) IsBest(technique string) bool {
	return strings.EqualFold(technique, BestTechnique) || slices.Contains(rc.BestTechniques, technique)
}

// IsOper reports whether technique names an operational track.
func (rc *RunContext) IsOper(technique string) bool {
	return strings.EqualFold(technique, OperTechnique) || slices.Contains(rc.OperTechniques, technique)
}

// MapBasin applies the basin remapping table.
func (rc *RunContext) MapBasin(basin string) string {
	if mapped, ok := rc.BasinMap[basin]; ok {
		return mapped
	}
	return basin
}
