// Package patcher rewrites build-time install paths inside a relocated
// python installation. Two artifact kinds are handled: the generated
// sysconfigdata module and the pkgconfig metadata files. All writes go
// through the atomicfile package so a target file is always either intact
// or fully replaced.
package patcher

import "log/slog"

// StalePrefix is the placeholder install path baked into artifacts at
// build time by the standalone python builds.
const StalePrefix = "/install"

// Patcher holds the per-run configuration shared by both artifact kinds.
// RealPrefix is computed once from the discovered install root and never
// changes during a run.
type Patcher struct {
	RealPrefix string
	// Updates maps variable names to explicit rewrite rules, consulted
	// before the stale-prefix heuristic. May be nil.
	Updates map[string]Rule
	// DryRun reports would-be outcomes without touching the filesystem.
	DryRun bool
	// BackupFiles keeps a copy of each original beside it before replacing.
	BackupFiles bool
	// Format optionally reformats the rewritten sysconfigdata file in
	// place. A failure is logged and never fails the patch.
	Format func(path string) error
	Logger *slog.Logger
}

func (p *Patcher) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
