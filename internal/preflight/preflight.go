// Package preflight verifies the sweep's runtime requirements before any
// combination launches: the tool binary, its run configuration, the
// acquisition inputs, and the bookkeeping directories.
package preflight

import (
	"mibisweep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckToolBinary(cfg.Tool.Binary),
		CheckRunConfig(cfg.Tool.ConfigFile),
		CheckInputFile("Run XML", cfg.Run.RunXML),
		CheckInputFile("Panel CSV", cfg.Run.PanelCSV),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.ReviewDir != "" {
		results = append(results, CheckDirectoryAccess("Review directory", cfg.Paths.ReviewDir))
	}
	return results
}

// AllPassed reports whether every check in the list passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
