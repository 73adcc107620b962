// Package analyzer is the entry point for schema compatibility analysis.
//
// An Engine dispatches over a format registry: each supported format
// contributes an Analyzer capable of normalizing raw schema content into the
// shared tree model and rendering abstract migration instructions into
// format-specific statements. The engine wires the pipeline together:
//
//	adapter.Normalize (old, new) -> diff.Differ -> rules.RuleSet.Classify
//	  -> score.Score -> report.CompatibilityReport
//	  -> migration.Planner -> migration.Plan
//
// All engine operations are pure and synchronous; an analysis is a
// deterministic function of its two input schemas.
package analyzer
