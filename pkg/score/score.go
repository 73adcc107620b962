// Package score reduces a classified change sequence to a single 0-100
// compatibility score and a compatible/incompatible verdict.
package score

import (
	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
)

// Config holds the scoring policy. The numeric values are policy defaults,
// not a contract; callers may tune them per analysis.
type Config struct {
	// BreakingPenalty is subtracted for the first breaking change of each
	// kind. With Diminishing set, repeats of the same kind cost half the
	// previous penalty (15, 7, 3, 1, ...), so one sweeping schema rewrite
	// does not swamp the score to zero.
	BreakingPenalty int

	// WarningPenalty is subtracted per warning-severity change.
	WarningPenalty int

	// Threshold is the minimum score for a compatible verdict.
	Threshold int

	// Diminishing enables the halving penalty for repeated breaking
	// changes of the same kind.
	Diminishing bool
}

// DefaultConfig returns the default scoring policy
func DefaultConfig() Config {
	return Config{
		BreakingPenalty: 15,
		WarningPenalty:  3,
		Threshold:       70,
		Diminishing:     true,
	}
}

// Score computes the compatibility score for a classified change sequence.
// The result is clamped to [0, 100].
func Score(changes []diff.Change, cfg Config) int {
	score := 100
	breakingSeen := make(map[diff.ChangeKind]int)

	for _, c := range changes {
		switch c.Severity {
		case diff.SeverityBreaking:
			n := breakingSeen[c.Kind]
			breakingSeen[c.Kind] = n + 1
			score -= diminished(cfg.BreakingPenalty, n, cfg.Diminishing)
		case diff.SeverityWarning:
			score -= cfg.WarningPenalty
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Compatible reports the overall verdict: the score must clear the threshold
// AND no change may be breaking. Both conditions are required because a few
// severe breaking changes can still score above the threshold.
func Compatible(score int, changes []diff.Change, cfg Config) bool {
	if score < cfg.Threshold {
		return false
	}
	for _, c := range changes {
		if c.Severity == diff.SeverityBreaking {
			return false
		}
	}
	return true
}

// diminished halves the penalty for each prior breaking change of the same
// kind, with a floor of 1 so repeats are never free.
func diminished(base, priorOfKind int, enabled bool) int {
	if !enabled {
		return base
	}
	p := base >> priorOfKind
	if p < 1 {
		p = 1
	}
	return p
}
