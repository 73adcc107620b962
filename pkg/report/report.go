// Package report defines the value types returned by a compatibility
// analysis. Reports are immutable: they are built in a single pass and never
// mutated after construction.
package report

import (
	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
)

// CompatibilityReport is the result of analyzing two schema versions.
// Compatible holds iff no change carries breaking severity and the score is
// at or above the format's threshold.
type CompatibilityReport struct {
	Compatible bool                 `json:"is_compatible"`
	Score      int                  `json:"compatibility_score"`
	Changes    []diff.Change        `json:"changes"`
	Issues     []CompatibilityIssue `json:"issues"`
	Metadata   map[string]string    `json:"metadata"`
}

// CompatibilityIssue annotates a change with a remediation hint. It is a
// non-fatal annotation, not an error.
type CompatibilityIssue struct {
	Location []string        `json:"location"`
	Kind     diff.ChangeKind `json:"kind"`
	Severity diff.Severity   `json:"severity"`
	Hint     string          `json:"hint"`
}

// ValidationResult reports whether a hand-constructed change sequence is
// internally consistent with the format's rule table.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
