package rules

import (
	"fmt"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/report"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// DefaultThreshold is the minimum score a report needs to be considered
// compatible when the format does not override it.
const DefaultThreshold = 70

// MetaRule is the change metadata key recording which rule classified it
const MetaRule = "rule"

// Rule matches a class of changes and assigns their severity
type Rule struct {
	Name     string
	Severity diff.Severity
	Hint     string
	Applies  func(diff.Change) bool
}

// Table is an ordered per-format rule table. The first rule whose Applies
// function matches decides the classification.
type Table struct {
	Format    schema.Format
	Threshold int
	Rules     []Rule
}

// RuleSet applies a format's table to change sequences
type RuleSet struct {
	table Table
}

// NewRuleSet creates a RuleSet from an explicit table
func NewRuleSet(table Table) *RuleSet {
	if table.Threshold == 0 {
		table.Threshold = DefaultThreshold
	}
	return &RuleSet{table: table}
}

// ForFormat returns the built-in rule set for a format. Unknown formats fail
// fast: a missing table would silently under-report breaking changes.
func ForFormat(format schema.Format) (*RuleSet, error) {
	switch format {
	case schema.FormatJSONSchema, schema.FormatOpenAPI:
		return NewRuleSet(Table{Format: format, Rules: baseRules()}), nil
	case schema.FormatProtobuf:
		return NewRuleSet(Table{Format: format, Rules: protobufRules()}), nil
	case schema.FormatSQLDDL:
		return NewRuleSet(Table{Format: format, Rules: sqlRules()}), nil
	}
	return nil, &schema.InvalidFormatError{Format: format.String()}
}

// Format returns the format this rule set classifies
func (r *RuleSet) Format() schema.Format {
	return r.table.Format
}

// Threshold returns the compatibility score threshold for this format
func (r *RuleSet) Threshold() int {
	return r.table.Threshold
}

// Classify returns a copy of changes with severity, breaking flag and rule
// name filled in, plus remediation issues for every non-info change.
func (r *RuleSet) Classify(changes []diff.Change) ([]diff.Change, []report.CompatibilityIssue) {
	classified := make([]diff.Change, 0, len(changes))
	var issues []report.CompatibilityIssue

	for _, c := range changes {
		rule := r.match(c)
		c.Severity = rule.Severity
		c.Breaking = rule.Severity == diff.SeverityBreaking
		if c.Metadata == nil {
			c.Metadata = map[string]string{}
		} else {
			md := make(map[string]string, len(c.Metadata)+1)
			for k, v := range c.Metadata {
				md[k] = v
			}
			c.Metadata = md
		}
		c.Metadata[MetaRule] = rule.Name
		classified = append(classified, c)

		if rule.Severity > diff.SeverityInfo && rule.Hint != "" {
			issues = append(issues, report.CompatibilityIssue{
				Location: c.Path,
				Kind:     c.Kind,
				Severity: rule.Severity,
				Hint:     rule.Hint,
			})
		}
	}
	return classified, issues
}

// Validate re-checks an arbitrary change sequence against the table,
// reporting every change whose recorded severity disagrees with what this
// rule set would assign. This is the consistency check for manually
// constructed change sets.
func (r *RuleSet) Validate(changes []diff.Change) report.ValidationResult {
	var errs []string
	for _, c := range changes {
		rule := r.match(c)
		if c.Severity != rule.Severity {
			errs = append(errs, fmt.Sprintf(
				"%s: change %q is marked %s but rule %s classifies it as %s",
				c.Location(), c.Kind, c.Severity, rule.Name, rule.Severity))
		}
		if c.Breaking != (rule.Severity == diff.SeverityBreaking) {
			errs = append(errs, fmt.Sprintf(
				"%s: breaking flag %t is inconsistent with severity %s",
				c.Location(), c.Breaking, rule.Severity))
		}
	}
	return report.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (r *RuleSet) match(c diff.Change) Rule {
	for _, rule := range r.table.Rules {
		if rule.Applies(c) {
			return rule
		}
	}
	// Closed kind set; the base tables end in catch-alls, so this is only
	// reachable with a hand-built table that has gaps.
	return Rule{Name: "UNCLASSIFIED", Severity: diff.SeverityInfo}
}

func kindIs(kind diff.ChangeKind) func(diff.Change) bool {
	return func(c diff.Change) bool { return c.Kind == kind }
}

// baseRules is the format-neutral policy table
func baseRules() []Rule {
	return []Rule{
		{
			Name:     "REQUIRED_MEMBER_ADDED",
			Severity: diff.SeverityBreaking,
			Hint:     "Add the member as optional first, backfill, then require it",
			Applies: func(c diff.Change) bool {
				return c.Kind == diff.ChangeAdded && c.Meta(diff.MetaRequired) == "true"
			},
		},
		{
			Name:     "MEMBER_ADDED",
			Severity: diff.SeverityInfo,
			Applies:  kindIs(diff.ChangeAdded),
		},
		{
			Name:     "DEPRECATED_MEMBER_REMOVED",
			Severity: diff.SeverityWarning,
			Hint:     "Confirm all consumers stopped reading the deprecated member",
			Applies: func(c diff.Change) bool {
				return c.Kind == diff.ChangeRemoved && c.Meta(schema.MetaDeprecated) == "true"
			},
		},
		{
			Name:     "MEMBER_REMOVED",
			Severity: diff.SeverityBreaking,
			Hint:     "Deprecate the member for one release cycle before removing it",
			Applies:  kindIs(diff.ChangeRemoved),
		},
		{
			Name:     "TYPE_WIDENED",
			Severity: diff.SeverityWarning,
			Hint:     "Verify consumers tolerate the wider value range",
			Applies: func(c diff.Change) bool {
				return c.Kind == diff.ChangeTypeChanged && c.Meta(diff.MetaWidening) == "true"
			},
		},
		{
			Name:     "TYPE_CHANGED",
			Severity: diff.SeverityBreaking,
			Hint:     "Introduce a new member instead of changing the type in place",
			Applies:  kindIs(diff.ChangeTypeChanged),
		},
		{
			Name:     "CONSTRAINT_TIGHTENED",
			Severity: diff.SeverityBreaking,
			Hint:     "Existing data may violate the narrower constraint",
			Applies:  kindIs(diff.ChangeConstraintTightened),
		},
		{
			Name:     "CONSTRAINT_LOOSENED",
			Severity: diff.SeverityInfo,
			Applies:  kindIs(diff.ChangeConstraintLoosened),
		},
		{
			Name:     "MEMBER_NOW_REQUIRED",
			Severity: diff.SeverityBreaking,
			Hint:     "Backfill existing data before requiring the member",
			Applies: func(c diff.Change) bool {
				return c.Kind == diff.ChangeRequirednessChanged && c.NewValue == "required"
			},
		},
		{
			Name:     "MEMBER_NOW_OPTIONAL",
			Severity: diff.SeverityWarning,
			Hint:     "Consumers relying on the member's presence should handle absence",
			Applies:  kindIs(diff.ChangeRequirednessChanged),
		},
		{
			Name:     "MEMBER_RENAMED",
			Severity: diff.SeverityWarning,
			Hint:     "Renames are source-breaking for generated code",
			Applies:  kindIs(diff.ChangeRenamed),
		},
		{
			Name:     "OTHER_CHANGE",
			Severity: diff.SeverityInfo,
			Applies:  func(diff.Change) bool { return true },
		},
	}
}

// protobufRules prefixes the base table with tag-addressed overrides
func protobufRules() []Rule {
	overrides := []Rule{
		{
			Name:     "FIELD_NUMBER_CHANGED",
			Severity: diff.SeverityBreaking,
			Hint:     "Field numbers are the wire contract, keep them stable across versions",
			Applies: func(c diff.Change) bool {
				return c.Meta(diff.MetaIdentityChanged) == "true"
			},
		},
		{
			Name:     "FIELD_NUMBER_REUSED",
			Severity: diff.SeverityBreaking,
			Hint:     "Reserve retired field numbers instead of reassigning them",
			Applies: func(c diff.Change) bool {
				// A widening at the same tag keeps the wire type compatible
				// and stays a warning under the base table.
				return c.Kind == diff.ChangeTypeChanged &&
					c.Meta(schema.MetaIdentity) != "" &&
					c.Meta(diff.MetaWidening) != "true"
			},
		},
	}
	return append(overrides, baseRules()...)
}

// sqlRules prefixes the base table with relational overrides
func sqlRules() []Rule {
	overrides := []Rule{
		{
			Name:     "PRIMARY_KEY_COLUMN_DROPPED",
			Severity: diff.SeverityBreaking,
			Hint:     "Dropping a primary key column breaks row identity and every foreign reference",
			Applies: func(c diff.Change) bool {
				return c.Kind == diff.ChangeRemoved && c.Meta(schema.MetaPrimaryKey) == "true"
			},
		},
		{
			Name:     "NULLABLE_COLUMN_DROPPED",
			Severity: diff.SeverityBreaking,
			Hint:     "Archive the column's data before dropping it",
			Applies: func(c diff.Change) bool {
				return c.Kind == diff.ChangeRemoved && c.Meta(schema.MetaNullable) == "true"
			},
		},
		{
			Name:     "COLUMN_RENAMED",
			Severity: diff.SeverityBreaking,
			Hint:     "Queries and views referencing the old column name break",
			Applies:  kindIs(diff.ChangeRenamed),
		},
	}
	return append(overrides, baseRules()...)
}
