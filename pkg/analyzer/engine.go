package analyzer

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/analyzer/jsonschema"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/analyzer/openapi"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/analyzer/protoschema"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/analyzer/sqlddl"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/observability"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/report"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/rules"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/score"
)

// Analyzer is the per-format adapter contract. Implementations normalize raw
// schema content into the shared tree model and render abstract migration
// instructions into format-specific statements.
type Analyzer interface {
	Format() schema.Format
	Normalize(s *schema.Schema) (*schema.Node, error)
	Render(inst migration.Instruction) (string, error)
}

// Engine runs compatibility analyses. It holds only immutable configuration,
// so a single Engine is safe for concurrent use.
type Engine struct {
	analyzers map[schema.Format]Analyzer
	scoreCfg  score.Config
	scoreSet  bool
	maxDepth  int
	log       *observability.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithScoreConfig replaces the default scoring policy, including the
// compatibility threshold.
func WithScoreConfig(cfg score.Config) Option {
	return func(e *Engine) {
		e.scoreCfg = cfg
		e.scoreSet = true
	}
}

// WithAnalyzer registers or replaces a format adapter
func WithAnalyzer(a Analyzer) Option {
	return func(e *Engine) {
		e.analyzers[a.Format()] = a
	}
}

// WithMaxDepth overrides the diff traversal depth cap
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithLogger attaches a structured logger for analysis diagnostics
func WithLogger(log *observability.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// NewEngine creates an Engine with the built-in format adapters registered
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		analyzers: map[schema.Format]Analyzer{
			schema.FormatJSONSchema: jsonschema.New(),
			schema.FormatProtobuf:   protoschema.New(),
			schema.FormatOpenAPI:    openapi.New(),
			schema.FormatSQLDDL:     sqlddl.New(),
		},
		scoreCfg: score.DefaultConfig(),
		maxDepth: diff.DefaultMaxDepth,
		log:      observability.NewLogger(observability.ErrorLevel, io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzeCompatibility compares two schema versions of the same format and
// produces a classified, scored compatibility report.
func (e *Engine) AnalyzeCompatibility(old, new *schema.Schema) (*report.CompatibilityReport, error) {
	changes, rs, _, err := e.diffAndClassify(old, new)
	if err != nil {
		return nil, err
	}
	classified, issues := rs.Classify(changes)

	cfg := e.scoreCfg
	if !e.scoreSet {
		cfg.Threshold = rs.Threshold()
	}
	sc := score.Score(classified, cfg)
	compatible := score.Compatible(sc, classified, cfg)

	e.log.WithFields(map[string]interface{}{
		"format":     old.Format.String(),
		"changes":    len(classified),
		"score":      sc,
		"compatible": compatible,
	}).Debug("compatibility analysis complete")

	return &report.CompatibilityReport{
		Compatible: compatible,
		Score:      sc,
		Changes:    classified,
		Issues:     issues,
		Metadata: map[string]string{
			"format":      old.Format.String(),
			"old_version": old.Version.String(),
			"new_version": new.Version.String(),
			"changes":     strconv.Itoa(len(classified)),
		},
	}, nil
}

// GenerateMigrationPath compares two schema versions and orders the
// resulting changes into an executable migration plan rendered in the
// format's own statement dialect.
func (e *Engine) GenerateMigrationPath(old, new *schema.Schema) (*migration.Plan, error) {
	changes, rs, a, err := e.diffAndClassify(old, new)
	if err != nil {
		return nil, err
	}
	classified, _ := rs.Classify(changes)

	plan, err := migration.NewPlanner().Plan(classified, a)
	if err != nil {
		return nil, err
	}
	plan.Metadata["format"] = old.Format.String()
	plan.Metadata["source_version"] = old.Version.String()
	plan.Metadata["target_version"] = new.Version.String()

	e.log.WithFields(map[string]interface{}{
		"format": old.Format.String(),
		"steps":  len(plan.Steps),
	}).Debug("migration plan generated")

	return plan, nil
}

// ValidateChanges re-applies a format's rule table to an arbitrary change
// sequence, reporting entries whose recorded severity is inconsistent with
// the table. The changes need not come from the diff engine.
func (e *Engine) ValidateChanges(format schema.Format, changes []diff.Change) (*report.ValidationResult, error) {
	rs, err := rules.ForFormat(format)
	if err != nil {
		return nil, err
	}
	result := rs.Validate(changes)
	return &result, nil
}

func (e *Engine) diffAndClassify(old, new *schema.Schema) ([]diff.Change, *rules.RuleSet, Analyzer, error) {
	if old == nil || new == nil {
		return nil, nil, nil, &schema.ComparisonError{Detail: "both schema versions are required"}
	}
	if old.Format != new.Format {
		return nil, nil, nil, &schema.ComparisonError{
			Detail: fmt.Sprintf("cannot compare %s schema against %s schema", old.Format, new.Format),
		}
	}

	a, ok := e.analyzers[old.Format]
	if !ok {
		return nil, nil, nil, &schema.InvalidFormatError{Format: old.Format.String()}
	}
	rs, err := rules.ForFormat(old.Format)
	if err != nil {
		return nil, nil, nil, err
	}

	oldTree, err := a.Normalize(old)
	if err != nil {
		return nil, nil, nil, err
	}
	newTree, err := a.Normalize(new)
	if err != nil {
		return nil, nil, nil, err
	}

	changes, err := diff.NewDiffer(diff.WithMaxDepth(e.maxDepth)).Diff(oldTree, newTree)
	if err != nil {
		return nil, nil, nil, err
	}
	return changes, rs, a, nil
}

// AnalyzeCompatibility runs a one-off analysis with default configuration
func AnalyzeCompatibility(old, new *schema.Schema) (*report.CompatibilityReport, error) {
	return NewEngine().AnalyzeCompatibility(old, new)
}

// GenerateMigrationPath runs a one-off plan generation with default
// configuration
func GenerateMigrationPath(old, new *schema.Schema) (*migration.Plan, error) {
	return NewEngine().GenerateMigrationPath(old, new)
}

// ValidateChanges validates a change sequence with default configuration
func ValidateChanges(format schema.Format, changes []diff.Change) (*report.ValidationResult, error) {
	return NewEngine().ValidateChanges(format, changes)
}
