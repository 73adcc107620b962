package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/analyzer"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/config"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/observability"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/report"
)

func newAnalyzeCommand() *Command {
	cmd := &Command{
		Name:        "analyze",
		Description: "Analyze compatibility between two schema versions",
		Flags:       flag.NewFlagSet("analyze", flag.ExitOnError),
		Run:         runAnalyze,
	}

	cmd.Flags.String("old", "", "File containing the old schema (required)")
	cmd.Flags.String("new", "", "File containing the new schema (required)")
	cmd.Flags.String("format", "", "Schema format: jsonschema, protobuf, openapi, sqlddl (default: inferred from extension)")
	cmd.Flags.String("old-version", "", "Semantic version of the old schema")
	cmd.Flags.String("new-version", "", "Semantic version of the new schema")
	cmd.Flags.Bool("verbose", false, "Show all changes including info level")
	cmd.Flags.String("output", "text", "Output format: text, json")

	return cmd
}

func runAnalyze(args []string) error {
	flags := flag.NewFlagSet("analyze", flag.ExitOnError)
	oldPath := flags.String("old", "", "File containing the old schema (required)")
	newPath := flags.String("new", "", "File containing the new schema (required)")
	format := flags.String("format", "", "Schema format")
	oldVersion := flags.String("old-version", "", "Semantic version of the old schema")
	newVersion := flags.String("new-version", "", "Semantic version of the new schema")
	verbose := flags.Bool("verbose", false, "Show all changes including info level")
	output := flags.String("output", "text", "Output format: text, json")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *oldPath == "" || *newPath == "" {
		return fmt.Errorf("both --old and --new are required")
	}

	engine, err := engineFromEnv()
	if err != nil {
		return err
	}

	f, err := resolveFormat(*format, *oldPath)
	if err != nil {
		return err
	}

	oldSchema, err := loadSchema(*oldPath, f, *oldVersion)
	if err != nil {
		return fmt.Errorf("failed to load old schema: %v", err)
	}
	newSchema, err := loadSchema(*newPath, f, *newVersion)
	if err != nil {
		return fmt.Errorf("failed to load new schema: %v", err)
	}

	result, err := engine.AnalyzeCompatibility(oldSchema, newSchema)
	if err != nil {
		return fmt.Errorf("compatibility analysis failed: %v", err)
	}

	if *output == "json" {
		return outputJSON(result)
	}
	return outputAnalyzeText(result, *verbose)
}

// engineFromEnv builds an engine honoring the SCHEMA_DIFF_* environment
// variables.
func engineFromEnv() (*analyzer.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return analyzer.NewEngine(
		analyzer.WithScoreConfig(cfg.Score),
		analyzer.WithMaxDepth(cfg.MaxDepth),
		analyzer.WithLogger(observability.NewLogger(cfg.LogLevel, os.Stderr)),
	), nil
}

func outputAnalyzeText(result *report.CompatibilityReport, verbose bool) error {
	fmt.Printf("Compatibility Analysis: %s\n", result.Metadata["format"])
	fmt.Printf("Score: %d\n", result.Score)
	fmt.Printf("Result: ")
	if result.Compatible {
		fmt.Printf("\033[32mCOMPATIBLE\033[0m\n\n")
	} else {
		fmt.Printf("\033[31mINCOMPATIBLE\033[0m\n\n")
	}

	var breaking, warnings, infos int
	for _, c := range result.Changes {
		switch c.Severity {
		case diff.SeverityBreaking:
			breaking++
		case diff.SeverityWarning:
			warnings++
		default:
			infos++
		}
	}

	fmt.Printf("Summary:\n")
	fmt.Printf("  Total Changes: %d\n", len(result.Changes))
	if breaking > 0 {
		fmt.Printf("  Breaking:      \033[31m%d\033[0m\n", breaking)
	} else {
		fmt.Printf("  Breaking:      %d\n", breaking)
	}
	if warnings > 0 {
		fmt.Printf("  Warnings:      \033[33m%d\033[0m\n", warnings)
	} else {
		fmt.Printf("  Warnings:      %d\n", warnings)
	}
	fmt.Printf("  Info:          %d\n\n", infos)

	if len(result.Changes) > 0 {
		fmt.Printf("Changes:\n\n")
		for _, c := range result.Changes {
			if !verbose && c.Severity == diff.SeverityInfo {
				continue
			}

			sevStr := c.Severity.String()
			switch c.Severity {
			case diff.SeverityBreaking:
				sevStr = fmt.Sprintf("\033[31m%s\033[0m", sevStr)
			case diff.SeverityWarning:
				sevStr = fmt.Sprintf("\033[33m%s\033[0m", sevStr)
			case diff.SeverityInfo:
				sevStr = fmt.Sprintf("\033[36m%s\033[0m", sevStr)
			}

			fmt.Printf("[%s] %s\n", sevStr, c.Kind)
			fmt.Printf("  Location: %s\n", c.Location())
			fmt.Printf("  Message:  %s\n", c.Description)
			if c.OldValue != "" || c.NewValue != "" {
				fmt.Printf("  Change:   %s -> %s\n", c.OldValue, c.NewValue)
			}
			if hint := hintFor(result.Issues, c); hint != "" {
				fmt.Printf("  Hint:     %s\n", hint)
			}
			fmt.Println()
		}
	}

	if !result.Compatible {
		return fmt.Errorf("schemas are incompatible")
	}
	return nil
}

func hintFor(issues []report.CompatibilityIssue, c diff.Change) string {
	for _, issue := range issues {
		if issue.Kind != c.Kind || len(issue.Location) != len(c.Path) {
			continue
		}
		match := true
		for i := range issue.Location {
			if issue.Location[i] != c.Path[i] {
				match = false
				break
			}
		}
		if match {
			return issue.Hint
		}
	}
	return ""
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
