package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

func newValidateCommand() *Command {
	cmd := &Command{
		Name:        "validate",
		Description: "Validate a proposed change set against a format's compatibility rules",
		Flags:       flag.NewFlagSet("validate", flag.ExitOnError),
		Run:         runValidate,
	}

	cmd.Flags.String("changes", "", "JSON file containing the change set, as emitted by analyze --output json (required)")
	cmd.Flags.String("format", "", "Schema format: jsonschema, protobuf, openapi, sqlddl (required)")
	cmd.Flags.String("output", "text", "Output format: text, json")

	return cmd
}

func runValidate(args []string) error {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	changesPath := flags.String("changes", "", "JSON file containing the change set (required)")
	format := flags.String("format", "", "Schema format (required)")
	output := flags.String("output", "text", "Output format: text, json")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *changesPath == "" {
		return fmt.Errorf("--changes is required")
	}
	if *format == "" {
		return fmt.Errorf("--format is required")
	}

	f, err := schema.ParseFormat(*format)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(*changesPath)
	if err != nil {
		return fmt.Errorf("failed to read change set: %v", err)
	}

	var changes []diff.Change
	if err := json.Unmarshal(content, &changes); err != nil {
		return fmt.Errorf("failed to decode change set: %v", err)
	}

	engine, err := engineFromEnv()
	if err != nil {
		return err
	}

	result, err := engine.ValidateChanges(f, changes)
	if err != nil {
		return fmt.Errorf("validation failed: %v", err)
	}

	if *output == "json" {
		return outputJSON(result)
	}

	if result.Valid {
		fmt.Printf("\033[32mVALID\033[0m: %d changes are consistently classified\n", len(changes))
		return nil
	}

	fmt.Printf("\033[31mINVALID\033[0m:\n")
	for _, msg := range result.Errors {
		fmt.Printf("  - %s\n", msg)
	}
	return fmt.Errorf("change set failed validation")
}
