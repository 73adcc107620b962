package cli

import (
	"flag"
	"fmt"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Generate a migration plan between two schema versions",
		Flags:       flag.NewFlagSet("migrate", flag.ExitOnError),
		Run:         runMigrate,
	}

	cmd.Flags.String("old", "", "File containing the old schema (required)")
	cmd.Flags.String("new", "", "File containing the new schema (required)")
	cmd.Flags.String("format", "", "Schema format: jsonschema, protobuf, openapi, sqlddl (default: inferred from extension)")
	cmd.Flags.String("old-version", "", "Semantic version of the old schema")
	cmd.Flags.String("new-version", "", "Semantic version of the new schema")
	cmd.Flags.String("output", "text", "Output format: text, json")

	return cmd
}

func runMigrate(args []string) error {
	flags := flag.NewFlagSet("migrate", flag.ExitOnError)
	oldPath := flags.String("old", "", "File containing the old schema (required)")
	newPath := flags.String("new", "", "File containing the new schema (required)")
	format := flags.String("format", "", "Schema format")
	oldVersion := flags.String("old-version", "", "Semantic version of the old schema")
	newVersion := flags.String("new-version", "", "Semantic version of the new schema")
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

	plan, err := engine.GenerateMigrationPath(oldSchema, newSchema)
	if err != nil {
		return fmt.Errorf("migration planning failed: %v", err)
	}

	if *output == "json" {
		return outputJSON(plan)
	}

	if plan.Empty() {
		fmt.Println("Schemas are identical, nothing to migrate.")
		return nil
	}

	fmt.Printf("Migration Plan (%s):\n\n", plan.Metadata["format"])
	for i, step := range plan.Steps {
		fmt.Printf("  %2d. %s\n", i+1, step)
	}
	fmt.Println()
	return nil
}
