// Package sqlddl adapts CREATE TABLE definitions to the normalized tree
// model and renders migration steps as ALTER TABLE statements.
//
// The parser is a small hand-written scanner over the DDL subset that
// matters for structural comparison: table names, column definitions and
// column/table constraints. NOT NULL columns form the required set; primary
// key and nullability facts ride the metadata side-channel for the
// relational rule table.
package sqlddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// Analyzer adapts SQL DDL schema definitions
type Analyzer struct{}

// New creates the SQL DDL adapter
func New() *Analyzer {
	return &Analyzer{}
}

// Format returns the format this adapter owns
func (a *Analyzer) Format() schema.Format {
	return schema.FormatSQLDDL
}

// Normalize parses CREATE TABLE statements and converts them into the
// shared tree model. The root object holds one member per table.
func (a *Analyzer) Normalize(s *schema.Schema) (*schema.Node, error) {
	tables, err := NewParser(s.Content).Parse()
	if err != nil {
		return nil, &schema.ParseError{Format: s.Format, Detail: "invalid DDL", Err: err}
	}

	fields := make([]schema.Field, 0, len(tables))
	for _, table := range tables {
		fields = append(fields, schema.Field{Name: table.Name, Node: convertTable(table)})
	}
	return schema.NewObject(fields...), nil
}

func convertTable(table Table) *schema.Node {
	fields := make([]schema.Field, 0, len(table.Columns))
	var required []string

	for _, col := range table.Columns {
		fields = append(fields, schema.Field{Name: col.Name, Node: convertColumn(col)})
		if col.NotNull {
			required = append(required, col.Name)
		}
	}
	return schema.NewObject(fields...).WithRequired(required...)
}

func convertColumn(col Column) *schema.Node {
	node := scalarForType(col)
	node.WithMeta(schema.MetaNativeType, col.Type)
	node.WithMeta(schema.MetaNullable, strconv.FormatBool(!col.NotNull))
	if col.PrimaryKey {
		node.WithMeta(schema.MetaPrimaryKey, "true")
	}
	return node
}

func scalarForType(col Column) *schema.Node {
	switch col.Type {
	case "smallint", "int2", "integer", "int", "int4", "bigint", "int8", "serial", "bigserial":
		return schema.NewScalar(schema.PrimitiveInteger)
	case "real", "float", "double precision", "numeric", "decimal":
		return schema.NewScalar(schema.PrimitiveNumber)
	case "boolean", "bool":
		return schema.NewScalar(schema.PrimitiveBoolean)
	case "varchar", "text":
		node := schema.NewScalar(schema.PrimitiveString)
		if col.Type == "varchar" && len(col.TypeArgs) > 0 {
			node.WithConstraint(schema.ConstraintMaxLength, float64(col.TypeArgs[0]))
		}
		return node
	case "char":
		node := schema.NewScalar(schema.PrimitiveString)
		node.WithMeta(schema.MetaFixedWidth, "true")
		if len(col.TypeArgs) > 0 {
			node.WithConstraint(schema.ConstraintMaxLength, float64(col.TypeArgs[0]))
		}
		return node
	case "bytea", "blob":
		return schema.NewScalar(schema.PrimitiveBytes)
	case "date", "time", "timestamp", "timestamptz":
		return schema.NewScalar(schema.PrimitiveString)
	}
	return schema.NewScalar(schema.PrimitiveUnknown)
}

// Render turns an abstract migration instruction into an executable DDL
// statement. Paths have the shape [table] or [table, column].
func (a *Analyzer) Render(inst migration.Instruction) (string, error) {
	if len(inst.Path) == 0 {
		return "", fmt.Errorf("sqlddl: instruction has no path")
	}
	table := inst.Path[0]

	if len(inst.Path) == 1 {
		switch inst.Op {
		case migration.OpDrop:
			return fmt.Sprintf("DROP TABLE %s;", table), nil
		case migration.OpAdd:
			return fmt.Sprintf("-- create table %s as defined in the target schema", table), nil
		default:
			return fmt.Sprintf("-- review table %s: %s", table, inst.Change.Description), nil
		}
	}

	column := inst.Path[len(inst.Path)-1]
	switch inst.Op {
	case migration.OpDrop:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, column), nil
	case migration.OpRename:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", table, column, inst.Change.NewValue), nil
	case migration.OpAdd:
		return renderAddColumn(table, column, inst.Change), nil
	case migration.OpRequire:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", table, column), nil
	case migration.OpRelax:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", table, column), nil
	case migration.OpModify:
		if inst.Change.Kind == diff.ChangeTypeChanged {
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", table, column, strings.ToUpper(inst.Change.NewValue)), nil
		}
		return fmt.Sprintf("-- adjust constraints on %s.%s: %s", table, column, inst.Change.Description), nil
	}
	return fmt.Sprintf("-- review %s.%s: %s", table, column, inst.Change.Description), nil
}

func renderAddColumn(table, column string, c diff.Change) string {
	columnType := c.Meta(schema.MetaNativeType)
	if columnType == "" {
		columnType = "text"
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, strings.ToUpper(columnType))
	if c.Meta(diff.MetaRequired) == "true" {
		stmt += " NOT NULL"
	}
	return stmt + ";"
}
