// Package jsonschema adapts JSON Schema documents to the normalized tree
// model.
//
// Documents are validated syntactically with the santhosh-tekuri compiler
// before normalization, so malformed schemas surface as parse errors rather
// than surprising diffs. Object properties are normalized in lexical order
// to keep traversal deterministic.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"sort"

	sj "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// Analyzer adapts JSON Schema documents
type Analyzer struct{}

// New creates the JSON Schema adapter
func New() *Analyzer {
	return &Analyzer{}
}

// Format returns the format this adapter owns
func (a *Analyzer) Format() schema.Format {
	return schema.FormatJSONSchema
}

// Normalize parses and converts a JSON Schema document into the shared tree
// model.
func (a *Analyzer) Normalize(s *schema.Schema) (*schema.Node, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(s.Content), &doc); err != nil {
		return nil, &schema.ParseError{Format: s.Format, Detail: "invalid JSON document", Err: err}
	}

	if err := compile(s.Content); err != nil {
		return nil, &schema.FormatError{Format: s.Format, Err: err}
	}

	return convert(doc), nil
}

// compile runs the document through the JSON Schema compiler so structural
// schema errors (bad keywords, unresolvable refs) are caught up front.
func compile(content string) error {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return err
	}

	c := sj.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	if _, err := c.Compile("schema.json"); err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	return nil
}

func convert(doc map[string]any) *schema.Node {
	if ref, ok := doc["$ref"].(string); ok {
		return schema.NewReference(ref)
	}

	if alts := unionAlternatives(doc); alts != nil {
		return schema.NewUnion(alts...)
	}

	typ, _ := doc["type"].(string)
	if typ == "" && doc["properties"] != nil {
		typ = "object"
	}

	var node *schema.Node
	switch typ {
	case "object":
		node = convertObject(doc)
	case "array":
		node = convertArray(doc)
	case "string":
		node = schema.NewScalar(schema.PrimitiveString)
	case "integer":
		node = schema.NewScalar(schema.PrimitiveInteger)
	case "number":
		node = schema.NewScalar(schema.PrimitiveNumber)
	case "boolean":
		node = schema.NewScalar(schema.PrimitiveBoolean)
	case "null":
		node = schema.NewScalar(schema.PrimitiveNull)
	default:
		node = schema.NewScalar(schema.PrimitiveUnknown)
	}

	copyConstraints(doc, node)
	if deprecated, _ := doc["deprecated"].(bool); deprecated {
		node.WithMeta(schema.MetaDeprecated, "true")
	}
	return node
}

func unionAlternatives(doc map[string]any) []*schema.Node {
	for _, keyword := range []string{"oneOf", "anyOf"} {
		list, ok := doc[keyword].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		alts := make([]*schema.Node, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				alts = append(alts, convert(m))
			}
		}
		if len(alts) > 0 {
			return alts
		}
	}
	return nil
}

func convertObject(doc map[string]any) *schema.Node {
	props, _ := doc["properties"].(map[string]any)

	// JSON object keys carry no declared order once unmarshaled, so
	// properties are normalized in lexical order for determinism.
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		child, ok := props[name].(map[string]any)
		if !ok {
			fields = append(fields, schema.Field{Name: name, Node: schema.NewScalar(schema.PrimitiveUnknown)})
			continue
		}
		fields = append(fields, schema.Field{Name: name, Node: convert(child)})
	}

	node := schema.NewObject(fields...)
	if required, ok := doc["required"].([]any); ok {
		for _, r := range required {
			if name, ok := r.(string); ok {
				node.WithRequired(name)
			}
		}
	}
	return node
}

func convertArray(doc map[string]any) *schema.Node {
	element := schema.NewScalar(schema.PrimitiveUnknown)
	if items, ok := doc["items"].(map[string]any); ok {
		element = convert(items)
	}
	return schema.NewArray(element)
}

// constraintKeywords maps JSON Schema keywords onto the shared constraint
// names the diff engine compares.
var constraintKeywords = map[string]string{
	"minimum":   schema.ConstraintMinimum,
	"maximum":   schema.ConstraintMaximum,
	"minLength": schema.ConstraintMinLength,
	"maxLength": schema.ConstraintMaxLength,
	"pattern":   schema.ConstraintPattern,
	"enum":      schema.ConstraintEnum,
	"minItems":  schema.ConstraintMinItems,
	"maxItems":  schema.ConstraintMaxItems,
}

func copyConstraints(doc map[string]any, node *schema.Node) {
	for keyword, name := range constraintKeywords {
		value, ok := doc[keyword]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64, string:
			node.WithConstraint(name, v)
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				list = append(list, fmt.Sprintf("%v", item))
			}
			sort.Strings(list)
			node.WithConstraint(name, list)
		}
	}
}

// Render emits an abstract migration instruction as text. JSON Schema has no
// migration dialect of its own, so steps read as editor instructions.
func (a *Analyzer) Render(inst migration.Instruction) (string, error) {
	switch inst.Op {
	case migration.OpRename:
		return fmt.Sprintf("rename property %s to %q", inst.Change.Location(), inst.Change.NewValue), nil
	case migration.OpDrop:
		return fmt.Sprintf("remove property %s", inst.Change.Location()), nil
	case migration.OpAdd:
		return fmt.Sprintf("add property %s", inst.Change.Location()), nil
	case migration.OpRequire:
		return fmt.Sprintf("mark property %s as required", inst.Change.Location()), nil
	case migration.OpRelax:
		return fmt.Sprintf("mark property %s as optional", inst.Change.Location()), nil
	default:
		return fmt.Sprintf("update property %s: %s", inst.Change.Location(), inst.Change.Description), nil
	}
}
