package jsonschema

import (
	"errors"
	"testing"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

func normalize(t *testing.T, content string) *schema.Node {
	t.Helper()
	node, err := New().Normalize(schema.MustNew(schema.FormatJSONSchema, content, "1.0.0"))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return node
}

func TestNormalize_Object(t *testing.T) {
	node := normalize(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "maxLength": 100},
			"age": {"type": "integer", "minimum": 0},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["name"]
	}`)

	if node.Kind != schema.KindObject {
		t.Fatalf("root kind = %v, want object", node.Kind)
	}

	// Properties come out in lexical order regardless of document order.
	want := []string{"age", "name", "tags"}
	for i, name := range want {
		if node.Fields[i].Name != name {
			t.Errorf("field %d = %s, want %s", i, node.Fields[i].Name, name)
		}
	}

	if !node.IsRequired("name") || node.IsRequired("age") {
		t.Error("required set does not match the document")
	}

	name := node.FieldNamed("name")
	if name.Primitive != schema.PrimitiveString {
		t.Errorf("name primitive = %v", name.Primitive)
	}
	if v := name.Constraints[schema.ConstraintMaxLength]; v != float64(100) {
		t.Errorf("maxLength = %v, want 100", v)
	}

	tags := node.FieldNamed("tags")
	if tags.Kind != schema.KindArray || tags.Element.Primitive != schema.PrimitiveString {
		t.Errorf("tags should normalize to array of string")
	}
}

func TestNormalize_EnumSorted(t *testing.T) {
	node := normalize(t, `{"type": "string", "enum": ["pending", "active", "inactive"]}`)
	got, ok := node.Constraints[schema.ConstraintEnum].([]string)
	if !ok {
		t.Fatalf("enum constraint = %T", node.Constraints[schema.ConstraintEnum])
	}
	want := []string{"active", "inactive", "pending"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("enum[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNormalize_UnionAndReference(t *testing.T) {
	union := normalize(t, `{"oneOf": [{"type": "string"}, {"type": "integer"}]}`)
	if union.Kind != schema.KindUnion || len(union.Alternatives) != 2 {
		t.Errorf("oneOf should normalize to a two-alternative union, got %v", union.Kind)
	}

	ref := normalize(t, `{
		"properties": {"owner": {"$ref": "#/$defs/user"}},
		"$defs": {"user": {"type": "object"}}
	}`)
	owner := ref.FieldNamed("owner")
	if owner.Kind != schema.KindReference || owner.Target != "#/$defs/user" {
		t.Errorf("owner = %+v, want reference to #/$defs/user", owner)
	}
}

func TestNormalize_Deprecated(t *testing.T) {
	node := normalize(t, `{"type": "string", "deprecated": true}`)
	if node.Meta(schema.MetaDeprecated) != "true" {
		t.Error("deprecated keyword should set the metadata flag")
	}
}

func TestNormalize_InvalidJSON(t *testing.T) {
	_, err := New().Normalize(schema.MustNew(schema.FormatJSONSchema, "{broken", "1.0.0"))
	var pe *schema.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestNormalize_InvalidSchemaDocument(t *testing.T) {
	// Valid JSON, but $ref points nowhere so compilation fails.
	_, err := New().Normalize(schema.MustNew(schema.FormatJSONSchema, `{"$ref": "#/$defs/missing"}`, "1.0.0"))
	var fe *schema.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestRender(t *testing.T) {
	a := New()

	cases := []struct {
		inst migration.Instruction
		want string
	}{
		{
			inst: migration.Instruction{Op: migration.OpDrop, Change: diff.Change{Path: []string{"email"}}},
			want: "remove property email",
		},
		{
			inst: migration.Instruction{Op: migration.OpRename, Change: diff.Change{Path: []string{"user_name"}, NewValue: "display_name"}},
			want: `rename property user_name to "display_name"`,
		},
		{
			inst: migration.Instruction{Op: migration.OpRequire, Change: diff.Change{Path: []string{"email"}}},
			want: "mark property email as required",
		},
	}
	for _, tc := range cases {
		got, err := a.Render(tc.inst)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if got != tc.want {
			t.Errorf("Render() = %q, want %q", got, tc.want)
		}
	}
}
