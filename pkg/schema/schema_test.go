package schema

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"jsonschema": FormatJSONSchema,
		"protobuf":   FormatProtobuf,
		"openapi":    FormatOpenAPI,
		"sqlddl":     FormatSQLDDL,
		"SQLDDL":     FormatSQLDDL,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", input, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseFormat_Unknown(t *testing.T) {
	_, err := ParseFormat("avro")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	var ife *InvalidFormatError
	if !errors.As(err, &ife) {
		t.Errorf("expected InvalidFormatError, got %T", err)
	}
}

func TestNew_EmptyContent(t *testing.T) {
	_, err := New(FormatJSONSchema, "   \n", nil)
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %T", err)
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(FormatUnknown, "{}", nil)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNew_DefaultVersion(t *testing.T) {
	s, err := New(FormatJSONSchema, "{}", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Version.String() != "0.0.0" {
		t.Errorf("default version = %s, want 0.0.0", s.Version)
	}
}

func TestMustNew(t *testing.T) {
	s := MustNew(FormatProtobuf, `syntax = "proto3";`, "1.2.3")
	if s.Version.Major() != 1 || s.Version.Minor() != 2 || s.Version.Patch() != 3 {
		t.Errorf("version = %s, want 1.2.3", s.Version)
	}
}

func TestNode_Builders(t *testing.T) {
	n := NewObject(
		Field{Name: "id", Node: NewScalar(PrimitiveInteger).WithMeta(MetaIdentity, "1")},
		Field{Name: "name", Node: NewScalar(PrimitiveString).WithConstraint(ConstraintMaxLength, float64(64))},
	).WithRequired("id")

	if !n.IsRequired("id") {
		t.Error("id should be required")
	}
	if n.IsRequired("name") {
		t.Error("name should not be required")
	}
	if got := n.FieldNamed("id").Meta(MetaIdentity); got != "1" {
		t.Errorf("identity = %q, want 1", got)
	}
	if n.FieldNamed("missing") != nil {
		t.Error("FieldNamed should return nil for an absent field")
	}
	if v, ok := n.FieldNamed("name").Constraints[ConstraintMaxLength]; !ok || v.(float64) != 64 {
		t.Errorf("maxLength constraint = %v", v)
	}
}

func TestErrors_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	pe := &ParseError{Format: FormatSQLDDL, Detail: "bad token", Err: inner}
	if !errors.Is(pe, inner) {
		t.Error("ParseError should unwrap to its cause")
	}
	fe := &FormatError{Format: FormatOpenAPI, Err: inner}
	if !errors.Is(fe, inner) {
		t.Error("FormatError should unwrap to its cause")
	}
}
