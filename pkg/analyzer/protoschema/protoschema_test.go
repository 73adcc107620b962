package protoschema

import (
	"errors"
	"testing"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

const userProto = `syntax = "proto3";

package example.v1;

message User {
  int32 id = 1;
  string email = 2;
  repeated string tags = 3;
  fixed64 checksum = 4;
  Status status = 5;
  Address address = 6;
  map<string, string> labels = 7;
  string legacy_name = 8 [deprecated = true];
}

message Address {
  string city = 1;
}

enum Status {
  STATUS_UNSPECIFIED = 0;
  STATUS_ACTIVE = 1;
  STATUS_DISABLED = 2;
}
`

func normalize(t *testing.T, content string) *schema.Node {
	t.Helper()
	node, err := New().Normalize(schema.MustNew(schema.FormatProtobuf, content, "1.0.0"))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return node
}

func TestNormalize(t *testing.T) {
	root := normalize(t, userProto)

	if root.Kind != schema.KindObject {
		t.Fatalf("root kind = %v", root.Kind)
	}
	if len(root.Fields) != 3 {
		t.Fatalf("expected User, Address and Status at the root, got %d members", len(root.Fields))
	}

	user := root.FieldNamed("User")
	if user == nil || user.Kind != schema.KindObject {
		t.Fatal("User message missing")
	}

	id := user.FieldNamed("id")
	if id.Primitive != schema.PrimitiveInteger {
		t.Errorf("id primitive = %v", id.Primitive)
	}
	if id.Meta(schema.MetaIdentity) != "1" {
		t.Errorf("id identity = %q, want field number 1", id.Meta(schema.MetaIdentity))
	}
	if id.Meta(schema.MetaNativeType) != "int32" {
		t.Errorf("id native type = %q", id.Meta(schema.MetaNativeType))
	}

	tags := user.FieldNamed("tags")
	if tags.Kind != schema.KindArray || tags.Element.Primitive != schema.PrimitiveString {
		t.Error("repeated string should normalize to array of string")
	}
	if tags.Meta(schema.MetaIdentity) != "3" {
		t.Errorf("tags identity = %q", tags.Meta(schema.MetaIdentity))
	}

	checksum := user.FieldNamed("checksum")
	if checksum.Meta(schema.MetaFixedWidth) != "true" {
		t.Error("fixed64 should be flagged fixed width")
	}

	status := user.FieldNamed("status")
	if status.Meta(schema.MetaNativeType) != "enum" {
		t.Errorf("status native type = %q", status.Meta(schema.MetaNativeType))
	}
	enum, ok := status.Constraints[schema.ConstraintEnum].([]string)
	if !ok || len(enum) != 3 {
		t.Errorf("status enum constraint = %v", status.Constraints[schema.ConstraintEnum])
	}

	address := user.FieldNamed("address")
	if address.Kind != schema.KindReference || address.Target != "example.v1.Address" {
		t.Errorf("address = %+v, want reference to example.v1.Address", address)
	}

	labels := user.FieldNamed("labels")
	if labels.Kind != schema.KindArray || labels.Meta("protobuf.map") != "true" {
		t.Error("map fields normalize to tagged arrays")
	}

	legacy := user.FieldNamed("legacy_name")
	if legacy.Meta(schema.MetaDeprecated) != "true" {
		t.Error("deprecated option should set the metadata flag")
	}
}

func TestNormalize_InvalidProto(t *testing.T) {
	_, err := New().Normalize(schema.MustNew(schema.FormatProtobuf, "message {", "1.0.0"))
	var fe *schema.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestRender(t *testing.T) {
	a := New()

	got, err := a.Render(migration.Instruction{
		Op: migration.OpDrop,
		Change: diff.Change{
			Path:     []string{"User", "email"},
			Metadata: map[string]string{schema.MetaIdentity: "2"},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "remove field User/email and reserve field number 2" {
		t.Errorf("Render() = %q", got)
	}

	got, err = a.Render(migration.Instruction{
		Op: migration.OpRename,
		Change: diff.Change{
			Path:     []string{"User", "user_name"},
			NewValue: "display_name",
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != `rename field User/user_name to "display_name" keeping its field number` {
		t.Errorf("Render() = %q", got)
	}
}
