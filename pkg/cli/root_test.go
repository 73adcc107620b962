package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"analyze", "migrate", "validate"} {
		if _, ok := root.Subcommands[name]; !ok {
			t.Errorf("missing subcommand %s", name)
		}
	}
}

func TestResolveFormat_FromFlag(t *testing.T) {
	f, err := resolveFormat("protobuf", "schema.txt")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if f != schema.FormatProtobuf {
		t.Errorf("format = %v, want protobuf", f)
	}
}

func TestResolveFormat_FromExtension(t *testing.T) {
	cases := map[string]schema.Format{
		"user.json":  schema.FormatJSONSchema,
		"user.proto": schema.FormatProtobuf,
		"api.yaml":   schema.FormatOpenAPI,
		"tables.sql": schema.FormatSQLDDL,
		"TABLES.DDL": schema.FormatSQLDDL,
		"api.v1.yml": schema.FormatOpenAPI,
	}
	for path, want := range cases {
		got, err := resolveFormat("", path)
		if err != nil {
			t.Errorf("resolveFormat(%q) error = %v", path, err)
			continue
		}
		if got != want {
			t.Errorf("resolveFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestResolveFormat_UnknownExtension(t *testing.T) {
	if _, err := resolveFormat("", "schema.txt"); err == nil {
		t.Fatal("expected error for unrecognized extension")
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.sql")
	if err := os.WriteFile(path, []byte("CREATE TABLE users (id INTEGER);"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := loadSchema(path, schema.FormatSQLDDL, "1.2.0")
	if err != nil {
		t.Fatalf("loadSchema() error = %v", err)
	}
	if s.Format != schema.FormatSQLDDL {
		t.Errorf("format = %v", s.Format)
	}
	if s.Version.String() != "1.2.0" {
		t.Errorf("version = %s", s.Version)
	}
}

func TestLoadSchema_BadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.sql")
	if err := os.WriteFile(path, []byte("CREATE TABLE users (id INTEGER);"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadSchema(path, schema.FormatSQLDDL, "not-a-version"); err == nil {
		t.Fatal("expected error for malformed version")
	}
}

func TestLoadSchema_MissingFile(t *testing.T) {
	if _, err := loadSchema("/does/not/exist.sql", schema.FormatSQLDDL, ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}
