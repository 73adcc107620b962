package schema

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Format identifies a supported schema format
type Format int

const (
	FormatUnknown Format = iota
	FormatJSONSchema
	FormatProtobuf
	FormatOpenAPI
	FormatSQLDDL
)

func (f Format) String() string {
	return []string{
		"unknown", "jsonschema", "protobuf", "openapi", "sqlddl",
	}[f]
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	formats := map[string]Format{
		"jsonschema": FormatJSONSchema,
		"protobuf":   FormatProtobuf,
		"openapi":    FormatOpenAPI,
		"sqlddl":     FormatSQLDDL,
	}

	if f, ok := formats[strings.ToLower(s)]; ok {
		return f, nil
	}
	return FormatUnknown, &InvalidFormatError{Format: s}
}

// Schema holds raw schema content together with its declared format and
// semantic version. It is immutable once constructed; deep structural
// validation happens lazily when a format adapter normalizes it.
type Schema struct {
	Format  Format
	Content string
	Version *semver.Version
}

// New constructs a Schema. Content must be non-empty and the format must be
// one of the supported formats.
func New(format Format, content string, version *semver.Version) (*Schema, error) {
	if format == FormatUnknown {
		return nil, &InvalidFormatError{Format: format.String()}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{Format: format, Detail: "schema content is empty"}
	}
	if version == nil {
		version = semver.MustParse("0.0.0")
	}
	return &Schema{Format: format, Content: content, Version: version}, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(format Format, content, version string) *Schema {
	v, err := semver.NewVersion(version)
	if err != nil {
		panic(fmt.Sprintf("schema: bad version %q: %v", version, err))
	}
	s, err := New(format, content, v)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return s
}
