package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// extensionFormats maps common file extensions to schema formats so that
// --format can usually be omitted.
var extensionFormats = map[string]schema.Format{
	".json":  schema.FormatJSONSchema,
	".proto": schema.FormatProtobuf,
	".yaml":  schema.FormatOpenAPI,
	".yml":   schema.FormatOpenAPI,
	".sql":   schema.FormatSQLDDL,
	".ddl":   schema.FormatSQLDDL,
}

func resolveFormat(formatFlag, path string) (schema.Format, error) {
	if formatFlag != "" {
		return schema.ParseFormat(formatFlag)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return schema.FormatUnknown, fmt.Errorf("cannot infer schema format from %q, pass --format", path)
}

func loadSchema(path string, format schema.Format, version string) (*schema.Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %v", err)
	}
	var v *semver.Version
	if version != "" {
		v, err = semver.NewVersion(version)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %v", version, err)
		}
	}
	return schema.New(format, string(content), v)
}
