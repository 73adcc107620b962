package schema

import "fmt"

// ParseError indicates content that does not normalize for its declared
// format.
type ParseError struct {
	Format Format
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s schema: %s: %v", e.Format, e.Detail, e.Err)
	}
	return fmt.Sprintf("failed to parse %s schema: %s", e.Format, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ComparisonError indicates structurally incomparable inputs, such as an
// object root compared against a scalar root, or a tree deeper than the
// traversal cap.
type ComparisonError struct {
	Location string
	Detail   string
}

func (e *ComparisonError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("schema comparison failed at %s: %s", e.Location, e.Detail)
	}
	return fmt.Sprintf("schema comparison failed: %s", e.Detail)
}

// InvalidFormatError indicates an unsupported or unrecognized schema format.
// A missing rule table fails fast with this error rather than silently
// under-reporting breaking changes.
type InvalidFormatError struct {
	Format string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid schema format: %s", e.Format)
}

// FormatError wraps an underlying format library's own error, such as a
// malformed interface definition reported by the proto compiler.
type FormatError struct {
	Format Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
