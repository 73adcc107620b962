// Package schema defines the format-independent representation used by the
// diff engine and its collaborators.
//
// A Schema pairs raw content with its declared format and semantic version.
// Format adapters normalize a Schema into a Node tree: a closed variant over
// Scalar, Object, Array, Union and Reference nodes. Everything downstream of
// an adapter (diffing, classification, scoring, planning) operates on Node
// trees only and never inspects raw schema text.
//
// Nodes carry an opaque metadata side-channel for format-specific facts the
// structural model cannot express, such as a protobuf field number or a SQL
// column's nullability. Compatibility rule tables consume these keys when
// classifying changes.
//
// The package also defines the error taxonomy surfaced by analysis:
// ParseError, ComparisonError, InvalidFormatError and FormatError.
package schema
