package schema

// NodeKind discriminates the Node variant
type NodeKind int

const (
	KindScalar NodeKind = iota
	KindObject
	KindArray
	KindUnion
	KindReference
)

func (k NodeKind) String() string {
	return []string{"scalar", "object", "array", "union", "reference"}[k]
}

// Primitive is the kind of a scalar node
type Primitive int

const (
	PrimitiveUnknown Primitive = iota
	PrimitiveString
	PrimitiveInteger
	PrimitiveNumber
	PrimitiveBoolean
	PrimitiveBytes
	PrimitiveNull
)

func (p Primitive) String() string {
	return []string{
		"unknown", "string", "integer", "number", "boolean", "bytes", "null",
	}[p]
}

// Well-known constraint names. Adapters map format-native constraints onto
// these so the diff engine can compare bounds without knowing the format.
const (
	ConstraintMinimum   = "minimum"
	ConstraintMaximum   = "maximum"
	ConstraintMinLength = "minLength"
	ConstraintMaxLength = "maxLength"
	ConstraintPattern   = "pattern"
	ConstraintEnum      = "enum"
	ConstraintMinItems  = "minItems"
	ConstraintMaxItems  = "maxItems"
)

// Metadata keys shared across adapters. Format-specific keys are prefixed
// with the format name (e.g. "protobuf.label", "sqlddl.type").
const (
	// MetaIdentity is a format-specific stable identifier (protobuf field
	// number, SQL column name). When present on both sides of a comparison
	// it takes precedence over name matching, so renames are detected.
	MetaIdentity = "identity"

	// MetaDeprecated marks a member with explicit deprecation semantics in
	// its format. Rule tables may downgrade a removal of a deprecated
	// member from breaking to a warning.
	MetaDeprecated = "deprecated"

	// MetaFixedWidth marks a scalar whose wire encoding is fixed-width.
	// Widening such a type is breaking even though it would be a safe
	// widening elsewhere.
	MetaFixedWidth = "fixedWidth"

	// MetaNativeType is the format's own name for a scalar's type (int32,
	// varchar). The diff engine compares native types when both sides carry
	// one, so a widening such as int32 to int64 is visible even though both
	// normalize to the same primitive.
	MetaNativeType = "nativeType"

	// MetaNullable and MetaPrimaryKey carry relational column facts.
	MetaNullable   = "nullable"
	MetaPrimaryKey = "primaryKey"
)

// Constraints maps constraint names to values. Values are restricted to
// float64, string and []string so comparisons stay well-defined.
type Constraints map[string]any

// Field is a named child of an object node. Declared order is significant:
// the diff engine visits fields in declared order to keep output stable.
type Field struct {
	Name string
	Node *Node
}

// Node is the normalized schema tree. It is a tagged variant: Kind selects
// which of the remaining fields are meaningful.
type Node struct {
	Kind NodeKind

	// Scalar
	Primitive   Primitive
	Constraints Constraints

	// Object
	Fields   []Field
	Required map[string]bool

	// Array
	Element *Node

	// Union
	Alternatives []*Node

	// Reference
	Target string

	// Format-specific side-channel consumed by rule tables
	Metadata map[string]string
}

// NewScalar creates a scalar node
func NewScalar(p Primitive) *Node {
	return &Node{Kind: KindScalar, Primitive: p, Constraints: Constraints{}}
}

// NewObject creates an object node with the given ordered fields
func NewObject(fields ...Field) *Node {
	return &Node{Kind: KindObject, Fields: fields, Required: map[string]bool{}}
}

// NewArray creates an array node over the given element shape
func NewArray(element *Node) *Node {
	return &Node{Kind: KindArray, Element: element, Constraints: Constraints{}}
}

// NewUnion creates a union node over the given alternatives
func NewUnion(alternatives ...*Node) *Node {
	return &Node{Kind: KindUnion, Alternatives: alternatives}
}

// NewReference creates a reference node pointing at target
func NewReference(target string) *Node {
	return &Node{Kind: KindReference, Target: target}
}

// WithRequired marks the named fields as required and returns the node
func (n *Node) WithRequired(names ...string) *Node {
	if n.Required == nil {
		n.Required = map[string]bool{}
	}
	for _, name := range names {
		n.Required[name] = true
	}
	return n
}

// WithConstraint sets a constraint and returns the node
func (n *Node) WithConstraint(name string, value any) *Node {
	if n.Constraints == nil {
		n.Constraints = Constraints{}
	}
	n.Constraints[name] = value
	return n
}

// WithMeta sets a metadata key and returns the node
func (n *Node) WithMeta(key, value string) *Node {
	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	n.Metadata[key] = value
	return n
}

// Meta returns the metadata value for key, or "" when absent
func (n *Node) Meta(key string) string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata[key]
}

// FieldNamed returns the object field with the given name, or nil
func (n *Node) FieldNamed(name string) *Node {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Node
		}
	}
	return nil
}

// IsRequired reports whether an object field is in the required set
func (n *Node) IsRequired(name string) bool {
	return n.Required != nil && n.Required[name]
}
