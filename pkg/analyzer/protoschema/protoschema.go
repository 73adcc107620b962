// Package protoschema adapts protobuf definitions to the normalized tree
// model.
//
// Sources are compiled with protocompile. Field numbers become identity
// keys, so a renamed field keeps its identity across versions and a reused
// number is visible to the protobuf rule table. Fixed-width wire types are
// tagged so that widening them is never classified as safe.
package protoschema

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// Analyzer adapts protobuf schema definitions
type Analyzer struct{}

// New creates the protobuf adapter
func New() *Analyzer {
	return &Analyzer{}
}

// Format returns the format this adapter owns
func (a *Analyzer) Format() schema.Format {
	return schema.FormatProtobuf
}

// Normalize compiles proto source and converts it into the shared tree
// model. The root object holds one member per top-level message and enum.
func (a *Analyzer) Normalize(s *schema.Schema) (*schema.Node, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{
				"schema.proto": s.Content,
			}),
		}),
	}

	files, err := compiler.Compile(context.Background(), "schema.proto")
	if err != nil {
		return nil, &schema.FormatError{Format: s.Format, Err: err}
	}

	var fd protoreflect.FileDescriptor
	for _, file := range files {
		fd = file
		break
	}
	if fd == nil {
		return nil, &schema.ParseError{Format: s.Format, Detail: "no file compiled"}
	}

	fields := make([]schema.Field, 0, fd.Messages().Len()+fd.Enums().Len())
	for i := 0; i < fd.Messages().Len(); i++ {
		md := fd.Messages().Get(i)
		fields = append(fields, schema.Field{Name: string(md.Name()), Node: convertMessage(md)})
	}
	for i := 0; i < fd.Enums().Len(); i++ {
		ed := fd.Enums().Get(i)
		fields = append(fields, schema.Field{Name: string(ed.Name()), Node: convertEnum(ed)})
	}
	return schema.NewObject(fields...), nil
}

func convertMessage(md protoreflect.MessageDescriptor) *schema.Node {
	fields := make([]schema.Field, 0, md.Fields().Len())
	var required []string

	for i := 0; i < md.Fields().Len(); i++ {
		fld := md.Fields().Get(i)
		node := convertField(fld)
		name := string(fld.Name())
		fields = append(fields, schema.Field{Name: name, Node: node})
		if fld.Cardinality() == protoreflect.Required {
			required = append(required, name)
		}
	}

	return schema.NewObject(fields...).WithRequired(required...)
}

func convertField(fld protoreflect.FieldDescriptor) *schema.Node {
	node := scalarFor(fld)

	if fld.IsMap() {
		node = schema.NewArray(scalarFor(fld.MapValue())).WithMeta("protobuf.map", "true")
	} else if fld.IsList() {
		node = schema.NewArray(node)
	}

	node.WithMeta(schema.MetaIdentity, strconv.Itoa(int(fld.Number())))
	node.WithMeta("protobuf.cardinality", fld.Cardinality().String())
	if fld.Options() != nil {
		if opts, ok := fld.Options().(interface{ GetDeprecated() bool }); ok && opts.GetDeprecated() {
			node.WithMeta(schema.MetaDeprecated, "true")
		}
	}
	return node
}

// fixedWidthKinds are wire types whose encoding does not vary with the
// value; changing them is never wire-safe.
var fixedWidthKinds = map[protoreflect.Kind]bool{
	protoreflect.Fixed32Kind:  true,
	protoreflect.Fixed64Kind:  true,
	protoreflect.Sfixed32Kind: true,
	protoreflect.Sfixed64Kind: true,
}

func scalarFor(fld protoreflect.FieldDescriptor) *schema.Node {
	var node *schema.Node
	switch fld.Kind() {
	case protoreflect.Int32Kind, protoreflect.Int64Kind,
		protoreflect.Uint32Kind, protoreflect.Uint64Kind,
		protoreflect.Sint32Kind, protoreflect.Sint64Kind,
		protoreflect.Fixed32Kind, protoreflect.Fixed64Kind,
		protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind:
		node = schema.NewScalar(schema.PrimitiveInteger)
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		node = schema.NewScalar(schema.PrimitiveNumber)
	case protoreflect.BoolKind:
		node = schema.NewScalar(schema.PrimitiveBoolean)
	case protoreflect.StringKind:
		node = schema.NewScalar(schema.PrimitiveString)
	case protoreflect.BytesKind:
		node = schema.NewScalar(schema.PrimitiveBytes)
	case protoreflect.EnumKind:
		node = convertEnum(fld.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return schema.NewReference(string(fld.Message().FullName()))
	default:
		node = schema.NewScalar(schema.PrimitiveUnknown)
	}

	node.WithMeta(schema.MetaNativeType, fld.Kind().String())
	if fixedWidthKinds[fld.Kind()] {
		node.WithMeta(schema.MetaFixedWidth, "true")
	}
	return node
}

func convertEnum(ed protoreflect.EnumDescriptor) *schema.Node {
	values := make([]string, 0, ed.Values().Len())
	for i := 0; i < ed.Values().Len(); i++ {
		values = append(values, string(ed.Values().Get(i).Name()))
	}
	sort.Strings(values)
	return schema.NewScalar(schema.PrimitiveInteger).
		WithConstraint(schema.ConstraintEnum, values).
		WithMeta(schema.MetaNativeType, "enum")
}

// Render emits an abstract migration instruction in proto editing terms
func (a *Analyzer) Render(inst migration.Instruction) (string, error) {
	loc := inst.Change.Location()
	switch inst.Op {
	case migration.OpDrop:
		if number := inst.Change.Meta(schema.MetaIdentity); number != "" {
			return fmt.Sprintf("remove field %s and reserve field number %s", loc, number), nil
		}
		return fmt.Sprintf("remove field %s", loc), nil
	case migration.OpRename:
		return fmt.Sprintf("rename field %s to %q keeping its field number", loc, inst.Change.NewValue), nil
	case migration.OpAdd:
		return fmt.Sprintf("add field %s with a previously unused field number", loc), nil
	case migration.OpRequire:
		return fmt.Sprintf("mark field %s as required once all writers populate it", loc), nil
	case migration.OpRelax:
		return fmt.Sprintf("mark field %s as optional", loc), nil
	default:
		return fmt.Sprintf("update field %s: %s", loc, inst.Change.Description), nil
	}
}
