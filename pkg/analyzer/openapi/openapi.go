// Package openapi adapts OpenAPI documents to the normalized tree model.
//
// The normalized root has two members: "paths", an object of path items and
// their operations, and "schemas", the reusable component schemas. Map-like
// collections (paths, properties, response codes) carry no declared order in
// the document model, so they are normalized in lexical order to keep
// traversal deterministic.
package openapi

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/migration"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// Analyzer adapts OpenAPI documents
type Analyzer struct{}

// New creates the OpenAPI adapter
func New() *Analyzer {
	return &Analyzer{}
}

// Format returns the format this adapter owns
func (a *Analyzer) Format() schema.Format {
	return schema.FormatOpenAPI
}

// Normalize loads an OpenAPI document (JSON or YAML) and converts it into
// the shared tree model.
func (a *Analyzer) Normalize(s *schema.Schema) (*schema.Node, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(s.Content))
	if err != nil {
		return nil, &schema.ParseError{Format: s.Format, Detail: "invalid OpenAPI document", Err: err}
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, &schema.FormatError{Format: s.Format, Err: err}
	}

	return schema.NewObject(
		schema.Field{Name: "paths", Node: convertPaths(doc)},
		schema.Field{Name: "schemas", Node: convertComponentSchemas(doc)},
	), nil
}

func convertPaths(doc *openapi3.T) *schema.Node {
	if doc.Paths == nil {
		return schema.NewObject()
	}

	pathMap := doc.Paths.Map()
	names := make([]string, 0, len(pathMap))
	for name := range pathMap {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, schema.Field{Name: name, Node: convertPathItem(pathMap[name])})
	}
	return schema.NewObject(fields...)
}

// operationOrder fixes the method traversal order
var operationOrder = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

func convertPathItem(item *openapi3.PathItem) *schema.Node {
	ops := map[string]*openapi3.Operation{
		"get": item.Get, "put": item.Put, "post": item.Post, "delete": item.Delete,
		"options": item.Options, "head": item.Head, "patch": item.Patch, "trace": item.Trace,
	}

	var fields []schema.Field
	for _, method := range operationOrder {
		op := ops[method]
		if op == nil {
			continue
		}
		node := convertOperation(op)
		if op.Deprecated {
			node.WithMeta(schema.MetaDeprecated, "true")
		}
		fields = append(fields, schema.Field{Name: method, Node: node})
	}
	return schema.NewObject(fields...)
}

func convertOperation(op *openapi3.Operation) *schema.Node {
	var paramFields []schema.Field
	var requiredParams []string
	for _, ref := range op.Parameters {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		paramFields = append(paramFields, schema.Field{Name: p.Name, Node: convertSchemaRef(p.Schema)})
		if p.Required {
			requiredParams = append(requiredParams, p.Name)
		}
	}

	fields := []schema.Field{
		{Name: "parameters", Node: schema.NewObject(paramFields...).WithRequired(requiredParams...)},
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		fields = append(fields, schema.Field{Name: "requestBody", Node: convertContent(op.RequestBody.Value.Content)})
	}
	if op.Responses != nil {
		fields = append(fields, schema.Field{Name: "responses", Node: convertResponses(op.Responses)})
	}
	return schema.NewObject(fields...)
}

func convertResponses(responses *openapi3.Responses) *schema.Node {
	respMap := responses.Map()
	codes := make([]string, 0, len(respMap))
	for code := range respMap {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fields := make([]schema.Field, 0, len(codes))
	for _, code := range codes {
		ref := respMap[code]
		if ref == nil || ref.Value == nil {
			fields = append(fields, schema.Field{Name: code, Node: schema.NewScalar(schema.PrimitiveUnknown)})
			continue
		}
		fields = append(fields, schema.Field{Name: code, Node: convertContent(ref.Value.Content)})
	}
	return schema.NewObject(fields...)
}

// convertContent picks the JSON media type's schema, falling back to the
// lexically first media type.
func convertContent(content openapi3.Content) *schema.Node {
	if content == nil {
		return schema.NewScalar(schema.PrimitiveUnknown)
	}
	if media := content.Get("application/json"); media != nil {
		return convertSchemaRef(media.Schema)
	}

	types := make([]string, 0, len(content))
	for name := range content {
		types = append(types, name)
	}
	sort.Strings(types)
	for _, name := range types {
		if media := content[name]; media != nil {
			return convertSchemaRef(media.Schema)
		}
	}
	return schema.NewScalar(schema.PrimitiveUnknown)
}

func convertComponentSchemas(doc *openapi3.T) *schema.Node {
	if doc.Components == nil {
		return schema.NewObject()
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, schema.Field{Name: name, Node: convertSchemaRef(doc.Components.Schemas[name])})
	}
	return schema.NewObject(fields...)
}

func convertSchemaRef(ref *openapi3.SchemaRef) *schema.Node {
	if ref == nil {
		return schema.NewScalar(schema.PrimitiveUnknown)
	}
	if ref.Ref != "" {
		return schema.NewReference(ref.Ref)
	}
	v := ref.Value
	if v == nil {
		return schema.NewScalar(schema.PrimitiveUnknown)
	}

	if len(v.OneOf) > 0 || len(v.AnyOf) > 0 {
		refs := v.OneOf
		if len(refs) == 0 {
			refs = v.AnyOf
		}
		alts := make([]*schema.Node, 0, len(refs))
		for _, alt := range refs {
			alts = append(alts, convertSchemaRef(alt))
		}
		return schema.NewUnion(alts...)
	}

	var node *schema.Node
	switch {
	case v.Type.Is("object") || len(v.Properties) > 0:
		node = convertSchemaObject(v)
	case v.Type.Is("array"):
		node = schema.NewArray(convertSchemaRef(v.Items))
	case v.Type.Is("string"):
		node = schema.NewScalar(schema.PrimitiveString)
	case v.Type.Is("integer"):
		node = schema.NewScalar(schema.PrimitiveInteger)
	case v.Type.Is("number"):
		node = schema.NewScalar(schema.PrimitiveNumber)
	case v.Type.Is("boolean"):
		node = schema.NewScalar(schema.PrimitiveBoolean)
	default:
		node = schema.NewScalar(schema.PrimitiveUnknown)
	}

	copyConstraints(v, node)
	if v.Format != "" {
		node.WithMeta(schema.MetaNativeType, v.Format)
	}
	if v.Deprecated {
		node.WithMeta(schema.MetaDeprecated, "true")
	}
	return node
}

func convertSchemaObject(v *openapi3.Schema) *schema.Node {
	names := make([]string, 0, len(v.Properties))
	for name := range v.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, schema.Field{Name: name, Node: convertSchemaRef(v.Properties[name])})
	}
	return schema.NewObject(fields...).WithRequired(v.Required...)
}

func copyConstraints(v *openapi3.Schema, node *schema.Node) {
	if v.Min != nil {
		node.WithConstraint(schema.ConstraintMinimum, *v.Min)
	}
	if v.Max != nil {
		node.WithConstraint(schema.ConstraintMaximum, *v.Max)
	}
	if v.MinLength > 0 {
		node.WithConstraint(schema.ConstraintMinLength, float64(v.MinLength))
	}
	if v.MaxLength != nil {
		node.WithConstraint(schema.ConstraintMaxLength, float64(*v.MaxLength))
	}
	if v.Pattern != "" {
		node.WithConstraint(schema.ConstraintPattern, v.Pattern)
	}
	if v.MinItems > 0 {
		node.WithConstraint(schema.ConstraintMinItems, float64(v.MinItems))
	}
	if v.MaxItems != nil {
		node.WithConstraint(schema.ConstraintMaxItems, float64(*v.MaxItems))
	}
	if len(v.Enum) > 0 {
		values := make([]string, 0, len(v.Enum))
		for _, item := range v.Enum {
			values = append(values, fmt.Sprintf("%v", item))
		}
		sort.Strings(values)
		node.WithConstraint(schema.ConstraintEnum, values)
	}
}

// Render emits an abstract migration instruction in API description terms
func (a *Analyzer) Render(inst migration.Instruction) (string, error) {
	loc := inst.Change.Location()
	switch inst.Op {
	case migration.OpDrop:
		return fmt.Sprintf("remove %s from the API description", loc), nil
	case migration.OpRename:
		return fmt.Sprintf("rename %s to %q", loc, inst.Change.NewValue), nil
	case migration.OpAdd:
		return fmt.Sprintf("add %s to the API description", loc), nil
	case migration.OpRequire:
		return fmt.Sprintf("mark %s as required", loc), nil
	case migration.OpRelax:
		return fmt.Sprintf("mark %s as optional", loc), nil
	default:
		return fmt.Sprintf("update %s: %s", loc, inst.Change.Description), nil
	}
}
