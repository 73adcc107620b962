package diff

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/schema"
)

// DefaultMaxDepth caps tree traversal so adversarially deep schemas cannot
// exhaust the stack.
const DefaultMaxDepth = 1000

// Differ compares two normalized schema trees
type Differ struct {
	maxDepth int
}

// Option configures a Differ
type Option func(*Differ)

// WithMaxDepth overrides the traversal depth cap
func WithMaxDepth(n int) Option {
	return func(d *Differ) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// NewDiffer creates a Differ
func NewDiffer(opts ...Option) *Differ {
	d := &Differ{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff produces the ordered change sequence between two trees rooted at the
// same logical entity. Roots of different kinds are structurally
// incomparable and yield a ComparisonError; a kind change below the root is
// an ordinary TypeChanged change.
func (d *Differ) Diff(old, new *schema.Node) ([]Change, error) {
	if old == nil || new == nil {
		return nil, &schema.ComparisonError{Detail: "cannot compare nil schema trees"}
	}
	if old.Kind != new.Kind {
		return nil, &schema.ComparisonError{
			Detail: fmt.Sprintf("root kind mismatch: %s vs %s", old.Kind, new.Kind),
		}
	}

	changes := make([]Change, 0)
	if err := d.compare(nil, old, new, 0, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (d *Differ) compare(path []string, old, new *schema.Node, depth int, out *[]Change) error {
	if depth > d.maxDepth {
		return &schema.ComparisonError{
			Location: joinPath(path),
			Detail:   fmt.Sprintf("schema nesting exceeds depth limit %d", d.maxDepth),
		}
	}

	if old.Kind != new.Kind {
		*out = append(*out, typeChange(path, old.Kind.String(), new.Kind.String(), old, new))
		return nil
	}

	switch old.Kind {
	case schema.KindScalar:
		d.compareScalars(path, old, new, out)
	case schema.KindObject:
		return d.compareObjects(path, old, new, depth, out)
	case schema.KindArray:
		d.compareConstraints(path, old.Constraints, new.Constraints, out)
		return d.compare(childPath(path, "[]"), old.Element, new.Element, depth+1, out)
	case schema.KindUnion:
		return d.compareUnions(path, old, new, depth, out)
	case schema.KindReference:
		if old.Target != new.Target {
			*out = append(*out, typeChange(path, old.Target, new.Target, old, new))
		}
	}
	return nil
}

func (d *Differ) compareScalars(path []string, old, new *schema.Node, out *[]Change) {
	oldType := nativeType(old)
	newType := nativeType(new)
	if oldType != newType {
		*out = append(*out, typeChange(path, oldType, newType, old, new))
	}
	d.compareConstraints(path, old.Constraints, new.Constraints, out)
}

// nativeType prefers the adapter-supplied native type name over the
// normalized primitive, so int32 vs int64 is visible even though both
// normalize to integer.
func nativeType(n *schema.Node) string {
	if t := n.Meta(schema.MetaNativeType); t != "" {
		return t
	}
	return n.Primitive.String()
}

func (d *Differ) compareObjects(path []string, old, new *schema.Node, depth int, out *[]Change) error {
	newByName := make(map[string]int, len(new.Fields))
	newByIdentity := make(map[string]int, len(new.Fields))
	for i, f := range new.Fields {
		newByName[f.Name] = i
		if id := f.Node.Meta(schema.MetaIdentity); id != "" {
			newByIdentity[id] = i
		}
	}

	consumed := make(map[int]bool, len(new.Fields))

	// Old declared order first. Identity keys take precedence over names:
	// a member whose identity survives is the same member however it is
	// spelled, and a name-stable member whose identity moved is not.
	for _, f := range old.Fields {
		oldID := f.Node.Meta(schema.MetaIdentity)

		if oldID != "" {
			if j, ok := newByIdentity[oldID]; ok && !consumed[j] {
				consumed[j] = true
				newName := new.Fields[j].Name
				if newName != f.Name {
					*out = append(*out, Change{
						Path:        childPath(path, f.Name),
						Kind:        ChangeRenamed,
						Description: fmt.Sprintf("member %q was renamed to %q", f.Name, newName),
						OldValue:    f.Name,
						NewValue:    newName,
						Metadata:    map[string]string{schema.MetaIdentity: oldID},
					})
				}
				d.compareRequiredness(path, f.Name, newName, old, new, out)
				if err := d.compare(childPath(path, newName), f.Node, new.Fields[j].Node, depth+1, out); err != nil {
					return err
				}
				continue
			}
		}

		if j, ok := newByName[f.Name]; ok && !consumed[j] {
			consumed[j] = true
			newID := new.Fields[j].Node.Meta(schema.MetaIdentity)
			if oldID != "" && newID != "" && oldID != newID {
				*out = append(*out, Change{
					Path:        childPath(path, f.Name),
					Kind:        ChangeOther,
					Description: fmt.Sprintf("member %q identity changed from %s to %s", f.Name, oldID, newID),
					OldValue:    oldID,
					NewValue:    newID,
					Metadata: map[string]string{
						schema.MetaIdentity: newID,
						MetaIdentityChanged: "true",
					},
				})
			}
			d.compareRequiredness(path, f.Name, f.Name, old, new, out)
			if err := d.compare(childPath(path, f.Name), f.Node, new.Fields[j].Node, depth+1, out); err != nil {
				return err
			}
			continue
		}

		*out = append(*out, Change{
			Path:        childPath(path, f.Name),
			Kind:        ChangeRemoved,
			Description: fmt.Sprintf("member %q was removed", f.Name),
			OldValue:    f.Name,
			Metadata:    memberMetadata(f.Node, old.IsRequired(f.Name)),
		})
	}

	// Then new-only members in the new declared order
	for j, f := range new.Fields {
		if consumed[j] {
			continue
		}
		*out = append(*out, Change{
			Path:        childPath(path, f.Name),
			Kind:        ChangeAdded,
			Description: fmt.Sprintf("member %q was added", f.Name),
			NewValue:    f.Name,
			Metadata:    memberMetadata(f.Node, new.IsRequired(f.Name)),
		})
	}

	return nil
}

// memberMetadata carries the node facts rule tables need when classifying
// an Added or Removed member.
func memberMetadata(n *schema.Node, required bool) map[string]string {
	md := map[string]string{MetaRequired: strconv.FormatBool(required)}
	for _, key := range []string{schema.MetaIdentity, schema.MetaDeprecated, schema.MetaNullable, schema.MetaPrimaryKey, schema.MetaNativeType} {
		if v := n.Meta(key); v != "" {
			md[key] = v
		}
	}
	return md
}

func (d *Differ) compareRequiredness(path []string, oldName, newName string, old, new *schema.Node, out *[]Change) {
	oldReq := old.IsRequired(oldName)
	newReq := new.IsRequired(newName)
	if oldReq == newReq {
		return
	}
	*out = append(*out, Change{
		Path:        childPath(path, newName),
		Kind:        ChangeRequirednessChanged,
		Description: fmt.Sprintf("member %q changed from %s to %s", newName, requiredness(oldReq), requiredness(newReq)),
		OldValue:    requiredness(oldReq),
		NewValue:    requiredness(newReq),
	})
}

func requiredness(required bool) string {
	if required {
		return "required"
	}
	return "optional"
}

func (d *Differ) compareUnions(path []string, old, new *schema.Node, depth int, out *[]Change) error {
	used := make([]bool, len(new.Alternatives))

	for i, alt := range old.Alternatives {
		j := matchAlternative(alt, new.Alternatives, used)
		if j < 0 {
			*out = append(*out, Change{
				Path:        childPath(path, altLabel(i)),
				Kind:        ChangeRemoved,
				Description: fmt.Sprintf("union alternative %s was removed", describeShape(alt)),
				OldValue:    describeShape(alt),
			})
			continue
		}
		used[j] = true
		if err := d.compare(childPath(path, altLabel(i)), alt, new.Alternatives[j], depth+1, out); err != nil {
			return err
		}
	}

	for j, alt := range new.Alternatives {
		if used[j] {
			continue
		}
		*out = append(*out, Change{
			Path:        childPath(path, altLabel(len(old.Alternatives)+j)),
			Kind:        ChangeAdded,
			Description: fmt.Sprintf("union alternative %s was added", describeShape(alt)),
			NewValue:    describeShape(alt),
		})
	}
	return nil
}

// matchAlternative finds the best structural match for alt among candidates:
// an exact shape signature first, then the first unused candidate of the
// same kind and primitive.
func matchAlternative(alt *schema.Node, candidates []*schema.Node, used []bool) int {
	sig := shapeSignature(alt)
	for j, c := range candidates {
		if !used[j] && shapeSignature(c) == sig {
			return j
		}
	}
	for j, c := range candidates {
		if !used[j] && c.Kind == alt.Kind && c.Primitive == alt.Primitive {
			return j
		}
	}
	return -1
}

func altLabel(i int) string {
	return "alt[" + strconv.Itoa(i) + "]"
}

// shapeSignature summarizes a node's structure for best-effort matching
func shapeSignature(n *schema.Node) string {
	switch n.Kind {
	case schema.KindScalar:
		return "scalar:" + nativeType(n)
	case schema.KindObject:
		sig := "object:"
		for _, f := range n.Fields {
			sig += f.Name + ","
		}
		return sig
	case schema.KindArray:
		return "array:" + shapeSignature(n.Element)
	case schema.KindUnion:
		sig := "union:"
		for _, a := range n.Alternatives {
			sig += shapeSignature(a) + "|"
		}
		return sig
	case schema.KindReference:
		return "reference:" + n.Target
	}
	return "unknown"
}

func describeShape(n *schema.Node) string {
	switch n.Kind {
	case schema.KindScalar:
		return nativeType(n)
	case schema.KindReference:
		return n.Target
	default:
		return n.Kind.String()
	}
}

// compareConstraints emits at most one ConstraintTightened and one
// ConstraintLoosened change per node, listing every affected constraint, so
// the path/kind uniqueness invariant holds.
func (d *Differ) compareConstraints(path []string, old, new schema.Constraints, out *[]Change) {
	var tightened, loosened []string

	for _, name := range sortedConstraintNames(old, new) {
		oldVal, hasOld := old[name]
		newVal, hasNew := new[name]

		switch {
		case !hasOld && hasNew:
			tightened = append(tightened, fmt.Sprintf("%s added (%s)", name, constraintValue(newVal)))
		case hasOld && !hasNew:
			loosened = append(loosened, fmt.Sprintf("%s removed (was %s)", name, constraintValue(oldVal)))
		case hasOld && hasNew:
			t, l := constraintDirection(name, oldVal, newVal)
			if t != "" {
				tightened = append(tightened, t)
			}
			if l != "" {
				loosened = append(loosened, l)
			}
		}
	}

	if len(tightened) > 0 {
		*out = append(*out, Change{
			Path:        append([]string{}, path...),
			Kind:        ChangeConstraintTightened,
			Description: "constraints tightened: " + joinList(tightened),
			Metadata:    map[string]string{MetaConstraints: joinList(tightened)},
		})
	}
	if len(loosened) > 0 {
		*out = append(*out, Change{
			Path:        append([]string{}, path...),
			Kind:        ChangeConstraintLoosened,
			Description: "constraints loosened: " + joinList(loosened),
			Metadata:    map[string]string{MetaConstraints: joinList(loosened)},
		})
	}
}

// constraintDirection decides whether a changed constraint value narrows or
// widens the accepted set. Lower bounds tighten when raised; upper bounds
// tighten when lowered; enumerated sets tighten when values disappear.
func constraintDirection(name string, oldVal, newVal any) (tightened, loosened string) {
	switch name {
	case schema.ConstraintMinimum, schema.ConstraintMinLength, schema.ConstraintMinItems:
		oldN, okOld := toFloat(oldVal)
		newN, okNew := toFloat(newVal)
		if okOld && okNew && newN != oldN {
			if newN > oldN {
				return fmt.Sprintf("%s raised %v -> %v", name, oldVal, newVal), ""
			}
			return "", fmt.Sprintf("%s lowered %v -> %v", name, oldVal, newVal)
		}
	case schema.ConstraintMaximum, schema.ConstraintMaxLength, schema.ConstraintMaxItems:
		oldN, okOld := toFloat(oldVal)
		newN, okNew := toFloat(newVal)
		if okOld && okNew && newN != oldN {
			if newN < oldN {
				return fmt.Sprintf("%s lowered %v -> %v", name, oldVal, newVal), ""
			}
			return "", fmt.Sprintf("%s raised %v -> %v", name, oldVal, newVal)
		}
	case schema.ConstraintEnum:
		oldSet, okOld := toStringList(oldVal)
		newSet, okNew := toStringList(newVal)
		if okOld && okNew {
			removed := missingFrom(oldSet, newSet)
			added := missingFrom(newSet, oldSet)
			if len(removed) > 0 {
				tightened = fmt.Sprintf("%s values removed: %s", name, joinList(removed))
			}
			if len(added) > 0 {
				loosened = fmt.Sprintf("%s values added: %s", name, joinList(added))
			}
			return tightened, loosened
		}
	default:
		if !constraintEqual(oldVal, newVal) {
			// Unknown constraints are treated conservatively as tightening
			return fmt.Sprintf("%s changed %s -> %s", name, constraintValue(oldVal), constraintValue(newVal)), ""
		}
	}
	return "", ""
}

func sortedConstraintNames(old, new schema.Constraints) []string {
	seen := make(map[string]bool, len(old)+len(new))
	names := make([]string, 0, len(old)+len(new))
	for name := range old {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range new {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out, true
	}
	return nil, false
}

func missingFrom(from, in []string) []string {
	present := make(map[string]bool, len(in))
	for _, v := range in {
		present[v] = true
	}
	var missing []string
	for _, v := range from {
		if !present[v] {
			missing = append(missing, v)
		}
	}
	return missing
}

func constraintEqual(a, b any) bool {
	return constraintValue(a) == constraintValue(b)
}

func constraintValue(v any) string {
	if list, ok := toStringList(v); ok {
		return "[" + joinList(list) + "]"
	}
	return fmt.Sprintf("%v", v)
}

func joinList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

func joinPath(path []string) string {
	return Change{Path: path}.Location()
}

func childPath(path []string, name string) []string {
	child := make([]string, 0, len(path)+1)
	child = append(child, path...)
	return append(child, name)
}

// typeChange builds a TypeChanged record, carrying forward the identity key
// and widening classification that rule tables depend on.
func typeChange(path []string, oldType, newType string, old, new *schema.Node) Change {
	md := map[string]string{}
	if id := old.Meta(schema.MetaIdentity); id != "" {
		md[schema.MetaIdentity] = id
	}
	if isWidening(oldType, newType) && old.Meta(schema.MetaFixedWidth) != "true" && new.Meta(schema.MetaFixedWidth) != "true" {
		md[MetaWidening] = "true"
	}
	return Change{
		Path:        append([]string{}, path...),
		Kind:        ChangeTypeChanged,
		Description: fmt.Sprintf("type changed from %s to %s", oldType, newType),
		OldValue:    oldType,
		NewValue:    newType,
		Metadata:    md,
	}
}

// wideningPairs enumerates type changes every client can absorb: the new
// type's value space strictly contains the old one's.
var wideningPairs = map[[2]string]bool{
	{"int32", "int64"}:      true,
	{"uint32", "uint64"}:    true,
	{"sint32", "sint64"}:    true,
	{"float", "double"}:     true,
	{"integer", "number"}:   true,
	{"smallint", "integer"}: true,
	{"integer", "bigint"}:   true,
	{"smallint", "bigint"}:  true,
}

func isWidening(oldType, newType string) bool {
	return wideningPairs[[2]string{oldType, newType}]
}
