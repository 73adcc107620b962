package diff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChangeKind classifies the structural shape of a change
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeTypeChanged
	ChangeConstraintTightened
	ChangeConstraintLoosened
	ChangeRequirednessChanged
	ChangeRenamed
	ChangeOther
)

func (k ChangeKind) String() string {
	return []string{
		"added", "removed", "type_changed", "constraint_tightened",
		"constraint_loosened", "requiredness_changed", "renamed", "other",
	}[k]
}

// MarshalJSON renders the kind as its string name
func (k ChangeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a kind from its string name
func (k *ChangeKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseChangeKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseChangeKind parses a change kind name
func ParseChangeKind(s string) (ChangeKind, error) {
	kinds := map[string]ChangeKind{
		"added":                ChangeAdded,
		"removed":              ChangeRemoved,
		"type_changed":         ChangeTypeChanged,
		"constraint_tightened": ChangeConstraintTightened,
		"constraint_loosened":  ChangeConstraintLoosened,
		"requiredness_changed": ChangeRequirednessChanged,
		"renamed":              ChangeRenamed,
		"other":                ChangeOther,
	}
	if k, ok := kinds[s]; ok {
		return k, nil
	}
	return ChangeOther, fmt.Errorf("unknown change kind: %s", s)
}

// Severity indicates how a classified change affects compatibility
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityBreaking
)

func (s Severity) String() string {
	return []string{"info", "warning", "breaking"}[s]
}

// MarshalJSON renders the severity as its string name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity from its string name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a severity name
func ParseSeverity(s string) (Severity, error) {
	levels := map[string]Severity{
		"info":     SeverityInfo,
		"warning":  SeverityWarning,
		"breaking": SeverityBreaking,
	}
	if lvl, ok := levels[s]; ok {
		return lvl, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity: %s", s)
}

// Change metadata keys populated by the diff engine and consumed by rule
// tables.
const (
	// MetaRequired is "true" on an Added change when the new member is in
	// its container's required set.
	MetaRequired = "required"

	// MetaWidening is "true" on a TypeChanged change when the new type
	// strictly widens the old one (int32 to int64, integer to number).
	MetaWidening = "widening"

	// MetaConstraints lists the constraint names involved in a
	// ConstraintTightened or ConstraintLoosened change.
	MetaConstraints = "constraints"

	// MetaIdentityChanged is "true" on an Other change when a member kept
	// its name but its identity key moved to a different value.
	MetaIdentityChanged = "identityChanged"
)

// Change is a single structural difference between two schema versions.
// Severity and Breaking are zero until a rule table classifies the change.
type Change struct {
	Path        []string          `json:"location"`
	Kind        ChangeKind        `json:"kind"`
	Severity    Severity          `json:"severity"`
	Breaking    bool              `json:"is_breaking"`
	Description string            `json:"description"`
	OldValue    string            `json:"old_value,omitempty"`
	NewValue    string            `json:"new_value,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Location renders the path as a slash-joined string for display
func (c Change) Location() string {
	if len(c.Path) == 0 {
		return "/"
	}
	return strings.Join(c.Path, "/")
}

// Container returns the path of the enclosing entity (the path minus its
// final element). Changes sharing a container form one dependency group for
// migration ordering.
func (c Change) Container() string {
	if len(c.Path) < 2 {
		return ""
	}
	return strings.Join(c.Path[:len(c.Path)-1], "/")
}

// Meta returns the metadata value for key, or "" when absent
func (c Change) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
