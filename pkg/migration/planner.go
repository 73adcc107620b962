// Package migration orders classified changes into an executable sequence
// of migration steps.
//
// The planner decides order and abstract instruction shape only; rendering
// an instruction into format-specific text (an ALTER TABLE statement, a
// proto field edit) belongs to the owning format adapter.
package migration

import (
	"strconv"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/diff"
)

// Op is the abstract operation an instruction performs
type Op int

const (
	OpDrop Op = iota
	OpRename
	OpModify
	OpAdd
	OpRequire
	OpRelax
	OpNote
)

func (o Op) String() string {
	return []string{
		"drop", "rename", "modify", "add", "require", "relax", "note",
	}[o]
}

// Instruction pairs an abstract operation with the change that motivated it
type Instruction struct {
	Op     Op
	Path   []string
	Change diff.Change
}

// Renderer converts an abstract instruction into a format-specific
// statement. Format adapters implement it.
type Renderer interface {
	Render(inst Instruction) (string, error)
}

// Plan is an ordered sequence of rendered migration steps. Step order is a
// correctness property: destructive steps precede the additions that reuse
// their slots, and requiring a member always follows the step that adds it.
type Plan struct {
	Steps    []string          `json:"steps"`
	Metadata map[string]string `json:"metadata"`
}

// Empty reports whether the plan has no steps
func (p *Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Planner builds migration plans from classified change sequences
type Planner struct{}

// NewPlanner creates a Planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan orders changes into dependency groups (one per container, in first
// appearance order) and renders each group's instructions through r.
//
// Within a group: drops come first so removed names and slots are free,
// renames are atomic instructions rather than drop/add pairs, then type and
// constraint modifications, then additions, and finally optional-to-required
// transitions, which must never precede the addition that populates the
// member.
func (p *Planner) Plan(changes []diff.Change, r Renderer) (*Plan, error) {
	groups := make(map[string][]Instruction)
	var order []string

	for _, c := range changes {
		inst := Instruction{Op: opFor(c), Path: c.Path, Change: c}
		key := c.Container()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], inst)
	}

	plan := &Plan{
		Steps:    make([]string, 0, len(changes)),
		Metadata: map[string]string{"total_changes": strconv.Itoa(len(changes))},
	}

	for _, key := range order {
		for _, inst := range sequence(groups[key]) {
			step, err := r.Render(inst)
			if err != nil {
				return nil, err
			}
			if step == "" {
				continue
			}
			plan.Steps = append(plan.Steps, step)
		}
	}
	return plan, nil
}

// phase buckets preserve relative order of instructions within a phase, so
// the overall plan stays deterministic.
var phaseOrder = []Op{OpDrop, OpRename, OpModify, OpAdd, OpRequire, OpRelax, OpNote}

func sequence(group []Instruction) []Instruction {
	out := make([]Instruction, 0, len(group))
	for _, phase := range phaseOrder {
		for _, inst := range group {
			if inst.Op == phase {
				out = append(out, inst)
			}
		}
	}
	return out
}

func opFor(c diff.Change) Op {
	switch c.Kind {
	case diff.ChangeRemoved:
		return OpDrop
	case diff.ChangeRenamed:
		return OpRename
	case diff.ChangeAdded:
		return OpAdd
	case diff.ChangeTypeChanged, diff.ChangeConstraintTightened, diff.ChangeConstraintLoosened:
		return OpModify
	case diff.ChangeRequirednessChanged:
		if c.NewValue == "required" {
			return OpRequire
		}
		return OpRelax
	}
	return OpNote
}
