// Package diff structurally compares two normalized schema trees and emits
// an ordered sequence of Change records.
//
// The engine is format-agnostic: it assigns no severities and consults no
// policy. It matches object members by a format-specific identity key when
// one is present, falling back to the member name, so that a
// renamed-but-identity-stable member is reported as Renamed instead of a
// Removed/Added pair and a renumbered member is not mistaken for an
// unchanged one. Traversal
// is deterministic: members are visited in the old tree's declared order
// first, then new-only members in the new tree's declared order, so repeated
// runs over identical inputs produce identical output.
//
// Severity classification belongs to package rules; score aggregation to
// package score.
package diff
