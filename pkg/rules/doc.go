// Package rules maps structural changes to compatibility severities.
//
// Policy is table-driven per format: each format owns an ordered rule table
// where the first matching rule decides a change's severity and remediation
// hint, falling through to format-neutral defaults. Rule tables consume the
// metadata side-channel the diff engine copies off normalized nodes (field
// identity, deprecation, nullability) to resolve format-specific overrides,
// such as protobuf treating a reused field number as fatal.
//
// Tables are plain values passed into a RuleSet, never process-wide state,
// so analyses with different policies can run concurrently.
package rules
