// Package postvalidate applies business rules that cannot be expressed
// in the declaration schema: feature availability gated on the target
// device's software version, and a post-expansion re-check of the
// path-length invariant.
//
// The version rules are inherently matrix data, not structural
// constraints, so they live in one readable table of predicates over
// declared objects rather than being spread through schema keywords.
package postvalidate
