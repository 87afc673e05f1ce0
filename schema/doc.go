// Package schema compiles declaration schema documents into validation
// functions with custom formats and side-effecting keywords.
//
// One or more schema documents are registered by $id and compiled
// together; cross-document $refs are allowed between documents registered
// on the same Validator. Malformed documents or unresolvable $refs are
// fatal compilation errors, not validation failures.
//
// During validation the custom postProcess keyword records deferred
// instructions (secret resolution, pointer checks, remote fetches) in the
// order the owning keyword is visited: depth-first over the declaration
// tree, object properties in lexical order. The instruction list is
// call-scoped: every Validate call returns a fresh list and concurrent
// calls on the same Validator never interleave their instructions.
//
// Two profiles differ only in default-filling behavior: ProfileDefault
// populates schema defaults into the instance, ProfileRaw leaves only raw
// user input in place.
package schema
