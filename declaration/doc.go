// Package declaration models the declarative configuration document tree
// and its cross-reference ("AS3 pointer") syntax.
//
// A declaration is a tree of nested objects keyed by identifier strings.
// The root carries class "ADC", an id, and zero or more Tenant nodes; a
// Tenant contains Application nodes; an Application contains declared
// objects, each carrying a class naming its schema type.
//
// The package provides tree accessors, JSON Pointer get/set, AS3 pointer
// resolution (absolute and relative pointers with @-token substitution),
// the full-path length invariant, and duplicate-value detection for
// properties whose uniqueness the schema cannot express.
package declaration
