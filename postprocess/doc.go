// Package postprocess executes the deferred instructions recorded by
// schema validation: pointer resolution and referenced-class checks,
// secret resolution, long-value dereferencing, resource checks, remote
// fetches, and device component existence checks.
//
// Instructions are executed grouped by tag because some tags carry
// cross-instruction invariants: every pointer instruction resolves before
// any bigComponent existence check that depends on resolved paths. Within
// a tag, recorded order is preserved.
//
// An instruction whose declaration target was removed by an earlier
// instruction is a soft warning, not a failure: pointer resolution and
// mutation can interleave legitimately.
package postprocess
