// Package digest runs a declaration through the full intake pipeline:
// schema validation with deferred instruction collection, identifier and
// path-length checks, duplicate detection, device environment gathering,
// post-processing (pointer resolution, secret handling, remote fetches,
// device component checks), secret carry-forward from the previously
// stored declaration, certificate structural checks, and finally the
// version-gated business rules.
//
// The pipeline is hard-gated: each stage runs only if every prior stage
// succeeded, so later stages can assume the guarantees earlier ones
// establish (post-processing sees a schema-valid declaration, the
// translators downstream see resolved absolute paths).
//
// A digest with no device collaborators (a nil Host) is a "scratch" run:
// validation and local transforms happen, device-dependent steps degrade
// to warnings. This serves offline declaration linting.
package digest
