// Package translate expands validated, post-processed declaration objects
// into ordered, idempotent device-configuration commands.
//
// Each declared class has one translator function registered in a closed
// lookup table built at package initialization; an unrecognized class is
// an error from Translate, never a silent no-op. Translators are pure
// expansions: identical input produces byte-identical output. The only
// generated identifiers are deterministic, derived from the parent
// object's identity (uuid.NewSHA1), so re-translating the same object
// yields the same identifiers.
//
// Output order is significant: later commands may depend on earlier ones
// (an uploaded file must precede the config object referencing it), and
// declared list order determines device-side precedence (profile binding
// order, persistence fallback order).
//
// Behavior that differs across device software versions is driven by the
// versionGates table rather than inlined version checks.
package translate
