package schema

// Tag identifies the kind of deferred side effect a postProcess keyword
// records during validation.
type Tag string

// The known instruction tags, in their post-processing execution order
// (see the postprocess package).
const (
	// TagPointer resolves an AS3 pointer and checks the referenced class.
	TagPointer Tag = "pointer"
	// TagSecret resolves a mini-JWE cryptogram to plaintext or re-encrypts
	// plaintext into a cryptogram.
	TagSecret Tag = "secret"
	// TagLongSecret stores a long secret on the device and replaces the
	// value with the device secret handle.
	TagLongSecret Tag = "longSecret"
	// TagCheckResource verifies a referenced resource is retrievable.
	TagCheckResource Tag = "checkResource"
	// TagFetch retrieves remote URL content for policies or certificates.
	TagFetch Tag = "fetch"
	// TagBigComponent checks that a referenced device component exists.
	TagBigComponent Tag = "bigComponent"
)

// knownTags is the closed set accepted by schema compilation.
var knownTags = map[Tag]bool{
	TagPointer:       true,
	TagSecret:        true,
	TagLongSecret:    true,
	TagCheckResource: true,
	TagFetch:         true,
	TagBigComponent:  true,
}

// Instruction is one deferred side-effect action recorded during schema
// validation and executed afterward in recorded order.
type Instruction struct {
	// Tag names the instruction kind
	Tag Tag
	// Data is the keyword's configuration from the schema document
	// (everything in the postProcess object besides "tag")
	Data map[string]any
	// Instance is the JSON pointer to the declaration location the
	// keyword matched
	Instance string
	// Schema is the JSON pointer to the owning keyword in its schema
	// document, prefixed with the document $id
	Schema string
}
