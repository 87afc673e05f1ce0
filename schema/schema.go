package schema

import (
	"fmt"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/issues"
)

// Profile selects the default-filling behavior of a Validator.
type Profile int

const (
	// ProfileDefault populates schema defaults into validated instances.
	ProfileDefault Profile = iota
	// ProfileRaw does not populate defaults; only raw user input survives.
	// Used for systems where the stored document must reflect exactly what
	// the user submitted.
	ProfileRaw
)

// FormatFunc checks a string value against a named format.
type FormatFunc func(value string) bool

// Issue is a single schema validation issue.
type Issue = issues.Issue

// Result contains the outcome of one Validate call.
type Result struct {
	// Valid is true if no errors were found
	Valid bool
	// Errors contains all validation errors
	Errors []Issue
	// PostProcess is the ordered list of deferred instructions recorded
	// by custom keywords during this call. The slice is freshly allocated
	// on every call.
	PostProcess []Instruction
}

// Validator compiles schema documents and validates declarations against
// them. Register all documents, then Compile once, then Validate any
// number of times. Validation-run state is call-scoped, so a compiled
// Validator is safe for concurrent Validate calls.
type Validator struct {
	docs     map[string]map[string]any
	profile  Profile
	formats  map[string]FormatFunc
	compiled bool
}

// Option configures a Validator.
type Option func(*Validator) error

// WithProfile selects the default-filling profile.
// Default: ProfileDefault.
func WithProfile(p Profile) Option {
	return func(v *Validator) error {
		v.profile = p
		return nil
	}
}

// WithFormat registers a custom format checker. Registering a name twice
// replaces the earlier checker.
func WithFormat(name string, fn FormatFunc) Option {
	return func(v *Validator) error {
		if name == "" || fn == nil {
			return fmt.Errorf("format name and checker are required")
		}
		v.formats[name] = fn
		return nil
	}
}

// New creates a Validator with the built-in format checkers.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		docs:    make(map[string]map[string]any),
		formats: builtinFormats(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("schema: invalid options: %w", err)
		}
	}
	return v, nil
}

// Register adds a schema document under the given $id. All documents must
// be registered before Compile.
func (v *Validator) Register(id string, doc map[string]any) error {
	if v.compiled {
		return fmt.Errorf("schema: cannot register %q after compilation", id)
	}
	if id == "" {
		return fmt.Errorf("schema: document $id is required")
	}
	if _, dup := v.docs[id]; dup {
		return fmt.Errorf("schema: duplicate document $id %q", id)
	}
	v.docs[id] = doc
	return nil
}

// RegisterBytes decodes a JSON or YAML schema document and registers it
// under the $id the document declares.
func (v *Validator) RegisterBytes(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &adcerrors.SchemaCompileError{Message: "failed to parse schema document", Cause: err}
	}
	id, _ := doc["$id"].(string)
	if id == "" {
		return &adcerrors.SchemaCompileError{Message: "schema document has no $id"}
	}
	return v.Register(id, doc)
}

// Compile validates and links all registered documents. Unresolvable
// $refs, unknown postProcess tags, uncompilable patterns, unknown
// formats, and uniqueItems on arrays of objects are all fatal
// SchemaCompileErrors. After a successful Compile the Validator is
// immutable.
func (v *Validator) Compile() error {
	for id, doc := range v.docs {
		if err := v.checkSubschema(id, doc, "#"); err != nil {
			return err
		}
	}
	v.compiled = true
	return nil
}

// checkSubschema recursively audits one schema node at compile time.
func (v *Validator) checkSubschema(docID string, node any, ptr string) error {
	schema, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	if ref, ok := schema["$ref"].(string); ok {
		if _, _, err := v.resolveRef(docID, ref); err != nil {
			return &adcerrors.SchemaCompileError{SchemaID: docID, Ref: ref, Cause: err}
		}
	}

	if raw, present := schema["postProcess"]; present {
		pp, ok := raw.(map[string]any)
		if !ok {
			return &adcerrors.SchemaCompileError{SchemaID: docID, Message: fmt.Sprintf("postProcess at %s must be an object", ptr)}
		}
		tag, _ := pp["tag"].(string)
		if !knownTags[Tag(tag)] {
			return &adcerrors.SchemaCompileError{SchemaID: docID, Message: fmt.Sprintf("postProcess at %s has unknown tag %q", ptr, tag)}
		}
	}

	if pattern, ok := schema["pattern"].(string); ok {
		if _, err := regexp.Compile(pattern); err != nil {
			return &adcerrors.SchemaCompileError{SchemaID: docID, Message: fmt.Sprintf("invalid pattern at %s", ptr), Cause: err}
		}
	}

	if format, ok := schema["format"].(string); ok {
		if _, known := v.formats[format]; !known {
			return &adcerrors.SchemaCompileError{SchemaID: docID, Message: fmt.Sprintf("unknown format %q at %s", format, ptr)}
		}
	}

	// uniqueItems on arrays of objects or $refs is banned at the
	// schema-authoring level: it is known to hang validators. Object-array
	// uniqueness belongs to the dedicated duplicate validator.
	if unique, _ := schema["uniqueItems"].(bool); unique {
		if items, ok := schema["items"].(map[string]any); ok {
			_, hasRef := items["$ref"]
			_, hasProps := items["properties"]
			if hasRef || hasProps || items["type"] == "object" {
				return &adcerrors.SchemaCompileError{
					SchemaID: docID,
					Message:  fmt.Sprintf("uniqueItems at %s applies to an array of objects; use the duplicate validator instead", ptr),
				}
			}
		}
	}

	// Descend into every subschema-bearing keyword.
	for _, key := range []string{"items", "additionalProperties", "not"} {
		if child, ok := schema[key]; ok {
			if err := v.checkSubschema(docID, child, ptr+"/"+key); err != nil {
				return err
			}
		}
	}
	for _, key := range []string{"properties", "definitions", "patternProperties"} {
		if children, ok := schema[key].(map[string]any); ok {
			for name, child := range children {
				if err := v.checkSubschema(docID, child, ptr+"/"+key+"/"+escapeToken(name)); err != nil {
					return err
				}
			}
		}
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if children, ok := schema[key].([]any); ok {
			for i, child := range children {
				if err := v.checkSubschema(docID, child, fmt.Sprintf("%s/%s/%d", ptr, key, i)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// resolveRef resolves a $ref of the form "#/definitions/X" (same
// document) or "other-id#/definitions/X" (cross-document) and returns the
// referenced subschema plus the id of the document that owns it.
func (v *Validator) resolveRef(docID, ref string) (any, string, error) {
	targetID := docID
	fragment := ref
	if idx := strings.Index(ref, "#"); idx > 0 {
		targetID = ref[:idx]
		fragment = ref[idx:]
	} else if idx < 0 {
		targetID = ref
		fragment = "#"
	}

	doc, ok := v.docs[targetID]
	if !ok {
		return nil, "", fmt.Errorf("schema document %q is not registered", targetID)
	}

	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" || fragment == "/" {
		return doc, targetID, nil
	}

	current := any(doc)
	parts := strings.Split(strings.TrimPrefix(fragment, "/"), "/")
	for i, part := range parts {
		part = unescapeToken(part)
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("cannot traverse into %T at #/%s", current, strings.Join(parts[:i], "/"))
		}
		next, ok := obj[part]
		if !ok {
			return nil, "", fmt.Errorf("reference not found: #/%s", strings.Join(parts[:i+1], "/"))
		}
		current = next
	}
	return current, targetID, nil
}

// escapeToken escapes a JSON Pointer token per RFC 6901.
func escapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return token
}

// unescapeToken unescapes a JSON Pointer token per RFC 6901.
func unescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}
