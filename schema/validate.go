package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/issues"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/jsonutil"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/severity"
)

// maxValidationDepth bounds schema recursion so a pathological $ref chain
// cannot overflow the stack.
const maxValidationDepth = 512

// Validate validates a declaration (or an array of declarations) against
// the schema document registered under schemaID. The Validator must be
// compiled first.
//
// When the instance is an array, each element is validated against the
// schema and instance pointers are prefixed with the element index.
func (v *Validator) Validate(schemaID string, instance any) (*Result, error) {
	if !v.compiled {
		return nil, fmt.Errorf("schema: validator is not compiled")
	}
	doc, ok := v.docs[schemaID]
	if !ok {
		return nil, fmt.Errorf("schema: unknown schema id %q", schemaID)
	}

	// Run state is allocated per call so the postProcess list is fresh
	// for every Validate and reentrant calls cannot interleave.
	r := &run{v: v, docID: schemaID, fill: v.profile == ProfileDefault, record: true}

	if arr, isArray := instance.([]any); isArray {
		for i, element := range arr {
			r.validate(doc, schemaID, element, "/"+strconv.Itoa(i), "#", 0)
		}
	} else {
		r.validate(doc, schemaID, instance, "", "#", 0)
	}

	return &Result{
		Valid:       len(r.errs) == 0,
		Errors:      r.errs,
		PostProcess: r.post,
	}, nil
}

// run holds the call-scoped state of one Validate call.
type run struct {
	v      *Validator
	docID  string
	errs   []Issue
	post   []Instruction
	fill   bool
	record bool
}

// speculate returns a scratch run used to evaluate anyOf/oneOf branches
// without recording instructions or filling defaults.
func (r *run) speculate() *run {
	return &run{v: r.v, docID: r.docID, fill: false, record: false}
}

func (r *run) addError(instPtr, schemaPtr, keyword, message string, value any) {
	r.errs = append(r.errs, issues.Issue{
		Instance: instPtr,
		Schema:   schemaPtr,
		Keyword:  keyword,
		Message:  message,
		Severity: severity.SeverityError,
		Value:    value,
	})
}

// validate applies one schema node to one instance location.
func (r *run) validate(schema any, docID string, instance any, instPtr, schemaPtr string, depth int) {
	if depth > maxValidationDepth {
		r.addError(instPtr, schemaPtr, "", "schema nesting exceeds maximum depth", nil)
		return
	}

	// Boolean schemas: true admits everything, false nothing.
	if allowed, isBool := schema.(bool); isBool {
		if !allowed {
			r.addError(instPtr, schemaPtr, "false", "no value is valid here", instance)
		}
		return
	}

	node, ok := schema.(map[string]any)
	if !ok {
		return
	}

	// $ref takes over the node entirely (draft-07 semantics).
	if ref, hasRef := node["$ref"].(string); hasRef {
		target, targetID, err := r.v.resolveRef(docID, ref)
		if err != nil {
			// Unresolvable refs are rejected at Compile; reaching this
			// means the validator was mutated after compilation.
			r.addError(instPtr, schemaPtr, "$ref", err.Error(), nil)
			return
		}
		r.validate(target, targetID, instance, instPtr, targetID+"#"+refFragment(ref), depth+1)
		return
	}

	r.recordPostProcess(node, docID, instPtr, schemaPtr)

	if typ, hasType := node["type"]; hasType {
		if !checkType(typ, instance) {
			r.addError(instPtr, schemaPtr, "type",
				fmt.Sprintf("should be of type %v", typ), instance)
			return
		}
	}

	if enum, hasEnum := node["enum"].([]any); hasEnum {
		matched := false
		for _, candidate := range enum {
			if jsonutil.DeepEqual(instance, candidate) {
				matched = true
				break
			}
		}
		if !matched {
			r.addError(instPtr, schemaPtr, "enum",
				fmt.Sprintf("should be one of %v", enum), instance)
		}
	}
	if constVal, hasConst := node["const"]; hasConst {
		if !jsonutil.DeepEqual(instance, constVal) {
			r.addError(instPtr, schemaPtr, "const",
				fmt.Sprintf("should equal %v", constVal), instance)
		}
	}

	switch value := instance.(type) {
	case string:
		r.validateString(node, value, instPtr, schemaPtr)
	case map[string]any:
		r.validateObject(node, docID, value, instPtr, schemaPtr, depth)
	case []any:
		r.validateArray(node, docID, value, instPtr, schemaPtr, depth)
	default:
		if f, isNumber := toFloat(instance); isNumber {
			r.validateNumber(node, f, instPtr, schemaPtr)
		}
	}

	r.validateCombinators(node, docID, instance, instPtr, schemaPtr, depth)
}

// recordPostProcess appends a deferred instruction when the visited
// subschema carries the postProcess keyword. Instructions are recorded
// pre-order, so parents precede their children in the list.
func (r *run) recordPostProcess(node map[string]any, docID, instPtr, schemaPtr string) {
	if !r.record {
		return
	}
	pp, ok := node["postProcess"].(map[string]any)
	if !ok {
		return
	}
	tag, _ := pp["tag"].(string)
	data := make(map[string]any, len(pp)-1)
	for k, v := range pp {
		if k != "tag" {
			data[k] = jsonutil.DeepCopy(v)
		}
	}
	r.post = append(r.post, Instruction{
		Tag:      Tag(tag),
		Data:     data,
		Instance: instPtr,
		Schema:   docID + schemaPtr + "/postProcess",
	})
}

func (r *run) validateString(node map[string]any, value, instPtr, schemaPtr string) {
	length := utf8.RuneCountInString(value)
	if min, ok := toInt(node["minLength"]); ok && length < min {
		r.addError(instPtr, schemaPtr, "minLength",
			fmt.Sprintf("should be at least %d characters", min), value)
	}
	if max, ok := toInt(node["maxLength"]); ok && length > max {
		r.addError(instPtr, schemaPtr, "maxLength",
			fmt.Sprintf("should be at most %d characters", max), value)
	}
	if pattern, ok := node["pattern"].(string); ok {
		// Patterns are verified compilable at Compile time.
		if re, err := regexp.Compile(pattern); err == nil && !re.MatchString(value) {
			r.addError(instPtr, schemaPtr, "pattern",
				fmt.Sprintf("should match pattern %q", pattern), value)
		}
	}
	if format, ok := node["format"].(string); ok {
		if fn, known := r.v.formats[format]; known && !fn(value) {
			r.addError(instPtr, schemaPtr, "format",
				fmt.Sprintf("should match format %q", format), value)
		}
	}
}

func (r *run) validateNumber(node map[string]any, value float64, instPtr, schemaPtr string) {
	if min, ok := toFloat(node["minimum"]); ok && value < min {
		r.addError(instPtr, schemaPtr, "minimum",
			fmt.Sprintf("should be >= %v", min), value)
	}
	if max, ok := toFloat(node["maximum"]); ok && value > max {
		r.addError(instPtr, schemaPtr, "maximum",
			fmt.Sprintf("should be <= %v", max), value)
	}
}

func (r *run) validateObject(node map[string]any, docID string, value map[string]any, instPtr, schemaPtr string, depth int) {
	if required, ok := node["required"].([]any); ok {
		for _, raw := range required {
			name, _ := raw.(string)
			if _, present := value[name]; !present {
				r.addError(instPtr, schemaPtr, "required",
					fmt.Sprintf("should have required property %q", name), nil)
			}
		}
	}

	properties, _ := node["properties"].(map[string]any)

	// Lexical property order keeps the recorded instruction order
	// deterministic; decoded maps carry no document order.
	for _, name := range sortedPropertyNames(properties) {
		propSchema := properties[name]
		childInst := instPtr + "/" + escapeToken(name)
		childSchema := schemaPtr + "/properties/" + escapeToken(name)
		if child, present := value[name]; present {
			r.validate(propSchema, docID, child, childInst, childSchema, depth+1)
			continue
		}
		if r.fill {
			if def, hasDefault := defaultOf(propSchema); hasDefault {
				value[name] = jsonutil.DeepCopy(def)
				r.validate(propSchema, docID, value[name], childInst, childSchema, depth+1)
			}
		}
	}

	switch extra := node["additionalProperties"].(type) {
	case bool:
		if !extra {
			for _, name := range sortedPropertyNames(value) {
				if _, declared := properties[name]; !declared {
					r.addError(instPtr, schemaPtr, "additionalProperties",
						fmt.Sprintf("should not have additional property %q", name), nil)
				}
			}
		}
	case map[string]any:
		for _, name := range sortedPropertyNames(value) {
			if _, declared := properties[name]; !declared {
				r.validate(extra, docID, value[name],
					instPtr+"/"+escapeToken(name), schemaPtr+"/additionalProperties", depth+1)
			}
		}
	}
}

func (r *run) validateArray(node map[string]any, docID string, value []any, instPtr, schemaPtr string, depth int) {
	if min, ok := toInt(node["minItems"]); ok && len(value) < min {
		r.addError(instPtr, schemaPtr, "minItems",
			fmt.Sprintf("should have at least %d items", min), nil)
	}
	if max, ok := toInt(node["maxItems"]); ok && len(value) > max {
		r.addError(instPtr, schemaPtr, "maxItems",
			fmt.Sprintf("should have at most %d items", max), nil)
	}

	if items, ok := node["items"]; ok {
		for i, element := range value {
			r.validate(items, docID, element,
				fmt.Sprintf("%s/%d", instPtr, i), schemaPtr+"/items", depth+1)
		}
	}

	// uniqueItems only ever applies to primitive arrays; object arrays
	// are rejected at Compile and handled by the duplicate validator.
	if unique, _ := node["uniqueItems"].(bool); unique {
		for i := 0; i < len(value); i++ {
			for j := i + 1; j < len(value); j++ {
				if jsonutil.DeepEqual(value[i], value[j]) {
					r.addError(instPtr, schemaPtr, "uniqueItems",
						fmt.Sprintf("should not have duplicate items (items %d and %d are equal)", i, j), value[i])
					return
				}
			}
		}
	}
}

func (r *run) validateCombinators(node map[string]any, docID string, instance any, instPtr, schemaPtr string, depth int) {
	if branches, ok := node["allOf"].([]any); ok {
		for i, branch := range branches {
			r.validate(branch, docID, instance, instPtr,
				fmt.Sprintf("%s/allOf/%d", schemaPtr, i), depth+1)
		}
	}

	if branches, ok := node["anyOf"].([]any); ok {
		winner := r.findPassingBranch(branches, docID, instance, depth)
		if winner < 0 {
			r.addError(instPtr, schemaPtr, "anyOf", "should match at least one schema in anyOf", instance)
		} else {
			r.validate(branches[winner], docID, instance, instPtr,
				fmt.Sprintf("%s/anyOf/%d", schemaPtr, winner), depth+1)
		}
	}

	if branches, ok := node["oneOf"].([]any); ok {
		passes := 0
		winner := -1
		for i, branch := range branches {
			s := r.speculate()
			s.validate(branch, docID, instance, instPtr, "", depth+1)
			if len(s.errs) == 0 {
				passes++
				if winner < 0 {
					winner = i
				}
			}
		}
		switch {
		case passes == 0:
			r.addError(instPtr, schemaPtr, "oneOf", "should match exactly one schema in oneOf (matched none)", instance)
		case passes > 1:
			r.addError(instPtr, schemaPtr, "oneOf",
				fmt.Sprintf("should match exactly one schema in oneOf (matched %d)", passes), instance)
		default:
			r.validate(branches[winner], docID, instance, instPtr,
				fmt.Sprintf("%s/oneOf/%d", schemaPtr, winner), depth+1)
		}
	}

	if branch, ok := node["not"]; ok {
		s := r.speculate()
		s.validate(branch, docID, instance, instPtr, "", depth+1)
		if len(s.errs) == 0 {
			r.addError(instPtr, schemaPtr, "not", "should not match the schema in not", instance)
		}
	}
}

// findPassingBranch speculatively evaluates branches and returns the
// index of the first that passes, or -1.
func (r *run) findPassingBranch(branches []any, docID string, instance any, depth int) int {
	for i, branch := range branches {
		s := r.speculate()
		s.validate(branch, docID, instance, "", "", depth+1)
		if len(s.errs) == 0 {
			return i
		}
	}
	return -1
}

// defaultOf returns the default declared directly on a property subschema.
func defaultOf(propSchema any) (any, bool) {
	node, ok := propSchema.(map[string]any)
	if !ok {
		return nil, false
	}
	def, has := node["default"]
	return def, has
}

// refFragment returns the fragment part of a $ref, without the leading #.
func refFragment(ref string) string {
	if idx := strings.Index(ref, "#"); idx >= 0 {
		return ref[idx+1:]
	}
	return ""
}

// checkType implements the JSON Schema type keyword over decoded values.
// typ may be a single type name or a list of names.
func checkType(typ any, instance any) bool {
	switch t := typ.(type) {
	case string:
		return checkSingleType(t, instance)
	case []any:
		for _, candidate := range t {
			if name, ok := candidate.(string); ok && checkSingleType(name, instance) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func checkSingleType(name string, instance any) bool {
	switch name {
	case "object":
		_, ok := instance.(map[string]any)
		return ok
	case "array":
		_, ok := instance.([]any)
		return ok
	case "string":
		_, ok := instance.(string)
		return ok
	case "boolean":
		_, ok := instance.(bool)
		return ok
	case "null":
		return instance == nil
	case "integer":
		f, ok := toFloat(instance)
		if _, isBool := instance.(bool); isBool {
			return false
		}
		return ok && f == float64(int64(f))
	case "number":
		if _, isBool := instance.(bool); isBool {
			return false
		}
		_, ok := toFloat(instance)
		return ok
	default:
		return false
	}
}

// toFloat normalizes the numeric types produced by JSON and YAML decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func sortedPropertyNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
