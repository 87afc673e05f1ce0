package declaration

import (
	"sort"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/jsonutil"
)

// duplicateProperties is the fixed set of property names whose arrays
// require uniqueness the schema cannot express. Arrays of objects cannot
// use the schema uniqueItems keyword (it is banned for object arrays
// because it can hang the validator), so uniqueness is enforced here with
// deep structural equality instead.
//
// Matching is by property name anywhere in the tree, without path
// context: two unrelated arrays sharing one of these names receive the
// same treatment. This coarse-grained behavior is deliberate and
// preserved for compatibility.
var duplicateProperties = map[string]bool{
	"iRules":             true,
	"persistenceMethods": true,
	"monitors":           true,
	"tcpOptions":         true,
	"certificates":       true,
	"members":            true,
	"doNotProxyHosts":    true,
	"rules":              true,
}

// DuplicateResult reports the outcome of a duplicate-value scan.
type DuplicateResult struct {
	// IsDuplicate is true when any checked array holds two equal elements
	IsDuplicate bool
	// Property is the offending property name (not its full path)
	Property string
}

// HasDuplicate recursively searches a declaration subtree for arrays
// under the fixed duplicate-checked property names and reports the first
// array holding two structurally equal elements. Object elements are
// compared by deep equality, primitives by value equality. The scan
// short-circuits on the first duplicate found.
func HasDuplicate(v any) DuplicateResult {
	switch val := v.(type) {
	case map[string]any:
		// Lexical key order keeps the reported property deterministic
		// when more than one array holds duplicates.
		for _, name := range sortedKeys(val) {
			child := val[name]
			if duplicateProperties[name] {
				if arr, ok := child.([]any); ok && hasDuplicateElement(arr) {
					return DuplicateResult{IsDuplicate: true, Property: name}
				}
			}
			if r := HasDuplicate(child); r.IsDuplicate {
				return r
			}
		}
	case []any:
		for _, item := range val {
			if r := HasDuplicate(item); r.IsDuplicate {
				return r
			}
		}
	}
	return DuplicateResult{}
}

// hasDuplicateElement checks all element pairs for structural equality.
func hasDuplicateElement(arr []any) bool {
	for i := 0; i < len(arr); i++ {
		for j := i + 1; j < len(arr); j++ {
			if jsonutil.DeepEqual(arr[i], arr[j]) {
				return true
			}
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
