package declaration

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/jsonutil"
)

// Well-known class names and tree constants.
const (
	// ClassKey is the property naming an object's declared class.
	ClassKey = "class"

	// ClassADC is the declaration root class.
	ClassADC = "ADC"
	// ClassTenant is the class of first-level partition nodes.
	ClassTenant = "Tenant"
	// ClassApplication is the class of second-level folder nodes.
	ClassApplication = "Application"
	// ClassCertificate is the class of declared certificate items.
	ClassCertificate = "Certificate"

	// CommonTenant is the reserved tenant name. It never creates a
	// partition object and may host globally-shared items under an
	// implicit Shared application.
	CommonTenant = "Common"
	// SharedApplication is the application name that hosts shared items.
	SharedApplication = "Shared"

	// MaxPathLength is the maximum length of a full /Tenant/Application/Item
	// path, enforced both before and after expansion.
	MaxPathLength = 255
)

// Declaration is a decoded declaration document.
type Declaration map[string]any

// Parse decodes a declaration from JSON or YAML bytes.
func Parse(data []byte) (Declaration, error) {
	var d Declaration
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse declaration: %w", err)
	}
	return d, nil
}

// ClassOf returns the declared class of a tree node, or "" when the value
// is not an object or carries no class.
func ClassOf(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	class, _ := obj[ClassKey].(string)
	return class
}

// Class returns the declaration root class.
func (d Declaration) Class() string { return ClassOf(map[string]any(d)) }

// ID returns the declaration id, or "".
func (d Declaration) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Label returns the declaration label, or "".
func (d Declaration) Label() string {
	label, _ := d["label"].(string)
	return label
}

// SchemaVersion returns the declared schema version, or "".
func (d Declaration) SchemaVersion() string {
	v, _ := d["schemaVersion"].(string)
	return v
}

// Clone returns a deep copy of the declaration.
func (d Declaration) Clone() Declaration {
	return Declaration(jsonutil.DeepCopy(map[string]any(d)).(map[string]any))
}

// TenantNames returns the names of all Tenant nodes in lexical order.
// Lexical ordering keeps downstream command emission deterministic.
func (d Declaration) TenantNames() []string {
	var names []string
	for name, v := range d {
		if ClassOf(v) == ClassTenant {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Tenant returns the named Tenant node.
func (d Declaration) Tenant(name string) (map[string]any, bool) {
	v, ok := d[name]
	if !ok || ClassOf(v) != ClassTenant {
		return nil, false
	}
	return v.(map[string]any), true
}

// ApplicationNames returns the names of all Application nodes in a Tenant
// node, in lexical order.
func ApplicationNames(tenant map[string]any) []string {
	var names []string
	for name, v := range tenant {
		if ClassOf(v) == ClassApplication {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ItemNames returns the names of all declared objects in an Application
// node, in lexical order. Only class-carrying object members count as
// declared objects.
func ItemNames(app map[string]any) []string {
	var names []string
	for name, v := range app {
		if name == ClassKey {
			continue
		}
		if ClassOf(v) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// WalkFunc is invoked for each declared object during a Walk.
type WalkFunc func(tenant, app, item string, obj map[string]any) error

// Walk visits every declared object as Tenant -> Application -> item in
// lexical order, stopping at the first error.
func (d Declaration) Walk(fn WalkFunc) error {
	for _, tname := range d.TenantNames() {
		tenant, _ := d.Tenant(tname)
		for _, aname := range ApplicationNames(tenant) {
			app := tenant[aname].(map[string]any)
			for _, iname := range ItemNames(app) {
				if err := fn(tname, aname, iname, app[iname].(map[string]any)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// CheckPathLengths enforces the MaxPathLength invariant over every
// /Tenant/Application/Item path. The returned error names the literal
// offending path.
func (d Declaration) CheckPathLengths() error {
	return d.Walk(func(tenant, app, item string, _ map[string]any) error {
		path := "/" + tenant + "/" + app + "/" + item
		if len(path) > MaxPathLength {
			return &adcerrors.RequestError{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("path %s exceeds maximum length of %d characters", path, MaxPathLength),
			}
		}
		return nil
	})
}

// GetPointer resolves an RFC 6901 JSON Pointer against the declaration
// tree and returns the referenced value.
func (d Declaration) GetPointer(pointer string) (any, error) {
	pointer = strings.TrimPrefix(pointer, "#")
	if pointer == "" || pointer == "/" {
		return map[string]any(d), nil
	}

	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	current := any(map[string]any(d))
	for i, part := range parts {
		part = UnescapeToken(part)

		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("reference not found: /%s (missing key: %s)", strings.Join(parts[:i+1], "/"), part)
			}
			current = next

		case []any:
			index, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid array index '%s' in reference: /%s", part, strings.Join(parts[:i+1], "/"))
			}
			if index < 0 || index >= len(v) {
				return nil, fmt.Errorf("array index %d out of bounds (length %d) in reference: /%s", index, len(v), strings.Join(parts[:i+1], "/"))
			}
			current = v[index]

		default:
			return nil, fmt.Errorf("cannot traverse into type %T at /%s", v, strings.Join(parts[:i], "/"))
		}
	}

	return current, nil
}

// SetPointer replaces the value referenced by an RFC 6901 JSON Pointer.
// The parent container must already exist.
func (d Declaration) SetPointer(pointer string, value any) error {
	pointer = strings.TrimPrefix(pointer, "#")
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return fmt.Errorf("cannot replace the declaration root")
	}

	parts := strings.Split(pointer, "/")
	parentPtr := "/" + strings.Join(parts[:len(parts)-1], "/")
	if len(parts) == 1 {
		parentPtr = "/"
	}
	parent, err := d.GetPointer(parentPtr)
	if err != nil {
		return err
	}

	last := UnescapeToken(parts[len(parts)-1])
	switch v := parent.(type) {
	case map[string]any:
		v[last] = value
	case []any:
		index, err := strconv.Atoi(last)
		if err != nil || index < 0 || index >= len(v) {
			return fmt.Errorf("invalid array index '%s' at %s", last, pointer)
		}
		v[index] = value
	default:
		return fmt.Errorf("cannot set into type %T at %s", v, parentPtr)
	}
	return nil
}

// UnescapeToken unescapes a JSON Pointer token.
// Per RFC 6901, ~1 represents / and ~0 represents ~
func UnescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}
