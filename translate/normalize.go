package translate

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

// Ref is a normalized reference to a device object: a full device path
// plus whether it names a pre-existing device object ("bigip") rather
// than one produced by this declaration.
type Ref struct {
	Path      string
	FromBigip bool
}

// shortenKinds names the reference property kinds whose 4-segment device
// paths collapse to 2 segments: the device resolves these objects by
// partition and name only, so the intermediate folder segments are
// dropped.
var shortenKinds = map[string]bool{
	"profile": true,
	"policy":  true,
}

// normalizeRef normalizes one reference value into a device path.
//
// Accepted shapes:
//   - plain string: an object name; unqualified names resolve to the
//     declaring application, names with "/" are taken as full paths
//   - {"use": name-or-path}: an object declared in this declaration
//   - {"bigip": path}: a pre-existing device object
//
// kind selects path shortening for bigip references (see shortenKinds).
// Route domains found on bigip service-address paths are recorded in the
// context for later destination resolution.
func normalizeRef(tc *Context, tenantID, appID string, value any, kind string) (Ref, error) {
	switch v := value.(type) {
	case string:
		return Ref{Path: qualifyPath(tenantID, appID, v)}, nil
	case map[string]any:
		if use, ok := v["use"].(string); ok {
			return Ref{Path: qualifyPath(tenantID, appID, use)}, nil
		}
		if bigip, ok := v["bigip"].(string); ok {
			path := bigip
			if shortenKinds[kind] {
				path = shortenBigipPath(path)
			}
			if rd, ok := routeDomainFromPath(path); ok {
				tc.RouteDomainMeta[path] = rd
			}
			return Ref{Path: path, FromBigip: true}, nil
		}
	}
	return Ref{}, &adcerrors.RequestError{
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("reference in /%s/%s is neither a name, a use pointer, nor a bigip path", tenantID, appID),
	}
}

// normalizeRefList normalizes a single reference or an array of
// references, preserving declared order. Declared order is device
// precedence order and must survive translation.
func normalizeRefList(tc *Context, tenantID, appID string, value any, kind string) ([]Ref, error) {
	var raw []any
	switch v := value.(type) {
	case []any:
		raw = v
	default:
		raw = []any{value}
	}
	refs := make([]Ref, 0, len(raw))
	for _, entry := range raw {
		ref, err := normalizeRef(tc, tenantID, appID, entry, kind)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// qualifyPath expands an object name to a device path. Names containing
// "/" are already paths; bare names live in the declaring application.
func qualifyPath(tenantID, appID, name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return "/" + tenantID + "/" + appID + "/" + name
}

// shortenBigipPath collapses a 4-segment device path to partition+name.
func shortenBigipPath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) == 4 {
		return "/" + segments[0] + "/" + segments[3]
	}
	return path
}

// routeDomainFromPath extracts a %N route-domain suffix from the final
// segment of a device path.
func routeDomainFromPath(path string) (int, bool) {
	idx := strings.LastIndex(path, "%")
	if idx < 0 {
		return 0, false
	}
	rd, err := strconv.Atoi(path[idx+1:])
	if err != nil {
		return 0, false
	}
	return rd, true
}

// splitRouteDomain separates an address from its %N route-domain suffix.
func splitRouteDomain(address string) (string, int, bool) {
	idx := strings.LastIndex(address, "%")
	if idx < 0 {
		return address, 0, false
	}
	rd, err := strconv.Atoi(address[idx+1:])
	if err != nil {
		return address, 0, false
	}
	return address[:idx], rd, true
}

// filterProps deletes properties not named by any of the allow-lists.
// Translators expand generically and then filter so that device payloads
// carry only the properties the subtype supports.
func filterProps(props map[string]any, allowed ...map[string]bool) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		keep := false
		for _, set := range allowed {
			if set[name] {
				keep = true
				break
			}
		}
		if !keep {
			delete(props, name)
		}
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
