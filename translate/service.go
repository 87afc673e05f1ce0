package translate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/jsonutil"
)

// destKind discriminates how a service names its listeners.
type destKind int

const (
	// destInline is a literal IP address in virtualAddresses
	destInline destKind = iota
	// destDeclared references a Service_Address declared elsewhere in
	// this declaration
	destDeclared
	// destBigipAddress references a pre-existing device virtual-address
	destBigipAddress
	// destAddressList references an address list and requires
	// traffic-matching-criteria support on the device
	destAddressList
)

// destination is one resolved listener target. The tagged variants are
// resolved once from the declared shapes so the emission loop below never
// re-inspects raw declaration values.
type destination struct {
	kind destKind

	// address is the bare IP, without any route-domain suffix
	address string
	// routeDomain qualifies address when hasRouteDomain is true
	routeDomain    int
	hasRouteDomain bool

	// vaPath is the device path of the virtual-address object backing
	// this destination (empty for address lists)
	vaPath string
	// synthesize is true when this translation must emit the
	// virtual-address config itself
	synthesize bool

	// listPath is the address-list device path for destAddressList
	listPath string
}

// resolveDestinations interprets the service's virtualAddresses (or
// addressList reference) into tagged destinations. Route-domain priority
// for inline addresses: explicit %N suffix, then bigip reference
// metadata, then the tenant default route domain.
func resolveDestinations(tc *Context, tenantID, appID string, item map[string]any, decl declaration.Declaration) ([]destination, error) {
	if listRef, ok := item["addressList"]; ok {
		ref, err := normalizeRef(tc, tenantID, appID, listRef, "addressList")
		if err != nil {
			return nil, err
		}
		return []destination{{kind: destAddressList, listPath: ref.Path}}, nil
	}

	raw, ok := item["virtualAddresses"].([]any)
	if !ok || len(raw) == 0 {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("service in /%s/%s declares no virtualAddresses", tenantID, appID),
		}
	}

	dests := make([]destination, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			dest := destination{kind: destInline, synthesize: true}
			addr, rd, hasRD := splitRouteDomain(v)
			dest.address = normalizeWildcard(addr)
			if hasRD {
				dest.routeDomain, dest.hasRouteDomain = rd, true
			} else if tenantRD, ok := tc.DefaultRouteDomains[tenantID]; ok && tenantRD != 0 {
				dest.routeDomain, dest.hasRouteDomain = tenantRD, true
			}
			dest.vaPath = "/" + tenantID + "/" + virtualAddressName(dest)
			dests = append(dests, dest)
		case map[string]any:
			dest, err := resolveAddressRef(tc, tenantID, appID, v, decl)
			if err != nil {
				return nil, err
			}
			dests = append(dests, dest)
		default:
			return nil, &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("virtualAddresses entry in /%s/%s has unsupported type", tenantID, appID),
			}
		}
	}
	return dests, nil
}

// resolveAddressRef handles {"use": ...} and {"bigip": ...} entries in
// virtualAddresses. A use reference must name a Service_Address declared
// in this declaration; its virtual-address object lives at tenant scope.
func resolveAddressRef(tc *Context, tenantID, appID string, entry map[string]any, decl declaration.Declaration) (destination, error) {
	if use, ok := entry["use"].(string); ok {
		path := qualifyPath(tenantID, appID, use)
		target, err := decl.GetPointer(path)
		if err != nil {
			return destination{}, &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("virtualAddresses use reference %s does not resolve", use),
				Cause:   err,
			}
		}
		obj, _ := target.(map[string]any)
		if declaration.ClassOf(obj) != "Service_Address" {
			return destination{}, &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("virtualAddresses use reference %s is not a Service_Address", use),
			}
		}
		addrValue, _ := obj["virtualAddress"].(string)
		addr, rd, hasRD := splitRouteDomain(addrValue)
		name := path[strings.LastIndex(path, "/")+1:]
		return destination{
			kind:           destDeclared,
			address:        normalizeWildcard(addr),
			routeDomain:    rd,
			hasRouteDomain: hasRD,
			// Service_Address objects are created at tenant scope.
			vaPath: "/" + tenantID + "/" + name,
		}, nil
	}

	if bigip, ok := entry["bigip"].(string); ok {
		segments := strings.Split(strings.TrimPrefix(bigip, "/"), "/")
		last := segments[len(segments)-1]
		addr, rd, hasRD := splitRouteDomain(last)
		dest := destination{
			kind:           destBigipAddress,
			address:        normalizeWildcard(addr),
			routeDomain:    rd,
			hasRouteDomain: hasRD,
			vaPath:         bigip,
		}
		if !hasRD {
			if metaRD, ok := tc.RouteDomainMeta[bigip]; ok {
				dest.routeDomain, dest.hasRouteDomain = metaRD, true
			}
		}
		return dest, nil
	}

	return destination{}, &adcerrors.RequestError{
		Status:  http.StatusUnprocessableEntity,
		Message: "virtualAddresses entry must be an address, a use reference, or a bigip reference",
	}
}

// normalizeWildcard maps the catch-all addresses to their device names.
func normalizeWildcard(addr string) string {
	switch addr {
	case "0.0.0.0", "0.0.0.0/0":
		return "any"
	case "::", "::/0":
		return "any6"
	}
	return addr
}

// virtualAddressName builds the device object name for a synthesized
// virtual-address. Non-zero route domains are part of the name so
// addresses in different route domains stay distinct objects.
func virtualAddressName(dest destination) string {
	name := dest.address
	if dest.hasRouteDomain && dest.routeDomain != 0 {
		name = fmt.Sprintf("%s%%%d", name, dest.routeDomain)
	}
	return name
}

// formatDestination renders a destination for the virtual-server config.
// IPv6 addresses join the port with "." since ":" is ambiguous there.
func formatDestination(tenantID string, dest destination, port int) string {
	addr := dest.address
	if dest.hasRouteDomain && dest.routeDomain != 0 {
		addr = fmt.Sprintf("%s%%%d", addr, dest.routeDomain)
	}
	sep := ":"
	if strings.Contains(dest.address, ":") {
		sep = "."
	}
	return fmt.Sprintf("/%s/%s%s%d", tenantID, addr, sep, port)
}

// serviceCore is the shared expansion for all service classes. proto is
// the device ipProtocol, baseProfiles are the protocol-implied profiles
// bound before any declared ones.
func serviceCore(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration, proto string, baseProfiles []Ref) (*Result, error) {
	result := &Result{}

	props := map[string]any{
		"ipProtocol": proto,
		"enabled":    boolOr(item["enable"], true),
	}
	if source, ok := item["sourceAddress"].(string); ok {
		props["source"] = source
	} else {
		props["source"] = "0.0.0.0/0"
	}

	profiles := append([]Ref(nil), baseProfiles...)
	for _, prop := range []string{"profileTCP", "profileUDP", "profileHTTP", "profileHTTP2", "profileMultiplex"} {
		if value, ok := item[prop]; ok {
			ref, err := normalizeRef(tc, tenantID, appID, value, "profile")
			if err != nil {
				return nil, err
			}
			profiles = append(profiles, ref)
		}
	}
	if len(profiles) > 0 {
		paths := make([]string, len(profiles))
		for i, ref := range profiles {
			paths[i] = ref.Path
		}
		props["profiles"] = paths
	}

	if poolRef, ok := item["pool"]; ok {
		ref, err := normalizeRef(tc, tenantID, appID, poolRef, "pool")
		if err != nil {
			return nil, err
		}
		props["pool"] = ref.Path
	}

	if rules, ok := item["iRules"]; ok {
		refs, err := normalizeRefList(tc, tenantID, appID, rules, "rule")
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(refs))
		for i, ref := range refs {
			paths[i] = ref.Path
		}
		props["rules"] = paths
	}

	if methods, ok := item["persistenceMethods"].([]any); ok {
		persist := make([]string, 0, len(methods))
		for _, method := range methods {
			if name, ok := method.(string); ok {
				persist = append(persist, "/Common/"+name)
				continue
			}
			ref, err := normalizeRef(tc, tenantID, appID, method, "persist")
			if err != nil {
				return nil, err
			}
			persist = append(persist, ref.Path)
		}
		// First entry is the default method; the rest keep declared
		// fallback order.
		props["persist"] = persist
	}

	if policy, ok := item["policyEndpoint"]; ok {
		ref, err := normalizeRef(tc, tenantID, appID, policy, "policy")
		if err != nil {
			return nil, err
		}
		props["policies"] = []string{ref.Path}
	}

	// Internal virtual servers have no listener address at all.
	if virtualType, _ := item["virtualType"].(string); virtualType == "internal" {
		props["internal"] = true
		result.Configs = append(result.Configs, Config{
			Command:    "ltm virtual",
			Path:       "/" + tenantID + "/" + appID + "/" + itemID,
			Properties: props,
		})
		return result, nil
	}

	port, ok := toInt(item["virtualPort"])
	if !ok {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("service /%s/%s/%s has no usable virtualPort", tenantID, appID, itemID),
		}
	}

	dests, err := resolveDestinations(tc, tenantID, appID, item, decl)
	if err != nil {
		return nil, err
	}

	// Synthesized virtual-addresses come first so virtual servers can
	// reference them.
	for _, dest := range dests {
		if !dest.synthesize || tc.seenVirtualAddresses[dest.vaPath] {
			continue
		}
		tc.seenVirtualAddresses[dest.vaPath] = true
		addr := dest.address
		if dest.hasRouteDomain && dest.routeDomain != 0 {
			addr = fmt.Sprintf("%s%%%d", addr, dest.routeDomain)
		}
		result.Configs = append(result.Configs, Config{
			Command: "ltm virtual-address",
			Path:    dest.vaPath,
			Properties: map[string]any{
				"address":     addr,
				"arp":         "enabled",
				"icmp-echo":   "enabled",
				"auto-delete": "true",
			},
		})
	}

	if err := applySnat(tc, tenantID, appID, itemID, item, props, result); err != nil {
		return nil, err
	}

	for i, dest := range dests {
		vsName := itemID
		if i > 0 {
			vsName = fmt.Sprintf("%s-%d-", itemID, i)
		}
		vsProps := jsonutil.DeepCopy(props).(map[string]any)

		if dest.kind == destAddressList {
			// Address-list listeners need traffic-matching-criteria
			// objects, which older devices do not have.
			if tc.versionBelow("trafficMatchingCriteria") {
				return nil, &adcerrors.RequestError{
					Status: http.StatusUnprocessableEntity,
					Message: fmt.Sprintf("addressList on /%s/%s/%s requires BIG-IP %s+ (target device reports %s)",
						tenantID, appID, itemID, versionGates["trafficMatchingCriteria"], tc.Version),
				}
			}
			tmcPath := "/" + tenantID + "/" + appID + "/" + vsName + "-tmc-"
			result.Configs = append(result.Configs, Config{
				Command: "ltm traffic-matching-criteria",
				Path:    tmcPath,
				Properties: map[string]any{
					"protocol":                 proto,
					"destination-port":         port,
					"destination-address-list": dest.listPath,
					"source-address":           vsProps["source"],
				},
			})
			delete(vsProps, "source")
			vsProps["traffic-matching-criteria"] = tmcPath
		} else {
			vsProps["destination"] = formatDestination(tenantID, dest, port)
		}

		result.Configs = append(result.Configs, Config{
			Command:    "ltm virtual",
			Path:       "/" + tenantID + "/" + appID + "/" + vsName,
			Properties: vsProps,
		})
	}

	return result, nil
}

// applySnat interprets the snat property. "self" synthesizes a snat pool
// holding the service's own virtual addresses, which must be emitted
// before the virtual servers that reference it.
func applySnat(tc *Context, tenantID, appID, itemID string, item map[string]any, props map[string]any, result *Result) error {
	snat, present := item["snat"]
	if !present {
		props["snat"] = "automap"
		return nil
	}
	switch v := snat.(type) {
	case string:
		switch v {
		case "auto":
			props["snat"] = "automap"
		case "none":
			props["snat"] = "none"
		case "self":
			poolPath := "/" + tenantID + "/" + appID + "/" + itemID + "-self"
			members := []string{}
			if raw, ok := item["virtualAddresses"].([]any); ok {
				for _, entry := range raw {
					if addr, ok := entry.(string); ok {
						members = append(members, addr)
					}
				}
			}
			result.Configs = append(result.Configs, Config{
				Command:    "ltm snatpool",
				Path:       poolPath,
				Properties: map[string]any{"members": members},
			})
			props["snat"] = poolPath
		default:
			return &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("unsupported snat value %q on /%s/%s/%s", v, tenantID, appID, itemID),
			}
		}
	case map[string]any:
		ref, err := normalizeRef(tc, tenantID, appID, v, "snatpool")
		if err != nil {
			return err
		}
		props["snat"] = ref.Path
	}
	return nil
}

func boolOr(value any, fallback bool) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	return fallback
}

func translateServiceHTTP(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	base := []Ref{{Path: "/Common/f5-tcp-progressive", FromBigip: true}, {Path: "/Common/http", FromBigip: true}}
	return serviceCore(tc, tenantID, appID, itemID, item, decl, "tcp", base)
}

// translateServiceHTTPS expands the HTTPS service and, unless disabled,
// a companion port-80 virtual server that redirects to it.
func translateServiceHTTPS(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	base := []Ref{{Path: "/Common/f5-tcp-progressive", FromBigip: true}, {Path: "/Common/http", FromBigip: true}}

	if serverTLS, ok := item["serverTLS"]; ok {
		ref, err := normalizeRef(tc, tenantID, appID, serverTLS, "profile")
		if err != nil {
			return nil, err
		}
		base = append(base, ref)
	}
	if clientTLS, ok := item["clientTLS"]; ok {
		ref, err := normalizeRef(tc, tenantID, appID, clientTLS, "profile")
		if err != nil {
			return nil, err
		}
		base = append(base, ref)
	}

	result, err := serviceCore(tc, tenantID, appID, itemID, item, decl, "tcp", base)
	if err != nil {
		return nil, err
	}

	if !boolOr(item["redirect80"], true) {
		return result, nil
	}

	// The redirect server is a plain HTTP virtual on port 80 with the
	// stock redirect iRule, derived from the real service's listeners.
	redirect := jsonutil.DeepCopy(item).(map[string]any)
	redirect[declaration.ClassKey] = "Service_HTTP"
	redirect["virtualPort"] = 80
	redirect["iRules"] = []any{"/Common/_sys_https_redirect"}
	redirect["redirect80"] = false
	for _, prop := range []string{"serverTLS", "clientTLS", "pool", "persistenceMethods", "policyEndpoint", "snat"} {
		delete(redirect, prop)
	}

	redirectResult, err := translateServiceHTTP(tc, tenantID, appID, itemID+"-Redirect-", redirect, decl)
	if err != nil {
		return nil, err
	}
	result.merge(redirectResult)
	return result, nil
}

func translateServiceTCP(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	base := []Ref{{Path: "/Common/f5-tcp-progressive", FromBigip: true}}
	return serviceCore(tc, tenantID, appID, itemID, item, decl, "tcp", base)
}

func translateServiceUDP(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	base := []Ref{{Path: "/Common/udp", FromBigip: true}}
	return serviceCore(tc, tenantID, appID, itemID, item, decl, "udp", base)
}

func translateServiceL4(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	base := []Ref{{Path: "/Common/fastL4", FromBigip: true}}
	return serviceCore(tc, tenantID, appID, itemID, item, decl, "tcp", base)
}

// translateServiceAddress emits a tenant-scoped virtual-address and asks
// the caller to rewrite references from the app-nested path to the
// tenant-level one, since virtual-addresses live directly under the
// partition on the device.
func translateServiceAddress(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	addrValue, _ := item["virtualAddress"].(string)
	if addrValue == "" {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Service_Address /%s/%s/%s has no virtualAddress", tenantID, appID, itemID),
		}
	}
	addr, rd, hasRD := splitRouteDomain(addrValue)
	addr = normalizeWildcard(addr)
	if hasRD && rd != 0 {
		addr = fmt.Sprintf("%s%%%d", addr, rd)
	}

	path := "/" + tenantID + "/" + itemID
	tc.seenVirtualAddresses[path] = true
	props := map[string]any{
		"address":     addr,
		"arp":         enabledString(boolOr(item["arpEnabled"], true)),
		"icmp-echo":   enabledString(boolOr(item["icmpEcho"], true)),
		"auto-delete": "false",
	}
	if mask, ok := item["mask"].(string); ok {
		props["mask"] = mask
	}

	return &Result{
		Configs:    []Config{{Command: "ltm virtual-address", Path: path, Properties: props}},
		UpdatePath: true,
		PathUpdates: []PathUpdate{{
			OldString: "/" + tenantID + "/" + appID + "/" + itemID,
			NewString: path,
		}},
	}, nil
}

func enabledString(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
