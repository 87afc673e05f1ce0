package translate

import (
	"fmt"
	"sort"

	goversion "github.com/hashicorp/go-version"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

// Config is one ordered, idempotent unit of device configuration: a
// command name, an object path, and a flat property bag. Configs are
// applied by an external command-execution collaborator in array order.
type Config struct {
	// Command is the device command name (e.g. "ltm virtual")
	Command string
	// Path is the device object path (e.g. "/t1/app/svc")
	Path string
	// Properties is the flat property bag for the command
	Properties map[string]any
}

// PathUpdate describes a path substring rewrite requested by a translator
// whose objects live outside the normal Tenant/Application nesting.
type PathUpdate struct {
	OldString string
	NewString string
}

// Result is the output of one translator invocation.
type Result struct {
	// Configs are the emitted device commands, in application order
	Configs []Config
	// UpdatePath is true when PathUpdates must be applied to references
	UpdatePath bool
	// PathUpdates are the requested reference rewrites
	PathUpdates []PathUpdate
}

// merge appends another result's configs and path updates, preserving
// relative order.
func (r *Result) merge(other *Result) {
	r.Configs = append(r.Configs, other.Configs...)
	if other.UpdatePath {
		r.UpdatePath = true
		r.PathUpdates = append(r.PathUpdates, other.PathUpdates...)
	}
}

// Func translates one declared object into device commands. Translators
// must not depend on mutable state outside their parameters; any
// accumulation across objects in one declaration flows through Context.
type Func func(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error)

// Context carries the target device description and the per-declaration
// accumulation translators need. One Context serves one declaration
// translation pass.
type Context struct {
	// Version is the target device's reported software version
	Version string

	// DefaultRouteDomains maps tenant name to the tenant's configured
	// default route domain
	DefaultRouteDomains map[string]int

	// RouteDomainMeta records route domains discovered on bigip
	// service-address references, keyed by device path. Consulted when an
	// address carries no explicit route-domain suffix.
	RouteDomainMeta map[string]int

	// seenVirtualAddresses dedupes synthesized virtual-address configs by
	// tenant-qualified name within one translation pass
	seenVirtualAddresses map[string]bool
}

// NewContext creates a translation context for the given target device
// software version.
func NewContext(version string) *Context {
	return &Context{
		Version:              version,
		DefaultRouteDomains:  make(map[string]int),
		RouteDomainMeta:      make(map[string]int),
		seenVirtualAddresses: make(map[string]bool),
	}
}

// SeedVirtualAddresses marks device paths of virtual addresses that
// already exist, so translation does not synthesize configs for them.
// Callers seed from a gathered device environment before translating.
func (tc *Context) SeedVirtualAddresses(paths ...string) {
	for _, path := range paths {
		tc.seenVirtualAddresses[path] = true
	}
}

// versionGates is the table of device-version thresholds translators
// consult. Every version-dependent rewrite goes through versionBelow
// with one of these names so the thresholds stay in one place.
var versionGates = map[string]string{
	// traffic-matching-criteria objects (address/port list references on
	// virtual servers) exist on 14.1 and later
	"trafficMatchingCriteria": "14.1",
	// service-discovery tasks exist on 13.1 and later
	"serviceDiscovery": "13.1",
}

// versionBelow reports whether the target device version is below the
// named gate. Unknown gate names are a programming error.
func (tc *Context) versionBelow(gate string) bool {
	threshold, ok := versionGates[gate]
	if !ok {
		panic(fmt.Sprintf("translate: unknown version gate %q", gate))
	}
	target, err := goversion.NewVersion(tc.Version)
	if err != nil {
		// An unparsable target version behaves as the oldest supported
		// device, so gated features stay off.
		return true
	}
	return target.LessThan(goversion.Must(goversion.NewVersion(threshold)))
}

// registry is the closed class dispatch table, built at startup.
var registry = buildRegistry()

func buildRegistry() map[string]Func {
	return map[string]Func{
		"Tenant":          translateTenant,
		"Application":     translateApplication,
		"Service_HTTP":    translateServiceHTTP,
		"Service_HTTPS":   translateServiceHTTPS,
		"Service_TCP":     translateServiceTCP,
		"Service_UDP":     translateServiceUDP,
		"Service_L4":      translateServiceL4,
		"Service_Address": translateServiceAddress,
		"Pool":            translatePool,
		"Monitor":         translateMonitor,
		"iRule":           translateIRule,
		"Certificate":     translateCertificate,
		"TLS_Server":      translateTLSServer,
		"TLS_Client":      translateTLSClient,
		"Address_List":    translateAddressList,
		"Persist":         translatePersist,
	}
}

// Classes returns the declared classes the registry can translate, in
// lexical order.
func Classes() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTranslator reports whether a class has a registered translator.
func HasTranslator(class string) bool {
	_, ok := registry[class]
	return ok
}

// Translate dispatches one declared object to its class translator. An
// unrecognized class is an error, never a silent no-op.
func Translate(tc *Context, class, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	fn, ok := registry[class]
	if !ok {
		return nil, fmt.Errorf("translate: no translator registered for class %q", class)
	}
	return fn(tc, tenantID, appID, itemID, item, decl)
}
