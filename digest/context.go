package digest

import (
	"context"
	"fmt"
	"sort"
	"time"

	adctools "github.com/F5Networks/f5-appsvcs-extension-sub010"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/postprocess"
)

// Target describes the device a declaration is being digested for.
type Target struct {
	// Version is the device's reported software version (e.g. "14.1")
	Version string
}

// HostReader reads state from the target device. Implementations talk to
// the device's management API; tests supply fakes.
//
// HostReader satisfies postprocess.ComponentChecker.
type HostReader interface {
	// Ready reports whether the device is ready to serve requests.
	Ready(ctx context.Context) error

	// HasComponent reports whether a device object of the given kind
	// exists at the given path.
	HasComponent(ctx context.Context, kind, path string) (bool, error)

	// Partitions lists the device's partitions.
	Partitions(ctx context.Context) ([]string, error)

	// RouteDomains maps route-domain names to their numeric IDs.
	RouteDomains(ctx context.Context) (map[string]int, error)

	// Nodes lists the device's existing node names.
	Nodes(ctx context.Context) ([]string, error)

	// VirtualAddresses lists the virtual-address names in a partition.
	VirtualAddresses(ctx context.Context, partition string) ([]string, error)

	// AccessProfiles lists the device's access-profile names.
	AccessProfiles(ctx context.Context) ([]string, error)

	// AddressLists lists the device's address-list definitions.
	AddressLists(ctx context.Context) ([]string, error)

	// SnatTranslations lists the SNAT translation names in a partition.
	SnatTranslations(ctx context.Context, partition string) ([]string, error)

	// ProvisionedModules lists the provisioned device modules.
	ProvisionedModules(ctx context.Context) ([]string, error)
}

// Context carries the device collaborators for one digestion. A nil Host
// makes the digest a scratch run.
type Context struct {
	Logger  adctools.Logger
	Target  Target
	Host    HostReader
	Secrets postprocess.SecretResolver
	Fetch   postprocess.FetchFunc
}

func (dc *Context) logger() adctools.Logger {
	if dc.Logger == nil {
		return adctools.NopLogger{}
	}
	return dc.Logger
}

// Environment is the device state snapshot gathered before
// post-processing. Translators and callers use it to decide what already
// exists on the device. An empty list never fails the digestion.
type Environment struct {
	Partitions       []string
	RouteDomains     map[string]int
	Nodes            []string
	VirtualAddresses map[string][]string
	AccessProfiles   []string
	AddressLists     []string
	SnatTranslations map[string][]string
	Provisioned      []string
}

// GatherEnvironment snapshots the device state the pipeline needs.
func GatherEnvironment(ctx context.Context, host HostReader) (*Environment, error) {
	partitions, err := host.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}
	routeDomains, err := host.RouteDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list route domains: %w", err)
	}
	nodes, err := host.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	accessProfiles, err := host.AccessProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list access profiles: %w", err)
	}
	addressLists, err := host.AddressLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list address lists: %w", err)
	}
	provisioned, err := host.ProvisionedModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list provisioned modules: %w", err)
	}

	env := &Environment{
		Partitions:       partitions,
		RouteDomains:     routeDomains,
		Nodes:            nodes,
		VirtualAddresses: make(map[string][]string, len(partitions)),
		AccessProfiles:   accessProfiles,
		AddressLists:     addressLists,
		SnatTranslations: make(map[string][]string, len(partitions)),
		Provisioned:      provisioned,
	}
	for _, partition := range partitions {
		addresses, err := host.VirtualAddresses(ctx, partition)
		if err != nil {
			return nil, fmt.Errorf("failed to list virtual addresses in %s: %w", partition, err)
		}
		env.VirtualAddresses[partition] = addresses

		snats, err := host.SnatTranslations(ctx, partition)
		if err != nil {
			return nil, fmt.Errorf("failed to list snat translations in %s: %w", partition, err)
		}
		env.SnatTranslations[partition] = snats
	}
	return env, nil
}

// VirtualAddressPaths renders every known virtual-address as a device
// path, in lexical partition order. The slice seeds a translation
// context so translation does not re-emit addresses the device already
// has.
func (e *Environment) VirtualAddressPaths() []string {
	partitions := make([]string, 0, len(e.VirtualAddresses))
	for partition := range e.VirtualAddresses {
		partitions = append(partitions, partition)
	}
	sort.Strings(partitions)

	var paths []string
	for _, partition := range partitions {
		for _, name := range e.VirtualAddresses[partition] {
			paths = append(paths, "/"+partition+"/"+name)
		}
	}
	return paths
}

// WaitForHost polls the device's readiness with a bounded retry. It
// returns nil as soon as Ready succeeds, or the last readiness error
// after the attempts are exhausted.
func WaitForHost(ctx context.Context, host HostReader, logger adctools.Logger, attempts int, interval time.Duration) error {
	if logger == nil {
		logger = adctools.NopLogger{}
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = host.Ready(ctx)
		if lastErr == nil {
			return nil
		}
		logger.Warn("device not ready", "attempt", attempt, "attempts", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("device not ready after %d attempts: %w", attempts, lastErr)
}
