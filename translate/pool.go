package translate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

// sdTaskNamespace is the fixed namespace for deriving service-discovery
// task identifiers. Task IDs are uuid.NewSHA1 over the member's
// declaration path in this namespace, so re-translating the same
// declaration always yields the same task ID and the device-side task is
// updated in place instead of duplicated.
var sdTaskNamespace = uuid.MustParse("3f2c7a4e-9d1b-4c6a-8e5f-0b7d2a914c3e")

// discoveryTaskID derives the deterministic task identifier for one
// discovery-enabled member entry.
func discoveryTaskID(tenantID, appID, itemID string, memberIndex int) string {
	name := fmt.Sprintf("/%s/%s/%s/members/%d", tenantID, appID, itemID, memberIndex)
	return uuid.NewSHA1(sdTaskNamespace, []byte(name)).String()
}

// discoveryProviderProps maps each addressDiscovery provider to the
// member properties copied onto its task.
var discoveryProviderProps = map[string][]string{
	"aws":    {"region", "tagKey", "tagValue", "accessKeyId", "secretAccessKey", "addressRealm", "externalId", "roleARN"},
	"azure":  {"resourceGroup", "subscriptionId", "directoryId", "applicationId", "apiAccessKey", "tagKey", "tagValue", "addressRealm"},
	"gce":    {"region", "tagKey", "tagValue", "encodedCredentials", "projectId", "addressRealm"},
	"consul": {"uri", "encodedToken", "addressRealm", "rejectUnauthorized"},
	"event":  {},
	"fqdn":   {"hostname", "queryInterval", "downInterval"},
}

// translatePool expands a pool: node configs for every static member
// address, service-discovery tasks for dynamic members, then the pool
// itself referencing both.
func translatePool(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	result := &Result{}
	poolPath := "/" + tenantID + "/" + appID + "/" + itemID

	props := map[string]any{
		"load-balancing-mode": stringOr(item["loadBalancingMode"], "round-robin"),
		"min-active-members":  intOr(item["minimumMembersActive"], 1),
	}
	if slow, ok := toInt(item["slowRampTime"]); ok {
		props["slow-ramp-time"] = slow
	}

	if monitors, ok := item["monitors"]; ok {
		refs, err := normalizeMonitorRefs(tc, tenantID, appID, monitors)
		if err != nil {
			return nil, err
		}
		props["monitor"] = refs
	}

	members := []string{}
	seenNodes := map[string]bool{}
	rawMembers, _ := item["members"].([]any)
	for i, rawMember := range rawMembers {
		member, ok := rawMember.(map[string]any)
		if !ok {
			continue
		}
		port, ok := toInt(member["servicePort"])
		if !ok {
			return nil, &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("pool %s member %d has no usable servicePort", poolPath, i),
			}
		}

		discovery := stringOr(member["addressDiscovery"], "static")
		if discovery != "static" {
			if tc.versionBelow("serviceDiscovery") {
				return nil, &adcerrors.RequestError{
					Status: http.StatusUnprocessableEntity,
					Message: fmt.Sprintf("addressDiscovery %q on pool %s requires BIG-IP %s+ (target device reports %s)",
						discovery, poolPath, versionGates["serviceDiscovery"], tc.Version),
				}
			}
			taskID := discoveryTaskID(tenantID, appID, itemID, i)
			taskProps := map[string]any{
				"provider":        discovery,
				"pool":            poolPath,
				"service-port":    port,
				"update-interval": intOr(member["updateInterval"], 60),
			}
			allowed, known := discoveryProviderProps[discovery]
			if !known {
				return nil, &adcerrors.RequestError{
					Status:  http.StatusUnprocessableEntity,
					Message: fmt.Sprintf("unsupported addressDiscovery provider %q on pool %s", discovery, poolPath),
				}
			}
			for _, prop := range allowed {
				if value, ok := member[prop]; ok {
					taskProps[prop] = value
				}
			}
			result.Configs = append(result.Configs, Config{
				Command:    "mgmt shared service-discovery task",
				Path:       "/" + tenantID + "/" + taskID,
				Properties: taskProps,
			})
			continue
		}

		addresses, _ := member["serverAddresses"].([]any)
		for _, rawAddr := range addresses {
			addr, ok := rawAddr.(string)
			if !ok {
				continue
			}
			nodePath := "/" + tenantID + "/" + addr
			if !seenNodes[nodePath] {
				seenNodes[nodePath] = true
				result.Configs = append(result.Configs, Config{
					Command: "ltm node",
					Path:    nodePath,
					Properties: map[string]any{
						"address": addr,
						"monitor": "default",
					},
				})
			}
			sep := ":"
			if strings.Contains(addr, ":") {
				sep = "."
			}
			members = append(members, fmt.Sprintf("%s%s%d", nodePath, sep, port))
		}
	}
	props["members"] = members

	result.Configs = append(result.Configs, Config{
		Command:    "ltm pool",
		Path:       poolPath,
		Properties: props,
	})
	return result, nil
}

// normalizeMonitorRefs accepts the monitors list: well-known monitor
// names expand to /Common paths, references normalize as usual. Declared
// order is kept since it sets monitor evaluation order.
func normalizeMonitorRefs(tc *Context, tenantID, appID string, value any) ([]string, error) {
	raw, ok := value.([]any)
	if !ok {
		raw = []any{value}
	}
	paths := make([]string, 0, len(raw))
	for _, entry := range raw {
		if name, ok := entry.(string); ok {
			paths = append(paths, "/Common/"+name)
			continue
		}
		ref, err := normalizeRef(tc, tenantID, appID, entry, "monitor")
		if err != nil {
			return nil, err
		}
		paths = append(paths, ref.Path)
	}
	return paths, nil
}

func stringOr(value any, fallback string) string {
	if s, ok := value.(string); ok && s != "" {
		return s
	}
	return fallback
}

func intOr(value any, fallback int) int {
	if n, ok := toInt(value); ok {
		return n
	}
	return fallback
}
