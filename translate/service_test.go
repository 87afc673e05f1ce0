package translate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

func httpService(addresses ...any) map[string]any {
	return map[string]any{
		"class":            "Service_HTTP",
		"virtualPort":      80,
		"virtualAddresses": addresses,
	}
}

func configByPath(t *testing.T, configs []Config, path string) Config {
	t.Helper()
	for _, cfg := range configs {
		if cfg.Path == path {
			return cfg
		}
	}
	t.Fatalf("no config with path %s in %v", path, configs)
	return Config{}
}

func TestTranslateServiceHTTP_Minimal(t *testing.T) {
	tc := NewContext("14.1")
	item := httpService("192.0.2.10")
	item["pool"] = "webpool"

	result, err := translateServiceHTTP(tc, "T1", "A1", "web", item, declaration.Declaration{})
	require.NoError(t, err)
	require.Len(t, result.Configs, 2)

	va := result.Configs[0]
	assert.Equal(t, "ltm virtual-address", va.Command)
	assert.Equal(t, "/T1/192.0.2.10", va.Path)
	assert.Equal(t, "192.0.2.10", va.Properties["address"])
	assert.Equal(t, "true", va.Properties["auto-delete"])

	vs := result.Configs[1]
	assert.Equal(t, "ltm virtual", vs.Command)
	assert.Equal(t, "/T1/A1/web", vs.Path)
	assert.Equal(t, "/T1/192.0.2.10:80", vs.Properties["destination"])
	assert.Equal(t, "automap", vs.Properties["snat"])
	assert.Equal(t, "/T1/A1/webpool", vs.Properties["pool"])
	assert.Equal(t, "0.0.0.0/0", vs.Properties["source"])
	assert.Equal(t, []string{"/Common/f5-tcp-progressive", "/Common/http"}, vs.Properties["profiles"])
}

func TestServiceCore_VirtualAddressDedupe(t *testing.T) {
	tc := NewContext("14.1")
	decl := declaration.Declaration{}

	first, err := translateServiceHTTP(tc, "T1", "A1", "web", httpService("192.0.2.10"), decl)
	require.NoError(t, err)
	second, err := translateServiceTCP(tc, "T1", "A1", "other", map[string]any{
		"class":            "Service_TCP",
		"virtualPort":      8443,
		"virtualAddresses": []any{"192.0.2.10"},
	}, decl)
	require.NoError(t, err)

	assert.Len(t, first.Configs, 2)
	// The second service reuses the synthesized virtual-address.
	require.Len(t, second.Configs, 1)
	assert.Equal(t, "ltm virtual", second.Configs[0].Command)
}

func TestServiceCore_SeededVirtualAddressNotSynthesized(t *testing.T) {
	tc := NewContext("14.1")
	// Paths reported by the device environment; the address already
	// exists, so translation must not emit a config for it.
	tc.SeedVirtualAddresses("/T1/192.0.2.10", "/Common/shared-vip")

	result, err := translateServiceHTTP(tc, "T1", "A1", "web", httpService("192.0.2.10"), declaration.Declaration{})
	require.NoError(t, err)

	require.Len(t, result.Configs, 1)
	vs := result.Configs[0]
	assert.Equal(t, "ltm virtual", vs.Command)
	assert.Equal(t, "/T1/192.0.2.10:80", vs.Properties["destination"])
}

func TestServiceCore_MultipleAddresses(t *testing.T) {
	tc := NewContext("14.1")

	result, err := translateServiceHTTP(tc, "T1", "A1", "web", httpService("192.0.2.10", "192.0.2.11"), declaration.Declaration{})
	require.NoError(t, err)

	configByPath(t, result.Configs, "/T1/192.0.2.10")
	configByPath(t, result.Configs, "/T1/192.0.2.11")
	vs0 := configByPath(t, result.Configs, "/T1/A1/web")
	vs1 := configByPath(t, result.Configs, "/T1/A1/web-1-")
	assert.Equal(t, "/T1/192.0.2.10:80", vs0.Properties["destination"])
	assert.Equal(t, "/T1/192.0.2.11:80", vs1.Properties["destination"])
}

func TestServiceCore_Wildcard(t *testing.T) {
	tc := NewContext("14.1")

	result, err := translateServiceL4(tc, "T1", "A1", "catchall", map[string]any{
		"class":            "Service_L4",
		"virtualPort":      0,
		"virtualAddresses": []any{"0.0.0.0"},
	}, declaration.Declaration{})
	require.NoError(t, err)

	va := configByPath(t, result.Configs, "/T1/any")
	assert.Equal(t, "any", va.Properties["address"])
	vs := configByPath(t, result.Configs, "/T1/A1/catchall")
	assert.Equal(t, "/T1/any:0", vs.Properties["destination"])
}

func TestServiceCore_RouteDomains(t *testing.T) {
	tc := NewContext("14.1")
	tc.DefaultRouteDomains["T1"] = 2

	result, err := translateServiceHTTP(tc, "T1", "A1", "web", httpService("10.0.0.1", "10.0.0.2%3"), declaration.Declaration{})
	require.NoError(t, err)

	// Bare address picks up the tenant default route domain.
	va := configByPath(t, result.Configs, "/T1/10.0.0.1%2")
	assert.Equal(t, "10.0.0.1%2", va.Properties["address"])
	vs := configByPath(t, result.Configs, "/T1/A1/web")
	assert.Equal(t, "/T1/10.0.0.1%2:80", vs.Properties["destination"])

	// Explicit suffix wins over the tenant default.
	configByPath(t, result.Configs, "/T1/10.0.0.2%3")
	vs1 := configByPath(t, result.Configs, "/T1/A1/web-1-")
	assert.Equal(t, "/T1/10.0.0.2%3:80", vs1.Properties["destination"])
}

func TestServiceCore_IPv6Destination(t *testing.T) {
	tc := NewContext("14.1")

	result, err := translateServiceHTTP(tc, "T1", "A1", "web6", httpService("2001:db8::1"), declaration.Declaration{})
	require.NoError(t, err)

	vs := configByPath(t, result.Configs, "/T1/A1/web6")
	assert.Equal(t, "/T1/2001:db8::1.80", vs.Properties["destination"])
}

func TestServiceCore_SnatVariants(t *testing.T) {
	decl := declaration.Declaration{}

	t.Run("none", func(t *testing.T) {
		item := httpService("192.0.2.10")
		item["snat"] = "none"
		result, err := translateServiceHTTP(NewContext("14.1"), "T1", "A1", "web", item, decl)
		require.NoError(t, err)
		vs := configByPath(t, result.Configs, "/T1/A1/web")
		assert.Equal(t, "none", vs.Properties["snat"])
	})

	t.Run("self synthesizes a snatpool", func(t *testing.T) {
		item := httpService("192.0.2.10")
		item["snat"] = "self"
		result, err := translateServiceHTTP(NewContext("14.1"), "T1", "A1", "web", item, decl)
		require.NoError(t, err)
		pool := configByPath(t, result.Configs, "/T1/A1/web-self")
		assert.Equal(t, "ltm snatpool", pool.Command)
		assert.Equal(t, []string{"192.0.2.10"}, pool.Properties["members"])
		vs := configByPath(t, result.Configs, "/T1/A1/web")
		assert.Equal(t, "/T1/A1/web-self", vs.Properties["snat"])
	})

	t.Run("pool reference", func(t *testing.T) {
		item := httpService("192.0.2.10")
		item["snat"] = map[string]any{"use": "mySnatPool"}
		result, err := translateServiceHTTP(NewContext("14.1"), "T1", "A1", "web", item, decl)
		require.NoError(t, err)
		vs := configByPath(t, result.Configs, "/T1/A1/web")
		assert.Equal(t, "/T1/A1/mySnatPool", vs.Properties["snat"])
	})

	t.Run("unknown string rejected", func(t *testing.T) {
		item := httpService("192.0.2.10")
		item["snat"] = "sideways"
		_, err := translateServiceHTTP(NewContext("14.1"), "T1", "A1", "web", item, decl)
		require.Error(t, err)
		assert.True(t, errors.Is(err, adcerrors.ErrRequest))
		assert.Contains(t, err.Error(), `unsupported snat value "sideways"`)
	})
}

func TestServiceCore_InternalVirtual(t *testing.T) {
	tc := NewContext("14.1")

	result, err := translateServiceTCP(tc, "T1", "A1", "internal-vs", map[string]any{
		"class":       "Service_TCP",
		"virtualType": "internal",
	}, declaration.Declaration{})
	require.NoError(t, err)

	require.Len(t, result.Configs, 1)
	vs := result.Configs[0]
	assert.Equal(t, true, vs.Properties["internal"])
	assert.NotContains(t, vs.Properties, "destination")
}

func TestServiceCore_NoVirtualPort(t *testing.T) {
	tc := NewContext("14.1")
	_, err := translateServiceHTTP(tc, "T1", "A1", "web", map[string]any{
		"class":            "Service_HTTP",
		"virtualAddresses": []any{"192.0.2.10"},
	}, declaration.Declaration{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable virtualPort")
}

func TestTranslateServiceHTTPS_Redirect(t *testing.T) {
	tc := NewContext("14.1")
	item := map[string]any{
		"class":            "Service_HTTPS",
		"virtualPort":      443,
		"virtualAddresses": []any{"192.0.2.10"},
		"serverTLS":        "webtls",
		"pool":             "webpool",
	}

	result, err := translateServiceHTTPS(tc, "T1", "A1", "websvc", item, declaration.Declaration{})
	require.NoError(t, err)

	vs := configByPath(t, result.Configs, "/T1/A1/websvc")
	assert.Equal(t, "/T1/192.0.2.10:443", vs.Properties["destination"])
	assert.Contains(t, vs.Properties["profiles"], "/T1/A1/webtls")

	redirect := configByPath(t, result.Configs, "/T1/A1/websvc-Redirect-")
	assert.Equal(t, "/T1/192.0.2.10:80", redirect.Properties["destination"])
	assert.Equal(t, []string{"/Common/_sys_https_redirect"}, redirect.Properties["rules"])
	assert.NotContains(t, redirect.Properties, "pool")
	profiles := redirect.Properties["profiles"].([]string)
	assert.NotContains(t, profiles, "/T1/A1/webtls")
}

func TestTranslateServiceHTTPS_RedirectDisabled(t *testing.T) {
	tc := NewContext("14.1")
	item := map[string]any{
		"class":            "Service_HTTPS",
		"virtualPort":      443,
		"virtualAddresses": []any{"192.0.2.10"},
		"redirect80":       false,
	}

	result, err := translateServiceHTTPS(tc, "T1", "A1", "websvc", item, declaration.Declaration{})
	require.NoError(t, err)
	for _, cfg := range result.Configs {
		assert.NotContains(t, cfg.Path, "-Redirect-")
	}
}

func TestServiceCore_AddressList(t *testing.T) {
	item := map[string]any{
		"class":       "Service_TCP",
		"virtualPort": 443,
		"addressList": map[string]any{"use": "allowed"},
	}

	t.Run("old device rejected", func(t *testing.T) {
		_, err := translateServiceTCP(NewContext("14.0"), "T1", "A1", "svc", item, declaration.Declaration{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires BIG-IP 14.1+")
		assert.Contains(t, err.Error(), "target device reports 14.0")
	})

	t.Run("emits traffic-matching-criteria", func(t *testing.T) {
		result, err := translateServiceTCP(NewContext("14.1"), "T1", "A1", "svc", item, declaration.Declaration{})
		require.NoError(t, err)

		tmc := configByPath(t, result.Configs, "/T1/A1/svc-tmc-")
		assert.Equal(t, "ltm traffic-matching-criteria", tmc.Command)
		assert.Equal(t, "/T1/A1/allowed", tmc.Properties["destination-address-list"])
		assert.Equal(t, 443, tmc.Properties["destination-port"])

		vs := configByPath(t, result.Configs, "/T1/A1/svc")
		assert.Equal(t, "/T1/A1/svc-tmc-", vs.Properties["traffic-matching-criteria"])
		assert.NotContains(t, vs.Properties, "destination")
		assert.NotContains(t, vs.Properties, "source")
	})
}

func TestServiceCore_UseServiceAddress(t *testing.T) {
	tc := NewContext("14.1")
	decl := declaration.Declaration{
		"class": "ADC",
		"T1": map[string]any{
			"class": "Tenant",
			"A1": map[string]any{
				"class": "Application",
				"vip": map[string]any{
					"class":          "Service_Address",
					"virtualAddress": "198.51.100.7",
				},
			},
		},
	}
	item := httpService(map[string]any{"use": "vip"})

	result, err := translateServiceHTTP(tc, "T1", "A1", "web", item, decl)
	require.NoError(t, err)

	// The Service_Address translator owns the virtual-address config;
	// only the virtual server is emitted here.
	require.Len(t, result.Configs, 1)
	assert.Equal(t, "/T1/198.51.100.7:80", result.Configs[0].Properties["destination"])
}

func TestTranslateServiceAddress(t *testing.T) {
	tc := NewContext("14.1")

	result, err := translateServiceAddress(tc, "T1", "A1", "vip", map[string]any{
		"class":          "Service_Address",
		"virtualAddress": "198.51.100.7",
		"icmpEcho":       false,
	}, declaration.Declaration{})
	require.NoError(t, err)

	require.Len(t, result.Configs, 1)
	va := result.Configs[0]
	assert.Equal(t, "ltm virtual-address", va.Command)
	assert.Equal(t, "/T1/vip", va.Path)
	assert.Equal(t, "198.51.100.7", va.Properties["address"])
	assert.Equal(t, "enabled", va.Properties["arp"])
	assert.Equal(t, "disabled", va.Properties["icmp-echo"])
	assert.Equal(t, "false", va.Properties["auto-delete"])

	assert.True(t, result.UpdatePath)
	require.Len(t, result.PathUpdates, 1)
	assert.Equal(t, PathUpdate{OldString: "/T1/A1/vip", NewString: "/T1/vip"}, result.PathUpdates[0])
}

func TestTranslateServiceAddress_MissingAddress(t *testing.T) {
	tc := NewContext("14.1")
	_, err := translateServiceAddress(tc, "T1", "A1", "vip", map[string]any{"class": "Service_Address"}, declaration.Declaration{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no virtualAddress")
}

func TestServiceCore_Deterministic(t *testing.T) {
	item := httpService("192.0.2.10", "192.0.2.11")
	item["pool"] = "webpool"

	first, err := translateServiceHTTP(NewContext("14.1"), "T1", "A1", "web", item, declaration.Declaration{})
	require.NoError(t, err)
	second, err := translateServiceHTTP(NewContext("14.1"), "T1", "A1", "web", item, declaration.Declaration{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
