package translate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

// Monitor and persistence translators expand generically from the item
// and then filter through allow-lists keyed by the subtype discriminator,
// so each device payload carries only the properties its subtype
// supports.

// monitorKeyMap renames declaration properties to device property names.
var monitorKeyMap = map[string]string{
	"interval":    "interval",
	"timeout":     "timeout",
	"upInterval":  "up-interval",
	"send":        "send",
	"receive":     "recv",
	"receiveDown": "recv-disable",
	"username":    "username",
	"ciphers":     "cipherlist",
	"reverse":     "reverse",
	"transparent": "transparent",
}

// monitorCommonProps lists device properties every monitor type accepts.
var monitorCommonProps = map[string]bool{
	"interval":    true,
	"timeout":     true,
	"up-interval": true,
}

// monitorTypeProps adds the per-type device properties.
var monitorTypeProps = map[string]map[string]bool{
	"http":  {"send": true, "recv": true, "recv-disable": true, "username": true, "reverse": true, "transparent": true},
	"https": {"send": true, "recv": true, "recv-disable": true, "username": true, "cipherlist": true, "reverse": true, "transparent": true},
	"tcp":   {"send": true, "recv": true, "recv-disable": true, "reverse": true, "transparent": true},
	"udp":   {"send": true, "recv": true, "recv-disable": true},
	"icmp":  {"transparent": true},
}

func translateMonitor(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	monitorType := stringOr(item["monitorType"], "")
	typeProps, ok := monitorTypeProps[monitorType]
	if !ok {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("unsupported monitorType %q on /%s/%s/%s", monitorType, tenantID, appID, itemID),
		}
	}

	props := expandProps(item, monitorKeyMap)
	filterProps(props, monitorCommonProps, typeProps)
	if _, ok := props["interval"]; !ok {
		props["interval"] = 5
	}
	if _, ok := props["timeout"]; !ok {
		props["timeout"] = 16
	}

	return &Result{
		Configs: []Config{{
			Command:    "ltm monitor " + monitorType,
			Path:       "/" + tenantID + "/" + appID + "/" + itemID,
			Properties: props,
		}},
	}, nil
}

// persistCommands maps the persistenceMethod discriminator to its device
// command, and persistTypeProps its allowed device properties.
var persistCommands = map[string]string{
	"cookie":              "ltm persistence cookie",
	"source-address":      "ltm persistence source-addr",
	"destination-address": "ltm persistence dest-addr",
	"ssl":                 "ltm persistence ssl",
	"universal":           "ltm persistence universal",
}

var persistKeyMap = map[string]string{
	"duration":                  "timeout",
	"cookieName":                "cookie-name",
	"cookieMethod":              "method",
	"addressMask":               "mask",
	"matchAcrossPools":          "match-across-pools",
	"matchAcrossVirtualServers": "match-across-virtuals",
}

var persistCommonProps = map[string]bool{
	"timeout":               true,
	"match-across-pools":    true,
	"match-across-virtuals": true,
}

var persistTypeProps = map[string]map[string]bool{
	"cookie":              {"cookie-name": true, "method": true},
	"source-address":      {"mask": true},
	"destination-address": {"mask": true},
	"ssl":                 {},
	"universal":           {},
}

func translatePersist(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	method := stringOr(item["persistenceMethod"], "")
	command, ok := persistCommands[method]
	if !ok {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("unsupported persistenceMethod %q on /%s/%s/%s", method, tenantID, appID, itemID),
		}
	}

	props := expandProps(item, persistKeyMap)
	filterProps(props, persistCommonProps, persistTypeProps[method])

	return &Result{
		Configs: []Config{{
			Command:    command,
			Path:       "/" + tenantID + "/" + appID + "/" + itemID,
			Properties: props,
		}},
	}, nil
}

// expandProps copies declared properties into a device property bag,
// renaming via the key map. Unmapped properties are dropped here; the
// allow-list filter then narrows by subtype.
func expandProps(item map[string]any, keyMap map[string]string) map[string]any {
	props := make(map[string]any)
	for declared, device := range keyMap {
		if value, ok := item[declared]; ok {
			props[device] = value
		}
	}
	return props
}

// tlsBaseProps extracts the options shared by every per-certificate
// profile variant of a TLS_Server or TLS_Client.
func tlsBaseProps(item map[string]any) map[string]any {
	props := map[string]any{}
	if ciphers, ok := item["ciphers"].(string); ok {
		props["ciphers"] = ciphers
	}
	if !boolOr(item["tls1_0Enabled"], true) {
		props["no-tlsv1"] = true
	}
	if !boolOr(item["tls1_1Enabled"], true) {
		props["no-tlsv1.1"] = true
	}
	if !boolOr(item["tls1_2Enabled"], true) {
		props["no-tlsv1.2"] = true
	}
	if boolOr(item["tls1_3Enabled"], false) {
		props["tls1_3"] = "enabled"
	}
	if boolOr(item["insertEmptyFragmentsEnabled"], false) {
		props["insert-empty-fragments"] = "enabled"
	}
	return props
}

// certRefPath resolves a certificates[].certificate reference to the
// declared Certificate item's device path base.
func certRefPath(tenantID, appID string, entry map[string]any) (string, error) {
	switch ref := entry["certificate"].(type) {
	case string:
		return qualifyPath(tenantID, appID, ref), nil
	case map[string]any:
		if use, ok := ref["use"].(string); ok {
			return qualifyPath(tenantID, appID, use), nil
		}
		if bigip, ok := ref["bigip"].(string); ok {
			// Pre-existing device cert; the path already names the files.
			return strings.TrimSuffix(bigip, ".crt"), nil
		}
	}
	return "", &adcerrors.RequestError{
		Status:  http.StatusUnprocessableEntity,
		Message: "certificates entry has no usable certificate reference",
	}
}

// translateTLSServer emits one client-ssl profile per certificate entry.
// Every variant is an explicit full copy of the shared options with only
// the certificate binding and SNI fields varying; the first certificate
// is the SNI default unless another entry claims it.
func translateTLSServer(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	entries, _ := item["certificates"].([]any)
	if len(entries) == 0 {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("TLS_Server /%s/%s/%s declares no certificates", tenantID, appID, itemID),
		}
	}

	sniDefaultClaimed := false
	for _, raw := range entries {
		if entry, ok := raw.(map[string]any); ok && boolOr(entry["sniDefault"], false) {
			sniDefaultClaimed = true
		}
	}

	result := &Result{}
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		certBase, err := certRefPath(tenantID, appID, entry)
		if err != nil {
			return nil, err
		}

		name := itemID
		if i > 0 {
			name = fmt.Sprintf("%s-%d-", itemID, i)
		}

		props := tlsBaseProps(item)
		props["cert"] = certBase + ".crt"
		props["key"] = certBase + ".key"
		if chain, ok := entry["chainCA"].(string); ok {
			props["chain"] = qualifyPath(tenantID, appID, chain) + "-bundle.crt"
		}
		if i == 0 && !sniDefaultClaimed {
			props["sni-default"] = true
		} else {
			props["sni-default"] = boolOr(entry["sniDefault"], false)
		}
		if serverName, ok := entry["matchToSNI"].(string); ok {
			props["server-name"] = serverName
		}
		if boolOr(item["requireSNI"], false) {
			props["sni-require"] = true
		}

		result.Configs = append(result.Configs, Config{
			Command:    "ltm profile client-ssl",
			Path:       "/" + tenantID + "/" + appID + "/" + name,
			Properties: props,
		})
	}
	return result, nil
}

// translateTLSClient emits a single server-ssl profile; client certs are
// optional here.
func translateTLSClient(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	props := tlsBaseProps(item)
	if entries, ok := item["certificates"].([]any); ok && len(entries) > 0 {
		if entry, ok := entries[0].(map[string]any); ok {
			certBase, err := certRefPath(tenantID, appID, entry)
			if err != nil {
				return nil, err
			}
			props["cert"] = certBase + ".crt"
			props["key"] = certBase + ".key"
		}
	}
	if serverName, ok := item["serverName"].(string); ok {
		props["server-name"] = serverName
	}
	props["peer-cert-mode"] = stringOr(item["validateCertificate"], "ignore")

	return &Result{
		Configs: []Config{{
			Command:    "ltm profile server-ssl",
			Path:       "/" + tenantID + "/" + appID + "/" + itemID,
			Properties: props,
		}},
	}, nil
}
