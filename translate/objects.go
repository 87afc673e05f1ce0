package translate

import (
	"fmt"
	"net/http"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

// translateTenant emits the partition for a tenant. The Common tenant
// maps onto the built-in Common partition, which must never be created
// or deleted, so it produces no configs.
func translateTenant(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	if tenantID == declaration.CommonTenant {
		return &Result{}, nil
	}
	rd := intOr(item["defaultRouteDomain"], 0)
	tc.DefaultRouteDomains[tenantID] = rd
	return &Result{
		Configs: []Config{{
			Command: "auth partition",
			Path:    "/" + tenantID,
			Properties: map[string]any{
				"default-route-domain": rd,
			},
		}},
	}, nil
}

// translateApplication emits the folder holding an application's objects.
func translateApplication(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	return &Result{
		Configs: []Config{{
			Command:    "sys folder",
			Path:       "/" + tenantID + "/" + appID,
			Properties: map[string]any{},
		}},
	}, nil
}

// translateIRule emits the rule body. Remote and base64 sources were
// already materialized into plain text during post-processing.
func translateIRule(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	text, ok := item["iRule"].(string)
	if !ok {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("iRule /%s/%s/%s has no text body", tenantID, appID, itemID),
		}
	}
	return &Result{
		Configs: []Config{{
			Command: "ltm rule",
			Path:    "/" + tenantID + "/" + appID + "/" + itemID,
			Properties: map[string]any{
				"api-anonymous": text,
			},
		}},
	}, nil
}

// translateCertificate emits the file uploads for a certificate, its
// private key, and its CA chain bundle. The uploads come before anything
// that references them, which is why certificates translate ahead of TLS
// profiles in declaration order handling.
func translateCertificate(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	cert, ok := item["certificate"].(string)
	if !ok {
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Certificate /%s/%s/%s has no certificate content", tenantID, appID, itemID),
		}
	}

	base := "/" + tenantID + "/" + appID + "/" + itemID
	result := &Result{
		Configs: []Config{{
			Command:    "sys file ssl-cert",
			Path:       base + ".crt",
			Properties: map[string]any{"content": cert},
		}},
	}

	if key, ok := item["privateKey"].(string); ok {
		props := map[string]any{"content": key}
		if passphrase, ok := item["passphrase"].(map[string]any); ok {
			if ciphertext, ok := passphrase["ciphertext"].(string); ok {
				props["passphrase"] = ciphertext
			}
		}
		result.Configs = append(result.Configs, Config{
			Command:    "sys file ssl-key",
			Path:       base + ".key",
			Properties: props,
		})
	}

	if chain, ok := item["chainCA"].(string); ok {
		result.Configs = append(result.Configs, Config{
			Command:    "sys file ssl-cert",
			Path:       base + "-bundle.crt",
			Properties: map[string]any{"content": chain},
		})
	}

	return result, nil
}

// translateAddressList emits a net address-list from literal addresses
// plus any nested list references, keeping declared order.
func translateAddressList(tc *Context, tenantID, appID, itemID string, item map[string]any, decl declaration.Declaration) (*Result, error) {
	addresses := []string{}
	if raw, ok := item["addresses"].([]any); ok {
		for _, entry := range raw {
			if addr, ok := entry.(string); ok {
				addresses = append(addresses, addr)
			}
		}
	}

	props := map[string]any{"addresses": addresses}
	if nested, ok := item["addressLists"]; ok {
		refs, err := normalizeRefList(tc, tenantID, appID, nested, "addressList")
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(refs))
		for i, ref := range refs {
			paths[i] = ref.Path
		}
		props["address-lists"] = paths
	}

	return &Result{
		Configs: []Config{{
			Command:    "net address-list",
			Path:       "/" + tenantID + "/" + appID + "/" + itemID,
			Properties: props,
		}},
	}, nil
}
