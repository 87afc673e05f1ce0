package digest

import (
	"sort"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/jsonutil"
)

// RedactedPlaceholder replaces secret values in rendered declarations.
const RedactedPlaceholder = "<redacted>"

// providerSecretProps names the credential properties of each
// addressDiscovery provider.
var providerSecretProps = map[string][]string{
	"aws":    {"accessKeyId", "secretAccessKey"},
	"azure":  {"apiAccessKey"},
	"gce":    {"encodedCredentials"},
	"consul": {"encodedToken"},
}

// genericSecretProps are secret-bearing properties independent of any
// provider: mini-JWE cryptogram fields and bearer tokens.
var genericSecretProps = []string{"ciphertext", "protected", "bearerToken"}

// secretPropsFor computes the secret property names applicable to one
// object, based on its addressDiscovery provider if any.
func secretPropsFor(obj map[string]any) map[string]bool {
	props := make(map[string]bool, len(genericSecretProps))
	for _, name := range genericSecretProps {
		props[name] = true
	}
	if provider, ok := obj["addressDiscovery"].(string); ok {
		for _, name := range providerSecretProps[provider] {
			props[name] = true
		}
	}
	return props
}

// RestoreSecrets restores secret values into the current declaration
// from the previously stored one. GET responses redact secrets, so a
// client that round-trips a declaration submits placeholders; any secret
// property holding the placeholder (or empty) is refilled from the same
// location in the previous declaration. The current declaration is
// mutated in place.
func RestoreSecrets(current, previous declaration.Declaration) {
	copySecretValues(map[string]any(current), map[string]any(previous))
}

// CopySecrets propagates resolved secrets from the digested declaration
// onto the caller's base declaration, matched structurally by shared key
// names, so a resubmission of an unchanged declaration skips
// re-encryption. Inside provider credential objects the non-secret
// string siblings are redacted with the placeholder rather than copied,
// so incidental plaintext never reaches stored declarations. The base
// declaration is mutated in place.
func CopySecrets(digested, base declaration.Declaration) {
	copySecretsOnto(map[string]any(digested), map[string]any(base))
}

func copySecretsOnto(src, dst map[string]any) {
	secretProps := secretPropsFor(src)
	provider, _ := src["addressDiscovery"].(string)
	_, inCredentialObject := providerSecretProps[provider]

	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := src[name]
		if _, shared := dst[name]; !shared {
			continue
		}

		if secretProps[name] {
			dst[name] = jsonutil.DeepCopy(value)
			continue
		}
		if inCredentialObject && name != "addressDiscovery" {
			if _, isString := value.(string); isString {
				dst[name] = RedactedPlaceholder
				continue
			}
		}

		switch srcChild := value.(type) {
		case map[string]any:
			if dstChild, ok := dst[name].(map[string]any); ok {
				copySecretsOnto(srcChild, dstChild)
			}
		case []any:
			dstList, ok := dst[name].([]any)
			if !ok {
				continue
			}
			for i := range srcChild {
				if i >= len(dstList) {
					break
				}
				srcElem, okSrc := srcChild[i].(map[string]any)
				dstElem, okDst := dstList[i].(map[string]any)
				if okSrc && okDst {
					copySecretsOnto(srcElem, dstElem)
				}
			}
		}
	}
}

func copySecretValues(current, previous map[string]any) {
	secretProps := secretPropsFor(current)

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := current[name]
		prevValue, hasPrev := previous[name]

		if secretProps[name] {
			placeholder, isString := value.(string)
			if isString && (placeholder == RedactedPlaceholder || placeholder == "") {
				if prevString, ok := prevValue.(string); ok && prevString != "" {
					current[name] = prevString
				}
			}
			continue
		}

		if !hasPrev {
			continue
		}
		switch cur := value.(type) {
		case map[string]any:
			if prev, ok := prevValue.(map[string]any); ok {
				copySecretValues(cur, prev)
			}
		case []any:
			prev, ok := prevValue.([]any)
			if !ok {
				continue
			}
			for i := range cur {
				if i >= len(prev) {
					break
				}
				curElem, okCur := cur[i].(map[string]any)
				prevElem, okPrev := prev[i].(map[string]any)
				if okCur && okPrev {
					copySecretValues(curElem, prevElem)
				}
			}
		}
	}
}

// MaskSecrets returns a deep copy of the declaration with every secret
// value replaced by the redaction placeholder. Used when rendering stored
// declarations back to clients.
func MaskSecrets(d declaration.Declaration) declaration.Declaration {
	masked := jsonutil.DeepCopy(map[string]any(d)).(map[string]any)
	maskSecretValues(masked)
	return declaration.Declaration(masked)
}

func maskSecretValues(obj map[string]any) {
	secretProps := secretPropsFor(obj)

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if secretProps[name] {
			if _, ok := obj[name].(string); ok {
				obj[name] = RedactedPlaceholder
			}
			continue
		}
		switch value := obj[name].(type) {
		case map[string]any:
			maskSecretValues(value)
		case []any:
			for _, elem := range value {
				if child, ok := elem.(map[string]any); ok {
					maskSecretValues(child)
				}
			}
		}
	}
}
