package declaration

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

// Source identifies the declaration location that contains an AS3
// pointer. The source location supplies the tokens substituted for "@"
// and the scope used to reject escaping pointers.
type Source struct {
	// Tenant is the referencing item's Tenant name
	Tenant string
	// Application is the referencing item's Application name
	Application string
	// Item is the referencing item's name
	Item string
}

// tokens returns the source path tokens used for depth-matched "@"
// substitution.
func (s Source) tokens() []string {
	return []string{s.Tenant, s.Application, s.Item}
}

// ResolvePointer resolves an AS3 pointer found at the given source
// location against the declaration tree.
//
// A pointer is an absolute JSON Pointer ("/tenant/app/item"), a relative
// pointer resolved against the source Application ("item" or
// "item/member"), and may use "@" as a substitution token replaced by the
// source path token at the same depth.
//
// Pointers that resolve outside the referencing Tenant/Application and
// not into /Common or the tenant's .../Shared application are rejected
// with a 422-class RequestError. The resolved value and the canonical
// absolute path are returned.
func (d Declaration) ResolvePointer(pointer string, src Source) (any, string, error) {
	if pointer == "" {
		return nil, "", fmt.Errorf("empty pointer")
	}

	var tokens []string
	if strings.HasPrefix(pointer, "/") {
		tokens = strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	} else {
		// Relative pointers resolve against the source Application.
		tokens = append([]string{src.Tenant, src.Application}, strings.Split(pointer, "/")...)
	}

	srcTokens := src.tokens()
	for i, tok := range tokens {
		if tok == "@" {
			if i >= len(srcTokens) {
				return nil, "", fmt.Errorf("pointer %s uses @ at depth %d but the source path has no token there", pointer, i)
			}
			tokens[i] = srcTokens[i]
		} else {
			tokens[i] = UnescapeToken(tok)
		}
	}

	if err := checkPointerScope(tokens, src, pointer); err != nil {
		return nil, "", err
	}

	abs := "/" + strings.Join(tokens, "/")
	value, err := d.GetPointer(abs)
	if err != nil {
		return nil, "", err
	}
	return value, abs, nil
}

// checkPointerScope rejects pointers that escape the referencing
// Tenant/Application except into /Common or the tenant's Shared
// application.
func checkPointerScope(tokens []string, src Source, pointer string) error {
	if len(tokens) == 0 {
		return fmt.Errorf("empty pointer")
	}
	tenant := tokens[0]
	if tenant == CommonTenant {
		return nil
	}
	if tenant != src.Tenant {
		return scopeError(pointer, src)
	}
	if len(tokens) < 2 {
		return nil
	}
	app := tokens[1]
	if app != src.Application && app != SharedApplication {
		return scopeError(pointer, src)
	}
	return nil
}

func scopeError(pointer string, src Source) error {
	return &adcerrors.RequestError{
		Status: http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("pointer %s from /%s/%s/%s escapes its Tenant/Application scope",
			pointer, src.Tenant, src.Application, src.Item),
	}
}
