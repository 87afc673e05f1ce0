package schema

import (
	"encoding/base64"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nameRE    = regexp.MustCompile(`^[A-Za-z][0-9A-Za-z_.-]*$`)
	pointerRE = regexp.MustCompile(`^[^\x00-\x1f\x7f ]+$`)
)

// builtinFormats returns the format checkers every Validator starts with.
// Callers may add or replace checkers via WithFormat.
func builtinFormats() map[string]FormatFunc {
	return map[string]FormatFunc{
		"f5name":    isName,
		"f5ip":      isIP,
		"f5pointer": isPointer,
		"f5base64":  isBase64,
		"date-time": isDateTime,
		"uri":       isURI,
	}
}

// isName checks a device object name: a letter followed by letters,
// digits, underscore, dot, or dash.
func isName(value string) bool {
	return nameRE.MatchString(value)
}

// isIP checks an IPv4 or IPv6 address with an optional %route-domain
// suffix and an optional /prefix length.
func isIP(value string) bool {
	if idx := strings.LastIndex(value, "/"); idx >= 0 {
		prefix := value[idx+1:]
		if n, err := strconv.Atoi(prefix); err != nil || n < 0 || n > 128 {
			return false
		}
		value = value[:idx]
	}
	if idx := strings.LastIndex(value, "%"); idx >= 0 {
		rd := value[idx+1:]
		if n, err := strconv.Atoi(rd); err != nil || n < 0 {
			return false
		}
		value = value[:idx]
	}
	_, err := netip.ParseAddr(value)
	return err == nil
}

// isPointer checks an AS3 pointer: non-empty, no whitespace or control
// characters. Structural validity is checked at resolution time.
func isPointer(value string) bool {
	return pointerRE.MatchString(value)
}

func isBase64(value string) bool {
	_, err := base64.StdEncoding.DecodeString(value)
	return err == nil
}

func isDateTime(value string) bool {
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

func isURI(value string) bool {
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}
