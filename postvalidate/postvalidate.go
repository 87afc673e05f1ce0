package postvalidate

import (
	"fmt"
	"net/http"

	goversion "github.com/hashicorp/go-version"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

// rule gates one feature on a minimum device software version.
type rule struct {
	// class restricts the rule to items of this class ("" matches any)
	class string
	// property is the item property that requests the feature
	property string
	// match reports whether the property value requests the gated feature
	match func(value any) bool
	// minVersion is the lowest device version supporting the feature
	minVersion string
	// feature is the human-readable feature name used in error messages
	feature string
}

// rules is the version-availability matrix. Add new gated features here
// rather than scattering version checks through translators.
var rules = []rule{
	{
		class:      "TCP_Profile",
		property:   "congestionControl",
		match:      equalsString("bbr"),
		minVersion: "14.1",
		feature:    "BBR Congestion Control",
	},
	{
		class:      "TLS_Server",
		property:   "tls1_3Enabled",
		match:      isTrue,
		minVersion: "14.0",
		feature:    "TLS 1.3",
	},
	{
		class:      "TLS_Client",
		property:   "tls1_3Enabled",
		match:      isTrue,
		minVersion: "14.0",
		feature:    "TLS 1.3",
	},
	{
		class:      "Protocol_Inspection_Profile",
		property:   "autoAddNewInspections",
		match:      isTrue,
		minVersion: "14.0",
		feature:    "Protocol Inspection auto-add",
	},
	{
		class:      "Protocol_Inspection_Profile",
		property:   "autoPublish",
		match:      isTrue,
		minVersion: "14.0",
		feature:    "Protocol Inspection auto-publish",
	},
	{
		property:   "profileBotDefense",
		match:      isPresent,
		minVersion: "14.1",
		feature:    "Bot Defense profile",
	},
}

// Validate applies the version matrix and re-checks the path-length
// invariant against the digested declaration. It rejects with a
// 422-class error carrying a single human-readable message.
func Validate(decl declaration.Declaration, targetVersion string) error {
	target, err := goversion.NewVersion(targetVersion)
	if err != nil {
		return fmt.Errorf("invalid target device version %q: %w", targetVersion, err)
	}

	err = decl.Walk(func(tenant, app, item string, obj map[string]any) error {
		class := declaration.ClassOf(obj)
		for _, r := range rules {
			if r.class != "" && r.class != class {
				continue
			}
			value, present := obj[r.property]
			if !present || !r.match(value) {
				continue
			}
			min := goversion.Must(goversion.NewVersion(r.minVersion))
			if target.LessThan(min) {
				return &adcerrors.RequestError{
					Status: http.StatusUnprocessableEntity,
					Message: fmt.Sprintf("%s requested by /%s/%s/%s requires BIG-IP %s+ (target device reports %s)",
						r.feature, tenant, app, item, r.minVersion, targetVersion),
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Expansion can lengthen paths via generated child objects, so the
	// invariant is checked again here.
	return decl.CheckPathLengths()
}

func equalsString(want string) func(any) bool {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && s == want
	}
}

func isTrue(value any) bool {
	b, ok := value.(bool)
	return ok && b
}

func isPresent(value any) bool {
	return value != nil
}
