package digest

import (
	"fmt"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/schema"
)

// Option configures one Digest call.
type Option func(*options) error

type options struct {
	validator    *schema.Validator
	schemaID     string
	base         declaration.Declaration
	previous     declaration.Declaration
	copySecrets  bool
	perAppTenant string
}

func applyOptions(opts []Option) (*options, error) {
	o := &options{schemaID: CoreSchemaID}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithValidator supplies a pre-compiled schema validator. Default: the
// embedded core schema via DefaultValidator.
func WithValidator(v *schema.Validator) Option {
	return func(o *options) error {
		if v == nil {
			return fmt.Errorf("digest: validator must not be nil")
		}
		o.validator = v
		return nil
	}
}

// WithSchemaID selects the registered schema document to validate
// against. Default: CoreSchemaID.
func WithSchemaID(id string) Option {
	return func(o *options) error {
		if id == "" {
			return fmt.Errorf("digest: schema id must not be empty")
		}
		o.schemaID = id
		return nil
	}
}

// WithBaseDeclaration merges the incoming declaration over a base
// declaration before validation. Tenants in the incoming declaration
// replace same-named tenants in the base. When secret copying is
// enabled the base also receives the resolved secrets back at the end
// of the pipeline (see WithCopySecrets).
func WithBaseDeclaration(base declaration.Declaration) Option {
	return func(o *options) error {
		o.base = base
		return nil
	}
}

// WithPreviousDeclaration supplies the previously stored declaration for
// secret carry-forward (see WithCopySecrets).
func WithPreviousDeclaration(previous declaration.Declaration) Option {
	return func(o *options) error {
		o.previous = previous
		return nil
	}
}

// WithCopySecrets enables secret propagation at the end of the
// pipeline: redacted values in the working declaration are refilled
// from the previous declaration (clients that round-trip a GET response
// lose secrets to redaction), and resolved secrets are copied back onto
// the base declaration so a stored base stays submittable.
func WithCopySecrets(enabled bool) Option {
	return func(o *options) error {
		o.copySecrets = enabled
		return nil
	}
}

// WithPerApp treats the incoming declaration as a per-application
// document owned by the named tenant and wraps it into a full
// declaration before validation.
func WithPerApp(tenant string) Option {
	return func(o *options) error {
		if tenant == "" {
			return fmt.Errorf("digest: per-app tenant must not be empty")
		}
		o.perAppTenant = tenant
		return nil
	}
}
