package adctools

import "fmt"

var (
	// version is set via ldflags during build
	// For development builds, this will show "dev"
	version = "dev"

	// defaultSchemaVersion is the schema version stamped onto
	// declarations that omit one, such as wrapped per-application
	// documents. Overridable via ldflags when a build ships against a
	// newer schema line.
	defaultSchemaVersion = "3.50.0"
)

// Version returns the compiled version or 'dev' if run from source
func Version() string {
	return version
}

// DefaultSchemaVersion returns the schema version assumed for
// declarations that do not carry one.
func DefaultSchemaVersion() string {
	return defaultSchemaVersion
}

// UserAgent returns the User-Agent string sent on declaration resource
// fetches (external iRules, certificate URLs and the like).
func UserAgent() string {
	return fmt.Sprintf("adctools/%s (declaration-digest)", version)
}
