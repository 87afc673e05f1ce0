package digest

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/uuid"

	adctools "github.com/F5Networks/f5-appsvcs-extension-sub010"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/jsonutil"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/postprocess"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/postvalidate"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/schema"
)

// maxReportedErrors caps how many schema issues one rejection carries.
// TODO: report every collected issue once stored task results can carry
// error arrays instead of a single message.
const maxReportedErrors = 1

// Result is the outcome of a successful digestion.
type Result struct {
	// Declaration is the digested declaration: defaults filled, pointers
	// resolved to absolute paths, secrets processed
	Declaration declaration.Declaration
	// Instructions are the post-process instructions that were executed
	Instructions []schema.Instruction
	// Warnings accumulated across the pipeline stages
	Warnings []string
	// Environment is the device snapshot, nil on scratch runs
	Environment *Environment
}

// Digest runs the declaration through the full intake pipeline. The
// input declaration is not mutated; the digested copy is returned in the
// Result. Every stage runs only if all prior stages succeeded.
func Digest(ctx context.Context, dc *Context, decl declaration.Declaration, opts ...Option) (*Result, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	logger := dc.logger()

	working := decl.Clone()
	perApp := o.perAppTenant != ""
	if perApp {
		working = wrapPerApp(working, o.perAppTenant)
	}
	if o.base != nil {
		working = mergeBase(o.base, working)
	}
	scratch, _ := working["scratch"].(bool)

	result := &Result{Declaration: working}

	// Environment context comes first; scratch and per-app digests are
	// environment-independent by contract.
	switch {
	case scratch:
		logger.Debug("scratch declaration; environment gathering skipped")
	case perApp:
		logger.Debug("per-app digest; environment gathering skipped")
	case dc.Host == nil:
		result.Warnings = append(result.Warnings, "no device configured; device-dependent checks skipped")
	default:
		env, err := GatherEnvironment(ctx, dc.Host)
		if err != nil {
			return nil, err
		}
		result.Environment = env
	}

	// id and label are checked ahead of schema validation so a bad id is
	// reported against the literal field, and because the id names the
	// declaration in every log line that follows.
	if err := CheckID(working.ID()); err != nil {
		return nil, err
	}
	if err := CheckLabel(working.Label()); err != nil {
		return nil, err
	}

	validator := o.validator
	if validator == nil {
		validator, err = DefaultValidator()
		if err != nil {
			return nil, err
		}
	}

	vres, err := validator.Validate(o.schemaID, map[string]any(working))
	if err != nil {
		return nil, err
	}
	if !vres.Valid {
		messages := make([]string, 0, maxReportedErrors)
		for i, issue := range vres.Errors {
			if i == maxReportedErrors {
				break
			}
			messages = append(messages, issue.String())
		}
		return nil, &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: "declaration is invalid",
			Errors:  messages,
		}
	}
	result.Instructions = vres.PostProcess

	if err := checkCertificates(working); err != nil {
		return nil, err
	}
	if err := working.CheckPathLengths(); err != nil {
		return nil, err
	}
	if err := checkDuplicates(working); err != nil {
		return nil, err
	}

	// Per-app fragments stop here: the caller reassembles the full
	// declaration and runs post-processing and post-validation on it.
	if perApp {
		logger.Info("per-app declaration digested",
			"id", working.ID(),
			"tenant", o.perAppTenant,
			"instructions", len(result.Instructions))
		return result, nil
	}

	processor := &postprocess.Processor{Secrets: dc.Secrets, Fetch: dc.Fetch, Logger: logger}
	if dc.Host != nil && !scratch {
		processor.Host = dc.Host
	}
	pres, err := processor.Process(ctx, working, vres.PostProcess)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, pres.Warnings...)

	// Post-validation re-checks path lengths itself; without a target
	// version the re-check still has to happen because post-processing
	// may have lengthened paths.
	if dc.Target.Version != "" {
		if err := postvalidate.Validate(working, dc.Target.Version); err != nil {
			return nil, err
		}
	} else if err := working.CheckPathLengths(); err != nil {
		return nil, err
	}

	if o.copySecrets {
		if o.previous != nil {
			RestoreSecrets(working, o.previous)
		}
		if o.base != nil {
			CopySecrets(working, o.base)
		}
	}

	logger.Info("declaration digested",
		"id", working.ID(),
		"tenants", len(working.TenantNames()),
		"instructions", len(result.Instructions),
		"warnings", len(result.Warnings))
	return result, nil
}

// checkDuplicates rejects declared objects whose well-known list
// properties contain deep-equal entries.
func checkDuplicates(decl declaration.Declaration) error {
	return decl.Walk(func(tenant, app, item string, obj map[string]any) error {
		if dup := declaration.HasDuplicate(obj); dup.IsDuplicate {
			return &adcerrors.RequestError{
				Status: http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("property %s in /%s/%s/%s contains duplicate entries",
					dup.Property, tenant, app, item),
			}
		}
		return nil
	})
}

// wrapPerApp lifts a per-application document into a full declaration
// owned by the named tenant. Application members move under the tenant;
// document metadata stays at the top.
func wrapPerApp(doc declaration.Declaration, tenant string) declaration.Declaration {
	id, _ := doc["id"].(string)
	if id == "" {
		id = "autogen_" + uuid.NewString()
	}
	schemaVersion, _ := doc["schemaVersion"].(string)
	if schemaVersion == "" {
		schemaVersion = adctools.DefaultSchemaVersion()
	}

	tenantObj := map[string]any{declaration.ClassKey: declaration.ClassTenant}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		member, ok := doc[name].(map[string]any)
		if !ok || declaration.ClassOf(member) != declaration.ClassApplication {
			continue
		}
		tenantObj[name] = member
	}

	return declaration.Declaration{
		declaration.ClassKey: declaration.ClassADC,
		"id":                 id,
		"schemaVersion":      schemaVersion,
		tenant:               tenantObj,
	}
}

// mergeBase lays the incoming declaration over a base declaration.
// Incoming members replace same-named base members wholesale; there is
// no deep merge, matching selective-update semantics at tenant
// granularity.
func mergeBase(base, incoming declaration.Declaration) declaration.Declaration {
	merged := base.Clone()
	names := make([]string, 0, len(incoming))
	for name := range incoming {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		merged[name] = jsonutil.DeepCopy(incoming[name])
	}
	return merged
}
