package postprocess

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	adctools "github.com/F5Networks/f5-appsvcs-extension-sub010"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/schema"
)

// SecretResolver resolves declaration secrets against the device.
type SecretResolver interface {
	// Encrypt turns plaintext into a mini-JWE cryptogram object
	// ({"ciphertext": ..., "protected": ..., "miniJWE": true}).
	Encrypt(ctx context.Context, plaintext string) (map[string]any, error)

	// StoreLong stores a long secret on the device and returns the
	// device secret handle that replaces it in the declaration.
	StoreLong(ctx context.Context, plaintext string) (string, error)
}

// FetchFunc retrieves remote content for policies and certificates. The
// caller supplies any timeout policy through ctx; there is no mid-fetch
// cancellation beyond it.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// ComponentChecker answers device component existence checks.
type ComponentChecker interface {
	HasComponent(ctx context.Context, kind, path string) (bool, error)
}

// Processor executes post-process instructions against a declaration.
// Nil collaborators downgrade the instructions that need them to
// warnings, which supports dry ("scratch") validation runs.
type Processor struct {
	Secrets SecretResolver
	Fetch   FetchFunc
	Host    ComponentChecker
	Logger  adctools.Logger
}

// Result reports the warnings accumulated during processing.
type Result struct {
	Warnings []string
}

// tagOrder fixes the execution order of instruction groups. Pointers
// resolve first so later existence checks see rewritten paths.
var tagOrder = []schema.Tag{
	schema.TagPointer,
	schema.TagSecret,
	schema.TagLongSecret,
	schema.TagCheckResource,
	schema.TagFetch,
	schema.TagBigComponent,
}

// Process executes the recorded instructions against the declaration,
// mutating it in place. The first hard failure aborts processing.
func (p *Processor) Process(ctx context.Context, decl declaration.Declaration, instructions []schema.Instruction) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = adctools.NopLogger{}
	}
	result := &Result{}

	grouped := make(map[schema.Tag][]schema.Instruction, len(tagOrder))
	for _, instr := range instructions {
		grouped[instr.Tag] = append(grouped[instr.Tag], instr)
	}

	for _, tag := range tagOrder {
		for _, instr := range grouped[tag] {
			value, err := decl.GetPointer(instr.Instance)
			if err != nil {
				// The target may have been removed by an earlier
				// instruction; that's fine, keep going.
				warning := fmt.Sprintf("postProcess %s target %s no longer exists; skipping", tag, instr.Instance)
				logger.Warn("postProcess target vanished", "tag", tag, "instance", instr.Instance)
				result.Warnings = append(result.Warnings, warning)
				continue
			}

			var handlerErr error
			switch tag {
			case schema.TagPointer:
				handlerErr = p.handlePointer(decl, instr, value)
			case schema.TagSecret:
				handlerErr = p.handleSecret(ctx, decl, instr, value, result)
			case schema.TagLongSecret:
				handlerErr = p.handleLongSecret(ctx, decl, instr, value, result)
			case schema.TagCheckResource:
				handlerErr = p.handleCheckResource(ctx, instr, value, result)
			case schema.TagFetch:
				handlerErr = p.handleFetch(ctx, decl, instr, value, result)
			case schema.TagBigComponent:
				handlerErr = p.handleBigComponent(ctx, instr, value, result)
			}
			if handlerErr != nil {
				return nil, handlerErr
			}
		}
	}

	return result, nil
}

// handlePointer resolves an AS3 pointer property, checks the referenced
// class when the instruction names one, and rewrites the property to the
// canonical absolute path.
func (p *Processor) handlePointer(decl declaration.Declaration, instr schema.Instruction, value any) error {
	pointer, ok := value.(string)
	if !ok {
		return &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("property at %s must be a pointer string", instr.Instance),
		}
	}

	target, abs, err := decl.ResolvePointer(pointer, sourceOf(instr.Instance))
	if err != nil {
		if reqErr, isReq := err.(*adcerrors.RequestError); isReq {
			return reqErr
		}
		return &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("unable to resolve pointer %s at %s", pointer, instr.Instance),
			Cause:   err,
		}
	}

	if wantClass, _ := instr.Data["class"].(string); wantClass != "" {
		if got := declaration.ClassOf(target); got != wantClass {
			return &adcerrors.RequestError{
				Status: http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("pointer %s at %s references class %s, expected %s",
					pointer, instr.Instance, got, wantClass),
			}
		}
	}

	return decl.SetPointer(instr.Instance, abs)
}

func (p *Processor) handleSecret(ctx context.Context, decl declaration.Declaration, instr schema.Instruction, value any, result *Result) error {
	switch secret := value.(type) {
	case string:
		if p.Secrets == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no secret resolver configured; leaving %s as-is", instr.Instance))
			return nil
		}
		cryptogram, err := p.Secrets.Encrypt(ctx, secret)
		if err != nil {
			return fmt.Errorf("failed to encrypt secret at %s: %w", instr.Instance, err)
		}
		return decl.SetPointer(instr.Instance, cryptogram)
	case map[string]any:
		// Already a mini-JWE cryptogram; nothing to do.
		if _, has := secret["ciphertext"]; has {
			return nil
		}
		return &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("secret at %s is neither plaintext nor a cryptogram", instr.Instance),
		}
	default:
		return nil
	}
}

func (p *Processor) handleLongSecret(ctx context.Context, decl declaration.Declaration, instr schema.Instruction, value any, result *Result) error {
	plaintext, ok := value.(string)
	if !ok {
		return nil
	}
	if p.Secrets == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no secret resolver configured; leaving %s as-is", instr.Instance))
		return nil
	}
	handle, err := p.Secrets.StoreLong(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("failed to store long secret at %s: %w", instr.Instance, err)
	}
	return decl.SetPointer(instr.Instance, handle)
}

func (p *Processor) handleCheckResource(ctx context.Context, instr schema.Instruction, value any, result *Result) error {
	url := urlOf(value)
	if url == "" {
		return nil
	}
	if p.Fetch == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no fetcher configured; resource at %s not checked", instr.Instance))
		return nil
	}
	if _, err := p.Fetch(ctx, url); err != nil {
		return &adcerrors.FetchError{URL: url, Message: fmt.Sprintf("resource check failed for %s", instr.Instance), Cause: err}
	}
	return nil
}

// handleFetch replaces a {"url": ...} property with the fetched content.
func (p *Processor) handleFetch(ctx context.Context, decl declaration.Declaration, instr schema.Instruction, value any, result *Result) error {
	url := urlOf(value)
	if url == "" {
		return nil
	}
	if p.Fetch == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no fetcher configured; leaving %s unfetched", instr.Instance))
		return nil
	}
	content, err := p.Fetch(ctx, url)
	if err != nil {
		return &adcerrors.FetchError{URL: url, Message: fmt.Sprintf("fetch failed for %s", instr.Instance), Cause: err}
	}
	return decl.SetPointer(instr.Instance, string(content))
}

func (p *Processor) handleBigComponent(ctx context.Context, instr schema.Instruction, value any, result *Result) error {
	path := ""
	switch v := value.(type) {
	case string:
		path = v
	case map[string]any:
		path, _ = v["bigip"].(string)
	}
	if path == "" {
		return nil
	}
	if p.Host == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no device reader configured; existence of %s not checked", path))
		return nil
	}

	kind, _ := instr.Data["kind"].(string)
	exists, err := p.Host.HasComponent(ctx, kind, path)
	if err != nil {
		return fmt.Errorf("failed to check device component %s: %w", path, err)
	}
	if !exists {
		return &adcerrors.RequestError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("device component %s referenced at %s does not exist", path, instr.Instance),
		}
	}
	return nil
}

// sourceOf derives the pointer source location from an instance path
// shaped /tenant/application/item/...
func sourceOf(instance string) declaration.Source {
	tokens := strings.Split(strings.TrimPrefix(instance, "/"), "/")
	src := declaration.Source{}
	if len(tokens) > 0 {
		src.Tenant = declaration.UnescapeToken(tokens[0])
	}
	if len(tokens) > 1 {
		src.Application = declaration.UnescapeToken(tokens[1])
	}
	if len(tokens) > 2 {
		src.Item = declaration.UnescapeToken(tokens[2])
	}
	return src
}

func urlOf(value any) string {
	switch v := value.(type) {
	case string:
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return v
		}
	case map[string]any:
		url, _ := v["url"].(string)
		return url
	}
	return ""
}
