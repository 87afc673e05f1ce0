package postprocess

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/schema"
)

type fakeSecrets struct {
	encrypted []string
	stored    []string
}

func (f *fakeSecrets) Encrypt(_ context.Context, plaintext string) (map[string]any, error) {
	f.encrypted = append(f.encrypted, plaintext)
	return map[string]any{
		"ciphertext": "enc(" + plaintext + ")",
		"protected":  "eyJhbGciOiJkaXIifQ",
		"miniJWE":    true,
	}, nil
}

func (f *fakeSecrets) StoreLong(_ context.Context, plaintext string) (string, error) {
	f.stored = append(f.stored, plaintext)
	return "device-handle-1", nil
}

type fakeHost struct {
	components map[string]bool
}

func (f *fakeHost) HasComponent(_ context.Context, kind, path string) (bool, error) {
	return f.components[path], nil
}

func processDeclaration() declaration.Declaration {
	return declaration.Declaration{
		"class": "ADC",
		"T1": map[string]any{
			"class": "Tenant",
			"A1": map[string]any{
				"class": "Application",
				"svc": map[string]any{
					"class": "Service_HTTP",
					"pool":  "webpool",
				},
				"webpool": map[string]any{"class": "Pool"},
			},
		},
	}
}

func TestProcess_PointerRewrite(t *testing.T) {
	decl := processDeclaration()
	p := &Processor{}

	result, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagPointer,
		Data:     map[string]any{"class": "Pool"},
		Instance: "/T1/A1/svc/pool",
	}})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	pool, err := decl.GetPointer("/T1/A1/svc/pool")
	require.NoError(t, err)
	assert.Equal(t, "/T1/A1/webpool", pool)
}

func TestProcess_PointerClassMismatch(t *testing.T) {
	decl := processDeclaration()
	p := &Processor{}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagPointer,
		Data:     map[string]any{"class": "Monitor"},
		Instance: "/T1/A1/svc/pool",
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrRequest))
	assert.Contains(t, err.Error(), "references class Pool, expected Monitor")
}

func TestProcess_PointerScopeViolation(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	app["svc"].(map[string]any)["pool"] = "/T2/other/pool"
	p := &Processor{}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagPointer,
		Instance: "/T1/A1/svc/pool",
	}})
	require.Error(t, err)

	var reqErr *adcerrors.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 422, reqErr.Status)
}

func TestProcess_SecretEncryption(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	app["svc"].(map[string]any)["passphrase"] = "hunter2"

	secrets := &fakeSecrets{}
	p := &Processor{Secrets: secrets}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagSecret,
		Instance: "/T1/A1/svc/passphrase",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"hunter2"}, secrets.encrypted)

	value, err := decl.GetPointer("/T1/A1/svc/passphrase")
	require.NoError(t, err)
	cryptogram, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "enc(hunter2)", cryptogram["ciphertext"])
}

func TestProcess_SecretAlreadyCryptogram(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	original := map[string]any{"ciphertext": "abc", "miniJWE": true}
	app["svc"].(map[string]any)["passphrase"] = original

	secrets := &fakeSecrets{}
	p := &Processor{Secrets: secrets}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagSecret,
		Instance: "/T1/A1/svc/passphrase",
	}})
	require.NoError(t, err)
	assert.Empty(t, secrets.encrypted)

	value, _ := decl.GetPointer("/T1/A1/svc/passphrase")
	assert.Equal(t, original, value)
}

func TestProcess_LongSecret(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	app["svc"].(map[string]any)["token"] = "a-very-long-secret"

	secrets := &fakeSecrets{}
	p := &Processor{Secrets: secrets}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagLongSecret,
		Instance: "/T1/A1/svc/token",
	}})
	require.NoError(t, err)

	value, _ := decl.GetPointer("/T1/A1/svc/token")
	assert.Equal(t, "device-handle-1", value)
}

func TestProcess_FetchReplacesURL(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	app["svc"].(map[string]any)["iRule"] = map[string]any{"url": "https://example.com/rule.tcl"}

	p := &Processor{Fetch: func(_ context.Context, url string) ([]byte, error) {
		return []byte("when HTTP_REQUEST {}"), nil
	}}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagFetch,
		Instance: "/T1/A1/svc/iRule",
	}})
	require.NoError(t, err)

	value, _ := decl.GetPointer("/T1/A1/svc/iRule")
	assert.Equal(t, "when HTTP_REQUEST {}", value)
}

func TestProcess_CheckResourceFailure(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	app["svc"].(map[string]any)["policy"] = map[string]any{"url": "https://example.com/404"}

	p := &Processor{Fetch: func(_ context.Context, url string) ([]byte, error) {
		return nil, fmt.Errorf("status 404")
	}}

	_, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagCheckResource,
		Instance: "/T1/A1/svc/policy",
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrFetch))
}

func TestProcess_BigComponent(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	app["svc"].(map[string]any)["profileHTTP"] = map[string]any{"bigip": "/Common/http"}

	instr := schema.Instruction{
		Tag:      schema.TagBigComponent,
		Data:     map[string]any{"kind": "ltm profile http-profile"},
		Instance: "/T1/A1/svc/profileHTTP",
	}

	present := &Processor{Host: &fakeHost{components: map[string]bool{"/Common/http": true}}}
	_, err := present.Process(context.Background(), decl, []schema.Instruction{instr})
	require.NoError(t, err)

	missing := &Processor{Host: &fakeHost{components: map[string]bool{}}}
	_, err = missing.Process(context.Background(), decl, []schema.Instruction{instr})
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrRequest))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestProcess_NilCollaboratorsWarn(t *testing.T) {
	decl := processDeclaration()
	tenant := decl["T1"].(map[string]any)
	app := tenant["A1"].(map[string]any)
	svc := app["svc"].(map[string]any)
	svc["passphrase"] = "plain"
	svc["profileHTTP"] = map[string]any{"bigip": "/Common/http"}

	p := &Processor{}
	result, err := p.Process(context.Background(), decl, []schema.Instruction{
		{Tag: schema.TagSecret, Instance: "/T1/A1/svc/passphrase"},
		{Tag: schema.TagBigComponent, Instance: "/T1/A1/svc/profileHTTP"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 2)
}

func TestProcess_VanishedTargetWarns(t *testing.T) {
	decl := processDeclaration()
	p := &Processor{}

	result, err := p.Process(context.Background(), decl, []schema.Instruction{{
		Tag:      schema.TagPointer,
		Instance: "/T1/A1/gone/pool",
	}})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no longer exists")
}
