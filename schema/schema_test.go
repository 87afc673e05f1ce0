package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

func TestRegisterBytes(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	require.NoError(t, v.RegisterBytes([]byte("$id: test-doc\ntype: object\n")))
	require.NoError(t, v.Compile())

	result, err := v.Validate("test-doc", map[string]any{})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestRegisterBytes_MissingID(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.RegisterBytes([]byte("type: object\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrSchemaCompile))
	assert.Contains(t, err.Error(), "no $id")
}

func TestRegister_Duplicate(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	require.NoError(t, v.Register("dup", map[string]any{}))
	require.Error(t, v.Register("dup", map[string]any{}))
}

func TestCompile_UnknownPostProcessTag(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("bad", map[string]any{
		"properties": map[string]any{
			"x": map[string]any{
				"postProcess": map[string]any{"tag": "bogus"},
			},
		},
	}))

	err = v.Compile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrSchemaCompile))
	assert.Contains(t, err.Error(), `unknown tag "bogus"`)
}

func TestCompile_UniqueItemsOnObjectArray(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("bad", map[string]any{
		"properties": map[string]any{
			"members": map[string]any{
				"type":        "array",
				"uniqueItems": true,
				"items":       map[string]any{"type": "object"},
			},
		},
	}))

	err = v.Compile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrSchemaCompile))
	assert.Contains(t, err.Error(), "duplicate validator")
}

func TestCompile_UniqueItemsOnPrimitiveArrayAllowed(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("ok", map[string]any{
		"properties": map[string]any{
			"tags": map[string]any{
				"type":        "array",
				"uniqueItems": true,
				"items":       map[string]any{"type": "string"},
			},
		},
	}))
	require.NoError(t, v.Compile())
}

func TestCompile_UnresolvableRef(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("bad", map[string]any{
		"properties": map[string]any{
			"x": map[string]any{"$ref": "#/definitions/missing"},
		},
	}))

	err = v.Compile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrSchemaCompile))
}

func TestCompile_UnknownFormat(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("bad", map[string]any{
		"properties": map[string]any{
			"x": map[string]any{"type": "string", "format": "nope"},
		},
	}))

	err = v.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "nope"`)
}

func TestCompile_CrossDocumentRef(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("doc-a", map[string]any{
		"properties": map[string]any{
			"x": map[string]any{"$ref": "doc-b#/definitions/thing"},
		},
	}))
	require.NoError(t, v.Register("doc-b", map[string]any{
		"definitions": map[string]any{
			"thing": map[string]any{"type": "string"},
		},
	}))
	require.NoError(t, v.Compile())

	result, err := v.Validate("doc-a", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidate_BeforeCompile(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Register("doc", map[string]any{}))

	_, err = v.Validate("doc", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compiled")
}

func TestValidate_UnknownSchemaID(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NoError(t, v.Compile())

	_, err = v.Validate("ghost", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema id")
}
