package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"simple", "decl-001", true},
		{"spaces allowed", "my declaration id", true},
		{"max length", strings.Repeat("a", 255), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 256), false},
		{"double quote", `bad"id`, false},
		{"single quote", "bad'id", false},
		{"angle bracket", "bad<id", false},
		{"backslash", `bad\id`, false},
		{"caret", "bad^id", false},
		{"backtick", "bad`id", false},
		{"pipe", "bad|id", false},
		{"control character", "bad\tid", false},
		{"non ascii", "declarationé", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckID(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestCheckLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		valid bool
	}{
		{"empty is fine", "", true},
		{"simple", "my app", true},
		{"max length", strings.Repeat("b", 48), true},
		{"too long", strings.Repeat("b", 49), false},
		{"hash rejected", "label#1", false},
		{"asterisk rejected", "label*", false},
		{"question mark rejected", "label?", false},
		{"brackets rejected", "label[0]", false},
		{"ampersand rejected", "a&b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLabel(tt.label)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
