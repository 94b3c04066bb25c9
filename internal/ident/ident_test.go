package ident

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemID(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "simple", input: "q-learning", valid: true},
		{name: "mixed case", input: "FrozenLake-v1", valid: true},
		{name: "leading underscore", input: "_internal", valid: true},
		{name: "single char", input: "a", valid: true},
		{name: "max length", input: "a" + strings.Repeat("b", 31), valid: true},
		{name: "too long", input: "a" + strings.Repeat("b", 32), valid: false},
		{name: "empty", input: "", valid: false},
		{name: "leading digit", input: "1agent", valid: false},
		{name: "leading dash", input: "-agent", valid: false},
		{name: "whitespace", input: "q learning", valid: false},
		{name: "dot", input: "q.learning", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseItemID(tc.input)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, tc.input, id.String())
				return
			}
			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, "item id", formatErr.Kind)
			assert.Equal(t, tc.input, formatErr.Value)
		})
	}
}

func TestParseCategoryID(t *testing.T) {
	testCases := []struct {
		input string
		valid bool
	}{
		{input: "agent", valid: true},
		{input: "env", valid: true},
		{input: "my_category-2", valid: true},
		{input: "Agent", valid: false}, // category ids are lowercase
		{input: "", valid: false},
		{input: "2agents", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseCategoryID(tc.input)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				var formatErr *FormatError
				assert.ErrorAs(t, err, &formatErr)
			}
		})
	}
}

func TestParseEntryPointID(t *testing.T) {
	testCases := []struct {
		input string
		valid bool
	}{
		{input: "plugins/rlexp:rl", valid: true},
		{input: "gym.envs.toy_text:TaxiEnv", valid: true},
		{input: "pkg:item", valid: true},
		{input: "pkg", valid: false},          // missing item id
		{input: ":item", valid: false},        // missing module path
		{input: "pkg:", valid: false},         // empty item id
		{input: "pkg:a:b", valid: false},      // double colon
		{input: "pkg/:item", valid: false},    // trailing separator
		{input: "pkg:bad item", valid: false}, // item grammar applies
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseEntryPointID(tc.input)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				var formatErr *FormatError
				assert.True(t, errors.As(err, &formatErr))
			}
		})
	}
}
