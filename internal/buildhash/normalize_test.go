package buildhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Deterministic(t *testing.T) {
	v := map[string]any{
		"sources": map[string]any{"core": map[string]any{"ref": "v1", "url": "https://example.com"}},
		"args":    map[string]string{"A": "1", "B": "2"},
	}

	assert.Equal(t, Normalize(v), Normalize(v), "repeated calls should produce identical output")
}

func TestNormalize_KeyOrderInsensitive(t *testing.T) {
	a := map[string]any{"a": 1, "b": 2, "c": 3}
	b := map[string]any{"c": 3, "a": 1, "b": 2}

	assert.Equal(t, Normalize(a), Normalize(b), "map key order should not affect output")
}

func TestNormalize_SequenceOrderSensitive(t *testing.T) {
	assert.NotEqual(t, Normalize([]any{1, 2}), Normalize([]any{2, 1}),
		"sequence order is semantically significant")
}

func TestNormalize_NullDistinctFromStrings(t *testing.T) {
	assert.Equal(t, "null", Normalize(nil))
	assert.NotEqual(t, Normalize(nil), Normalize("null"), "nil must not collide with the string \"null\"")
	assert.NotEqual(t, Normalize(nil), Normalize(""), "nil must not collide with the empty string")
}

func TestNormalize_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"empty string", "", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_NestedStructure(t *testing.T) {
	v := map[string]any{
		"deps": []any{
			map[string]any{"service": "base"},
			map[string]any{"service": "proxy"},
		},
		"empty": map[string]any{},
	}

	assert.Equal(t,
		`{"deps":[{"service":"base"},{"service":"proxy"}],"empty":{}}`,
		Normalize(v))
}

func TestNormalize_StringMapEqualsAnyMap(t *testing.T) {
	a := map[string]string{"x": "1", "y": "2"}
	b := map[string]any{"x": "1", "y": "2"}

	assert.Equal(t, Normalize(a), Normalize(b), "map value type should not leak into the representation")
}
