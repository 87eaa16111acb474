package forms_test

import (
	"encoding/json"
	"testing"

	"github.com/kerem-kaynak/steward/internal/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	values := []any{
		map[string]any{"a": float64(1), "b": []any{"x", "y"}},
		[]any{float64(1), "two", true, nil},
		map[string]any{"nested": map[string]any{"deep": []any{map[string]any{"k": "v"}}}},
		"plain string",
		float64(42),
		true,
	}

	for _, v := range values {
		text := forms.MarshalIndentLenient(v)
		var reparsed any
		require.NoError(t, json.Unmarshal([]byte(text), &reparsed))
		assert.Equal(t, v, reparsed)
	}
}

func TestParseJSONTextMalformed(t *testing.T) {
	for _, text := range []string{"{not json", "[1, 2", "{\"a\": }"} {
		assert.Equal(t, text, forms.ParseJSONText(text))
	}
}

func TestParseJSONTextBlank(t *testing.T) {
	assert.Equal(t, "", forms.ParseJSONText(""))
	assert.Equal(t, "   ", forms.ParseJSONText("   "))
	assert.Equal(t, "\n\t", forms.ParseJSONText("\n\t"))
}

func TestParseJSONTextValid(t *testing.T) {
	parsed := forms.ParseJSONText(`{"a": 1}`)
	assert.Equal(t, map[string]any{"a": float64(1)}, parsed)
}

func TestLoadJSONValuePassthrough(t *testing.T) {
	assert.Nil(t, forms.LoadJSONValue(nil))
	// Existing strings are never double-encoded.
	assert.Equal(t, `{"already": "text"}`, forms.LoadJSONValue(`{"already": "text"}`))
}

func TestLoadJSONValueSerializes(t *testing.T) {
	loaded := forms.LoadJSONValue(map[string]any{"a": 1})
	text, ok := loaded.(string)
	require.True(t, ok)
	assert.Contains(t, text, "\n")
	assert.True(t, json.Valid([]byte(text)))
}

func TestMarshalIndentLenientFallback(t *testing.T) {
	// Channels cannot be serialized, the leaf falls back to its string
	// representation while the rest of the document survives.
	value := map[string]any{"ok": "yes", "bad": make(chan int)}
	text := forms.MarshalIndentLenient(value)
	require.True(t, json.Valid([]byte(text)))
	assert.Contains(t, text, `"ok": "yes"`)
}
