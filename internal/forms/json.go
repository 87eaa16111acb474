package forms

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// LoadJSONValue prepares a stored JSON column value for display in a text
// area. Strings and nils pass through untouched so existing JSON text is
// never double-encoded.
func LoadJSONValue(value any) any {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok {
		return s
	}
	return MarshalIndentLenient(value)
}

// MarshalIndentLenient serializes a value to indented JSON. Leaves the
// encoder cannot handle are replaced by their string representation rather
// than failing the whole document.
func MarshalIndentLenient(value any) string {
	b, err := json.MarshalIndent(value, "", "  ")
	if err == nil {
		return string(b)
	}

	b, err = json.MarshalIndent(stringifyUnmarshalable(value), "", "  ")
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(b)
}

// ParseJSONText interprets submitted text for a JSON column. Malformed JSON
// and blank input keep the raw string as-is, this never fails.
func ParseJSONText(text string) any {
	if strings.TrimSpace(text) == "" {
		return text
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return text
	}
	return parsed
}

func stringifyUnmarshalable(value any) any {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = stringifyUnmarshalable(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = stringifyUnmarshalable(v.Index(i).Interface())
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return stringifyUnmarshalable(v.Elem().Interface())
	default:
		if _, err := json.Marshal(value); err != nil {
			return fmt.Sprint(value)
		}
		return value
	}
}
