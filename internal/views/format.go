package views

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/kerem-kaynak/steward/internal/database"
)

// Formatter renders one column of a record for list or detail display.
type Formatter func(record database.Record, column string) string

const displayTimeLayout = "2006-01-02 15:04"

// jsonDisplayCap bounds serialized JSON in list cells.
const jsonDisplayCap = 100

// FormatValue renders a value for display. Mappings and sequences are shown
// as compact JSON capped at jsonDisplayCap characters; fallback string
// representations are never truncated.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "✓"
		}
		return "✗"
	case time.Time:
		return v.Format(displayTimeLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(displayTimeLayout)
	case string:
		return v
	case []byte:
		return string(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return truncateDisplay(string(b))
	}

	return fmt.Sprint(value)
}

func truncateDisplay(s string) string {
	if utf8.RuneCountInString(s) <= jsonDisplayCap {
		return s
	}
	runes := []rune(s)
	return string(runes[:jsonDisplayCap-3]) + "..."
}
