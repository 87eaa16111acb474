package forms

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kerem-kaynak/steward/internal/database"
)

// Kind classifies the input widget generated for a column.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindBoolean
	KindText
	KindJSON
	KindDateTime
)

// TimeLayout is the parse/format pattern used by datetime fields.
const TimeLayout = "2006-01-02 15:04:05"

var lengthPattern = regexp.MustCompile(`\((\d+)\)`)

// Field is one input in a generated form. Raw holds the text as submitted or
// rendered, Value holds the typed value produced by validation or prefill.
type Field struct {
	Name      string
	Label     string
	Kind      Kind
	Required  bool
	MaxLength int

	Raw    string
	Value  any
	Errors []string
}

// FieldFor maps a column descriptor to a field definition. The declared type
// string is matched case-insensitively, first rule wins.
func FieldFor(col database.Column) *Field {
	columnType := strings.ToLower(col.Type)

	field := &Field{
		Name:     col.Name,
		Label:    labelFor(col.Name),
		Required: !col.Nullable && !col.PrimaryKey && col.Default == nil,
	}

	switch {
	case strings.Contains(columnType, "int"):
		field.Kind = KindInteger
	case strings.Contains(columnType, "bool"):
		field.Kind = KindBoolean
		field.Required = false
	case strings.Contains(columnType, "text"), strings.Contains(columnType, "clob"):
		field.Kind = KindText
	case strings.Contains(columnType, "json"):
		field.Kind = KindJSON
	case strings.Contains(columnType, "datetime"), strings.Contains(columnType, "timestamp"):
		field.Kind = KindDateTime
	default:
		field.Kind = KindString
		if m := lengthPattern.FindStringSubmatch(columnType); m != nil {
			field.MaxLength = atoiSafe(m[1])
		}
	}

	return field
}

// Checked reports whether a boolean field renders ticked.
func (f *Field) Checked() bool {
	switch strings.ToLower(strings.TrimSpace(f.Raw)) {
	case "on", "true", "1", "yes":
		return true
	}
	if v, ok := f.Value.(bool); ok {
		return v
	}
	return false
}

// Multiline reports whether the field renders as a textarea.
func (f *Field) Multiline() bool {
	return f.Kind == KindText || f.Kind == KindJSON
}

// InputType returns the HTML input type for single-line fields.
func (f *Field) InputType() string {
	switch f.Kind {
	case KindInteger:
		return "number"
	case KindBoolean:
		return "checkbox"
	default:
		return "text"
	}
}

func labelFor(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
