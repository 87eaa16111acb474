package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kerem-kaynak/steward/internal/database"
)

// Form binds generated fields to submitted or pre-filled values for one
// request. Forms are transient, build one per request and discard it.
type Form struct {
	Fields []*Field

	byName map[string]*Field
}

// Generator is the form-generation capability: it turns column metadata into
// a bound form.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Build creates a form for the given columns. Primary-key columns are
// excluded unless an existing record is supplied (edit mode). Record values
// pre-fill the fields, with JSON columns rendered as indented text.
func (g *Generator) Build(columns []database.Column, record database.Record, excluded []string) *Form {
	form := &Form{byName: make(map[string]*Field, len(columns))}

	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	for _, col := range columns {
		if skip[col.Name] {
			continue
		}
		if col.PrimaryKey && record == nil {
			continue
		}

		field := FieldFor(col)
		if record != nil {
			value, ok := record[col.Name]
			if ok {
				if field.Kind == KindJSON {
					value = LoadJSONValue(value)
				}
				field.Value = value
				field.Raw = renderRaw(value, field.Kind)
			}
		}

		form.Fields = append(form.Fields, field)
		form.byName[field.Name] = field
	}

	return form
}

// Field looks up a field by column name.
func (f *Form) Field(name string) *Field {
	return f.byName[name]
}

// Bind replaces field values with submitted form data.
func (f *Form) Bind(values url.Values) {
	for _, field := range f.Fields {
		field.Raw = values.Get(field.Name)
	}
}

// Validate checks every field against its kind and constraints, recording
// per-field errors. It returns true when the form is valid.
func (f *Form) Validate() bool {
	valid := true
	for _, field := range f.Fields {
		field.Errors = nil
		if !validateField(field) {
			valid = false
		}
	}
	return valid
}

// Data returns the typed values of all fields keyed by column name.
func (f *Form) Data() map[string]any {
	data := make(map[string]any, len(f.Fields))
	for _, field := range f.Fields {
		data[field.Name] = field.Value
	}
	return data
}

// FieldErrors collects validation errors keyed by column name.
func (f *Form) FieldErrors() map[string][]string {
	errs := make(map[string][]string)
	for _, field := range f.Fields {
		if len(field.Errors) > 0 {
			errs[field.Name] = field.Errors
		}
	}
	return errs
}

func validateField(field *Field) bool {
	raw := field.Raw
	trimmed := strings.TrimSpace(raw)

	if field.Kind == KindBoolean {
		switch strings.ToLower(trimmed) {
		case "on", "true", "1", "yes":
			field.Value = true
		default:
			field.Value = false
		}
		return true
	}

	// JSON keeps whatever was submitted, blank and whitespace included.
	if field.Kind == KindJSON {
		if field.Required && trimmed == "" {
			field.Errors = append(field.Errors, "This field is required.")
			return false
		}
		field.Value = ParseJSONText(raw)
		return true
	}

	if trimmed == "" {
		if field.Required {
			field.Errors = append(field.Errors, "This field is required.")
			return false
		}
		field.Value = nil
		return true
	}

	switch field.Kind {
	case KindInteger:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			field.Errors = append(field.Errors, "Not a valid integer value.")
			return false
		}
		field.Value = n
	case KindDateTime:
		t, err := parseTime(trimmed)
		if err != nil {
			field.Errors = append(field.Errors, "Not a valid datetime value.")
			return false
		}
		field.Value = t
	default:
		if field.MaxLength > 0 && utf8.RuneCountInString(raw) > field.MaxLength {
			field.Errors = append(field.Errors,
				fmt.Sprintf("Field cannot be longer than %d characters.", field.MaxLength))
			return false
		}
		field.Value = raw
	}
	return true
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04", s)
}

func renderRaw(value any, kind Kind) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return ""
	case time.Time:
		return v.Format(TimeLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(TimeLayout)
	default:
		return fmt.Sprint(v)
	}
}
