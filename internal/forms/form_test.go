package forms_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/kerem-kaynak/steward/internal/database"
	"github.com/kerem-kaynak/steward/internal/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetColumns() []database.Column {
	return []database.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "name", Type: "VARCHAR(50)"},
		{Name: "notes", Type: "TEXT", Nullable: true},
		{Name: "config", Type: "JSON", Nullable: true},
		{Name: "active", Type: "BOOLEAN", Nullable: true},
		{Name: "shipped_at", Type: "DATETIME", Nullable: true},
	}
}

func TestBuildSkipsPrimaryKeyOnCreate(t *testing.T) {
	g := forms.NewGenerator()

	form := g.Build(widgetColumns(), nil, nil)
	assert.Nil(t, form.Field("id"))
	assert.NotNil(t, form.Field("name"))

	form = g.Build(widgetColumns(), database.Record{"id": 3, "name": "thing"}, nil)
	assert.NotNil(t, form.Field("id"))
}

func TestBuildExcludesColumns(t *testing.T) {
	g := forms.NewGenerator()
	form := g.Build(widgetColumns(), nil, []string{"notes"})
	assert.Nil(t, form.Field("notes"))
}

func TestBuildPrefillsRecord(t *testing.T) {
	g := forms.NewGenerator()
	shipped := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	record := database.Record{
		"id":         7,
		"name":       "conveyor",
		"config":     map[string]any{"speed": 3},
		"active":     true,
		"shipped_at": shipped,
	}

	form := g.Build(widgetColumns(), record, nil)

	assert.Equal(t, "conveyor", form.Field("name").Raw)
	assert.Equal(t, "2026-03-14 09:30:00", form.Field("shipped_at").Raw)
	assert.True(t, form.Field("active").Checked())

	// JSON columns are rendered as indented text.
	configRaw := form.Field("config").Raw
	assert.Contains(t, configRaw, "\"speed\": 3")
	assert.Contains(t, configRaw, "\n")
}

func TestValidateRequired(t *testing.T) {
	g := forms.NewGenerator()
	form := g.Build(widgetColumns(), nil, nil)
	form.Bind(url.Values{})

	require.False(t, form.Validate())
	errs := form.FieldErrors()
	assert.Contains(t, errs, "name")
	assert.NotContains(t, errs, "notes")
}

func TestValidateInteger(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "count", Type: "INTEGER", Nullable: true}}

	form := g.Build(columns, nil, nil)
	form.Bind(url.Values{"count": {"12"}})
	require.True(t, form.Validate())
	assert.Equal(t, 12, form.Data()["count"])

	form = g.Build(columns, nil, nil)
	form.Bind(url.Values{"count": {"twelve"}})
	require.False(t, form.Validate())
	assert.Contains(t, form.FieldErrors(), "count")
}

func TestValidateMaxLength(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "code", Type: "VARCHAR(4)", Nullable: true}}

	form := g.Build(columns, nil, nil)
	form.Bind(url.Values{"code": {"toolong"}})
	require.False(t, form.Validate())

	form = g.Build(columns, nil, nil)
	form.Bind(url.Values{"code": {"ok"}})
	require.True(t, form.Validate())
}

func TestValidateBoolean(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "active", Type: "BOOLEAN"}}

	form := g.Build(columns, nil, nil)
	form.Bind(url.Values{"active": {"on"}})
	require.True(t, form.Validate())
	assert.Equal(t, true, form.Data()["active"])

	form = g.Build(columns, nil, nil)
	form.Bind(url.Values{})
	require.True(t, form.Validate())
	assert.Equal(t, false, form.Data()["active"])
}

func TestValidateDateTime(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "shipped_at", Type: "TIMESTAMP", Nullable: true}}

	form := g.Build(columns, nil, nil)
	form.Bind(url.Values{"shipped_at": {"2026-03-14 09:30:00"}})
	require.True(t, form.Validate())
	shipped, ok := form.Data()["shipped_at"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2026, shipped.Year())

	form = g.Build(columns, nil, nil)
	form.Bind(url.Values{"shipped_at": {"not a date"}})
	require.False(t, form.Validate())
}

func TestValidateBlankJSONKeepsRawText(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "config", Type: "JSON", Nullable: true}}

	for _, raw := range []string{"", "   "} {
		form := g.Build(columns, nil, nil)
		form.Bind(url.Values{"config": {raw}})
		require.True(t, form.Validate())
		assert.Equal(t, raw, form.Data()["config"])
	}
}

func TestValidateBlankRequiredJSON(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "config", Type: "JSON"}}

	form := g.Build(columns, nil, nil)
	form.Bind(url.Values{"config": {"  "}})
	require.False(t, form.Validate())
	assert.Contains(t, form.FieldErrors(), "config")
}

func TestValidateMalformedJSONNeverFails(t *testing.T) {
	g := forms.NewGenerator()
	columns := []database.Column{{Name: "config", Type: "JSON", Nullable: true}}

	form := g.Build(columns, nil, nil)
	form.Bind(url.Values{"config": {"{broken"}})
	require.True(t, form.Validate())
	assert.Equal(t, "{broken", form.Data()["config"])

	form = g.Build(columns, nil, nil)
	form.Bind(url.Values{"config": {`{"a": [1, 2]}`}})
	require.True(t, form.Validate())
	assert.Equal(t, map[string]any{"a": []any{float64(1), float64(2)}}, form.Data()["config"])
}
