package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/kerem-kaynak/steward/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Widget struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"type:varchar(100);not null"`
	Notes     string     `gorm:"type:text"`
	Config    string     `gorm:"type:json"`
	Active    bool       `gorm:"type:boolean;default:true"`
	ShippedAt *time.Time `gorm:"type:datetime"`
	ShelfID   uint
}

type Shelf struct {
	ID      uint   `gorm:"primaryKey"`
	Label   string `gorm:"type:varchar(50)"`
	Widgets []Widget
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single pooled connection keeps the in-memory database alive across
	// sessions.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Widget{}))
	return db
}

func newSession(t *testing.T, p *database.GormProvider) database.Session {
	t.Helper()
	s, err := p.Session(context.Background())
	require.NoError(t, err)
	return s
}

func TestSessionWithoutHandle(t *testing.T) {
	p := database.NewGormProvider(nil)
	_, err := p.Session(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no gorm.DB handle")
}

func TestColumns(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	columns, err := p.Columns(&Widget{})
	require.NoError(t, err)

	byName := map[string]database.Column{}
	for _, col := range columns {
		byName[col.Name] = col
	}

	id := byName["id"]
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	name := byName["name"]
	assert.Equal(t, "varchar(100)", name.Type)
	assert.False(t, name.Nullable)
	assert.False(t, name.PrimaryKey)
	assert.Nil(t, name.Default)

	assert.Equal(t, "text", byName["notes"].Type)
	assert.True(t, byName["notes"].Nullable)

	assert.Equal(t, "json", byName["config"].Type)

	active := byName["active"]
	assert.Equal(t, "boolean", active.Type)
	assert.NotNil(t, active.Default)

	assert.Equal(t, "datetime", byName["shipped_at"].Type)
}

func TestPrimaryKeys(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))
	pks, err := p.PrimaryKeys(&Widget{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, pks)
}

func TestCRUDLifecycle(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	s := newSession(t, p)
	created, err := p.Create(s, &Widget{}, map[string]any{
		"name":   "alpha",
		"notes":  "first widget",
		"config": `{"speed": 3}`,
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	assert.Equal(t, "alpha", created["name"])

	s = newSession(t, p)
	count, err := p.Count(s, &Widget{}, database.Query{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	records, err := p.List(s, &Widget{}, database.Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	key := map[string]any{"id": records[0]["id"]}

	record, err := p.GetByKey(s, &Widget{}, key)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "alpha", record["name"])

	updated, err := p.Update(s, &Widget{}, key, map[string]any{"name": "beta"})
	require.NoError(t, err)
	assert.Equal(t, "beta", updated["name"])

	deleted, err := p.Delete(s, &Widget{}, key)
	require.NoError(t, err)
	assert.True(t, deleted)
	require.NoError(t, s.Commit())

	s = newSession(t, p)
	count, err = p.Count(s, &Widget{}, database.Query{})
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, s.Rollback())
}

func TestGetByKeyMissing(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))
	s := newSession(t, p)
	defer s.Rollback()

	record, err := p.GetByKey(s, &Widget{}, map[string]any{"id": 999})
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestUpdateMissing(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))
	s := newSession(t, p)
	defer s.Rollback()

	_, err := p.Update(s, &Widget{}, map[string]any{"id": 999}, map[string]any{"name": "x"})
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))
	s := newSession(t, p)
	defer s.Rollback()

	deleted, err := p.Delete(s, &Widget{}, map[string]any{"id": 999})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListSearchAndPagination(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	s := newSession(t, p)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := p.Create(s, &Widget{}, map[string]any{"name": name})
		require.NoError(t, err)
	}
	require.NoError(t, s.Commit())

	s = newSession(t, p)
	defer s.Rollback()

	q := database.Query{Search: "ALPHA", SearchColumns: []string{"name"}}
	records, err := p.List(s, &Widget{}, q)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alpha", records[0]["name"])

	count, err := p.Count(s, &Widget{}, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	page, err := p.List(s, &Widget{}, database.Query{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "beta", page[0]["name"])
}

func TestListColumnFilters(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	s := newSession(t, p)
	_, err := p.Create(s, &Widget{}, map[string]any{"name": "kept", "notes": "a"})
	require.NoError(t, err)
	_, err = p.Create(s, &Widget{}, map[string]any{"name": "skipped", "notes": "b"})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	s = newSession(t, p)
	defer s.Rollback()

	records, err := p.List(s, &Widget{}, database.Query{ColumnFilters: map[string]any{"notes": "a"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["name"])
}

func TestRollbackDiscardsWrites(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	s := newSession(t, p)
	_, err := p.Create(s, &Widget{}, map[string]any{"name": "ephemeral"})
	require.NoError(t, err)
	require.NoError(t, s.Rollback())

	s = newSession(t, p)
	defer s.Rollback()
	count, err := p.Count(s, &Widget{}, database.Query{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateNormalizesStructuredValues(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	s := newSession(t, p)
	_, err := p.Create(s, &Widget{}, map[string]any{
		"name":   "structured",
		"config": map[string]any{"a": 1},
	})
	require.NoError(t, err)

	records, err := p.List(s, &Widget{}, database.Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `{"a":1}`, records[0]["config"])
	require.NoError(t, s.Rollback())
}

func TestRelationships(t *testing.T) {
	p := database.NewGormProvider(openTestDB(t))

	rels, err := p.Relationships(&Shelf{})
	require.NoError(t, err)
	require.Contains(t, rels, "Widgets")
	assert.Equal(t, "widgets", rels["Widgets"].RelatedTable)
}
