package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// GormProvider implements Provider on top of a *gorm.DB connection.
type GormProvider struct {
	db *gorm.DB
}

func NewGormProvider(db *gorm.DB) *GormProvider {
	return &GormProvider{db: db}
}

type gormSession struct {
	tx *gorm.DB
}

func (s *gormSession) Commit() error {
	return s.tx.Commit().Error
}

func (s *gormSession) Rollback() error {
	return s.tx.Rollback().Error
}

// Session begins a transaction scoped to the request. A missing database
// handle is a configuration error surfaced immediately.
func (p *GormProvider) Session(ctx context.Context) (Session, error) {
	if p.db == nil {
		return nil, fmt.Errorf("database provider has no gorm.DB handle configured")
	}

	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &gormSession{tx: tx}, nil
}

func (p *GormProvider) tx(s Session) (*gorm.DB, error) {
	gs, ok := s.(*gormSession)
	if !ok || gs.tx == nil {
		return nil, fmt.Errorf("session was not produced by this provider")
	}
	return gs.tx, nil
}

func (p *GormProvider) List(s Session, model any, q Query) ([]Record, error) {
	tx, err := p.tx(s)
	if err != nil {
		return nil, err
	}
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}

	stmt := applyQuery(tx.Table(sch.Table), q)
	if len(sch.PrimaryFieldDBNames) == 1 {
		stmt = stmt.Order(sch.PrimaryFieldDBNames[0])
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(q.Limit)
	}
	if q.Offset > 0 {
		stmt = stmt.Offset(q.Offset)
	}

	var rows []map[string]any
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", sch.Table, err)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record(row)
	}
	return records, nil
}

func (p *GormProvider) GetByKey(s Session, model any, key map[string]any) (Record, error) {
	tx, err := p.tx(s)
	if err != nil {
		return nil, err
	}
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}

	var row map[string]any
	err = tx.Table(sch.Table).Where(key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s record: %w", sch.Table, err)
	}
	return Record(row), nil
}

func (p *GormProvider) Create(s Session, model any, fields map[string]any) (Record, error) {
	tx, err := p.tx(s)
	if err != nil {
		return nil, err
	}
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}

	fields = normalizeFields(fields)
	if err := tx.Table(sch.Table).Create(fields).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", sch.Table, err)
	}

	// Re-read when the caller supplied the full key, so database-side
	// defaults show up in the result.
	if key, ok := keyFromFields(sch, fields); ok {
		return p.GetByKey(s, model, key)
	}

	created := make(Record, len(fields))
	for k, v := range fields {
		created[k] = v
	}
	return created, nil
}

func (p *GormProvider) Update(s Session, model any, key map[string]any, fields map[string]any) (Record, error) {
	tx, err := p.tx(s)
	if err != nil {
		return nil, err
	}
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}

	res := tx.Table(sch.Table).Where(key).Updates(normalizeFields(fields))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update %s record: %w", sch.Table, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%s record %v: %w", sch.Table, key, ErrNotFound)
	}
	return p.GetByKey(s, model, key)
}

func (p *GormProvider) Delete(s Session, model any, key map[string]any) (bool, error) {
	tx, err := p.tx(s)
	if err != nil {
		return false, err
	}
	sch, err := p.parse(model)
	if err != nil {
		return false, err
	}

	res := tx.Where(key).Delete(newOf(model))
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete %s record: %w", sch.Table, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (p *GormProvider) Count(s Session, model any, q Query) (int64, error) {
	tx, err := p.tx(s)
	if err != nil {
		return 0, err
	}
	sch, err := p.parse(model)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := applyQuery(tx.Table(sch.Table), q).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", sch.Table, err)
	}
	return n, nil
}

// Columns introspects the model schema. Descriptors are rebuilt on every
// call; a fresh parse cache keeps gorm from memoizing between calls.
func (p *GormProvider) Columns(model any) ([]Column, error) {
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}

	columns := make([]Column, 0, len(sch.Fields))
	for _, field := range sch.Fields {
		if field.DBName == "" {
			continue
		}
		columns = append(columns, Column{
			Name:       field.DBName,
			Type:       declaredType(field),
			Nullable:   !field.NotNull && !field.PrimaryKey,
			PrimaryKey: field.PrimaryKey,
			Default:    defaultValue(field),
		})
	}
	return columns, nil
}

func (p *GormProvider) PrimaryKeys(model any) ([]string, error) {
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), sch.PrimaryFieldDBNames...), nil
}

func (p *GormProvider) Relationships(model any) (map[string]Relationship, error) {
	sch, err := p.parse(model)
	if err != nil {
		return nil, err
	}

	relationships := make(map[string]Relationship, len(sch.Relationships.Relations))
	for name, rel := range sch.Relationships.Relations {
		info := Relationship{
			Name: name,
			Kind: string(rel.Type),
		}
		if rel.FieldSchema != nil {
			info.RelatedTable = rel.FieldSchema.Table
		}
		for _, ref := range rel.References {
			if ref.ForeignKey != nil {
				info.ForeignKeys = append(info.ForeignKeys, ref.ForeignKey.DBName)
			}
		}
		relationships[name] = info
	}
	return relationships, nil
}

func (p *GormProvider) parse(model any) (*schema.Schema, error) {
	namer := schema.NamingStrategy{}
	sch, err := schema.Parse(model, &sync.Map{}, namer)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect model %T: %w", model, err)
	}
	return sch, nil
}

func applyQuery(stmt *gorm.DB, q Query) *gorm.DB {
	if len(q.ColumnFilters) > 0 {
		stmt = stmt.Where(q.ColumnFilters)
	}
	if q.Search != "" && len(q.SearchColumns) > 0 {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		conds := make([]string, 0, len(q.SearchColumns))
		args := make([]any, 0, len(q.SearchColumns))
		for _, col := range q.SearchColumns {
			conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, pattern)
		}
		stmt = stmt.Where(strings.Join(conds, " OR "), args...)
	}
	return stmt
}

// declaredType reconstructs a DDL-flavored type string for a field. A
// `type:` tag wins, otherwise the gorm data type is mapped.
func declaredType(field *schema.Field) string {
	if t, ok := field.TagSettings["TYPE"]; ok && t != "" {
		return t
	}

	switch field.DataType {
	case schema.Bool:
		return "boolean"
	case schema.Int, schema.Uint:
		return "integer"
	case schema.Float:
		return "float"
	case schema.String:
		if field.Size > 0 {
			return fmt.Sprintf("varchar(%d)", field.Size)
		}
		return "text"
	case schema.Time:
		return "datetime"
	case schema.Bytes:
		return "blob"
	}
	return string(field.DataType)
}

func defaultValue(field *schema.Field) any {
	if !field.HasDefaultValue {
		return nil
	}
	if field.DefaultValueInterface != nil {
		return field.DefaultValueInterface
	}
	if field.DefaultValue != "" {
		return field.DefaultValue
	}
	return nil
}

func keyFromFields(sch *schema.Schema, fields map[string]any) (map[string]any, bool) {
	if len(sch.PrimaryFieldDBNames) == 0 {
		return nil, false
	}
	key := make(map[string]any, len(sch.PrimaryFieldDBNames))
	for _, name := range sch.PrimaryFieldDBNames {
		v, ok := fields[name]
		if !ok || v == nil {
			return nil, false
		}
		key[name] = v
	}
	return key, true
}

// normalizeFields flattens structured values (parsed JSON maps and slices)
// to JSON text so they bind as plain column parameters.
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		out[name] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch value.(type) {
	case nil, string, []byte, time.Time, *time.Time:
		return value
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		if b, err := json.Marshal(value); err == nil {
			return string(b)
		}
	}
	return value
}

// newOf returns a fresh zero value of the model's underlying struct type,
// which gorm needs as a delete target.
func newOf(model any) any {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}
