package views

import (
	"fmt"
	"net/http"
	"path"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/steward/internal/auth"
	"github.com/kerem-kaynak/steward/internal/config"
	"github.com/kerem-kaynak/steward/internal/database"
	"github.com/kerem-kaynak/steward/internal/flash"
	"github.com/kerem-kaynak/steward/internal/forms"
	"go.uber.org/zap"
)

// ModelView binds the base view to a concrete model and the data-access,
// form-generation and authentication capabilities, producing the CRUD route
// handlers.
type ModelView struct {
	View

	Model any
	DB    database.Provider
	Forms *forms.Generator
	Auth  auth.Provider

	// Display settings. ColumnList limits list columns, SearchableColumns
	// enables free-text search, formatters win over default rendering.
	ColumnList        []string
	SearchableColumns []string
	ColumnLabels      map[string]string
	ColumnFormatters  map[string]Formatter

	ExcludedFormColumns []string

	Logger *zap.Logger

	cfg  config.Config
	base string
}

// NewModelView creates a model view named after the struct type unless a
// name is given.
func NewModelView(model any, name string) *ModelView {
	if name == "" {
		t := reflect.TypeOf(model)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		name = t.Name()
	}
	return &ModelView{
		View:             NewView(name),
		Model:            model,
		ColumnLabels:     map[string]string{},
		ColumnFormatters: map[string]Formatter{},
	}
}

// RegisterRoutes mounts the view's handlers under the given group. Guards
// run before every handler of this view.
func (v *ModelView) RegisterRoutes(group *gin.RouterGroup, cfg config.Config, logger *zap.Logger, guards ...gin.HandlerFunc) {
	v.cfg = cfg
	v.Logger = logger
	v.base = path.Join(group.BasePath(), v.URL)
	if v.PageSize <= 0 {
		v.PageSize = cfg.DefaultPageSize
	}

	g := group.Group(v.URL, guards...)
	g.GET("", v.listHandler())
	if v.CanCreate {
		g.GET("/new", v.createHandler())
		g.POST("/new", v.createHandler())
	}
	if v.CanExport {
		g.GET("/export", v.exportHandler())
	}
	if v.CanEdit {
		g.GET("/:id/edit", v.editHandler())
		g.POST("/:id/edit", v.editHandler())
	}
	if v.CanViewDetails {
		g.GET("/:id", v.detailsHandler())
	}
	if v.CanDelete {
		g.POST("/:id/delete", v.deleteHandler())
	}
}

// FormatColumnValue renders one column of a record for display. A custom
// formatter registered for the column wins unconditionally.
func (v *ModelView) FormatColumnValue(record database.Record, column string) string {
	if formatter, ok := v.ColumnFormatters[column]; ok {
		return formatter(record, column)
	}
	return FormatValue(record[column])
}

// ListURL returns the list route of this view, valid after registration.
func (v *ModelView) ListURL() string {
	return v.base
}

func (v *ModelView) CreateURL() string {
	return v.base + "/new"
}

func (v *ModelView) EditURL(key string) string {
	return v.base + "/" + key + "/edit"
}

func (v *ModelView) DetailsURL(key string) string {
	return v.base + "/" + key
}

func (v *ModelView) DeleteURL(key string) string {
	return v.base + "/" + key + "/delete"
}

func (v *ModelView) ExportURL() string {
	return v.base + "/export"
}

type listColumn struct {
	Name  string
	Label string
}

type listRow struct {
	Key   string
	Cells []string
}

type detailRow struct {
	Label string
	Value string
}

func (v *ModelView) listHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(v.PageSize)))
		if perPage < 1 {
			perPage = v.PageSize
		}
		if perPage > v.cfg.MaxPageSize {
			perPage = v.cfg.MaxPageSize
		}
		search := ""
		if v.cfg.EnableSearch {
			search = c.Query("search")
		}

		columns, err := v.DB.Columns(v.Model)
		if err != nil {
			v.fail(c, "Failed to introspect model columns", err)
			return
		}

		s, err := v.DB.Session(c.Request.Context())
		if err != nil {
			v.fail(c, "Failed to acquire database session", err)
			return
		}
		committed := false
		defer func() {
			if !committed {
				s.Rollback()
			}
		}()

		q := database.Query{
			Search:        search,
			SearchColumns: v.SearchableColumns,
			Offset:        (page - 1) * perPage,
			Limit:         perPage,
		}
		total, err := v.DB.Count(s, v.Model, q)
		if err != nil {
			v.fail(c, "Failed to count records", err)
			return
		}
		records, err := v.DB.List(s, v.Model, q)
		if err != nil {
			v.fail(c, "Failed to list records", err)
			return
		}
		if err := s.Commit(); err != nil {
			v.fail(c, "Failed to release database session", err)
			return
		}
		committed = true

		shown := v.columnsToShow(columns)
		pks, _ := v.DB.PrimaryKeys(v.Model)

		rows := make([]listRow, 0, len(records))
		for _, record := range records {
			row := listRow{Key: recordKey(record, pks)}
			for _, col := range shown {
				row.Cells = append(row.Cells, v.FormatColumnValue(record, col.Name))
			}
			rows = append(rows, row)
		}

		totalPages := int((total + int64(perPage) - 1) / int64(perPage))
		c.HTML(http.StatusOK, v.ListTemplate, gin.H{
			"site":       v.cfg.SiteName,
			"view":       v,
			"columns":    shown,
			"colspan":    len(shown) + 1,
			"rows":       rows,
			"total":      total,
			"page":       page,
			"perPage":    perPage,
			"totalPages": totalPages,
			"prevPage":   page - 1,
			"nextPage":   page + 1,
			"search":     search,
			"canSearch":  v.cfg.EnableSearch && len(v.SearchableColumns) > 0,
			"flashes":    flash.Pop(c),
		})
	}
}

func (v *ModelView) createHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		columns, err := v.DB.Columns(v.Model)
		if err != nil {
			v.fail(c, "Failed to introspect model columns", err)
			return
		}
		form := v.buildForm(columns, nil)

		if c.Request.Method == http.MethodPost {
			if err := c.Request.ParseForm(); err != nil {
				v.fail(c, "Failed to parse form submission", err)
				return
			}
			form.Bind(c.Request.PostForm)
			if !form.Validate() {
				flashFieldErrors(c, form)
				c.Redirect(http.StatusSeeOther, v.CreateURL())
				return
			}

			fields := map[string]any{}
			for name, value := range form.Data() {
				if value != nil {
					fields[name] = value
				}
			}

			s, err := v.DB.Session(c.Request.Context())
			if err != nil {
				v.fail(c, "Failed to acquire database session", err)
				return
			}
			committed := false
			defer func() {
				if !committed {
					s.Rollback()
				}
			}()
			if _, err := v.DB.Create(s, v.Model, fields); err != nil {
				v.Logger.Error("Failed to create record", zap.String("view", v.Name), zap.Error(err))
				flash.Set(c, "error", fmt.Sprintf("Failed to create %s", v.Name))
				c.Redirect(http.StatusSeeOther, v.CreateURL())
				return
			}
			if err := s.Commit(); err != nil {
				v.fail(c, "Failed to commit record", err)
				return
			}
			committed = true

			flash.Set(c, "success", fmt.Sprintf("%s created successfully!", v.Name))
			c.Redirect(http.StatusSeeOther, v.ListURL())
			return
		}

		v.renderForm(c, form, "", nil)
	}
}

func (v *ModelView) editHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := v.singleKey(c)
		if !ok {
			return
		}

		columns, err := v.DB.Columns(v.Model)
		if err != nil {
			v.fail(c, "Failed to introspect model columns", err)
			return
		}

		s, err := v.DB.Session(c.Request.Context())
		if err != nil {
			v.fail(c, "Failed to acquire database session", err)
			return
		}
		committed := false
		defer func() {
			if !committed {
				s.Rollback()
			}
		}()
		record, err := v.DB.GetByKey(s, v.Model, key)
		if err != nil {
			v.fail(c, "Failed to fetch record", err)
			return
		}
		if record == nil {
			flash.Set(c, "error", fmt.Sprintf("%s not found", v.Name))
			c.Redirect(http.StatusSeeOther, v.ListURL())
			return
		}

		form := v.buildForm(columns, record)

		if c.Request.Method != http.MethodPost {
			if err := s.Commit(); err != nil {
				v.fail(c, "Failed to release database session", err)
				return
			}
			committed = true
			v.renderForm(c, form, c.Param("id"), record)
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			v.fail(c, "Failed to parse form submission", err)
			return
		}
		form.Bind(c.Request.PostForm)
		if !form.Validate() {
			flashFieldErrors(c, form)
			c.Redirect(http.StatusSeeOther, v.EditURL(c.Param("id")))
			return
		}

		fields := form.Data()
		for pk := range key {
			delete(fields, pk)
		}

		if _, err := v.DB.Update(s, v.Model, key, fields); err != nil {
			v.Logger.Error("Failed to update record", zap.String("view", v.Name), zap.Error(err))
			flash.Set(c, "error", fmt.Sprintf("Failed to update %s", v.Name))
			c.Redirect(http.StatusSeeOther, v.EditURL(c.Param("id")))
			return
		}
		if err := s.Commit(); err != nil {
			v.fail(c, "Failed to commit record", err)
			return
		}
		committed = true

		flash.Set(c, "success", fmt.Sprintf("%s updated successfully!", v.Name))
		c.Redirect(http.StatusSeeOther, v.ListURL())
	}
}

func (v *ModelView) detailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := v.singleKey(c)
		if !ok {
			return
		}

		columns, err := v.DB.Columns(v.Model)
		if err != nil {
			v.fail(c, "Failed to introspect model columns", err)
			return
		}

		s, err := v.DB.Session(c.Request.Context())
		if err != nil {
			v.fail(c, "Failed to acquire database session", err)
			return
		}
		committed := false
		defer func() {
			if !committed {
				s.Rollback()
			}
		}()
		record, err := v.DB.GetByKey(s, v.Model, key)
		if err != nil {
			v.fail(c, "Failed to fetch record", err)
			return
		}
		if err := s.Commit(); err != nil {
			v.fail(c, "Failed to release database session", err)
			return
		}
		committed = true
		if record == nil {
			flash.Set(c, "error", fmt.Sprintf("%s not found", v.Name))
			c.Redirect(http.StatusSeeOther, v.ListURL())
			return
		}

		details := make([]detailRow, 0, len(columns))
		for _, col := range columns {
			details = append(details, detailRow{
				Label: v.labelFor(col.Name),
				Value: v.FormatColumnValue(record, col.Name),
			})
		}

		c.HTML(http.StatusOK, v.DetailsTemplate, gin.H{
			"site":    v.cfg.SiteName,
			"view":    v,
			"itemID":  c.Param("id"),
			"details": details,
			"flashes": flash.Pop(c),
		})
	}
}

func (v *ModelView) deleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := v.singleKey(c)
		if !ok {
			return
		}

		s, err := v.DB.Session(c.Request.Context())
		if err != nil {
			v.fail(c, "Failed to acquire database session", err)
			return
		}
		committed := false
		defer func() {
			if !committed {
				s.Rollback()
			}
		}()
		deleted, err := v.DB.Delete(s, v.Model, key)
		if err != nil {
			v.Logger.Error("Failed to delete record", zap.String("view", v.Name), zap.Error(err))
			flash.Set(c, "error", fmt.Sprintf("Failed to delete %s", v.Name))
			c.Redirect(http.StatusSeeOther, v.ListURL())
			return
		}
		if err := s.Commit(); err != nil {
			v.fail(c, "Failed to commit record", err)
			return
		}
		committed = true

		if deleted {
			flash.Set(c, "success", fmt.Sprintf("%s deleted successfully!", v.Name))
		} else {
			flash.Set(c, "error", fmt.Sprintf("%s not found", v.Name))
		}
		c.Redirect(http.StatusSeeOther, v.ListURL())
	}
}

func (v *ModelView) exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		flash.Set(c, "error", fmt.Sprintf("%s export not implemented", v.Name))
		c.Redirect(http.StatusSeeOther, v.ListURL())
	}
}

func (v *ModelView) renderForm(c *gin.Context, form *forms.Form, itemID string, record database.Record) {
	action := v.CreateURL()
	if itemID != "" {
		action = v.EditURL(itemID)
	}
	c.HTML(http.StatusOK, v.FormTemplate, gin.H{
		"site":    v.cfg.SiteName,
		"view":    v,
		"form":    form,
		"action":  action,
		"itemID":  itemID,
		"isEdit":  record != nil,
		"flashes": flash.Pop(c),
	})
}

func (v *ModelView) buildForm(columns []database.Column, record database.Record) *forms.Form {
	form := v.Forms.Build(columns, record, v.ExcludedFormColumns)
	for _, field := range form.Fields {
		if label, ok := v.ColumnLabels[field.Name]; ok {
			field.Label = label
		}
	}
	return form
}

// singleKey resolves the :id path parameter into a primary-key filter.
// Composite primary keys are unsupported and fatal for the request.
func (v *ModelView) singleKey(c *gin.Context) (map[string]any, bool) {
	pks, err := v.DB.PrimaryKeys(v.Model)
	if err != nil {
		v.fail(c, "Failed to introspect primary keys", err)
		return nil, false
	}
	if len(pks) != 1 {
		v.Logger.Error("Composite primary keys are not supported",
			zap.String("view", v.Name), zap.Int("key_columns", len(pks)))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "Composite primary keys are not supported"})
		return nil, false
	}

	id := c.Param("id")
	value := any(id)
	if columns, err := v.DB.Columns(v.Model); err == nil {
		for _, col := range columns {
			if col.Name == pks[0] && strings.Contains(strings.ToLower(col.Type), "int") {
				if n, err := strconv.Atoi(id); err == nil {
					value = n
				}
			}
		}
	}
	return map[string]any{pks[0]: value}, true
}

func (v *ModelView) columnsToShow(columns []database.Column) []listColumn {
	names := v.ColumnList
	if len(names) == 0 {
		for _, col := range columns {
			names = append(names, col.Name)
		}
	}
	shown := make([]listColumn, 0, len(names))
	for _, name := range names {
		shown = append(shown, listColumn{Name: name, Label: v.labelFor(name)})
	}
	return shown
}

func (v *ModelView) labelFor(name string) string {
	if label, ok := v.ColumnLabels[name]; ok {
		return label
	}
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

func (v *ModelView) fail(c *gin.Context, message string, err error) {
	v.Logger.Error(message, zap.String("view", v.Name), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message})
}

func flashFieldErrors(c *gin.Context, form *forms.Form) {
	for _, field := range form.Fields {
		for _, msg := range field.Errors {
			flash.Set(c, "error", fmt.Sprintf("%s: %s", field.Name, msg))
		}
	}
}

func recordKey(record database.Record, pks []string) string {
	if len(pks) != 1 {
		return ""
	}
	value := record[pks[0]]
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(value)
}
