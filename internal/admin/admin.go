package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/steward/internal/auth"
	"github.com/kerem-kaynak/steward/internal/config"
	"github.com/kerem-kaynak/steward/internal/database"
	"github.com/kerem-kaynak/steward/internal/flash"
	"github.com/kerem-kaynak/steward/internal/forms"
	"github.com/kerem-kaynak/steward/internal/templates"
	"github.com/kerem-kaynak/steward/internal/views"
	"go.uber.org/zap"
)

// Admin owns the set of registered views, groups them by category and mounts
// their routes on a gin engine. Build the registry once at startup, add all
// views, then Mount.
type Admin struct {
	Config config.Config
	Logger *zap.Logger

	DB    database.Provider
	Auth  auth.Provider
	Forms *forms.Generator

	views      []*views.ModelView
	byEndpoint map[string]*views.ModelView
	categories map[string][]*views.ModelView
}

func New(cfg config.Config, logger *zap.Logger, db database.Provider) *Admin {
	return &Admin{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Forms:  forms.NewGenerator(),

		byEndpoint: make(map[string]*views.ModelView),
		categories: make(map[string][]*views.ModelView),
	}
}

// AddView registers a view, wiring in the registry's providers where the
// view has none of its own. Two views may not share an endpoint.
func (a *Admin) AddView(v *views.ModelView) error {
	if v.Endpoint == "" {
		v.Endpoint = views.DeriveEndpoint(v.Name)
		v.URL = "/" + v.Endpoint
	}
	if existing, ok := a.byEndpoint[v.Endpoint]; ok {
		return fmt.Errorf("view %q: endpoint %q already registered by view %q", v.Name, v.Endpoint, existing.Name)
	}

	if v.DB == nil {
		v.DB = a.DB
	}
	if v.DB == nil {
		return fmt.Errorf("view %q: no database provider configured", v.Name)
	}
	if v.Forms == nil {
		v.Forms = a.Forms
	}
	if v.Auth == nil {
		v.Auth = a.Auth
	}
	if v.PageSize <= 0 {
		v.PageSize = a.Config.DefaultPageSize
	}

	category := v.Category
	if category == "" {
		category = "Default"
	}

	a.views = append(a.views, v)
	a.byEndpoint[v.Endpoint] = v
	a.categories[category] = append(a.categories[category], v)
	return nil
}

// AddModelView builds a ModelView for the model and registers it.
func (a *Admin) AddModelView(model any, name, category string) (*views.ModelView, error) {
	v := views.NewModelView(model, name)
	v.Category = category
	if err := a.AddView(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Views returns the registered views in registration order.
func (a *Admin) Views() []*views.ModelView {
	return a.views
}

// View looks up a registered view by endpoint.
func (a *Admin) View(endpoint string) *views.ModelView {
	return a.byEndpoint[endpoint]
}

// Mount registers the index route and every view's routes on the engine
// under the configured URL prefix. Call once, after all views are added.
func (a *Admin) Mount(engine *gin.Engine) error {
	tmpl, err := templates.Load()
	if err != nil {
		return fmt.Errorf("failed to parse admin templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)

	group := engine.Group(a.Config.URLPrefix)

	var guards []gin.HandlerFunc
	if a.Config.RequireAuth && a.Auth != nil {
		guards = append(guards, auth.RequireAdmin(a.Auth))
	}

	group.GET("/", append(guards, a.indexHandler())...)

	for _, v := range a.views {
		v.RegisterRoutes(group, a.Config, a.Logger, guards...)
	}
	return nil
}

func (a *Admin) indexHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin/index.html", gin.H{
			"site":       a.Config.SiteName,
			"categories": a.categories,
			"flashes":    flash.Pop(c),
		})
	}
}
