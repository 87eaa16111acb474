package appcontext

import (
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// Context carries the shared process-wide dependencies handed to every
// component: the database handle, the logger and the OAuth2 configuration
// used by the login flow.
type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	OAuth2Config *oauth2.Config
}
