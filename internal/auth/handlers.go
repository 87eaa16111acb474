package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/steward/internal/appcontext"
	"github.com/kerem-kaynak/steward/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Login redirects to the OAuth2 consent screen.
func Login(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		url := ctx.OAuth2Config.AuthCodeURL("state", oauth2.AccessTypeOffline)
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

// Callback completes the OAuth2 exchange, upserts the user and sets the
// session cookie with a freshly issued token.
func Callback(ctx *appcontext.Context, provider *JWTProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		token, err := ctx.OAuth2Config.Exchange(context.Background(), code)
		if err != nil {
			ctx.Logger.Error("Failed to exchange token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange token"})
			return
		}

		client := ctx.OAuth2Config.Client(context.Background(), token)
		resp, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
		if err != nil {
			ctx.Logger.Error("Failed to get user info", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			ctx.Logger.Error("Failed to read user info response body", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user info response body"})
			return
		}

		user := struct {
			Sub     string `json:"sub"`
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}{}

		if err := json.Unmarshal(body, &user); err != nil {
			ctx.Logger.Error("Failed to unmarshal user info", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unmarshal user info"})
			return
		}

		var dbUser entity.User
		if err := ctx.DB.Where("email = ?", user.Email).First(&dbUser).Error; err != nil {
			dbUser = entity.User{
				Email:          user.Email,
				Name:           user.Name,
				ProfilePicture: user.Picture,
			}
			if err := ctx.DB.Create(&dbUser).Error; err != nil {
				ctx.Logger.Error("Failed to create user", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
				return
			}
		}

		tokenString, err := provider.Issue(dbUser.ID.String(), dbUser.Email, dbUser.Name)
		if err != nil {
			ctx.Logger.Error("Failed to generate JWT token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate JWT token"})
			return
		}

		c.SetCookie(CookieName, tokenString, 24*3600, "/", "", false, true)
		c.Redirect(http.StatusTemporaryRedirect, "/admin/")
	}
}

// Logout clears the session cookie.
func Logout(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(CookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
	}
}
