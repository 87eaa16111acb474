package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the signed token between requests.
const CookieName = "token"

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// JWTProvider implements Provider with HS256 tokens read from the
// Authorization header or the session cookie. Admin access is decided by the
// configured check over the current user's claims.
type JWTProvider struct {
	key        []byte
	adminCheck Check
}

func NewJWTProvider(key []byte, adminCheck Check) *JWTProvider {
	return &JWTProvider{key: key, adminCheck: adminCheck}
}

func (p *JWTProvider) Issue(userID, email, name string) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(p.key)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (p *JWTProvider) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.key, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (p *JWTProvider) IsAuthenticated(c *gin.Context) bool {
	_, ok := p.claims(c)
	return ok
}

func (p *JWTProvider) HasAdminAccess(c *gin.Context) bool {
	user, ok := p.CurrentUser(c)
	if !ok {
		return false
	}
	if p.adminCheck == nil {
		return true
	}
	return p.adminCheck(user)
}

func (p *JWTProvider) CurrentUser(c *gin.Context) (map[string]any, bool) {
	claims, ok := p.claims(c)
	if !ok {
		return nil, false
	}
	return map[string]any{
		"id":    claims.UserID,
		"email": claims.Email,
		"name":  claims.Name,
	}, true
}

func (p *JWTProvider) UserIdentifier(c *gin.Context) (string, bool) {
	claims, ok := p.claims(c)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

func (p *JWTProvider) claims(c *gin.Context) (*Claims, bool) {
	tokenString := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		tokenString = strings.TrimPrefix(header, "Bearer ")
	} else if cookie, err := c.Cookie(CookieName); err == nil {
		tokenString = cookie
	}
	if tokenString == "" {
		return nil, false
	}

	claims, err := p.Validate(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}
