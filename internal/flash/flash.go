package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Notices are short-lived messages carried across a redirect in a cookie and
// consumed on the next render.

const cookieName = "admin_flash"

type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Set appends a notice to the pending flash cookie.
func Set(c *gin.Context, level, message string) {
	notices := read(c)
	notices = append(notices, Notice{Level: level, Message: message})
	write(c, notices)
}

// Pop returns all pending notices and clears the cookie.
func Pop(c *gin.Context) []Notice {
	notices := read(c)
	if len(notices) > 0 {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
	}
	return notices
}

func read(c *gin.Context) []Notice {
	// Notices set earlier in this request are not in the request cookie
	// yet, track them on the gin context as well.
	if pending, ok := c.Get(cookieName); ok {
		if notices, ok := pending.([]Notice); ok {
			return notices
		}
	}

	raw, err := c.Cookie(cookieName)
	if err != nil {
		return nil
	}
	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var notices []Notice
	if err := json.Unmarshal(decoded, &notices); err != nil {
		return nil
	}
	return notices
}

func write(c *gin.Context, notices []Notice) {
	encoded, err := json.Marshal(notices)
	if err != nil {
		return
	}
	c.Set(cookieName, notices)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString(encoded),
		Path:     "/",
		HttpOnly: true,
	})
}
