package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
)

// Identity headers set by the upstream auth proxy.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
	UserCityHeader = "X-User-City"

	// SessionKey is the context key for the acting leads.Session.
	SessionKey = "session"
)

// Session reads the staff identity headers into a leads.Session. Requests
// without them, or with an unknown role, proceed as anonymous.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		role, ok := leads.ParseRole(c.GetHeader(UserRoleHeader))

		if userID != "" && ok {
			s := leads.Session{
				UserID: userID,
				Role:   role,
				City:   strings.TrimSpace(c.GetHeader(UserCityHeader)),
			}
			c.Set(SessionKey, s)
			if l := GetLogger(c); l != nil {
				c.Set(LoggerKey, l.WithSession(s.UserID, string(s.Role)))
			}
		} else if userID != "" {
			GetLogger(c).Warn("Ignoring identity with unknown role", map[string]interface{}{
				"user_id": userID,
				"role":    c.GetHeader(UserRoleHeader),
			})
		}

		c.Next()
	}
}

// GetSession returns the acting session, anonymous when none was set.
func GetSession(c *gin.Context) leads.Session {
	if v, exists := c.Get(SessionKey); exists {
		if s, ok := v.(leads.Session); ok {
			return s
		}
	}
	return leads.Anonymous()
}

// RequireStaff rejects requests without a staff session with 401.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).IsStaff() {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "A staff session is required")
			return
		}
		c.Next()
	}
}
