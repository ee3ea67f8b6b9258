package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
)

// Recovery turns a handler panic into a 500 envelope. When the response has
// already started, as on the lead stream, the connection is only aborted
// since nothing more can be written to the client safely.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			l := GetLogger(c)
			if l == nil {
				l = log
			}
			fields := map[string]interface{}{
				"method":  c.Request.Method,
				"route":   c.FullPath(),
				"path":    c.Request.URL.Path,
				"written": c.Writer.Written(),
				"stack":   string(debug.Stack()),
			}
			if s := GetSession(c); s.IsStaff() {
				fields["user_id"] = s.UserID
			}
			l.Error("Panic recovered", fmt.Errorf("panic: %v", rec), fields)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred")
		}()

		c.Next()
	}
}
