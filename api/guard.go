package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
)

const (
	sessionKey = "session"

	userSignIn  = "/sign-in"
	adminSignIn = "/admin/sign-in"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(header)
}

// Guard admits requests whose session carries one of roles. Anonymous callers get 401 with
// the sign-in route they belong on, signed-in callers of the wrong role get 403.
func (h *Handler) Guard(roles ...models.Role) gin.HandlerFunc {
	signIn := userSignIn
	if len(roles) == 1 && roles[0] == models.RoleAdmin {
		signIn = adminSignIn
	}
	return func(c *gin.Context) {
		sess, err := h.sessions.Resolve(bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:  "sign in required",
				SignIn: signIn,
			})
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, sess.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
