package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/idcard-api/internal/domain/entity"
	"github.com/printdesk/idcard-api/pkg/response"
)

// RequireRole layers a role check on top of Auth. It is a pure function
// over the attached identity; it never touches the store.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	allowed := make(map[entity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			response.Error[any](c, http.StatusUnauthorized, "unauthenticated", nil)
			c.Abort()
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			response.Error[any](c, http.StatusForbidden, "forbidden", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
