package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/printdesk/idcard-api/internal/domain/entity"
	repo "github.com/printdesk/idcard-api/internal/domain/repository"
	"github.com/printdesk/idcard-api/pkg/helpers"
	"github.com/printdesk/idcard-api/pkg/response"
)

// CtxIdentityKey is the Gin context key carrying the caller identity.
const CtxIdentityKey = "identity"

// Identity is the minimal projection attached to authenticated requests.
// It never includes the password hash.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  entity.Role
}

// GetIdentity returns the authenticated caller set by Auth.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func unauthenticated(c *gin.Context) {
	// One uniform response for every failure shape; the specific cause is
	// not leaked to the client.
	response.Error[any](c, http.StatusUnauthorized, "unauthenticated", nil)
	c.Abort()
}

// Auth validates the session cookie and attaches the caller identity.
// The cached projection in Redis is the fast path; the account store is the
// source of truth when the cache misses.
func Auth(rdb *redis.Client, tokens *helpers.TokenManager, accounts repo.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.SessionCookieName)
		if err != nil || token == "" {
			unauthenticated(c)
			return
		}
		accountID, err := tokens.VerifySession(token)
		if err != nil {
			unauthenticated(c)
			return
		}

		ctx := c.Request.Context()
		if rdb != nil {
			var sum entity.Summary
			if ok, err := helpers.RedisGetJSON(ctx, rdb, "account:summary:"+accountID, &sum); err == nil && ok {
				// Deactivation must bite even while the projection is cached.
				if !sum.IsActive {
					unauthenticated(c)
					return
				}
				c.Set(CtxIdentityKey, Identity{ID: sum.ID, Name: sum.Name, Email: sum.Email, Role: sum.Role})
				c.Next()
				return
			}
		}

		a, err := accounts.GetByID(ctx, accountID)
		if err != nil || !a.IsActive {
			unauthenticated(c)
			return
		}
		c.Set(CtxIdentityKey, Identity{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role})
		c.Next()
	}
}
