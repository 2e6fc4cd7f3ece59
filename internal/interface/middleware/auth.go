package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"account-service/pkg/helpers"
	"account-service/pkg/response"
)

// Auth validates the access token from the access_token cookie, falling
// back to an Authorization: Bearer header. It sets accountID in the Gin
// context on success and enriches it from the Redis session cache when
// one exists.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		c.Set("accountID", claims.AccountID)

		// Session cache is advisory. The token alone authenticates; the
		// hash just saves handlers a lookup for display fields.
		if rdb != nil {
			if data, err := rdb.HGetAll(c.Request.Context(), helpers.SessionKey(claims.AccountID)).Result(); err == nil && len(data) > 0 {
				c.Set("accountEmail", data["email"])
				c.Set("accountName", data["display_name"])
			}
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
