package middleware

import (
	"net/http"
	"strings"

	"coinflip_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// ContextPlayerKey is where the authenticated player address lands in the
// gin context.
const ContextPlayerKey = "player_addr"

// JWT authenticates the request via the Authorization bearer token and stores
// the player address in the context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		addr, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextPlayerKey, addr)
		c.Next()
	}
}
