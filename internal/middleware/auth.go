package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/models"
)

const actorKey = "actor"

// AuthGuard validates the bearer token, resolves the (userId, role) pair the
// core trusts, and optionally restricts the route to a set of roles. Vendor
// tokens additionally carry the restaurant they operate.
func AuthGuard(secret string, allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if actor.Role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func CustomerAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleCustomer)
}

func VendorAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleVendor)
}

func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleAdmin)
}

// ActorFrom returns the resolved actor set by AuthGuard.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userIDValue, _ := claims["userId"].(string)
	userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(userIDValue))
	if err != nil {
		return models.Actor{}, err
	}

	roleValue, _ := claims["role"].(string)
	role := models.Role(roleValue)
	switch role {
	case models.RoleCustomer, models.RoleVendor, models.RoleAdmin:
	default:
		role = models.RoleCustomer
	}

	actor := models.Actor{UserID: userID, Role: role}
	if restaurantValue, ok := claims["restaurantId"].(string); ok && restaurantValue != "" {
		if restaurantID, err := primitive.ObjectIDFromHex(restaurantValue); err == nil {
			actor.RestaurantID = restaurantID
		}
	}
	return actor, nil
}
