package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
	"github.com/noah-isme/foi-request-api/pkg/response"
)

// Role groups used by the router.
var (
	ReadRoles  = []models.StaffRole{models.RoleCoordinator, models.RoleAnalyst, models.RoleViewer}
	WriteRoles = []models.StaffRole{models.RoleCoordinator, models.RoleAnalyst}
)

// RequireRoles rejects callers whose role is not in roles. It must run after
// JWT or StaticIdentity.
func RequireRoles(roles ...models.StaffRole) gin.HandlerFunc {
	allowed := make(map[models.StaffRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}
