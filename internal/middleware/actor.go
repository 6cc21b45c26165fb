package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
	"github.com/noah-isme/unireg-api/pkg/response"
)

// ContextActorKey is the gin context key storing the forwarded actor.
const ContextActorKey = "currentActor"

var knownRoles = map[models.Role]struct{}{
	models.RoleAdmin:           {},
	models.RoleAcademicAffairs: {},
	models.RoleLecturer:        {},
	models.RoleFinance:         {},
	models.RoleStudent:         {},
}

// Actor requires the identity headers set by the upstream gateway and stores the actor on the context.
func Actor(idHeader, roleHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromHeaders(c, idHeader, roleHeader)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or invalid actor headers"))
			c.Abort()
			return
		}
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the actor stored by Actor.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

func actorFromHeaders(c *gin.Context, idHeader, roleHeader string) (models.Actor, bool) {
	id := strings.TrimSpace(c.GetHeader(idHeader))
	role := models.Role(strings.ToUpper(strings.TrimSpace(c.GetHeader(roleHeader))))
	if id == "" {
		return models.Actor{}, false
	}
	if _, ok := knownRoles[role]; !ok {
		return models.Actor{}, false
	}
	return models.Actor{ID: id, Role: role}, true
}
