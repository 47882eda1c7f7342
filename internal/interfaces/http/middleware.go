package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/expense-workflow/internal/domain/policy"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

// Request headers. Authentication happens upstream; these carry the resolved identity.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderActingAs  = "X-Acting-As"
)

const (
	requestIDKey = "request_id"
	viewerKey    = "viewer"
)

// requestIDMiddleware propagates the caller's request id or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// viewer is the identity of the caller, without a claim selection
type viewer struct {
	role     policy.Role
	id       string
	actingAs string
}

// identityMiddleware reads the caller identity headers
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if err := utils.ValidateUserID(id); err != nil {
			abort(c, http.StatusUnauthorized, "missing or invalid "+HeaderUserID)
			return
		}

		role := policy.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))))
		if role == "" {
			role = policy.RoleOwner
		}
		if !role.IsValid() {
			abort(c, http.StatusBadRequest, "invalid "+HeaderUserRole)
			return
		}

		actingAs := strings.TrimSpace(c.GetHeader(HeaderActingAs))
		if actingAs != "" {
			if role != policy.RoleManager {
				abort(c, http.StatusForbidden, HeaderActingAs+" requires the manager role")
				return
			}
			if err := utils.ValidateUserID(actingAs); err != nil {
				abort(c, http.StatusBadRequest, "invalid "+HeaderActingAs)
				return
			}
		}

		c.Set(viewerKey, viewer{role: role, id: id, actingAs: actingAs})
		c.Next()
	}
}

// viewContext builds the policy view of the caller for a claim selection
func viewContext(c *gin.Context, selection policy.ClaimSelection) policy.ViewContext {
	v, _ := c.Get(viewerKey)
	who, _ := v.(viewer)
	return policy.ViewContext{
		ViewerRole:      who.role,
		ViewerID:        who.id,
		ActingAsOwnerID: who.actingAs,
		ClaimSelection:  selection,
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}
