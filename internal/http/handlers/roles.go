package handlers

import (
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/geocoder89/medconnect/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// caller returns the authenticated identity, answering 401 when absent.
func caller(ctx *gin.Context) (string, user.Role, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	role, roleOK := middlewares.RoleFromContext(ctx)

	if !ok || !roleOK {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return "", "", false
	}
	return userID, role, true
}

// requireRole answers 401 without an identity and 403 for any role not in
// allowed.
func requireRole(ctx *gin.Context, allowed ...user.Role) (string, bool) {
	userID, role, ok := caller(ctx)
	if !ok {
		return "", false
	}

	for _, r := range allowed {
		if role == r {
			return userID, true
		}
	}

	RespondForbidden(ctx, "You do not have access to this resource")
	return "", false
}
