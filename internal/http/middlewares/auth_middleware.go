package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/medconnect/internal/actorctx"
	"github.com/geocoder89/medconnect/internal/auth"
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt  TokenVerifier
	log  *slog.Logger
	prom *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, log *slog.Logger, prom *observability.Prom) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{jwt: jwt, log: log, prom: prom}
}

// Every rejection carries this message; the cause only goes to logs and metrics.
const unauthorizedMessage = "Authentication required"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticate(c) {
			c.Next()
		}
	}
}

// Protect guards only the requests whose path falls under one of prefixes,
// leaving public routes and CORS preflights alone.
func (m *AuthMiddleware) Protect(prefixes []string) gin.HandlerFunc {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || !underPrefix(c.Request.URL.Path, cleaned) {
			c.Next()
			return
		}

		if m.authenticate(c) {
			c.Next()
		}
	}
}

func underPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	raw, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		m.reject(c, "missing_header")
		return false
	}

	claims, err := m.jwt.Verify(raw)
	if err != nil {
		m.reject(c, auth.Reason(err))
		return false
	}

	// Stash useful bits of identity on the context
	c.Set(ctxUserIDKey, claims.UserID)
	c.Set(ctxRoleKey, claims.Role)
	c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), claims.UserID, claims.Role))

	return true
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	m.log.WarnContext(c.Request.Context(), "auth_rejected",
		"reason", reason,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(CtxRequestID),
	)
	m.prom.TokenRejected(reason)

	abortWithError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok
}
