// Package actorctx carries the authenticated caller on a context.Context so
// code below the HTTP layer can see who is acting without importing gin.
package actorctx

import (
	"context"

	"github.com/geocoder89/medconnect/internal/domain/user"
)

type ctxKey struct{}

type Actor struct {
	UserID string
	Role   user.Role
}

func WithActor(ctx context.Context, userID string, role user.Role) context.Context {
	return context.WithValue(ctx, ctxKey{}, Actor{UserID: userID, Role: role})
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	a, ok := ActorFrom(ctx)
	return a.UserID, ok
}
