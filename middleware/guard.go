package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"community-server/apperr"
	"community-server/auth"
	"community-server/entities"
	"community-server/logging"
)

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.PrincipalFromContext(c.Request.Context()).Anonymous() {
			AbortWithError(c, log, apperr.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// Loader fetches the resource a request targets.
type Loader[T entities.Owned] func(c *gin.Context) (T, error)

// RequireOwnership loads the target resource and lets the request through
// only when the principal owns it. A missing resource is 404, a failed load
// 500 and a foreign owner 403. The resource is stored in the request
// context for the handler.
func RequireOwnership[T entities.Owned](load Loader[T], log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		principal := auth.PrincipalFromContext(ctx)
		if principal.Anonymous() {
			AbortWithError(c, log, apperr.ErrUnauthorized)
			return
		}

		res, err := load(c)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				err = fmt.Errorf("%w: load resource: %v", apperr.ErrInternal, err)
			}
			AbortWithError(c, log, err)
			return
		}

		if res.OwnedBy() != principal.UserID() {
			log.Warn(ctx, "ownership check failed", "user_id", principal.UserID(), "route", c.FullPath())
			AbortWithError(c, log, apperr.ErrForbidden)
			return
		}

		c.Request = c.Request.WithContext(ContextWithResource(ctx, res))
		c.Next()
	}
}

// SubFinder looks a community up by name.
type SubFinder interface {
	GetSub(ctx context.Context, name string) (*entities.Sub, error)
}

// SubByParam loads the community named by the route parameter.
func SubByParam(subs SubFinder, param string) Loader[*entities.Sub] {
	return func(c *gin.Context) (*entities.Sub, error) {
		return subs.GetSub(c.Request.Context(), c.Param(param))
	}
}

type resourceKey[T any] struct{}

func ContextWithResource[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, resourceKey[T]{}, v)
}

// ResourceFromContext returns the resource stored by RequireOwnership.
func ResourceFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(resourceKey[T]{}).(T)
	return v, ok
}
