package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"community-server/apperr"
	"community-server/auth"
	"community-server/entities"
	"community-server/logging"
	"community-server/metrics"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id string) (*entities.User, error)
}

// ResolveIdentity attaches the principal named by the session cookie to
// the request context. It never rejects a request: anything short of a
// valid token for an existing user resolves to anonymous.
func ResolveIdentity(tokens TokenVerifier, users UserLookup, cookieName string, log logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, outcome := resolvePrincipal(c, tokens, users, cookieName, log)
		m.IdentityResolved(outcome)
		c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func resolvePrincipal(c *gin.Context, tokens TokenVerifier, users UserLookup, cookieName string, log logging.Logger) (auth.Principal, string) {
	ctx := c.Request.Context()

	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return auth.Principal{}, metrics.OutcomeAnonymous
	}

	userID, err := tokens.Verify(token)
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		log.Warn(ctx, "session rejected", "reason", metrics.OutcomeExpired)
		return auth.Principal{}, metrics.OutcomeExpired
	case err != nil:
		log.Warn(ctx, "session rejected", "reason", metrics.OutcomeInvalid, "err", err)
		return auth.Principal{}, metrics.OutcomeInvalid
	}

	user, err := users.FindByID(ctx, userID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		log.Warn(ctx, "session rejected", "reason", metrics.OutcomeUnknownUser, "user_id", userID)
		return auth.Principal{}, metrics.OutcomeUnknownUser
	case err != nil:
		log.Warn(ctx, "session user lookup failed", "reason", metrics.OutcomeLookupError, "user_id", userID, "err", err)
		return auth.Principal{}, metrics.OutcomeLookupError
	}

	return auth.Principal{User: user}, metrics.OutcomeAuthenticated
}
