package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/logging"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Authenticator resolves an access token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// accessToken reads the cookie first and falls back to a bearer header.
func accessToken(c *gin.Context) string {
	if v, err := c.Cookie(common.AccessTokenCookieName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and stores the
// resolved user for the handlers. It never refreshes an expired token.
func RequireAuth(a Authenticator, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Authenticate(c.Request.Context(), accessToken(c))
		if err != nil {
			switch {
			case errors.Is(err, common.ErrMissingCredential):
				respondMessage(c, http.StatusUnauthorized, "Unauthorized request")
			case errors.Is(err, common.ErrorUnauthorized):
				logger.Debug(c.Request.Context(), "access denied", "path", c.FullPath(), "reason", err)
				respondMessage(c, http.StatusUnauthorized, "Invalid access token")
			default:
				respondError(c, err)
			}
			return
		}
		c.Set(principalKey, user)
		c.Next()
	}
}

// Principal returns the user attached by RequireAuth.
func Principal(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
