package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/handler"
	"github.com/jwalitptl/clinic-desk/pkg/auth"
)

const ContextCaller = "caller"

// Authenticate requires a bearer token and stores the caller in the request
// context so repository calls can forward it. The clinic backend verifies
// the token; here the claims are only read.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		token := auth.BearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			return
		}

		caller, err := auth.ParseCaller(token)
		if err != nil {
			// Opaque tokens are still forwarded; the backend decides.
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("token claims unreadable")
			caller = auth.Caller{Token: token}
		}

		c.Set(ContextCaller, caller)
		c.Request = c.Request.WithContext(auth.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}
