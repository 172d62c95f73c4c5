package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/token"
)

// Authenticate attaches the principal of a bearer token when one is sent. Requests without
// an Authorization header pass through as anonymous.
func Authenticate(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := r.Context()
			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Authenticate").Logger()

			authorization := r.Header.Get(inHttp.KeyHeaderAuthorization)
			if authorization == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, found := strings.Cut(authorization, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
				logger.Error().Err(inErrors.ErrTokenInvalid).Msg(inErrors.ErrTokenInvalid.Error())
				inHttp.WriteErrorResponse(c, w, inErrors.ErrTokenInvalid)
				return
			}

			userID, err := token.Verify(c, raw, secretKey)
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}

			logger = logger.With().Str(log.KeyUserID, userID.String()).Logger()
			c = session.AttachPrincipal(c, userID)
			c = logger.WithContext(c)
			logger.Trace().Msg("attached principal to context")

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := r.Context()
		if _, ok := session.PrincipalFromContext(c); !ok {
			zerolog.Ctx(c).
				Error().
				Str(log.KeyTag, "middleware RequireAuth").
				Err(inErrors.ErrUnauthenticated).
				Msg(inErrors.ErrUnauthenticated.Error())
			inHttp.WriteErrorResponse(c, w, inErrors.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
