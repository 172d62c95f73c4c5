package middleware

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

// Session loads the session named by the cookie, or starts a new one, and attaches it to
// the request context. The cookie is always (re)issued so its expiry slides forward.
// Handlers persist changes with Store.Save.
func Session(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Session")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Session").Logger()

			var sess *session.Session
			if cookie, err := r.Cookie(store.CookieName()); err == nil && cookie.Value != "" {
				loaded, err := store.Load(c, cookie.Value)
				switch {
				case err == nil:
					sess = loaded
				case errors.Is(err, inErrors.ErrSessionNotFound):
					logger.Trace().Msg("session expired, starting a new one")
				default:
					otel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteErrorResponse(c, w, err)
					return
				}
			}
			if sess == nil {
				sess = session.New()
			}

			store.SetCookie(w, sess)
			c = session.AttachSession(c, sess)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
