package session

import (
	"context"

	"github.com/google/uuid"
)

type (
	sessionKey   struct{}
	principalKey struct{}
)

func AttachSession(c context.Context, s *Session) context.Context {
	return context.WithValue(c, sessionKey{}, s)
}

func AttachPrincipal(c context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(c, principalKey{}, userID)
}

func PrincipalFromContext(c context.Context) (uuid.UUID, bool) {
	userID, ok := c.Value(principalKey{}).(uuid.UUID)
	return userID, ok
}

// FromContext builds the RequestContext attached by the session and auth middlewares.
// A request without session middleware gets a fresh unsaved session.
func FromContext(c context.Context) RequestContext {
	rc := RequestContext{}
	if userID, ok := PrincipalFromContext(c); ok {
		rc.Principal = uuid.NullUUID{UUID: userID, Valid: true}
	}
	s, ok := c.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		s = New()
	}
	rc.Session = s
	return rc
}
