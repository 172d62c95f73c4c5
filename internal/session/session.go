package session

import (
	"github.com/google/uuid"
)

// Session is the server side state behind the opaque session cookie. CartID and OrderID
// are zero when unset.
type Session struct {
	Token   string `json:"-"`
	CartID  int64  `json:"cart_id"`
	OrderID int64  `json:"order_id"`
	dirty   bool
}

func New() *Session {
	return &Session{Token: uuid.NewString(), dirty: true}
}

func (s *Session) SetCartID(id int64) {
	if s.CartID != id {
		s.CartID = id
		s.dirty = true
	}
}

func (s *Session) SetOrderID(id int64) {
	if s.OrderID != id {
		s.OrderID = id
		s.dirty = true
	}
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Owner identifies whose cart a request works on. It is either Owned or Anonymous.
type Owner interface {
	isOwner()
}

// Owned is an authenticated principal.
type Owned struct {
	UserID uuid.UUID
}

// Anonymous is a visitor known only by the surrogate cart id stored in its session.
// CartID is zero before the first cart is created.
type Anonymous struct {
	CartID int64
}

func (Owned) isOwner()     {}
func (Anonymous) isOwner() {}

// RequestContext is what the cart and order core knows about a request.
type RequestContext struct {
	Principal uuid.NullUUID
	Session   *Session
}

func (rc RequestContext) Owner() Owner {
	if rc.Principal.Valid {
		return Owned{UserID: rc.Principal.UUID}
	}
	var cartID int64
	if rc.Session != nil {
		cartID = rc.Session.CartID
	}
	return Anonymous{CartID: cartID}
}

func (rc RequestContext) IsAuthenticated() bool {
	return rc.Principal.Valid
}
