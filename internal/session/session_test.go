package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/testutil"
)

func TestOwner(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name     string
		rc       RequestContext
		expected Owner
	}{
		{
			name:     "principal wins over session cart",
			rc:       RequestContext{Principal: uuid.NullUUID{UUID: userID, Valid: true}, Session: &Session{CartID: 7}},
			expected: Owned{UserID: userID},
		},
		{
			name:     "anonymous carries session cart id",
			rc:       RequestContext{Session: &Session{CartID: 7}},
			expected: Anonymous{CartID: 7},
		},
		{
			name:     "anonymous without session",
			rc:       RequestContext{},
			expected: Anonymous{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rc.Owner())
		})
	}
}

func TestFromContext(t *testing.T) {
	userID := uuid.New()
	sess := &Session{Token: uuid.NewString(), CartID: 3}

	c := AttachSession(context.Background(), sess)
	c = AttachPrincipal(c, userID)
	rc := FromContext(c)

	assert.Same(t, sess, rc.Session)
	assert.True(t, rc.IsAuthenticated())
	assert.Equal(t, userID, rc.Principal.UUID)

	empty := FromContext(context.Background())
	assert.False(t, empty.IsAuthenticated())
	assert.NotNil(t, empty.Session)
}

func TestStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := testutil.Context()
	cache := testutil.Redis(t, c)
	store := NewStore(cache, config.Session{CookieName: "sessionid", TTL: time.Hour})

	t.Run("unknown token is not found", func(t *testing.T) {
		_, err := store.Load(c, uuid.NewString())
		assert.ErrorIs(t, err, inErrors.ErrSessionNotFound)

		_, err = store.Load(c, "not-a-uuid")
		assert.ErrorIs(t, err, inErrors.ErrSessionNotFound)
	})

	t.Run("saved session round trips", func(t *testing.T) {
		sess := New()
		sess.SetCartID(42)
		sess.SetOrderID(9)
		require.NoError(t, store.Save(c, sess))
		assert.False(t, sess.Dirty())

		loaded, err := store.Load(c, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), loaded.CartID)
		assert.Equal(t, int64(9), loaded.OrderID)

		ttl, err := cache.TTL(c, key(sess.Token)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("cleared order id is removed", func(t *testing.T) {
		sess := New()
		sess.SetOrderID(9)
		require.NoError(t, store.Save(c, sess))
		sess.SetOrderID(0)
		require.NoError(t, store.Save(c, sess))

		loaded, err := store.Load(c, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(0), loaded.OrderID)
	})

	t.Run("first bound cart wins", func(t *testing.T) {
		sess := New()
		first, err := store.BindCart(c, sess, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), first)

		other := &Session{Token: sess.Token}
		second, err := store.BindCart(c, other, 11)
		require.NoError(t, err)
		assert.Equal(t, int64(10), second)
		assert.Equal(t, int64(10), other.CartID)
	})

	t.Run("stale cart is replaced only by its reader", func(t *testing.T) {
		sess := New()
		sess.SetCartID(20)
		require.NoError(t, store.Save(c, sess))

		bound, err := store.BindCart(c, sess, 21)
		require.NoError(t, err)
		assert.Equal(t, int64(21), bound)

		stale := &Session{Token: sess.Token, CartID: 20}
		bound, err = store.BindCart(c, stale, 22)
		require.NoError(t, err)
		assert.Equal(t, int64(21), bound)
	})

	t.Run("rotate moves state to a new token", func(t *testing.T) {
		sess := New()
		sess.SetCartID(5)
		require.NoError(t, store.Save(c, sess))

		rotated, err := store.Rotate(c, sess)
		require.NoError(t, err)
		assert.NotEqual(t, sess.Token, rotated.Token)
		assert.Equal(t, int64(5), rotated.CartID)

		_, err = store.Load(c, sess.Token)
		assert.ErrorIs(t, err, inErrors.ErrSessionNotFound)
	})

	t.Run("set cookie replaces queued session cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		store.SetCookie(w, &Session{Token: "first"})
		store.SetCookie(w, &Session{Token: "second"})

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "second", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})
}
