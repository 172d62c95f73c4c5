package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const fieldCreatedAt = "created_at"

// Store keeps sessions in redis hashes that expire after the configured ttl.
type Store struct {
	cache  *redis.Client
	config config.Session
}

func NewStore(cache *redis.Client, cfg config.Session) *Store {
	if cfg.CookieName == "" {
		cfg.CookieName = "sessionid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	return &Store{cache: cache, config: cfg}
}

func key(token string) string {
	return fmt.Sprintf(constants.CacheKeySession, token)
}

func parseID(values map[string]string, field string) (int64, error) {
	raw, ok := values[field]
	if !ok || raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed parsing session field=%s with error=%w", field, err)
	}
	return id, nil
}

// Load returns ErrSessionNotFound for unknown or expired tokens.
func (s *Store) Load(c context.Context, token string) (*Session, error) {
	c, span := otel.Tracer.Start(c, "SessionStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionStore Load").
		Str(log.KeyProcess, "loading session").
		Logger()

	if _, err := uuid.Parse(token); err != nil {
		return nil, inErrors.ErrSessionNotFound
	}

	logger.Trace().Msg("loading session")
	values, err := s.cache.HGetAll(c, key(token)).Result()
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if len(values) == 0 {
		return nil, inErrors.ErrSessionNotFound
	}

	cartID, err := parseID(values, constants.SessionKeyCartID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	orderID, err := parseID(values, constants.SessionKeyOrderID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int64(log.KeyCartID, cartID).Int64(log.KeyOrderID, orderID).Msg("loaded session")

	return &Session{Token: token, CartID: cartID, OrderID: orderID}, nil
}

// Save writes the session and refreshes its ttl.
func (s *Store) Save(c context.Context, sess *Session) error {
	c, span := otel.Tracer.Start(c, "SessionStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionStore Save").
		Str(log.KeyProcess, "saving session").
		Int64(log.KeyCartID, sess.CartID).
		Int64(log.KeyOrderID, sess.OrderID).
		Logger()

	logger.Trace().Msg("saving session")
	k := key(sess.Token)
	_, err := s.cache.TxPipelined(c, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(c, k, fieldCreatedAt, time.Now().UTC().Format(time.RFC3339))
		if sess.CartID != 0 {
			pipe.HSet(c, k, constants.SessionKeyCartID, sess.CartID)
		} else {
			pipe.HDel(c, k, constants.SessionKeyCartID)
		}
		if sess.OrderID != 0 {
			pipe.HSet(c, k, constants.SessionKeyOrderID, sess.OrderID)
		} else {
			pipe.HDel(c, k, constants.SessionKeyOrderID)
		}
		pipe.Expire(c, k, s.config.TTL)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed saving session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	sess.dirty = false
	logger.Trace().Msg("saved session")

	return nil
}

// bindCart points the session at a new cart only while it still holds the cart id the
// caller read. It returns the cart id the session holds afterwards.
var bindCart = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if (not current) or current == ARGV[3] then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	current = ARGV[2]
end
redis.call('HSETNX', KEYS[1], ARGV[4], ARGV[5])
redis.call('EXPIRE', KEYS[1], ARGV[6])
return current
`)

// BindCart claims the session's cart slot for cartID when it still holds sess.CartID.
// When a concurrent request bound another cart first, that winning cart id is returned.
// Either way sess.CartID is updated to the bound id.
func (s *Store) BindCart(c context.Context, sess *Session, cartID int64) (int64, error) {
	c, span := otel.Tracer.Start(c, "SessionStore BindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionStore BindCart").
		Str(log.KeyProcess, "binding cart to session").
		Int64(log.KeyCartID, cartID).
		Logger()

	logger.Trace().Msg("binding cart to session")
	expected := strconv.FormatInt(sess.CartID, 10)
	bound, err := bindCart.Run(
		c,
		s.cache,
		[]string{key(sess.Token)},
		constants.SessionKeyCartID,
		cartID,
		expected,
		fieldCreatedAt,
		time.Now().UTC().Format(time.RFC3339),
		int64(s.config.TTL.Seconds()),
	).Int64()
	if err != nil {
		err = fmt.Errorf("failed binding cart to session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	sess.CartID = bound
	logger.Trace().Int64(log.KeyAnonymousCartID, bound).Msg("bound cart to session")

	return bound, nil
}

// Rotate moves the session state to a new token and deletes the old one.
func (s *Store) Rotate(c context.Context, sess *Session) (*Session, error) {
	c, span := otel.Tracer.Start(c, "SessionStore Rotate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionStore Rotate").
		Str(log.KeyProcess, "rotating session").
		Logger()

	logger.Trace().Msg("rotating session")
	rotated := &Session{Token: uuid.NewString(), CartID: sess.CartID, OrderID: sess.OrderID}
	if err := s.Save(c, rotated); err != nil {
		err = fmt.Errorf("failed saving rotated session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if err := s.cache.Del(c, key(sess.Token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		err = fmt.Errorf("failed deleting previous session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("rotated session")

	return rotated, nil
}

func (s *Store) Destroy(c context.Context, sess *Session) error {
	c, span := otel.Tracer.Start(c, "SessionStore Destroy")
	defer span.End()

	if err := s.cache.Del(c, key(sess.Token)).Err(); err != nil {
		err = fmt.Errorf("failed destroying session with error=%w", err)
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "SessionStore Destroy").Msg(err.Error())
		return err
	}
	return nil
}

func (s *Store) CookieName() string {
	return s.config.CookieName
}

// SetCookie replaces any session cookie already queued on w.
func (s *Store) SetCookie(w http.ResponseWriter, sess *Session) {
	prefix := s.config.CookieName + "="
	queued := w.Header().Values("Set-Cookie")
	w.Header().Del("Set-Cookie")
	for _, v := range queued {
		if !strings.HasPrefix(v, prefix) {
			w.Header().Add("Set-Cookie", v)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(s.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
