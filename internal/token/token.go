package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func Sign(c context.Context, userID uuid.UUID, secretKey string, ttl time.Duration) (string, error) {
	c, span := otel.Tracer.Start(c, "token Sign")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "token Sign").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "signing token").
		Logger()

	now := time.Now()
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{constants.AudienceUser},
			Issuer:    constants.AppUserService,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	)

	logger.Trace().Msg("signing token")
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		err = fmt.Errorf("failed signing token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("signed token")

	return signed, nil
}

// Verify parses a bearer token and returns the user id in its subject.
func Verify(c context.Context, raw string, secretKey string) (uuid.UUID, error) {
	c, span := otel.Tracer.Start(c, "token Verify")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "token Verify").
		Str(log.KeyProcess, "parsing claims").
		Logger()

	logger.Trace().Msg("parsing claims")
	claims := &jwt.RegisteredClaims{}
	jwtToken, err := jwt.ParseWithClaims(raw,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithAudience(constants.AudienceUser),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppUserService),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "parsing subject").Logger()
	if claims.Subject == "" {
		err = fmt.Errorf("failed reading subject with error=%w", inErrors.ErrEmptySubject)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		err = fmt.Errorf("failed parsing subject=%s with error=%w", claims.Subject, inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	logger.Trace().Str(log.KeyUserID, userID.String()).Msg("parsed subject")

	return userID, nil
}
