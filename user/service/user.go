package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/request"
	"github.com/Alturino/storefront/user/response"
)

type UserService struct {
	queries *repository.Queries
	config  config.Application
}

func NewUserService(queries *repository.Queries, config config.Application) *UserService {
	return &UserService{queries: queries, config: config}
}

// Login checks the credentials and returns the authenticated user with a signed token.
func (u *UserService) Login(c context.Context, param request.LoginRequest) (response.User, string, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Str(log.KeyProcess, "finding user").
		Logger()

	logger.Trace().Msg("finding user by email")
	user, err := u.queries.FindUserByEmail(c, param.NormalizedEmail())
	if err != nil {
		if repository.IsNoRows(err) {
			err = fmt.Errorf("failed finding user by email=%s with error=%w", param.Email, inErrors.ErrUserNotFound)
		} else {
			err = fmt.Errorf("failed finding user by email=%s with error=%w", param.Email, err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, "", err
	}
	logger.Trace().Msg("found user by email")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Trace().Msg("verifying hashed password with password")
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password))
	if err != nil {
		err = fmt.Errorf("failed verifying password with error=%w", inErrors.ErrPasswordMismatch)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, "", err
	}
	logger.Trace().Msg("verified hashed password with password")

	logger = logger.With().Str(log.KeyProcess, "signing token").Logger()
	signed, err := token.Sign(c, user.ID, u.config.SecretKey, u.config.TokenTTL)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, "", err
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("logged in")

	return response.UserFromRow(user), signed, nil
}

func (u *UserService) Register(c context.Context, param request.RegisterRequest) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Str(log.KeyProcess, "hashing password").
		Logger()

	logger.Trace().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", errors.Join(err, inErrors.ErrFailedHashToken))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Trace().Msg("hashed password")

	email := strings.ToLower(param.Email)
	username := param.Username
	if username == "" {
		username = email
	}

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Trace().Msg("inserting user to database")
	user, err := u.queries.InsertUser(c, repository.InsertUserParams{
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		FirstName: param.FirstName,
		LastName:  param.LastName,
		Phone:     param.Phone,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			err = fmt.Errorf("failed inserting user with error=%w", inErrors.ErrEmailTaken)
		} else {
			err = fmt.Errorf("failed inserting user with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("registered user")

	return response.UserFromRow(user), nil
}

func (u *UserService) FindUserById(c context.Context, userID uuid.UUID) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService FindUserById")
	defer span.End()

	user, err := u.queries.FindUserById(c, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			err = fmt.Errorf("failed finding userId=%s with error=%w", userID, inErrors.ErrUserNotFound)
		} else {
			err = fmt.Errorf("failed finding userId=%s with error=%w", userID, err)
		}
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "UserService FindUserById").Msg(err.Error())
		return response.User{}, err
	}
	return response.UserFromRow(user), nil
}
