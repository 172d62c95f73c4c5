package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	cartResponse "github.com/Alturino/storefront/cart/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/request"
	"github.com/Alturino/storefront/user/service"
)

// CartMerger moves the session cart to the user on login and starts over on logout.
type CartMerger interface {
	MergeOnLogin(c context.Context, rc session.RequestContext, userID uuid.UUID) (cartResponse.Cart, error)
	ResetOnLogout(c context.Context, rc session.RequestContext) (cartResponse.Cart, error)
}

type SessionRotator interface {
	Rotate(c context.Context, sess *session.Session) (*session.Session, error)
	SetCookie(w http.ResponseWriter, sess *session.Session)
}

type UserController struct {
	users     *service.UserService
	addresses *service.AddressService
	carts     CartMerger
	sessions  SessionRotator
}

func AttachUserController(
	router *mux.Router,
	users *service.UserService,
	addresses *service.AddressService,
	carts CartMerger,
	sessions SessionRotator,
) {
	controller := UserController{users: users, addresses: addresses, carts: carts, sessions: sessions}

	me := router.PathPrefix("/users/me").Subrouter()
	me.Use(middleware.RequireAuth)
	me.HandleFunc("", controller.Me).Methods(http.MethodGet)
	me.HandleFunc("/addresses", controller.ListAddresses).Methods(http.MethodGet)
	me.HandleFunc("/addresses", controller.CreateAddress).Methods(http.MethodPost)
	me.HandleFunc("/addresses/{id}/default", controller.SetDefaultAddress).Methods(http.MethodPost)
	me.HandleFunc("/addresses/{id}", controller.DeleteAddress).Methods(http.MethodDelete)

	public := router.PathPrefix("/users").Subrouter()
	public.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	public.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	public.HandleFunc("/logout", controller.Logout).Methods(http.MethodPost)
}

func decode(c context.Context, r *http.Request, body interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return inErrors.NewValidationError("body", fmt.Sprintf("malformed request body: %s", err.Error()))
	}
	return validate.StructCtx(c, body)
}

func addressID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, inErrors.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func (ctrl UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	logger.Trace().Msg("decoding request body")
	reqBody := request.LoginRequest{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()
	c = logger.WithContext(c)
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "login").Logger()
	user, token, err := ctrl.users.Login(c, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Str(log.KeyProcess, "merging cart").Logger()
	c = logger.WithContext(c)
	rc := session.FromContext(c)
	cart, err := ctrl.carts.MergeOnLogin(c, rc, user.ID)
	if err != nil {
		err = fmt.Errorf("failed merging cart on login with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "rotating session").Logger()
	rotated, err := ctrl.sessions.Rotate(c, rc.Session)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	ctrl.sessions.SetCookie(w, rotated)
	logger.Info().Int64(log.KeyCartID, cart.ID).Msg("login success")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "login success",
		"data": map[string]interface{}{
			"token": token,
			"user":  user,
			"cart":  cart,
		},
	})
}

func (ctrl UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Logout").
		Str(log.KeyProcess, "resetting cart").
		Logger()
	c = logger.WithContext(c)

	rc := session.FromContext(c)
	cart, err := ctrl.carts.ResetOnLogout(c, rc)
	if err != nil {
		err = fmt.Errorf("failed resetting cart on logout with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "rotating session").Logger()
	rotated, err := ctrl.sessions.Rotate(c, rc.Session)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	ctrl.sessions.SetCookie(w, rotated)
	logger.Info().Int64(log.KeyCartID, cart.ID).Msg("logout success")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logout success",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (ctrl UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Register").
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	logger.Trace().Msg("decoding request body")
	reqBody := request.RegisterRequest{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()
	c = logger.WithContext(c)
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "registering user").Logger()
	user, err := ctrl.users.Register(c, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("registered user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    fmt.Sprintf("user with email=%s is registered", user.Email),
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (ctrl UserController) Me(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Me")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Me").Str(log.KeyUserID, userID.String()).Logger()
	c = logger.WithContext(c)

	user, err := ctrl.users.FindUserById(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully found user",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (ctrl UserController) ListAddresses(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController ListAddresses")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController ListAddresses").
		Str(log.KeyUserID, userID.String()).
		Logger()
	c = logger.WithContext(c)

	addresses, err := ctrl.addresses.ListAddresses(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully listed addresses",
		"data": map[string]interface{}{
			"addresses": addresses,
		},
	})
}

func (ctrl UserController) CreateAddress(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController CreateAddress")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController CreateAddress").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	reqBody := request.CreateAddress{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "creating address").Logger()
	address, err := ctrl.addresses.CreateAddress(c, userID, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "successfully created address",
		"data": map[string]interface{}{
			"address": address,
		},
	})
}

func (ctrl UserController) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController SetDefaultAddress")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController SetDefaultAddress").
		Str(log.KeyUserID, userID.String()).
		Any(log.KeyPathValues, mux.Vars(r)).
		Logger()
	c = logger.WithContext(c)

	id, err := addressID(r)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	address, err := ctrl.addresses.SetDefaultAddress(c, userID, id)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully set default address",
		"data": map[string]interface{}{
			"address": address,
		},
	})
}

func (ctrl UserController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController DeleteAddress")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController DeleteAddress").
		Str(log.KeyUserID, userID.String()).
		Any(log.KeyPathValues, mux.Vars(r)).
		Logger()
	c = logger.WithContext(c)

	id, err := addressID(r)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	if err = ctrl.addresses.DeleteAddress(c, userID, id); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully deleted address",
	})
}
