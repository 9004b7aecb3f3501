// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/pethaul/internal/backend"
	"github.com/taibuivan/pethaul/internal/platform/apperr"
	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/pethaul/internal/platform/request"
	"github.com/taibuivan/pethaul/internal/platform/respond"
	"github.com/taibuivan/pethaul/internal/platform/validate"
	"github.com/taibuivan/pethaul/pkg/textnorm"
)

var errMissingSession = errors.New("session: session middleware is not attached")

// Handler exposes the session use cases to the storefront.
type Handler struct {
	service *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the auth router. It expects [Registry.Attach] upstream.
//
// # Endpoints
//   - POST /login        : Authenticates against the backend.
//   - POST /logout       : Ends the session.
//   - GET  /session      : Current reconciled view (?refresh=true forces a check).
//   - PUT  /profile      : Updates the account profile.
//   - GET  /saved-login  : Remembered login id for the login form.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/session", handler.session)
	router.Put("/profile", handler.updateProfile)
	router.Get("/saved-login", handler.savedLogin)

	return router
}

// # Login

type loginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
	Redirect string `json:"redirect"`
}

type loginResponse struct {
	User     *User  `json:"user"`
	Redirect string `json:"redirect"`
}

// login handles POST /api/v1/auth/login.
//
// # Returns
//   - 200 with the user and where the storefront should navigate next.
//   - 400 on validation failure, 401 on bad credentials, 502 if the backend is down.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────
	validator := &validate.Validator{}
	validator.
		Required("userId", input.UserID).MaxLen("userId", input.UserID, 100).
		Required("password", input.Password).MaxLen("password", input.Password, 200).
		LocalPath("redirect", input.Redirect)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────
	store, sessionID, ok := sessionFrom(writer, request)
	if !ok {
		return
	}

	result, err := handler.service.Login(request.Context(), sessionID, store, credentials(request), LoginInput{
		UserID:   input.UserID,
		Password: input.Password,
		Remember: input.Remember,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────
	relayCookies(writer, result.Cookies)

	redirect := input.Redirect
	if redirect == "" {
		redirect = constants.HomePath
	}
	respond.OK(writer, loginResponse{User: result.User, Redirect: redirect})
}

// logout handles POST /api/v1/auth/logout. It always answers 204.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	store, sessionID, ok := sessionFrom(writer, request)
	if !ok {
		return
	}

	cookies := handler.service.Logout(request.Context(), sessionID, store, credentials(request))
	relayCookies(writer, cookies)
	respond.NoContent(writer)
}

// session handles GET /api/v1/auth/session.
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	store, sessionID, ok := sessionFrom(writer, request)
	if !ok {
		return
	}

	if refresh, _ := strconv.ParseBool(request.URL.Query().Get("refresh")); refresh {
		respond.OK(writer, handler.service.CheckUnifiedAuth(request.Context(), sessionID, store, credentials(request)))
		return
	}

	respond.OK(writer, store.Snapshot())
}

// # Profile

type profileRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Avatar      string `json:"avatar"`
	Password    string `json:"password"`

	DefaultDeliveryName          string `json:"defaultDeliveryName"`
	DefaultDeliveryPhone         string `json:"defaultDeliveryPhone"`
	DefaultDeliveryAddress       string `json:"defaultDeliveryAddress"`
	DefaultDeliveryAddressDetail string `json:"defaultDeliveryAddressDetail"`
	DefaultDeliveryRequest       string `json:"defaultDeliveryRequest"`
}

// updateProfile handles PUT /api/v1/auth/profile.
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	var input profileRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	textnorm.Fields(
		&input.Name,
		&input.Address,
		&input.DefaultDeliveryName,
		&input.DefaultDeliveryAddress,
		&input.DefaultDeliveryAddressDetail,
		&input.DefaultDeliveryRequest,
	)

	validator := &validate.Validator{}
	validator.
		MaxLen("name", input.Name, 50).
		Email("email", input.Email).
		Phone("phoneNumber", input.PhoneNumber).
		Phone("defaultDeliveryPhone", input.DefaultDeliveryPhone).
		MaxLen("address", input.Address, 255).
		MaxLen("defaultDeliveryRequest", input.DefaultDeliveryRequest, 255).
		Custom("password", input.Password != "" && len(input.Password) < 8, "Minimum 8 characters")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	store, sessionID, ok := sessionFrom(writer, request)
	if !ok {
		return
	}

	user, err := handler.service.UpdateProfile(request.Context(), sessionID, store, credentials(request), backend.ProfileUpdate{
		Name:        input.Name,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
		Avatar:      input.Avatar,
		Password:    input.Password,

		DefaultDeliveryName:          input.DefaultDeliveryName,
		DefaultDeliveryPhone:         input.DefaultDeliveryPhone,
		DefaultDeliveryAddress:       input.DefaultDeliveryAddress,
		DefaultDeliveryAddressDetail: input.DefaultDeliveryAddressDetail,
		DefaultDeliveryRequest:       input.DefaultDeliveryRequest,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// savedLogin handles GET /api/v1/auth/saved-login.
func (handler *Handler) savedLogin(writer http.ResponseWriter, request *http.Request) {
	loginID, err := handler.service.SavedLoginID(request.Context(), ctxutil.GetSessionID(request.Context()))
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.OK(writer, map[string]string{"userId": loginID})
}

// # Helpers

// sessionFrom returns the request's session or writes a 500 when the session
// middleware is missing from the chain.
func sessionFrom(writer http.ResponseWriter, request *http.Request) (*Store, string, bool) {
	store := StoreFrom(request.Context())
	sessionID := ctxutil.GetSessionID(request.Context())
	if store == nil || sessionID == "" {
		respond.Error(writer, request, apperr.Internal(errMissingSession))
		return nil, "", false
	}
	return store, sessionID, true
}

// credentials forwards the browser's cookies, minus the gateway's own.
func credentials(request *http.Request) backend.Credentials {
	return backend.CredentialsFromRequest(request, constants.SessionCookieName)
}

// relayCookies hands backend cookies to the browser. The Domain attribute is
// dropped so the cookies bind to the gateway host.
func relayCookies(writer http.ResponseWriter, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		relayed := *cookie
		relayed.Domain = ""
		http.SetCookie(writer, &relayed)
	}
}
