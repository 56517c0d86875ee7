// Package api exposes the site's pages, script publication, auth actions and
// admin profile endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// Cookie names set by the auth service and the web client.
const (
	AccessTokenCookie        = "sb-access-token"
	RefreshTokenCookie       = "sb-refresh-token"
	ClientAccessTokenCookie  = "sveltekit-access-token"
	ClientRefreshTokenCookie = "sveltekit-refresh-token"
)

const (
	maxMultipartMemory = 32 << 20
	msgUnauthorized    = "You are not logged in!"
)

// ErrorResponse is the body of every failed JSON request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of the auth actions.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NewTokenAuth returns the verifier of user access tokens signed with the
// auth service's JWT secret.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// TokenFromAccessCookie reads the access token from the auth service cookie.
func TokenFromAccessCookie(r *http.Request) string {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier verifies the access token from the Authorization header or the
// access token cookie and stores it in the request context.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromAccessCookie)
}

// UserFromContext returns the user id and claims of a verified token.
func UserFromContext(ctx context.Context) (uuid.UUID, map[string]interface{}, bool) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return uuid.Nil, nil, false
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, nil, false
	}
	return id, claims, true
}

// requireUser rejects requests without a verified user token.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := UserFromContext(r.Context()); !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: msgUnauthorized})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// respondError renders err as an ErrorResponse. Failures carry their own
// status and message; anything else is a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if failure, ok := waspweb.AsFailure(err); ok {
		render.Status(r, failure.Status())
		render.JSON(w, r, ErrorResponse{Error: failure.UserMessage()})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, waspweb.ErrScriptNotFound),
		errors.Is(err, waspweb.ErrProfileNotFound),
		errors.Is(err, waspweb.ErrDeveloperNotFound),
		errors.Is(err, waspweb.ErrPackageNotFound),
		errors.Is(err, waspweb.ErrTutorialNotFound):
		status = http.StatusNotFound
	case errors.Is(err, waspweb.ErrAdminUnavailable):
		status = http.StatusServiceUnavailable
	}
	slog.Error("Request failed", "path", r.URL.Path, "status", status, "err", err)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}
