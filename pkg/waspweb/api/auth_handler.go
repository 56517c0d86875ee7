package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

const (
	// LoginScopes are requested from the OAuth provider.
	LoginScopes = "identify email guilds guilds.members.read"

	msgLoginFailed  = "Something went wrong logging you in!"
	msgLogoutFailed = "Something went wrong logging you out!"
)

// DiscordRefresher asks the API to refresh a user's Discord roles.
type DiscordRefresher interface {
	Refresh(ctx context.Context, discordID string) error
}

// AuthHandler serves the login, logout and role refresh actions.
type AuthHandler struct {
	auth      waspweb.AuthClient
	profiles  waspweb.ProfileRepository
	refresher DiscordRefresher
	siteURL   string
}

// AuthOption represents a functional option for configuring the AuthHandler
type AuthOption func(*AuthHandler)

// WithSiteURL sets the origin the OAuth provider redirects back to. By
// default the origin of the login request is used.
func WithSiteURL(siteURL string) AuthOption {
	return func(h *AuthHandler) {
		h.siteURL = strings.TrimRight(siteURL, "/")
	}
}

// WithDiscordRefresher enables the role refresh action.
func WithDiscordRefresher(refresher DiscordRefresher) AuthOption {
	return func(h *AuthHandler) {
		h.refresher = refresher
	}
}

func NewAuthHandler(auth waspweb.AuthClient, profiles waspweb.ProfileRepository, options ...AuthOption) *AuthHandler {
	h := &AuthHandler{
		auth:     auth,
		profiles: profiles,
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Routes returns the router for auth actions. The Verifier middleware must
// run before it.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)
	return r
}

// Login redirects the browser to the OAuth provider named by the provider
// query parameter. Without a provider there is nothing to do.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	location, err := h.auth.AuthorizeURL(provider, h.origin(r)+"/auth/callback", LoginScopes)
	if err != nil {
		slog.Error("Login failed", "provider", provider, "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Message: msgLoginFailed})
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Logout revokes the session and clears the auth cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := jwtauth.TokenFromHeader(r)
	if token == "" {
		token = TokenFromAccessCookie(r)
	}

	if err := h.auth.SignOut(r.Context(), token); err != nil {
		slog.Error("Logout failed", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Message: msgLogoutFailed})
		return
	}

	for _, name := range []string{ClientAccessTokenCookie, ClientRefreshTokenCookie, AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	render.JSON(w, r, MessageResponse{Success: true})
}

// Refresh asks the API to refresh the Discord roles of the logged in user.
// Failures of the API call are only logged.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := UserFromContext(r.Context())
	if !ok {
		render.JSON(w, r, MessageResponse{Message: msgUnauthorized})
		return
	}

	profile, err := h.profiles.GetProfile(waspweb.WithClaims(r.Context(), claims), userID)
	if err != nil {
		slog.Error("Failed to get profile", "profile_id", userID, "err", err)
		render.JSON(w, r, MessageResponse{Message: msgUnauthorized})
		return
	}

	if h.refresher != nil {
		if err := h.refresher.Refresh(r.Context(), profile.DiscordID); err != nil {
			slog.Error("Failed to refresh discord roles", "profile_id", userID, "err", err)
		}
	}
	render.JSON(w, r, MessageResponse{Success: true})
}

func (h *AuthHandler) origin(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}
