package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// ProfilesHandler exposes the admin profile operations. It is meant to be
// mounted behind the API key middleware.
type ProfilesHandler struct {
	profiles *waspweb.AdminProfiles
}

func NewProfilesHandler(profiles *waspweb.AdminProfiles) *ProfilesHandler {
	return &ProfilesHandler{
		profiles: profiles,
	}
}

// Routes returns the router for admin profile endpoints
func (h *ProfilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.GetProfile)
	r.Put("/{id}", h.UpdateProfileProtected)
	return r
}

// GetProfile returns the full profile of a user
func (h *ProfilesHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, waspweb.Validation("Invalid profile ID!"))
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, profile)
}

// UpdateProfileProtected replaces the protected fields of a profile with the
// request body.
func (h *ProfilesHandler) UpdateProfileProtected(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, waspweb.Validation("Invalid profile ID!"))
		return
	}

	var protected waspweb.ProfileProtected
	if err := json.NewDecoder(r.Body).Decode(&protected); err != nil {
		respondError(w, r, waspweb.Validation("Invalid request body: "+err.Error()))
		return
	}

	profile := &waspweb.Profile{Protected: protected}
	profile.ID = id
	if err := h.profiles.UpdateProfileProtected(r.Context(), profile); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
