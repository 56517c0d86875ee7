package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/waspscripts/wasp-web/pkg/waspweb/pages"
)

// PagesHandler serves the read only page data.
type PagesHandler struct {
	assembler *pages.Assembler
}

func NewPagesHandler(assembler *pages.Assembler) *PagesHandler {
	return &PagesHandler{
		assembler: assembler,
	}
}

// Routes returns the router for page endpoints. The tutorial edit route
// expects the Verifier middleware to run before it.
func (h *PagesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/developers/{slug}", h.GetDeveloper)
	r.Get("/stats", h.GetStats)
	r.Get("/sitemap.xml", h.GetSitemap)
	r.Get("/packages/{slug}/versions", h.GetPackageVersions)
	r.Get("/tutorials/{slug}/edit", h.EditTutorial)
	return r
}

// GetDeveloper returns a developer with a page of their scripts
func (h *PagesHandler) GetDeveloper(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.assembler.DeveloperPage(r.Context(), pages.DeveloperRequest{
		Slug:   chi.URLParam(r, "slug"),
		Page:   query.Get("page"),
		Search: query.Get("search"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// GetStats returns a page of the stats leaderboard. Query failures are
// reported inside the page with a 500 status.
func (h *PagesHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := h.assembler.StatsPage(r.Context(), pages.StatsRequest{
		Page:      query.Get("page"),
		Order:     query.Get("order"),
		Ascending: query.Get("ascending"),
		Search:    query.Get("search"),
	})
	if page.Status != 0 {
		render.Status(r, page.Status)
	}
	render.JSON(w, r, page)
}

// GetSitemap renders the sitemap document
func (h *PagesHandler) GetSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.assembler.Sitemap(r.Context()).Marshal()
	if err != nil {
		slog.Error("Failed to render sitemap", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Cache-Control", pages.SitemapCacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GetPackageVersions lists the published versions of a package
func (h *PagesHandler) GetPackageVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.assembler.PackageVersions(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, versions)
}

// EditTutorial returns a tutorial to its author and redirects everyone else.
func (h *PagesHandler) EditTutorial(w http.ResponseWriter, r *http.Request) {
	requester, _, _ := UserFromContext(r.Context())
	edit, err := h.assembler.TutorialEdit(r.Context(), chi.URLParam(r, "slug"), requester)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if edit.Redirect != "" {
		http.Redirect(w, r, edit.Redirect, http.StatusSeeOther)
		return
	}
	render.JSON(w, r, edit)
}
