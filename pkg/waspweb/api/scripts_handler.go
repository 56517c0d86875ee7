package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// ScriptsHandler publishes scripts and serves their stored revisions.
type ScriptsHandler struct {
	publisher  *waspweb.Publisher
	repository waspweb.ScriptRepository
}

func NewScriptsHandler(publisher *waspweb.Publisher, repository waspweb.ScriptRepository) *ScriptsHandler {
	return &ScriptsHandler{
		publisher:  publisher,
		repository: repository,
	}
}

// Routes returns the router for script endpoints. Writes require a verified
// user token, so the Verifier middleware must run before it.
func (h *ScriptsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/download", h.DownloadScript)
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/", h.CreateScript)
		r.Put("/{id}", h.UpdateScript)
	})
	return r
}

// PublishResponse is returned once a script row was written.
type PublishResponse struct {
	Script   *waspweb.Script `json:"script"`
	Revision int             `json:"revision"`
}

// CreateScript publishes a new script from a multipart form holding the
// metadata JSON in "script" and the files "file", "cover" and "banner".
func (h *ScriptsHandler) CreateScript(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := UserFromContext(r.Context())

	form, err := readScriptForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	form.script.Protected.AuthorID = userID
	result, err := h.publisher.Create(r.Context(), waspweb.CreateScriptRequest{
		Script: form.script,
		File:   form.file,
		Cover:  form.cover,
		Banner: form.banner,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, PublishResponse{Script: result.Script, Revision: result.Revision})
}

// UpdateScript updates a script owned by the requesting user. A new file is
// stored as the next revision.
func (h *ScriptsHandler) UpdateScript(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, waspweb.Validation("Invalid script ID!"))
		return
	}

	current, err := h.repository.GetScript(r.Context(), id)
	if err != nil {
		if errors.Is(err, waspweb.ErrScriptNotFound) {
			respondError(w, r, waspweb.NotFound("Script not found!", err))
			return
		}
		respondError(w, r, waspweb.Upstream(err.Error(), err))
		return
	}
	if current.Protected.AuthorID != userID {
		respondError(w, r, waspweb.Forbidden(errors.New("You are not the author of this script!")))
		return
	}

	form, err := readScriptForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	form.script.ID = id
	form.script.Protected = current.Protected
	result, err := h.publisher.Update(r.Context(), waspweb.UpdateScriptRequest{
		Script: form.script,
		File:   form.file,
		Cover:  form.cover,
		Banner: form.banner,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, PublishResponse{Script: result.Script, Revision: result.Revision})
}

// DownloadScript streams a stored revision. Without a revision parameter the
// current one is returned.
func (h *ScriptsHandler) DownloadScript(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, waspweb.Validation("Invalid script ID!"))
		return
	}

	revision := 0
	if raw := r.URL.Query().Get("revision"); raw != "" {
		revision, err = strconv.Atoi(raw)
		if err != nil || revision < 1 {
			respondError(w, r, waspweb.Validation("Invalid revision!"))
			return
		}
	}

	rc, err := h.publisher.Download(r.Context(), id, revision)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=script.simba")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream script", "script_id", id, "err", err)
	}
}

type scriptForm struct {
	script waspweb.Script
	file   *waspweb.File
	cover  *waspweb.File
	banner *waspweb.File
}

func readScriptForm(r *http.Request) (*scriptForm, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, waspweb.Validation("Invalid form: " + err.Error())
	}

	form := &scriptForm{}
	if err := json.Unmarshal([]byte(r.FormValue("script")), &form.script); err != nil {
		return nil, waspweb.Validation("Invalid script metadata: " + err.Error())
	}

	var err error
	if form.file, err = formFile(r, "file"); err != nil {
		return nil, err
	}
	if form.cover, err = formFile(r, "cover"); err != nil {
		return nil, err
	}
	if form.banner, err = formFile(r, "banner"); err != nil {
		return nil, err
	}
	return form, nil
}

// formFile reads an optional multipart file. A missing file yields nil.
func formFile(r *http.Request, field string) (*waspweb.File, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, waspweb.Validation("Invalid " + field + ": " + err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, waspweb.Validation("Invalid " + field + ": " + err.Error())
	}
	return &waspweb.File{
		Name:        header.Filename,
		ContentType: contentType(header),
		Data:        data,
	}, nil
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
