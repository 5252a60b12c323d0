package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/auth"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/service"
	"github.com/sakif/jobtrack/internal/view"
)

// ApplicationHandler serves the job application endpoints. Every route
// expects RequireAuth to have run; records are scoped to the caller.
type ApplicationHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

// NewApplicationHandler creates an ApplicationHandler.
func NewApplicationHandler(apps *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, logger: logger}
}

// Routes returns the router mounted at /api/applications.
func (h *ApplicationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/board", h.HandleBoard)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Patch("/", h.HandleUpdate)
		r.Put("/status", h.HandleChangeStatus)
		r.Delete("/", h.HandleDelete)
	})
	return r
}

// userID reads the caller set by RequireAuth. A missing user means the
// route was mounted without the middleware; answer 401 rather than leak.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
	}
	return id, ok
}

// HandleList returns the filtered, sorted view.
//
// HTTP: GET /api/applications?search=&status=&sort=&dir=
// Missing parameters default to all statuses, newest first.
func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	f, err := view.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	apps, err := h.apps.Query(r.Context(), uid, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleBoard returns the kanban columns in pipeline order.
//
// HTTP: GET /api/applications/board
func (h *ApplicationHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	board, err := h.apps.Board(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleAnalytics returns the dashboard snapshot.
//
// HTTP: GET /api/analytics
func (h *ApplicationHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	snap, err := h.apps.Analytics(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGet returns one application.
//
// HTTP: GET /api/applications/{id}
func (h *ApplicationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleCreate stores a new application.
//
// HTTP: POST /api/applications
// BODY: {"company","position","status"?,"applied_date","url"?,"notes"?}
func (h *ApplicationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in model.ApplicationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// HandleUpdate applies a partial update. Absent fields are left unchanged.
//
// HTTP: PATCH /api/applications/{id}
func (h *ApplicationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch model.ApplicationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.Update(r.Context(), uid, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// statusRequest is the body of a status move.
type statusRequest struct {
	Status model.Status `json:"status"`
}

// HandleChangeStatus moves an application to another column.
//
// HTTP: PUT /api/applications/{id}/status
// BODY: {"status": "interview"}
func (h *ApplicationHandler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.ChangeStatus(r.Context(), uid, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleDelete removes an application.
//
// HTTP: DELETE /api/applications/{id} → 204 No Content
func (h *ApplicationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.apps.Delete(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
