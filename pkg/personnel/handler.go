package personnel

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/traskcs99/watchbill/internal/httpserver"
)

// Handler provides HTTP handlers for people, groups, and qualifications.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a personnel Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi.Router with all personnel routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreatePerson)
	r.Get("/", h.handleListPeople)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetPerson)
		r.Patch("/", h.handleUpdatePerson)
		r.Delete("/", h.handleDeletePerson)
		r.Post("/qualifications", h.handleAddQualification)
	})
	return r
}

// GroupRoutes returns a chi.Router with all group routes mounted.
func (h *Handler) GroupRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreateGroup)
	r.Get("/", h.handleListGroups)
	r.Post("/reorder", h.handleReorderGroups)
	r.Route("/{id}", func(r chi.Router) {
		r.Patch("/", h.handleUpdateGroup)
		r.Delete("/", h.handleDeleteGroup)
	})
	return r
}

// QualificationRoutes returns a chi.Router for standalone qualification
// mutations that aren't scoped under a person (e.g. toggling active state).
func (h *Handler) QualificationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Patch("/{id}", h.handleToggleQualification)
	return r
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

type createPersonRequest struct {
	Name     string `json:"name" validate:"required"`
	GroupID  *int64 `json:"group_id,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (h *Handler) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p, err := h.store.CreatePerson(r.Context(), Person{Name: req.Name, GroupID: req.GroupID, IsActive: active})
	if err != nil {
		h.logger.Error("creating person", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create person")
		return
	}
	httpserver.Respond(w, http.StatusCreated, p)
}

func (h *Handler) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.ListPeople(r.Context())
	if err != nil {
		h.logger.Error("listing people", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list people")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"people": people, "count": len(people)})
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid person id")
		return
	}
	p, err := h.store.GetPerson(r.Context(), id)
	if err != nil {
		h.respondStoreErr(w, err, "person")
		return
	}
	httpserver.Respond(w, http.StatusOK, p)
}

func (h *Handler) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid person id")
		return
	}
	var req createPersonRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p, err := h.store.UpdatePerson(r.Context(), id, Person{Name: req.Name, GroupID: req.GroupID, IsActive: active})
	if err != nil {
		h.respondStoreErr(w, err, "person")
		return
	}
	httpserver.Respond(w, http.StatusOK, p)
}

func (h *Handler) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid person id")
		return
	}
	if err := h.store.DeletePerson(r.Context(), id); err != nil {
		h.respondStoreErr(w, err, "person")
		return
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
}

type addQualificationRequest struct {
	StationID int64 `json:"station_id" validate:"required"`
}

func (h *Handler) handleAddQualification(w http.ResponseWriter, r *http.Request) {
	personID, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid person id")
		return
	}
	var req addQualificationRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	q, err := h.store.CreateQualification(r.Context(), Qualification{PersonID: personID, StationID: req.StationID})
	if err != nil {
		h.logger.Error("creating qualification", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create qualification")
		return
	}
	httpserver.Respond(w, http.StatusCreated, q)
}

type toggleQualificationRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) handleToggleQualification(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid qualification id")
		return
	}
	var req toggleQualificationRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	q, err := h.store.SetQualificationActive(r.Context(), id, req.IsActive)
	if err != nil {
		h.respondStoreErr(w, err, "qualification")
		return
	}
	httpserver.Respond(w, http.StatusOK, q)
}

type groupRequest struct {
	Name            string  `json:"name" validate:"required"`
	SeniorityFactor float64 `json:"seniority_factor" validate:"gte=0"`
	MinAssignments  int     `json:"min_assignments" validate:"gte=0"`
	MaxAssignments  int     `json:"max_assignments" validate:"gte=0"`
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	g, err := h.store.CreateGroup(r.Context(), Group{
		Name: req.Name, SeniorityFactor: req.SeniorityFactor,
		MinAssignments: req.MinAssignments, MaxAssignments: req.MaxAssignments,
	})
	if err != nil {
		h.logger.Error("creating group", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create group")
		return
	}
	httpserver.Respond(w, http.StatusCreated, g)
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.logger.Error("listing groups", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list groups")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

func (h *Handler) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid group id")
		return
	}
	var req groupRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	g, err := h.store.UpdateGroup(r.Context(), id, Group{
		Name: req.Name, SeniorityFactor: req.SeniorityFactor,
		MinAssignments: req.MinAssignments, MaxAssignments: req.MaxAssignments,
	})
	if err != nil {
		h.respondStoreErr(w, err, "group")
		return
	}
	httpserver.Respond(w, http.StatusOK, g)
}

func (h *Handler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid group id")
		return
	}
	if err := h.store.DeleteGroup(r.Context(), id); err != nil {
		h.logger.Error("deleting group", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to delete group")
		return
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
}

type reorderGroupsRequest struct {
	OrderedIDs []int64 `json:"ordered_ids" validate:"required,min=1"`
}

func (h *Handler) handleReorderGroups(w http.ResponseWriter, r *http.Request) {
	var req reorderGroupsRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.store.ReorderGroups(r.Context(), req.OrderedIDs); err != nil {
		h.logger.Error("reordering groups", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to reorder groups")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *Handler) respondStoreErr(w http.ResponseWriter, err error, noun string) {
	if errors.Is(err, ErrNotFound) {
		httpserver.RespondError(w, http.StatusNotFound, "not_found", noun+" not found")
		return
	}
	h.logger.Error("store error", "error", err)
	httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
}
