package watchbill

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/traskcs99/watchbill/internal/httpserver"
)

// Handler provides HTTP handlers for the schedules surface.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler creates a watchbill Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes returns a chi.Router with every /schedules route mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreateSchedule)
	r.Get("/", h.handleListSchedules)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetSchedule)
		r.Patch("/", h.handleUpdateSchedule)
		r.Post("/memberships", h.handleAddMembership)
		r.Post("/stations", h.handleLinkStation)
		r.Delete("/stations/{link_id}", h.handleUnlinkStation)
		r.Post("/generate", h.handleGenerate)
		r.Get("/candidates", h.handleListCandidates)
		r.Post("/apply", h.handleApply)
		r.Post("/clear", h.handleClear)
		r.Get("/quotas", h.handleQuotas)
		r.Get("/alerts", h.handleAlerts)
		r.Get("/summary", h.handleSummary)
	})
	return r
}

func parseScheduleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

const dateLayout = "2006-01-02"

type scheduleRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Status    string `json:"status,omitempty"`
}

func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	start, end, ok := h.parseWindow(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	sc := Schedule{Name: req.Name, StartDate: start, EndDate: end}
	if req.Status != "" {
		sc.Status = Status(req.Status)
	}
	created, err := h.svc.CreateSchedule(r.Context(), sc)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, created)
}

func (h *Handler) parseWindow(w http.ResponseWriter, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid start_date")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid end_date")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	schedules, err := h.svc.store.ListSchedules(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, httpserver.NewOffsetPage(paginate(schedules, params), params, len(schedules)))
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	sc, err := h.svc.store.GetSchedule(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	days, err := h.svc.store.ListDays(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	memberships, err := h.svc.store.ListMemberships(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	required, err := h.svc.store.RequiredStationIDs(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"schedule": sc, "days": days, "memberships": memberships, "required_stations": required,
	})
}

type scheduleUpdateRequest struct {
	Name                      string             `json:"name,omitempty"`
	Status                    string             `json:"status,omitempty"`
	WeightQuotaDeviation      *float64           `json:"weight_quota_deviation,omitempty"`
	WeightSpacing1Day         *float64           `json:"weight_spacing_1_day,omitempty"`
	WeightSpacing2Day         *float64           `json:"weight_spacing_2_day,omitempty"`
	WeightSameWeekend         *float64           `json:"weight_same_weekend,omitempty"`
	WeightConsecutiveWeekends *float64           `json:"weight_consecutive_weekends,omitempty"`
	WeightGoalDeviation       *float64           `json:"weight_goal_deviation,omitempty"`
	GroupWeights              map[string]float64 `json:"group_weights,omitempty"`
}

func (h *Handler) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	var req scheduleUpdateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	sc, err := h.svc.store.GetSchedule(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	if req.Name != "" {
		sc.Name = req.Name
	}
	if req.Status != "" {
		sc.Status = Status(req.Status)
	}
	applyWeight(&sc.WeightQuotaDeviation, req.WeightQuotaDeviation)
	applyWeight(&sc.WeightSpacing1Day, req.WeightSpacing1Day)
	applyWeight(&sc.WeightSpacing2Day, req.WeightSpacing2Day)
	applyWeight(&sc.WeightSameWeekend, req.WeightSameWeekend)
	applyWeight(&sc.WeightConsecutiveWeekends, req.WeightConsecutiveWeekends)
	applyWeight(&sc.WeightGoalDeviation, req.WeightGoalDeviation)
	if req.GroupWeights != nil {
		if sc.GroupWeights == nil {
			sc.GroupWeights = map[int64]float64{}
		}
		for k, v := range req.GroupWeights {
			groupID, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid group id in group_weights")
				return
			}
			sc.GroupWeights[groupID] = v
		}
	}
	updated, err := h.svc.store.UpdateSchedule(r.Context(), id, sc)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, updated)
}

func applyWeight(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

type membershipRequest struct {
	PersonID int64  `json:"person_id" validate:"required"`
	GroupID  *int64 `json:"group_id,omitempty"`
}

func (h *Handler) handleAddMembership(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	var req membershipRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	m, err := h.svc.AddMembership(r.Context(), Membership{ScheduleID: scheduleID, PersonID: req.PersonID, GroupID: req.GroupID})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, m)
}

type linkStationRequest struct {
	StationID int64 `json:"station_id" validate:"required"`
}

func (h *Handler) handleLinkStation(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	var req linkStationRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.svc.store.LinkStation(r.Context(), scheduleID, req.StationID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, map[string]string{"status": "linked"})
}

func (h *Handler) handleUnlinkStation(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	linkID, err := strconv.ParseInt(chi.URLParam(r, "link_id"), 10, 64)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid link id")
		return
	}
	if err := h.svc.store.UnlinkStation(r.Context(), scheduleID, linkID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
}

type generateRequest struct {
	NumCandidates int `json:"num_candidates,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	var req generateRequest
	_ = httpserver.Decode(r, &req) // num_candidates is optional; an empty body is valid

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if err := h.svc.Generate(r.Context(), scheduleID, req.NumCandidates, w); err != nil {
		h.logger.Error("generate stream failed", "error", err, "schedule_id", scheduleID)
	}
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	candidates, err := h.svc.store.ListCandidates(r.Context(), scheduleID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, httpserver.NewOffsetPage(paginate(candidates, params), params, len(candidates)))
}

// paginate slices a full result set to one offset-pagination page. Candidate
// and schedule lists are small enough per schedule that windowing
// in process, rather than in SQL, is the simpler fit with each store
// method's existing "load them all, already ordered" contract.
func paginate[T any](items []T, params httpserver.OffsetParams) []T {
	if params.Offset >= len(items) {
		return []T{}
	}
	end := params.Offset + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[params.Offset:end]
}

type applyRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	var req applyRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid candidate_id")
		return
	}
	updated, err := h.svc.Apply(r.Context(), scheduleID, candidateID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	updated, err := h.svc.Clear(r.Context(), scheduleID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) handleQuotas(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	quotas, err := h.svc.Quotas(r.Context(), scheduleID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make(map[string]float64, len(quotas))
	for id, q := range quotas {
		out[strconv.FormatInt(id, 10)] = q
	}
	httpserver.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	alerts, err := h.svc.Validate(r.Context(), scheduleID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseScheduleID(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid schedule id")
		return
	}
	summary, err := h.svc.Summary(r.Context(), scheduleID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, summary)
}

// respondErr maps a watchbill.Error's Kind to an HTTP status; ErrNotFound
// is a 404, and any other error (store plumbing, etc.) is a 500.
func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var werr *Error
	if errors.As(err, &werr) {
		switch werr.Kind {
		case KindValidationFailure:
			httpserver.RespondError(w, http.StatusBadRequest, "validation_failed", werr.Message)
		case KindNotFound:
			httpserver.RespondError(w, http.StatusNotFound, "not_found", werr.Message)
		case KindConflict:
			httpserver.RespondError(w, http.StatusBadRequest, "conflict", werr.Message)
		case KindInfeasibility:
			httpserver.RespondError(w, http.StatusBadRequest, "infeasible", werr.Message)
		case KindSolverBudgetExhausted:
			httpserver.RespondError(w, http.StatusOK, "budget_exhausted", werr.Message)
		case KindDataIntegrity:
			h.logger.Error("data integrity error", "error", werr.Err, "message", werr.Message)
			httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
		default:
			httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", werr.Message)
		}
		return
	}
	if errors.Is(err, ErrNotFound) {
		httpserver.RespondError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	h.logger.Error("unhandled error", "error", err)
	httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
}
