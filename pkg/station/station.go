// Package station owns the Station entity: the global library of watch
// roles a Schedule requires coverage for.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/traskcs99/watchbill/internal/httpserver"
	"github.com/traskcs99/watchbill/internal/platform"
)

// Station is a watch role, e.g. "Officer of the Deck" / "OOD".
type Station struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// ErrNotFound is returned when a requested station does not exist.
var ErrNotFound = errors.New("not found")

// Store provides database operations for stations.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a station Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

func (s *Store) Create(ctx context.Context, st Station) (Station, error) {
	const query = `INSERT INTO stations (name, abbreviation) VALUES ($1, $2)
	               RETURNING id, name, abbreviation`
	return s.scan(s.dbtx.QueryRow(ctx, query, st.Name, st.Abbreviation))
}

func (s *Store) Get(ctx context.Context, id int64) (Station, error) {
	const query = `SELECT id, name, abbreviation FROM stations WHERE id = $1`
	return s.scan(s.dbtx.QueryRow(ctx, query, id))
}

func (s *Store) List(ctx context.Context) ([]Station, error) {
	const query = `SELECT id, name, abbreviation FROM stations ORDER BY name ASC`
	rows, err := s.dbtx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	defer rows.Close()

	stations := []Station{}
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Abbreviation); err != nil {
			return nil, fmt.Errorf("scanning station row: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *Store) Update(ctx context.Context, id int64, st Station) (Station, error) {
	const query = `UPDATE stations SET name=$2, abbreviation=$3 WHERE id=$1
	               RETURNING id, name, abbreviation`
	return s.scan(s.dbtx.QueryRow(ctx, query, id, st.Name, st.Abbreviation))
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.dbtx.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting station: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StationsByID fetches a set of stations by id, returned keyed by id, for
// callers (the constraint builder, summary) that need a lookup map built
// once at iteration start rather than N individual queries.
func (s *Store) StationsByID(ctx context.Context, ids []int64) (map[int64]Station, error) {
	out := make(map[int64]Station, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const query = `SELECT id, name, abbreviation FROM stations WHERE id = ANY($1)`
	rows, err := s.dbtx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("listing stations by id: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Abbreviation); err != nil {
			return nil, fmt.Errorf("scanning station row: %w", err)
		}
		out[st.ID] = st
	}
	return out, rows.Err()
}

func (s *Store) scan(row pgx.Row) (Station, error) {
	var st Station
	err := row.Scan(&st.ID, &st.Name, &st.Abbreviation)
	if errors.Is(err, pgx.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	if err != nil {
		return Station{}, fmt.Errorf("scanning station: %w", err)
	}
	return st, nil
}

// Handler provides HTTP handlers for the stations library.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a station Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi.Router with all station routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Route("/{id}", func(r chi.Router) {
		r.Patch("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)
	})
	return r
}

type stationRequest struct {
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation" validate:"required"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	st, err := h.store.Create(r.Context(), Station{Name: req.Name, Abbreviation: req.Abbreviation})
	if err != nil {
		h.logger.Error("creating station", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create station")
		return
	}
	httpserver.Respond(w, http.StatusCreated, st)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	stations, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("listing stations", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list stations")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"stations": stations, "count": len(stations)})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid station id")
		return
	}
	var req stationRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	st, err := h.store.Update(r.Context(), id, Station{Name: req.Name, Abbreviation: req.Abbreviation})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "station not found")
			return
		}
		h.logger.Error("updating station", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to update station")
		return
	}
	httpserver.Respond(w, http.StatusOK, st)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid station id")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "station not found")
			return
		}
		h.logger.Error("deleting station", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to delete station")
		return
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
}
