package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"tripseat/internal/booking"
	"tripseat/internal/database"
	"tripseat/internal/domain"
	"tripseat/internal/export"
	"tripseat/internal/models"
	"tripseat/internal/repository"
	"tripseat/internal/service"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Field     string `json:"field,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func (s *HTTPServer) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.deps.Trips.ListUpcoming(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": trips})
}

func (s *HTTPServer) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trip, err := s.deps.Trips.GetTrip(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *HTTPServer) handleManifest(w http.ResponseWriter, r *http.Request) {
	actor := mustActor(r)
	if !actor.IsManager {
		writeError(w, http.StatusForbidden, service.ErrForbidden.Error())
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	trip, bookings, ranges, err := s.deps.Trips.Manifest(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteManifest(&buf, trip, bookings, ranges); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ManifestFileName(trip)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var candidate models.BookingCandidate
	if err := decodeJSON(w, r, &candidate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	view, err := s.deps.Bookings.CreateBooking(r.Context(), *mustActor(r), candidate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	views, err := s.deps.Bookings.ListUserBookings(r.Context(), *mustActor(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []*models.BookingView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": views})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.deps.Bookings.GetBooking(r.Context(), *mustActor(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var candidate models.BookingCandidate
	if err := decodeJSON(w, r, &candidate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	view, err := s.deps.Bookings.UpdateBooking(r.Context(), *mustActor(r), id, candidate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeServiceError maps service and store errors onto HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     verr.Error(),
			Code:      string(verr.Kind),
			Field:     verr.Field,
			Available: verr.Available,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrLockTimeout):
		writeError(w, http.StatusServiceUnavailable, "trip is busy, retry later")
	case errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrDuplicateBooking),
		errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// mustActor is only valid behind HTTPAuth.Authenticate.
func mustActor(r *http.Request) *models.User {
	u, ok := ActorFromContext(r.Context())
	if !ok {
		panic("api: handler reached without an authenticated actor")
	}
	return u
}
