package handler

import (
	"net/http"
	"time"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// ListBlackouts handles GET /api/admin/blackouts.
// ?from= limits the list to blackouts ending on or after that day.
func (s *Server) ListBlackouts(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := actor(w, r)
	if !ok {
		return
	}
	from, err := queryDate(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	items, err := s.Blackouts.List(r.Context(), orgID, from)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	out := make([]BlackoutResponse, len(items))
	for i, b := range items {
		out[i] = blackoutToResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateBlackout handles POST /api/admin/blackouts.
// Overlapping reservations are returned as warnings, not rejected.
func (s *Server) CreateBlackout(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	var body BlackoutRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}
	b := domain.BlackoutDate{
		CampsiteID: body.CampsiteID,
		Reason:     body.Reason,
	}
	if !body.StartDate.IsZero() {
		b.StartDate = domain.DateOf(body.StartDate.Time, time.UTC)
	}
	if !body.EndDate.IsZero() {
		b.EndDate = domain.DateOf(body.EndDate.Time, time.UTC)
	}

	created, warnings, err := s.Blackouts.Create(r.Context(), orgID, userID, b)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, BlackoutCreatedResponse{
		Blackout: blackoutToResponse(created),
		Warnings: reservationsToResponse(warnings),
	})
}

// DeleteBlackout handles DELETE /api/admin/blackouts/{blackoutId}.
func (s *Server) DeleteBlackout(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "blackoutId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if err := s.Blackouts.Delete(r.Context(), orgID, userID, id); err != nil {
		s.respondError(w, r, err, "blackout not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
