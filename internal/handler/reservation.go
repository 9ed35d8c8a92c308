package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

const reservationNotFound = "reservation not found"

// ---- public ----------------------------------------------------------------

// CreateGuestReservation handles POST /api/reservations.
func (s *Server) CreateGuestReservation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := publicTenant(w, r)
	if !ok {
		return
	}
	var body BookingRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	booked, err := s.Reservations.CreateGuest(r.Context(), orgID, body.toBooking())
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, BookingResponse{
		Reservation:  reservationToResponse(booked.Reservation),
		EditToken:    booked.EditToken,
		ClientSecret: booked.ClientSecret,
	})
}

// GetGuestReservation handles GET /api/reservations/{reservationId}?token=.
// A wrong or missing token is indistinguishable from an unknown id.
func (s *Server) GetGuestReservation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := publicTenant(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "reservationId")
	if err != nil {
		writeJSON(w, http.StatusNotFound, notFoundBody(reservationNotFound))
		return
	}
	res, err := s.Reservations.GetWithToken(r.Context(), orgID, id, r.URL.Query().Get("token"))
	if err != nil {
		s.respondError(w, r, err, reservationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// ---- admin -----------------------------------------------------------------

// ListReservations handles GET /api/admin/reservations.
// Supports ?page=, ?limit=, ?status=, ?campsite_id=, ?from=, ?to= and
// ?include_archived=.
func (s *Server) ListReservations(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := actor(w, r)
	if !ok {
		return
	}
	var (
		page, limit *int
		status      *string
		archived    *bool
		f           domain.ReservationFilter
		err         error
	)
	for _, p := range []struct {
		name string
		dest any
	}{
		{"page", &page},
		{"limit", &limit},
		{"status", &status},
		{"campsite_id", &f.CampsiteID},
		{"include_archived", &archived},
	} {
		if err = queryParam(r, p.name, false, p.dest); err != nil {
			writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
			return
		}
	}
	if f.From, err = queryDate(r, "from"); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if status != nil {
		f.Status = domain.ReservationStatus(*status)
	}
	f.IncludeArchived = archived != nil && *archived

	params := domain.NewPaginationParams(page, limit)
	items, total, err := s.Reservations.List(r.Context(), orgID, f, params)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[ReservationResponse]{
		Data: reservationsToResponse(items),
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// CreateAdminReservation handles POST /api/admin/reservations.
// The campsite may be omitted to record an unassigned booking.
func (s *Server) CreateAdminReservation(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	var body AdminBookingRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	ov := domain.Overrides{SkipBlackoutCheck: body.SkipBlackoutCheck, AllowPastCheckIn: body.AllowPastCheckIn}
	res, err := s.Reservations.CreateAdmin(r.Context(), orgID, userID, body.toBooking(), domain.ReservationStatus(body.Status), ov)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, reservationToResponse(res))
}

// GetReservation handles GET /api/admin/reservations/{reservationId}.
func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	res, err := s.Reservations.Get(r.Context(), orgID, id)
	if err != nil {
		s.respondError(w, r, err, reservationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// AssignReservation handles PATCH /api/admin/reservations/{reservationId}/assignment.
// A collision answers 409 with the conflicting reservation or blackout.
func (s *Server) AssignReservation(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	var body AssignmentRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	a, ov := body.toAssignment()
	res, err := s.Reservations.AssignOrReschedule(r.Context(), orgID, userID, id, a, ov)
	if err != nil {
		s.respondError(w, r, err, reservationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// UpdateReservationStatus handles POST /api/admin/reservations/{reservationId}/status.
func (s *Server) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	var body StatusRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	res, err := s.Reservations.UpdateStatus(r.Context(), orgID, userID, id, domain.ReservationStatus(body.Status))
	if err != nil {
		s.respondError(w, r, err, reservationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// ArchiveReservation handles POST /api/admin/reservations/{reservationId}/archive.
func (s *Server) ArchiveReservation(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := reservationID(w, r)
	if !ok {
		return
	}
	res, err := s.Reservations.Archive(r.Context(), orgID, userID, id)
	if err != nil {
		s.respondError(w, r, err, reservationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

func reservationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := pathUUID(r, "reservationId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return uuid.Nil, false
	}
	return id, true
}
