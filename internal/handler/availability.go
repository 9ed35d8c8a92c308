package handler

import (
	"net/http"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// SearchAvailability handles GET /api/availability/search.
// Returns the active campsites free for the whole stay, in display order.
func (s *Server) SearchAvailability(w http.ResponseWriter, r *http.Request) {
	orgID, ok := publicTenant(w, r)
	if !ok {
		return
	}
	stay, err := bindStay(r)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	c := domain.SearchCriteria{CheckIn: stay.CheckIn, CheckOut: stay.CheckOut, Guests: stay.Guests}
	if err := queryParam(r, "rv_length", false, &c.RVLength); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	var unit *string
	if err := queryParam(r, "unit_type", false, &unit); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if unit != nil {
		t := domain.SiteType(*unit)
		c.UnitType = &t
	}

	sites, err := s.Availability.Search(r.Context(), orgID, c)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// CheckAvailability handles GET /api/availability/campsites/{campsiteId}.
func (s *Server) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	orgID, ok := publicTenant(w, r)
	if !ok {
		return
	}
	req, ok := s.bindCheck(w, r)
	if !ok {
		return
	}
	res, err := s.Availability.Check(r.Context(), orgID, req)
	if err != nil {
		s.respondError(w, r, err, "campsite not found")
		return
	}
	writeJSON(w, http.StatusOK, availabilityToResponse(res))
}

// CheckAvailabilityAdmin handles GET /api/admin/availability/campsites/{campsiteId}.
// The override flags waive individual checks for operators.
func (s *Server) CheckAvailabilityAdmin(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := actor(w, r)
	if !ok {
		return
	}
	req, ok := s.bindCheck(w, r)
	if !ok {
		return
	}
	ov, err := bindOverrides(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	res, err := s.Availability.CheckAdmin(r.Context(), orgID, req, ov)
	if err != nil {
		s.respondError(w, r, err, "campsite not found")
		return
	}
	writeJSON(w, http.StatusOK, availabilityToResponse(res))
}

func (s *Server) bindCheck(w http.ResponseWriter, r *http.Request) (domain.AvailabilityRequest, bool) {
	id, err := pathUUID(r, "campsiteId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return domain.AvailabilityRequest{}, false
	}
	stay, err := bindStay(r)
	if err != nil {
		s.respondError(w, r, err, "")
		return domain.AvailabilityRequest{}, false
	}
	return domain.AvailabilityRequest{
		CampsiteID: id,
		CheckIn:    stay.CheckIn,
		CheckOut:   stay.CheckOut,
		Guests:     stay.Guests,
	}, true
}
