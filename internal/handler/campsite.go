package handler

import (
	"net/http"

	"github.com/google/uuid"
)

const campsiteNotFound = "campsite not found"

// ListCampsites handles GET /api/admin/campsites.
// Inactive campsites are included unless ?active_only=true.
func (s *Server) ListCampsites(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := actor(w, r)
	if !ok {
		return
	}
	var activeOnly *bool
	if err := queryParam(r, "active_only", false, &activeOnly); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	sites, err := s.Campsites.List(r.Context(), orgID, activeOnly == nil || !*activeOnly)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// CreateCampsite handles POST /api/admin/campsites.
func (s *Server) CreateCampsite(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	var body CampsiteRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}
	created, err := s.Campsites.Create(r.Context(), orgID, userID, body.toCampsite(uuid.Nil))
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetCampsite handles GET /api/admin/campsites/{campsiteId}.
func (s *Server) GetCampsite(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := campsiteID(w, r)
	if !ok {
		return
	}
	site, err := s.Campsites.GetByID(r.Context(), orgID, id)
	if err != nil {
		s.respondError(w, r, err, campsiteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// UpdateCampsite handles PUT /api/admin/campsites/{campsiteId}.
func (s *Server) UpdateCampsite(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := campsiteID(w, r)
	if !ok {
		return
	}
	var body CampsiteRequest
	if err := s.decode(r, &body); err != nil {
		s.respondDecodeError(w, r, err)
		return
	}
	updated, err := s.Campsites.Update(r.Context(), orgID, userID, body.toCampsite(id))
	if err != nil {
		s.respondError(w, r, err, campsiteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteCampsite handles DELETE /api/admin/campsites/{campsiteId}.
// A campsite with reservations answers 409; deactivate it instead.
func (s *Server) DeleteCampsite(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := campsiteID(w, r)
	if !ok {
		return
	}
	if err := s.Campsites.Delete(r.Context(), orgID, userID, id); err != nil {
		s.respondError(w, r, err, campsiteNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func campsiteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := pathUUID(r, "campsiteId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return uuid.Nil, false
	}
	return id, true
}
