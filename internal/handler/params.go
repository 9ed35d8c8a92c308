package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/middleware"
)

// pathUUID binds the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	return id, err
}

// queryParam binds a form-style query parameter into dest. Required
// parameters take a *T; optional ones take a **T left nil when absent.
func queryParam(r *http.Request, name string, required bool, dest any) error {
	return runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest)
}

// queryDate binds an optional "2006-01-02" query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	var d *openapi_types.Date
	if err := queryParam(r, name, false, &d); err != nil || d == nil {
		return nil, err
	}
	t := domain.DateOf(d.Time, time.UTC)
	return &t, nil
}

// stayParams are the query parameters shared by the availability routes.
type stayParams struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// bindStay reads check_in, check_out and guests. Missing or malformed
// values come back as joined domain validation errors, one per field.
func bindStay(r *http.Request) (stayParams, error) {
	var (
		in, out openapi_types.Date
		p       stayParams
		errs    []error
	)
	for _, q := range []struct {
		name, malformed string
		dest            any
	}{
		{"check_in", "must be a date in YYYY-MM-DD format", &in},
		{"check_out", "must be a date in YYYY-MM-DD format", &out},
		{"guests", "must be an integer", &p.Guests},
	} {
		if r.URL.Query().Get(q.name) == "" {
			errs = append(errs, domain.Invalid(q.name, "is required"))
			continue
		}
		if err := queryParam(r, q.name, true, q.dest); err != nil {
			errs = append(errs, domain.Invalid(q.name, q.malformed))
		}
	}
	if len(errs) > 0 {
		return p, errors.Join(errs...)
	}
	p.CheckIn, p.CheckOut = domain.DateOf(in.Time, time.UTC), domain.DateOf(out.Time, time.UTC)
	return p, nil
}

func bindOverrides(r *http.Request) (domain.Overrides, error) {
	var ov domain.Overrides
	for name, dest := range map[string]*bool{
		"skip_conflict_check": &ov.SkipConflictCheck,
		"skip_blackout_check": &ov.SkipBlackoutCheck,
		"allow_past":          &ov.AllowPastCheckIn,
	} {
		var v *bool
		if err := queryParam(r, name, false, &v); err != nil {
			return ov, err
		}
		if v != nil {
			*dest = *v
		}
	}
	return ov, nil
}

// publicTenant returns the organization resolved from the request host.
// Without one the request is answered 404 and ok is false.
func publicTenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, ok := middleware.OrganizationFromContext(r.Context())
	if !ok || orgID == uuid.Nil {
		writeJSON(w, http.StatusNotFound, notFoundBody("organization not found"))
		return uuid.Nil, false
	}
	return orgID, true
}

// actor returns the organization and admin user on the request context.
// If either is missing the request is answered 403 and ok is false.
func actor(w http.ResponseWriter, r *http.Request) (orgID, userID uuid.UUID, ok bool) {
	orgID, hasOrg := middleware.OrganizationFromContext(r.Context())
	userID, hasUser := middleware.UserIDFromContext(r.Context())
	if !hasOrg || !hasUser || orgID == uuid.Nil || userID == uuid.Nil {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", "forbidden"))
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, userID, true
}
