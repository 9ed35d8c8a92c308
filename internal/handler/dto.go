package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
)

// ---- validation ------------------------------------------------------------

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errMalformedBody is returned by decode for bodies that are not valid JSON
// for the target type.
var errMalformedBody = errors.New("request body must be a valid JSON object")

// decode reads a JSON body into dst and runs its validate tags. Tag failures
// come back as joined domain validation errors so they share the 422 path
// with service-side validation.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errMalformedBody
	}

	err := s.validate.Struct(dst)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.Invalid(fe.Field(), validationMessage(fe)))
	}
	return errors.Join(out...)
}

// validationMessage returns a human-readable message for a failed tag.
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return "is invalid"
	}
}

// respondDecodeError answers a failed decode: 413 for oversized bodies, 400
// for malformed JSON and 422 for tag failures.
func (s *Server) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", "request body is too large"))
	case errors.Is(err, errMalformedBody):
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
	default:
		s.respondError(w, r, err, "")
	}
}

// ---- requests --------------------------------------------------------------

// BookingRequest is the body of POST /api/reservations.
type BookingRequest struct {
	FirstName  string             `json:"first_name" validate:"required,max=100"`
	LastName   string             `json:"last_name" validate:"required,max=100"`
	Email      string             `json:"email" validate:"required,email,max=254"`
	Phone      string             `json:"phone,omitempty" validate:"max=40"`
	CheckIn    openapi_types.Date `json:"check_in"`
	CheckOut   openapi_types.Date `json:"check_out"`
	Adults     int                `json:"adults" validate:"gte=1"`
	Children   int                `json:"children" validate:"gte=0"`
	UnitType   string             `json:"unit_type" validate:"required,oneof=tent rv_trailer camper_van cabin"`
	RVLength   *int               `json:"rv_length,omitempty" validate:"omitempty,gt=0"`
	CampsiteID *uuid.UUID         `json:"campsite_id,omitempty"`
}

func (b BookingRequest) toBooking() service.Booking {
	return service.Booking{
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		Email:      b.Email,
		Phone:      b.Phone,
		CheckIn:    domain.DateOf(b.CheckIn.Time, time.UTC),
		CheckOut:   domain.DateOf(b.CheckOut.Time, time.UTC),
		Adults:     b.Adults,
		Children:   b.Children,
		UnitType:   domain.SiteType(b.UnitType),
		RVLength:   b.RVLength,
		CampsiteID: b.CampsiteID,
	}
}

// AdminBookingRequest is the body of POST /api/admin/reservations.
type AdminBookingRequest struct {
	BookingRequest
	Status            string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
	SkipBlackoutCheck bool   `json:"skip_blackout_check,omitempty"`
	AllowPastCheckIn  bool   `json:"allow_past,omitempty"`
}

// AssignmentRequest is the body of PATCH .../assignment.
type AssignmentRequest struct {
	CampsiteID        *uuid.UUID          `json:"campsite_id,omitempty"`
	Unassign          bool                `json:"unassign,omitempty"`
	CheckIn           *openapi_types.Date `json:"check_in,omitempty"`
	CheckOut          *openapi_types.Date `json:"check_out,omitempty"`
	SkipBlackoutCheck bool                `json:"skip_blackout_check,omitempty"`
	AllowPastCheckIn  bool                `json:"allow_past,omitempty"`
}

func (a AssignmentRequest) toAssignment() (domain.Assignment, domain.Overrides) {
	out := domain.Assignment{CampsiteID: a.CampsiteID, Unassign: a.Unassign}
	if a.CheckIn != nil {
		d := domain.DateOf(a.CheckIn.Time, time.UTC)
		out.CheckIn = &d
	}
	if a.CheckOut != nil {
		d := domain.DateOf(a.CheckOut.Time, time.UTC)
		out.CheckOut = &d
	}
	return out, domain.Overrides{SkipBlackoutCheck: a.SkipBlackoutCheck, AllowPastCheckIn: a.AllowPastCheckIn}
}

// StatusRequest is the body of POST .../status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CampsiteRequest is the body of campsite create and update.
type CampsiteRequest struct {
	Code        string          `json:"code" validate:"required,max=20"`
	Name        string          `json:"name" validate:"required,max=100"`
	Type        string          `json:"type" validate:"required,oneof=tent rv_trailer camper_van cabin"`
	MaxGuests   int             `json:"max_guests" validate:"gte=1"`
	MaxRVLength *int            `json:"max_rv_length,omitempty" validate:"omitempty,gt=0"`
	BaseRate    decimal.Decimal `json:"base_rate"`
	IsActive    *bool           `json:"is_active,omitempty"`
	SortOrder   int             `json:"sort_order"`
}

func (c CampsiteRequest) toCampsite(id uuid.UUID) domain.Campsite {
	active := c.IsActive == nil || *c.IsActive
	return domain.Campsite{
		ID:          id,
		Code:        c.Code,
		Name:        c.Name,
		Type:        domain.SiteType(c.Type),
		MaxGuests:   c.MaxGuests,
		MaxRVLength: c.MaxRVLength,
		BaseRate:    c.BaseRate,
		IsActive:    active,
		SortOrder:   c.SortOrder,
	}
}

// BlackoutRequest is the body of POST /api/admin/blackouts.
type BlackoutRequest struct {
	CampsiteID *uuid.UUID         `json:"campsite_id,omitempty"`
	StartDate  openapi_types.Date `json:"start_date"`
	EndDate    openapi_types.Date `json:"end_date"`
	Reason     string             `json:"reason,omitempty" validate:"max=500"`
}

// ---- responses -------------------------------------------------------------

// ReservationResponse is a reservation as returned by the API. Dates are
// YYYY-MM-DD calendar days.
type ReservationResponse struct {
	ID             uuid.UUID           `json:"id"`
	GuestFirstName string              `json:"guest_first_name"`
	GuestLastName  string              `json:"guest_last_name"`
	GuestEmail     string              `json:"guest_email"`
	GuestPhone     string              `json:"guest_phone,omitempty"`
	CheckIn        openapi_types.Date  `json:"check_in"`
	CheckOut       openapi_types.Date  `json:"check_out"`
	Nights         int                 `json:"nights"`
	Adults         int                 `json:"adults"`
	Children       int                 `json:"children"`
	UnitType       string              `json:"unit_type"`
	RVLength       *int                `json:"rv_length,omitempty"`
	CampsiteID     *uuid.UUID          `json:"campsite_id,omitempty"`
	Status         string              `json:"status"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	PaymentStatus  string              `json:"payment_status"`
	AmountPaid     decimal.Decimal     `json:"amount_paid"`
	BalanceDue     decimal.Decimal     `json:"balance_due"`
	RemainderDueAt *openapi_types.Date `json:"remainder_due_at,omitempty"`
	ArchivedAt     *time.Time          `json:"archived_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func reservationToResponse(r domain.Reservation) ReservationResponse {
	out := ReservationResponse{
		ID:             r.ID,
		GuestFirstName: r.GuestFirstName,
		GuestLastName:  r.GuestLastName,
		GuestEmail:     r.GuestEmail,
		GuestPhone:     r.GuestPhone,
		CheckIn:        openapi_types.Date{Time: r.CheckIn},
		CheckOut:       openapi_types.Date{Time: r.CheckOut},
		Nights:         r.Nights(),
		Adults:         r.Adults,
		Children:       r.Children,
		UnitType:       string(r.UnitType),
		RVLength:       r.RVLength,
		CampsiteID:     r.CampsiteID,
		Status:         string(r.Status),
		TotalAmount:    r.TotalAmount,
		PaymentStatus:  string(r.PaymentStatus),
		AmountPaid:     r.AmountPaid,
		BalanceDue:     r.BalanceDue,
		ArchivedAt:     r.ArchivedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.RemainderDueAt != nil {
		out.RemainderDueAt = &openapi_types.Date{Time: *r.RemainderDueAt}
	}
	return out
}

func reservationsToResponse(items []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(items))
	for i, r := range items {
		out[i] = reservationToResponse(r)
	}
	return out
}

// BookingResponse is returned once, when a guest books. EditToken is never
// shown again. ClientSecret is set when a deposit is due online.
type BookingResponse struct {
	Reservation  ReservationResponse `json:"reservation"`
	EditToken    string              `json:"edit_token"`
	ClientSecret string              `json:"client_secret,omitempty"`
}

// BlackoutResponse is a blackout with YYYY-MM-DD dates.
type BlackoutResponse struct {
	ID         uuid.UUID          `json:"id"`
	CampsiteID *uuid.UUID         `json:"campsite_id,omitempty"`
	StartDate  openapi_types.Date `json:"start_date"`
	EndDate    openapi_types.Date `json:"end_date"`
	Reason     string             `json:"reason,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func blackoutToResponse(b domain.BlackoutDate) BlackoutResponse {
	return BlackoutResponse{
		ID:         b.ID,
		CampsiteID: b.CampsiteID,
		StartDate:  openapi_types.Date{Time: b.StartDate},
		EndDate:    openapi_types.Date{Time: b.EndDate},
		Reason:     b.Reason,
		CreatedAt:  b.CreatedAt,
	}
}

// BlackoutCreatedResponse carries the new blackout and the blocking
// reservations it overlaps. The reservations are not changed.
type BlackoutCreatedResponse struct {
	Blackout BlackoutResponse      `json:"blackout"`
	Warnings []ReservationResponse `json:"warnings"`
}

// AvailabilityResponse answers a single-campsite check.
type AvailabilityResponse struct {
	Available bool            `json:"available"`
	Reason    string          `json:"reason,omitempty"`
	Message   string          `json:"message,omitempty"`
	Conflict  *ConflictDetail `json:"conflict,omitempty"`
}

func availabilityToResponse(res domain.AvailabilityResult) AvailabilityResponse {
	out := AvailabilityResponse{Available: res.Available}
	if res.Available {
		return out
	}
	out.Reason = string(res.Reason)
	out.Message = res.Reason.Message()
	if res.Conflict != nil {
		out.Conflict = conflictBody(res.Conflict).Error.Conflict
	}
	return out
}

// Pagination describes one page of a list.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse wraps one page of items.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
