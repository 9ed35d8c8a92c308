package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/handler"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
)

func validBooking() map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Camper",
		"email":      "ada@example.com",
		"check_in":   "2025-07-01",
		"check_out":  "2025-07-04",
		"adults":     2,
		"children":   1,
		"unit_type":  "rv_trailer",
		"rv_length":  27,
	}
}

// ---- guest -----------------------------------------------------------------

func TestCreateGuestReservation_Created(t *testing.T) {
	siteID := uuid.New()
	var got service.Booking
	svc := &mockReservations{
		createGuest: func(_ context.Context, orgID uuid.UUID, b service.Booking) (service.GuestBooking, error) {
			assert.Equal(t, testOrg, orgID)
			got = b
			res := reservationFixture()
			res.Status = domain.StatusPending
			res.TotalAmount = decimal.RequireFromString("180.00")
			return service.GuestBooking{Reservation: res, EditToken: "tok_secret", ClientSecret: "pi_1_secret"}, nil
		},
	}
	body := validBooking()
	body["campsite_id"] = siteID.String()

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/reservations", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, day("2025-07-01"), got.CheckIn)
	assert.Equal(t, day("2025-07-04"), got.CheckOut)
	assert.Equal(t, domain.SiteRVTrailer, got.UnitType)
	require.NotNil(t, got.CampsiteID)
	assert.Equal(t, siteID, *got.CampsiteID)

	var resp handler.BookingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok_secret", resp.EditToken)
	assert.Equal(t, "pi_1_secret", resp.ClientSecret)
	assert.Equal(t, "pending", resp.Reservation.Status)
	assert.Equal(t, 3, resp.Reservation.Nights)
	assert.True(t, resp.Reservation.TotalAmount.Equal(decimal.RequireFromString("180")))
}

func TestCreateGuestReservation_DatesOnTheWire(t *testing.T) {
	svc := &mockReservations{
		createGuest: func(context.Context, uuid.UUID, service.Booking) (service.GuestBooking, error) {
			return service.GuestBooking{Reservation: reservationFixture(), EditToken: "tok"}, nil
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/reservations", validBooking())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"check_in":"2025-07-01"`)
	assert.Contains(t, rec.Body.String(), `"check_out":"2025-07-04"`)
	assert.NotContains(t, rec.Body.String(), "edit_token_hash")
	assert.NotContains(t, rec.Body.String(), "client_secret", "omitted when nothing is due online")
}

func TestCreateGuestReservation_Conflict(t *testing.T) {
	other := uuid.New()
	svc := &mockReservations{
		createGuest: func(context.Context, uuid.UUID, service.Booking) (service.GuestBooking, error) {
			return service.GuestBooking{}, &domain.ConflictError{
				Kind:          domain.ConflictReservation,
				ReservationID: &other,
				Start:         day("2025-06-30"),
				End:           day("2025-07-02"),
			}
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/reservations", validBooking())

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "conflict", body.Error.Code)
	require.NotNil(t, body.Error.Conflict)
	assert.Equal(t, "reservation", body.Error.Conflict.Kind)
	assert.Equal(t, &other, body.Error.Conflict.ReservationID)
	assert.Equal(t, "2025-06-30", body.Error.Conflict.Start)
	assert.Equal(t, "2025-07-02", body.Error.Conflict.End)
}

func TestCreateGuestReservation_ConcurrentWrite(t *testing.T) {
	svc := &mockReservations{
		createGuest: func(context.Context, uuid.UUID, service.Booking) (service.GuestBooking, error) {
			return service.GuestBooking{}, &domain.ConflictError{Kind: domain.ConflictConcurrentWrite}
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/reservations", validBooking())

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	require.NotNil(t, body.Error.Conflict)
	assert.Equal(t, "concurrent_write", body.Error.Conflict.Kind)
	assert.Empty(t, body.Error.Conflict.Start)
}

func TestCreateGuestReservation_RejectedBeforeService(t *testing.T) {
	svc := &mockReservations{
		createGuest: func(context.Context, uuid.UUID, service.Booking) (service.GuestBooking, error) {
			t.Fatal("service must not be called")
			return service.GuestBooking{}, nil
		},
	}
	h := newRouter(handler.Deps{Reservations: svc})

	t.Run("malformed json", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/reservations", `{"first_name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeError(t, rec).Error.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		body := validBooking()
		body["status"] = "confirmed"
		rec := do(t, h, http.MethodPost, "/api/reservations", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("guest supplied payment reference", func(t *testing.T) {
		body := validBooking()
		body["payment_ref"] = "pi_someone_elses"
		rec := do(t, h, http.MethodPost, "/api/reservations", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("field validation", func(t *testing.T) {
		body := validBooking()
		delete(body, "first_name")
		body["email"] = "not-an-email"
		body["unit_type"] = "yurt"
		body["adults"] = 0
		rec := do(t, h, http.MethodPost, "/api/reservations", body)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		fields := map[string]string{}
		for _, fe := range decodeError(t, rec).Error.Fields {
			fields[fe.Field] = fe.Message
		}
		assert.Equal(t, "is required", fields["first_name"])
		assert.Equal(t, "must be a valid email address", fields["email"])
		assert.True(t, strings.HasPrefix(fields["unit_type"], "must be one of"))
		assert.Equal(t, "must be greater than or equal to 1", fields["adults"])
	})
}

func TestCreateGuestReservation_ServiceValidation(t *testing.T) {
	svc := &mockReservations{
		createGuest: func(context.Context, uuid.UUID, service.Booking) (service.GuestBooking, error) {
			return service.GuestBooking{}, errors.Join(
				domain.Invalid("check_out", "must be after check_in"),
				domain.Invalid("unit_type", "does not fit campsite A1"),
			)
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/reservations", validBooking())

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "request validation failed", body.Error.Message)
	assert.Len(t, body.Error.Fields, 2)
}

func TestCreateGuestReservation_InternalErrorIsOpaque(t *testing.T) {
	svc := &mockReservations{
		createGuest: func(context.Context, uuid.UUID, service.Booking) (service.GuestBooking, error) {
			return service.GuestBooking{}, errors.New("pq: password authentication failed")
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/reservations", validBooking())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Error.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestGetGuestReservation(t *testing.T) {
	res := reservationFixture()
	svc := &mockReservations{
		getWithToken: func(_ context.Context, _ uuid.UUID, id uuid.UUID, token string) (domain.Reservation, error) {
			if id == res.ID && token == "good" {
				return res, nil
			}
			return domain.Reservation{}, domain.ErrNotFound
		},
	}
	h := newRouter(handler.Deps{Reservations: svc})

	rec := do(t, h, http.MethodGet, "/api/reservations/"+res.ID.String()+"?token=good", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got handler.ReservationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, res.ID, got.ID)

	for _, target := range []string{
		"/api/reservations/" + res.ID.String() + "?token=bad",
		"/api/reservations/" + res.ID.String(),
		"/api/reservations/not-a-uuid?token=good",
	} {
		rec := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "reservation not found", decodeError(t, rec).Error.Message)
	}
}

// ---- admin -----------------------------------------------------------------

func TestListReservations_FiltersAndPagination(t *testing.T) {
	siteID := uuid.New()
	var (
		gotFilter domain.ReservationFilter
		gotPage   domain.PaginationParams
	)
	svc := &mockReservations{
		list: func(_ context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
			assert.Equal(t, testOrg, orgID)
			gotFilter, gotPage = f, p
			return []domain.Reservation{reservationFixture()}, 41, nil
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodGet,
		"/api/admin/reservations?page=3&limit=20&status=confirmed&campsite_id="+siteID.String()+
			"&include_archived=true&from=2025-07-01&to=2025-08-01", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusConfirmed, gotFilter.Status)
	require.NotNil(t, gotFilter.CampsiteID)
	assert.Equal(t, siteID, *gotFilter.CampsiteID)
	assert.True(t, gotFilter.IncludeArchived)
	require.NotNil(t, gotFilter.From)
	assert.Equal(t, day("2025-07-01"), *gotFilter.From)
	require.NotNil(t, gotFilter.To)
	assert.Equal(t, day("2025-08-01"), *gotFilter.To)
	assert.Equal(t, 3, gotPage.Page)
	assert.Equal(t, 20, gotPage.Limit)

	var body handler.ListResponse[handler.ReservationResponse]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, handler.Pagination{Page: 3, Limit: 20, Total: 41}, body.Pagination)
}

func TestListReservations_Defaults(t *testing.T) {
	svc := &mockReservations{
		list: func(_ context.Context, _ uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
			assert.Equal(t, domain.ReservationFilter{}, f)
			assert.Equal(t, domain.NewPaginationParams(nil, nil), p)
			return nil, 0, nil
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodGet, "/api/admin/reservations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListReservations_BadParam(t *testing.T) {
	rec := do(t, newRouter(handler.Deps{Reservations: &mockReservations{}}), http.MethodGet,
		"/api/admin/reservations?campsite_id=nope", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAdminReservation(t *testing.T) {
	var (
		gotStatus domain.ReservationStatus
		gotOv     domain.Overrides
		gotUser   uuid.UUID
		gotSite   *uuid.UUID
	)
	svc := &mockReservations{
		createAdmin: func(_ context.Context, _ uuid.UUID, userID uuid.UUID, b service.Booking, status domain.ReservationStatus, ov domain.Overrides) (domain.Reservation, error) {
			gotUser, gotStatus, gotOv, gotSite = userID, status, ov, b.CampsiteID
			res := reservationFixture()
			res.CampsiteID = nil
			return res, nil
		},
	}
	body := validBooking()
	body["status"] = "confirmed"
	body["skip_blackout_check"] = true
	body["allow_past"] = true

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost, "/api/admin/reservations", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testUser, gotUser)
	assert.Equal(t, domain.StatusConfirmed, gotStatus)
	assert.Equal(t, domain.Overrides{SkipBlackoutCheck: true, AllowPastCheckIn: true}, gotOv)
	assert.Nil(t, gotSite, "unassigned booking")
	assert.NotContains(t, rec.Body.String(), "campsite_id")
}

func TestCreateAdminReservation_StatusMustBeInitial(t *testing.T) {
	body := validBooking()
	body["status"] = "checked_in"

	rec := do(t, newRouter(handler.Deps{Reservations: &mockReservations{}}), http.MethodPost, "/api/admin/reservations", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "status", decodeError(t, rec).Error.Fields[0].Field)
}

func TestGetReservation_NotFound(t *testing.T) {
	svc := &mockReservations{
		get: func(context.Context, uuid.UUID, uuid.UUID) (domain.Reservation, error) {
			return domain.Reservation{}, domain.ErrNotFound
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodGet, "/api/admin/reservations/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Code)
}

func TestAssignReservation(t *testing.T) {
	siteID := uuid.New()
	id := uuid.New()
	var (
		gotID uuid.UUID
		gotA  domain.Assignment
		gotOv domain.Overrides
	)
	svc := &mockReservations{
		assign: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, rid uuid.UUID, a domain.Assignment, ov domain.Overrides) (domain.Reservation, error) {
			gotID, gotA, gotOv = rid, a, ov
			return reservationFixture(), nil
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPatch,
		"/api/admin/reservations/"+id.String()+"/assignment", map[string]any{
			"campsite_id":         siteID.String(),
			"check_in":            "2025-07-02",
			"check_out":           "2025-07-06",
			"skip_blackout_check": true,
		})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, gotID)
	require.NotNil(t, gotA.CampsiteID)
	assert.Equal(t, siteID, *gotA.CampsiteID)
	require.NotNil(t, gotA.CheckIn)
	assert.Equal(t, day("2025-07-02"), *gotA.CheckIn)
	require.NotNil(t, gotA.CheckOut)
	assert.Equal(t, day("2025-07-06"), *gotA.CheckOut)
	assert.False(t, gotA.Unassign)
	assert.Equal(t, domain.Overrides{SkipBlackoutCheck: true}, gotOv)
}

func TestAssignReservation_BlackoutConflict(t *testing.T) {
	blackoutID := uuid.New()
	svc := &mockReservations{
		assign: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, domain.Assignment, domain.Overrides) (domain.Reservation, error) {
			return domain.Reservation{}, &domain.ConflictError{
				Kind:       domain.ConflictBlackout,
				BlackoutID: &blackoutID,
				Start:      day("2025-07-03"),
				End:        day("2025-07-03"),
			}
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPatch,
		"/api/admin/reservations/"+uuid.NewString()+"/assignment", map[string]any{"unassign": false})

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	require.NotNil(t, body.Error.Conflict)
	assert.Equal(t, "blackout", body.Error.Conflict.Kind)
	assert.Equal(t, &blackoutID, body.Error.Conflict.BlackoutID)
	assert.Nil(t, body.Error.Conflict.ReservationID)
}

func TestUpdateReservationStatus(t *testing.T) {
	var got domain.ReservationStatus
	svc := &mockReservations{
		updateStatus: func(_ context.Context, _, _, _ uuid.UUID, to domain.ReservationStatus) (domain.Reservation, error) {
			got = to
			if to == domain.StatusCheckedOut {
				return domain.Reservation{}, domain.Invalid("status", "cannot change from confirmed to checked_out")
			}
			res := reservationFixture()
			res.Status = to
			return res, nil
		},
	}
	h := newRouter(handler.Deps{Reservations: svc})
	target := "/api/admin/reservations/" + uuid.NewString() + "/status"

	rec := do(t, h, http.MethodPost, target, map[string]string{"status": "checked_in"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusCheckedIn, got)

	rec = do(t, h, http.MethodPost, target, map[string]string{"status": "checked_out"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, target, map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestArchiveReservation(t *testing.T) {
	svc := &mockReservations{
		archive: func(_ context.Context, orgID, userID, _ uuid.UUID) (domain.Reservation, error) {
			assert.Equal(t, testOrg, orgID)
			assert.Equal(t, testUser, userID)
			return domain.Reservation{}, domain.Invalid("status", "only cancelled, no-show or checked-out reservations can be archived")
		},
	}

	rec := do(t, newRouter(handler.Deps{Reservations: svc}), http.MethodPost,
		"/api/admin/reservations/"+uuid.NewString()+"/archive", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
