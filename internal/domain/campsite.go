// Package domain contains the core data types for the campground booking
// service: campsites, reservations, blackout windows, payments and the
// calendar-day arithmetic shared by every other internal package.
// It depends only on uuid and decimal, never on storage or transport.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SiteType is both the kind of a campsite and the camping-unit type a guest
// brings. The same enum is used on both sides of the compatibility check.
type SiteType string

const (
	SiteTent      SiteType = "tent"
	SiteRVTrailer SiteType = "rv_trailer"
	SiteCamperVan SiteType = "camper_van"
	SiteCabin     SiteType = "cabin"
)

// Valid reports whether t is a known site type.
func (t SiteType) Valid() bool {
	switch t {
	case SiteTent, SiteRVTrailer, SiteCamperVan, SiteCabin:
		return true
	}
	return false
}

// Accepts reports whether a site of type t can host a unit of type unit.
// Camper vans also fit on RV/trailer pads.
func (t SiteType) Accepts(unit SiteType) bool {
	if t == unit {
		return true
	}
	return unit == SiteCamperVan && t == SiteRVTrailer
}

// CompatibleSiteTypes returns every site type that accepts unit.
func CompatibleSiteTypes(unit SiteType) []SiteType {
	var out []SiteType
	for _, t := range []SiteType{SiteTent, SiteRVTrailer, SiteCamperVan, SiteCabin} {
		if t.Accepts(unit) {
			out = append(out, t)
		}
	}
	return out
}

// Campsite is a bookable unit inside one organization.
// Deactivated sites keep their booking history but drop out of search.
type Campsite struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           SiteType        `json:"type"`
	MaxGuests      int             `json:"max_guests"`
	MaxRVLength    *int            `json:"max_rv_length,omitempty"` // feet; nil = no limit
	BaseRate       decimal.Decimal `json:"base_rate"`
	IsActive       bool            `json:"is_active"`
	SortOrder      int             `json:"sort_order"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FitsRV reports whether an RV of length feet fits the site.
// A nil length (no RV) always fits.
func (c Campsite) FitsRV(length *int) bool {
	if length == nil || c.MaxRVLength == nil {
		return true
	}
	return *length <= *c.MaxRVLength
}
