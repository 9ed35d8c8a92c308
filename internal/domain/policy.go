package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PolicyType is how much of the total is collected at booking time.
type PolicyType string

const (
	PolicyFull           PolicyType = "full"
	PolicyDepositPercent PolicyType = "deposit_percent"
	PolicyDepositFixed   PolicyType = "deposit_fixed"
)

// Season is a recurring month/day window. When the start falls after the end
// (Nov 15 to Feb 28) the window wraps across the new year.
type Season struct {
	StartMonth time.Month `json:"start_month"`
	StartDay   int        `json:"start_day"`
	EndMonth   time.Month `json:"end_month"`
	EndDay     int        `json:"end_day"`
}

// Contains reports whether calendar day d falls inside the season, inclusive.
func (s Season) Contains(d time.Time) bool {
	key := monthDay(d.Month(), d.Day())
	start := monthDay(s.StartMonth, s.StartDay)
	end := monthDay(s.EndMonth, s.EndDay)
	if start <= end {
		return key >= start && key <= end
	}
	return key >= start || key <= end
}

func monthDay(m time.Month, d int) int { return int(m)*100 + d }

// PaymentPolicy decides the deposit for bookings it matches. Every scope field
// that is set must match; unset fields are wildcards.
type PaymentPolicy struct {
	ID               uuid.UUID       `json:"id"`
	OrganizationID   uuid.UUID       `json:"organization_id"`
	Name             string          `json:"name"`
	CampsiteID       *uuid.UUID      `json:"campsite_id,omitempty"`
	SiteType         *SiteType       `json:"site_type,omitempty"`
	Season           *Season         `json:"season,omitempty"`
	Type             PolicyType      `json:"policy_type"`
	DepositValue     decimal.Decimal `json:"deposit_value"`
	RemainderDueDays int             `json:"remainder_due_days"`
	CreatedAt        time.Time       `json:"created_at"`
}

// policyRank orders matches: an exact campsite match beats any site-type
// match, which beats any season match.
type policyRank struct {
	campsite bool
	siteType bool
	season   bool
}

func (r policyRank) beats(o policyRank) bool {
	if r.campsite != o.campsite {
		return r.campsite
	}
	if r.siteType != o.siteType {
		return r.siteType
	}
	if r.season != o.season {
		return r.season
	}
	return false
}

func (p PaymentPolicy) rank(site Campsite, checkIn time.Time) (policyRank, bool) {
	var r policyRank
	if p.CampsiteID != nil {
		if *p.CampsiteID != site.ID {
			return r, false
		}
		r.campsite = true
	}
	if p.SiteType != nil {
		if *p.SiteType != site.Type {
			return r, false
		}
		r.siteType = true
	}
	if p.Season != nil {
		if !p.Season.Contains(checkIn) {
			return r, false
		}
		r.season = true
	}
	return r, true
}

// SelectPolicy returns the policy that applies to a stay on site starting
// checkIn. Equal ranks go to the policy created first. ok is false when no
// policy matches.
func SelectPolicy(policies []PaymentPolicy, site Campsite, checkIn time.Time) (best PaymentPolicy, ok bool) {
	var bestRank policyRank
	for _, p := range policies {
		r, match := p.rank(site, checkIn)
		if !match {
			continue
		}
		if !ok || r.beats(bestRank) || (r == bestRank && earlier(p, best)) {
			best, bestRank, ok = p, r, true
		}
	}
	return best, ok
}

func earlier(a, b PaymentPolicy) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// DepositDue returns the amount collected at booking time, never more than total.
func (p PaymentPolicy) DepositDue(total decimal.Decimal) decimal.Decimal {
	var due decimal.Decimal
	switch p.Type {
	case PolicyDepositPercent:
		due = total.Mul(p.DepositValue).Div(decimal.NewFromInt(100)).Round(2)
	case PolicyDepositFixed:
		due = p.DepositValue
	default:
		due = total
	}
	if due.GreaterThan(total) {
		return total
	}
	return due
}

// RemainderDueAt is when the balance is due, or nil when the policy collects
// everything up front.
func (p PaymentPolicy) RemainderDueAt(checkIn time.Time) *time.Time {
	if p.Type == PolicyFull || p.Type == "" {
		return nil
	}
	due := AddDays(checkIn, -p.RemainderDueDays)
	return &due
}

// PolicySnapshot is the copy of a policy stored on a reservation so later
// policy edits do not change what the guest agreed to.
type PolicySnapshot struct {
	PolicyID         *uuid.UUID      `json:"policy_id,omitempty"`
	Name             string          `json:"name"`
	Type             PolicyType      `json:"policy_type"`
	DepositValue     decimal.Decimal `json:"deposit_value"`
	DepositDue       decimal.Decimal `json:"deposit_due"`
	RemainderDueDays int             `json:"remainder_due_days"`
}

// DefaultPolicy applies when an organization has no matching policy.
var DefaultPolicy = PaymentPolicy{Name: "pay in full", Type: PolicyFull}
