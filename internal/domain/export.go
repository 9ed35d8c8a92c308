package domain

// ExportRow is a single row in the admin reservation export: one row per
// reservation, with the assigned campsite's code denormalized onto it.
// Dates are "2006-01-02" strings; CampsiteCode is empty when unassigned.
type ExportRow struct {
	ReservationID string
	GuestName     string
	GuestEmail    string
	CheckIn       string
	CheckOut      string
	Nights        int
	Guests        int
	UnitType      string
	CampsiteCode  string
	Status        string
	PaymentStatus string
	TotalAmount   string
	BalanceDue    string
}
