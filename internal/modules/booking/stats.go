// README: Back-office aggregates over bookings.
package booking

import (
	"sort"
	"strings"
	"time"

	"cabsys/internal/types"
)

// Stats is the admin dashboard summary. Users, Drivers and Cabs are filled in
// by the caller from their own services.
type Stats struct {
	TotalUsers        int         `json:"totalUsers"`
	TotalDrivers      int         `json:"totalDrivers"`
	TotalCabs         int         `json:"totalCabs"`
	TotalBookings     int         `json:"totalBookings"`
	ActiveBookings    int         `json:"activeBookings"`
	CompletedBookings int         `json:"completedBookings"`
	EcoBookings       int         `json:"ecoBookings"`
	TotalRevenue      types.Money `json:"totalRevenue"`
	TotalCarbonSaved  float64     `json:"totalCarbonSavedKg"`
}

// Summarize counts bookings by state. Revenue only includes bookings whose
// payment succeeded.
func Summarize(bookings []Booking, currency string) Stats {
	st := Stats{TotalBookings: len(bookings), TotalRevenue: types.Money{Currency: currency}}
	carbon := 0.0
	for _, b := range bookings {
		switch {
		case b.Status.Active():
			st.ActiveBookings++
		case b.Status == StatusCompleted:
			st.CompletedBookings++
		}
		if b.EcoRide {
			st.EcoBookings++
		}
		if b.PaymentStatus == PaymentSuccess {
			st.TotalRevenue = st.TotalRevenue.Add(b.Fare)
		}
		carbon += b.CarbonSavedKg
	}
	st.TotalCarbonSaved = types.Round2(carbon)
	return st
}

// RevenueByMethod sums successful payments per payment method.
func RevenueByMethod(bookings []Booking, currency string) map[PaymentMethod]types.Money {
	out := map[PaymentMethod]types.Money{
		PaymentCash: {Currency: currency},
		PaymentCard: {Currency: currency},
		PaymentUPI:  {Currency: currency},
	}
	for _, b := range bookings {
		if b.PaymentStatus != PaymentSuccess {
			continue
		}
		out[b.Payment.Method] = out[b.Payment.Method].Add(b.Fare)
	}
	return out
}

// PaymentRecord is one row of the admin payments ledger.
type PaymentRecord struct {
	BookingID types.ID       `json:"bookingId"`
	UserID    types.ID       `json:"userId"`
	Method    PaymentMethod  `json:"method"`
	Details   PaymentDetails `json:"details"`
	Masked    string         `json:"masked"`
	Status    PaymentStatus  `json:"status"`
	Amount    types.Money    `json:"amount"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Payments lists the payment side of every booking, newest first. An empty
// status keeps all rows.
func Payments(bookings []Booking, status PaymentStatus) []PaymentRecord {
	out := make([]PaymentRecord, 0, len(bookings))
	for _, b := range bookings {
		if status != "" && b.PaymentStatus != status {
			continue
		}
		out = append(out, PaymentRecord{
			BookingID: b.ID,
			UserID:    b.UserID,
			Method:    b.Payment.Method,
			Details:   b.Payment,
			Masked:    MaskPayment(b.Payment),
			Status:    b.PaymentStatus,
			Amount:    b.Fare,
			CreatedAt: b.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// MaskPayment renders payment details for display without exposing the
// account: cards show the last four digits, UPI handles keep two leading
// characters and the bank suffix.
func MaskPayment(p PaymentDetails) string {
	switch {
	case p.Card != nil:
		return "**** **** **** " + p.Card.Last4
	case p.UPI != nil:
		name, bank, ok := strings.Cut(p.UPI.Handle, "@")
		if !ok {
			return "***"
		}
		keep := min(2, len(name))
		return name[:keep] + strings.Repeat("*", len(name)-keep) + "@" + bank
	default:
		return string(p.Method)
	}
}
