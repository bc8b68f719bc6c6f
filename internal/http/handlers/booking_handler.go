// README: Booking handlers for create, quote and rider queries.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cabsys/internal/http/middleware"
	"cabsys/internal/modules/account"
	"cabsys/internal/modules/booking"
	"cabsys/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
	timeout  time.Duration
}

func NewBookingHandler(svc *booking.Service, timeout time.Duration) *BookingHandler {
	return &BookingHandler{bookings: svc, timeout: timeout}
}

// createBookingReq mirrors the booking form. A client-sent fare or status is
// not part of the request: both are decided server side.
type createBookingReq struct {
	PickupLocation  string     `json:"pickupLocation"`
	DropLocation    string     `json:"dropLocation"`
	PickupLatitude  *float64   `json:"pickupLatitude"`
	PickupLongitude *float64   `json:"pickupLongitude"`
	DropLatitude    *float64   `json:"dropLatitude"`
	DropLongitude   *float64   `json:"dropLongitude"`
	BookingTime     *time.Time `json:"bookingTime"`
	Distance        float64    `json:"distance"`
	CabType         string     `json:"cabType"`
	EcoRide         bool       `json:"ecoRide"`
	PaymentMethod   string     `json:"paymentMethod"`
	UPIID           string     `json:"upiId"`
	UPIProvider     string     `json:"upiProvider"`
	CardNumber      string     `json:"cardNumber"`
	CardType        string     `json:"cardType"`
	BankName        string     `json:"bankName"`
	CardHolderName  string     `json:"cardHolderName"`
	CollectedBy     string     `json:"collectedBy"`
}

type quoteReq struct {
	PickupLatitude  *float64 `json:"pickupLatitude"`
	PickupLongitude *float64 `json:"pickupLongitude"`
	DropLatitude    *float64 `json:"dropLatitude"`
	DropLongitude   *float64 `json:"dropLongitude"`
	Distance        float64  `json:"distance"`
	CabType         string   `json:"cabType"`
	EcoRide         bool     `json:"ecoRide"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	h.create(c, false)
}

// CreateEco handles POST /api/bookings/eco; the eco flag is forced on.
func (h *BookingHandler) CreateEco(c *gin.Context) {
	h.create(c, true)
}

func (h *BookingHandler) create(c *gin.Context, eco bool) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := booking.CreateCommand{
		UserID:        types.ID(middleware.CallerUID(c)),
		PickupAddress: req.PickupLocation,
		DropAddress:   req.DropLocation,
		Pickup:        pointFrom(req.PickupLatitude, req.PickupLongitude),
		Drop:          pointFrom(req.DropLatitude, req.DropLongitude),
		DistanceKm:    req.Distance,
		VehicleClass:  req.CabType,
		EcoRide:       req.EcoRide || eco,
		Payment: booking.PaymentInput{
			Method:         req.PaymentMethod,
			CardNumber:     req.CardNumber,
			CardType:       req.CardType,
			BankName:       req.BankName,
			CardHolderName: req.CardHolderName,
			UPIID:          req.UPIID,
			UPIProvider:    req.UPIProvider,
			CollectedBy:    req.CollectedBy,
		},
	}
	if req.BookingTime != nil {
		cmd.BookingTime = *req.BookingTime
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	b, err := h.bookings.Create(ctx, cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	q, err := h.bookings.Quote(ctx, booking.QuoteCommand{
		Pickup:       pointFrom(req.PickupLatitude, req.PickupLongitude),
		Drop:         pointFrom(req.DropLatitude, req.DropLongitude),
		DistanceKm:   req.Distance,
		VehicleClass: req.CabType,
		EcoRide:      req.EcoRide,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

// Get returns a booking to its rider, its driver, or an admin.
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !canView(c, b) {
		writeServiceError(c, booking.ErrForbidden)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Events(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !canView(c, b) {
		writeServiceError(c, booking.ErrForbidden)
		return
	}
	events, err := h.bookings.Events(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"events": events})
}

func (h *BookingHandler) Mine(c *gin.Context) {
	list, err := h.bookings.ListByUser(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingList(list))
}

// ListByUser serves GET /api/bookings/user/:userId for the user themselves or an admin.
func (h *BookingHandler) ListByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if !isAdmin(c) && string(userID) != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "forbidden: user id does not match authenticated user")
		return
	}
	list, err := h.bookings.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingList(list))
}

func canView(c *gin.Context, b *booking.Booking) bool {
	uid := types.ID(middleware.CallerUID(c))
	switch account.Role(middleware.CallerRole(c)) {
	case account.RoleAdmin:
		return true
	case account.RoleDriver:
		return b.Assigned.DriverID == uid
	default:
		return b.UserID == uid
	}
}

func bookingList(list []booking.Booking) map[string]any {
	if list == nil {
		list = []booking.Booking{}
	}
	return map[string]any{"bookings": list}
}
