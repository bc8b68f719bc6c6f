// README: Admin back-office handlers (roster, bookings, reporting).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cabsys/internal/modules/account"
	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/modules/pricing"
	"cabsys/internal/types"
)

type AdminHandler struct {
	accounts *account.Service
	fleet    *fleet.Service
	bookings *booking.Service
	pricing  *pricing.Service
	currency string
}

func NewAdminHandler(accounts *account.Service, fleetSvc *fleet.Service, bookings *booking.Service, pricingSvc *pricing.Service, currency string) *AdminHandler {
	return &AdminHandler{accounts: accounts, fleet: fleetSvc, bookings: bookings, pricing: pricingSvc, currency: currency}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	users, err := h.accounts.List(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	drivers, err := h.fleet.ListDrivers(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	cabs, err := h.fleet.ListCabs(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	all, err := h.bookings.ListAll(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	st := booking.Summarize(all, h.currency)
	st.TotalUsers = len(users)
	st.TotalDrivers = len(drivers)
	st.TotalCabs = len(cabs)
	writeJSON(c, http.StatusOK, st)
}

func (h *AdminHandler) RevenueByMethod(c *gin.Context) {
	all, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"revenue": booking.RevenueByMethod(all, h.currency)})
}

func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if users == nil {
		users = []account.User{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) Drivers(c *gin.Context) {
	drivers, err := h.fleet.ListDrivers(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if drivers == nil {
		drivers = []fleet.Driver{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": drivers})
}

type createDriverReq struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	LicenseNumber string  `json:"licenseNumber"`
	Phone         string  `json:"phone"`
	Rating        float64 `json:"rating"`
}

func (h *AdminHandler) CreateDriver(c *gin.Context) {
	var req createDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.fleet.CreateDriver(c.Request.Context(), fleet.CreateDriverCommand{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		LicenseNumber: req.LicenseNumber,
		Phone:         req.Phone,
		Rating:        req.Rating,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}

func (h *AdminHandler) DeleteDriver(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.fleet.DeleteDriver(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) Cabs(c *gin.Context) {
	cabs, err := h.fleet.ListCabs(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cabList(cabs))
}

type createCabReq struct {
	PlateNumber  string  `json:"plateNumber"`
	VehicleClass string  `json:"vehicleClass"`
	RatePerKm    float64 `json:"ratePerKm"`
	Electric     bool    `json:"electric"`
	Seats        int     `json:"seats"`
	DriverID     string  `json:"driverId"`
}

func (h *AdminHandler) CreateCab(c *gin.Context) {
	var req createCabReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cab, err := h.fleet.CreateCab(c.Request.Context(), fleet.CreateCabCommand{
		PlateNumber:  req.PlateNumber,
		VehicleClass: req.VehicleClass,
		RatePerKm:    req.RatePerKm,
		Electric:     req.Electric,
		Seats:        req.Seats,
		DriverID:     types.ID(req.DriverID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, cab)
}

func (h *AdminHandler) DeleteCab(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.fleet.DeleteCab(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetCabAvailability handles PUT /api/admin/cabs/:id/availability?available=.
func (h *AdminHandler) SetCabAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	available, err := strconv.ParseBool(c.Query("available"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid available flag")
		return
	}
	cab, err := h.fleet.SetAvailability(c.Request.Context(), id, available)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cab)
}

func (h *AdminHandler) Bookings(c *gin.Context) {
	all, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingList(all))
}

// Payments handles GET /api/admin/payments?status=.
func (h *AdminHandler) Payments(c *gin.Context) {
	var status booking.PaymentStatus
	if v := c.Query("status"); v != "" {
		var err error
		if status, err = booking.ParsePaymentStatus(v); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	all, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"payments": booking.Payments(all, status)})
}

type statusReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	to, err := booking.ParseStatus(req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	b, err := h.bookings.UpdateStatus(c.Request.Context(), id, to, req.Reason, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type paymentReq struct {
	PaymentStatus string `json:"paymentStatus"`
}

func (h *AdminHandler) UpdatePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	status, err := booking.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	b, err := h.bookings.UpdatePaymentStatus(c.Request.Context(), id, status, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *AdminHandler) Rates(c *gin.Context) {
	rates, err := h.pricing.Rates(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"policy":   h.pricing.Policy(),
		"currency": h.pricing.Currency(),
		"rates":    rates,
	})
}

type rateReq struct {
	PerKm float64 `json:"perKm"`
}

// SetRate handles PUT /api/admin/rates/:class.
func (h *AdminHandler) SetRate(c *gin.Context) {
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.pricing.SetRate(c.Request.Context(), c.Param("class"), req.PerKm)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
