// README: Driver dashboard handlers: assignments, completion, device registration.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cabsys/internal/http/middleware"
	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/types"
)

type DriverHandler struct {
	bookings *booking.Service
	fleet    *fleet.Service
}

func NewDriverHandler(bookingSvc *booking.Service, fleetSvc *fleet.Service) *DriverHandler {
	return &DriverHandler{bookings: bookingSvc, fleet: fleetSvc}
}

// Assignments handles GET /api/driver/assignments?active=true|false.
// active defaults to true.
func (h *DriverHandler) Assignments(c *gin.Context) {
	active := true
	if v := c.Query("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid active flag")
			return
		}
		active = b
	}
	list, err := h.bookings.ListByDriver(c.Request.Context(), types.ID(middleware.CallerUID(c)), active)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingList(list))
}

func (h *DriverHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Complete(c.Request.Context(), booking.TransitionCommand{
		BookingID: id,
		ActorType: booking.ActorDriver,
		ActorID:   callerID(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// Cab returns the cab driven by the caller.
func (h *DriverHandler) Cab(c *gin.Context) {
	cab, err := h.fleet.CabForDriver(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cab)
}

type deviceTokenReq struct {
	Token string `json:"token"`
}

// RegisterDevice stores the FCM registration token used for assignment pushes.
func (h *DriverHandler) RegisterDevice(c *gin.Context) {
	var req deviceTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		writeError(c, http.StatusBadRequest, "missing token")
		return
	}
	if err := h.fleet.RegisterDeviceToken(c.Request.Context(), types.ID(middleware.CallerUID(c)), req.Token); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}
