// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cabsys/internal/http/middleware"
	"cabsys/internal/modules/account"
	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/modules/pricing"
	"cabsys/internal/modules/routing"
	"cabsys/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts generated hex ids and seeded ids like "cab-001".
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// pathID reads and validates an id path parameter, writing 400 when invalid.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	id := c.Param(name)
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(id), true
}

func callerID(c *gin.Context) *types.ID {
	uid := types.ID(middleware.CallerUID(c))
	if uid == "" {
		return nil
	}
	return &uid
}

func isAdmin(c *gin.Context) bool {
	return middleware.CallerRole(c) == string(account.RoleAdmin)
}

// parseOptionalFloat returns nil for an empty value.
func parseOptionalFloat(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// pointFrom builds a point only when both coordinates are present.
func pointFrom(lat, lng *float64) *types.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &types.Point{Lat: *lat, Lng: *lng}
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, pricing.ErrInvalidDistance),
		errors.Is(err, pricing.ErrUnknownClass),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, routing.ErrInvalidPoint),
		errors.Is(err, fleet.ErrBadRequest),
		errors.Is(err, account.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, fleet.ErrNotFound),
		errors.Is(err, fleet.ErrDriverNotFound),
		errors.Is(err, account.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, fleet.ErrEmailTaken),
		errors.Is(err, fleet.ErrPlateTaken),
		errors.Is(err, fleet.ErrDriverHasCab):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, fleet.ErrNoCabAvailable):
		c.Header("Retry-After", "30")
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, booking.ErrServiceUnavailable),
		errors.Is(err, routing.ErrUnavailable):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
