// README: Driving route preview handler.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cabsys/internal/modules/routing"
)

type RouteHandler struct {
	routing *routing.Service
	timeout time.Duration
}

func NewRouteHandler(svc *routing.Service, timeout time.Duration) *RouteHandler {
	return &RouteHandler{routing: svc, timeout: timeout}
}

// Get handles GET /api/routes?pickup_lat=&pickup_lng=&drop_lat=&drop_lng=.
func (h *RouteHandler) Get(c *gin.Context) {
	var coords [4]*float64
	for i, key := range []string{"pickup_lat", "pickup_lng", "drop_lat", "drop_lng"} {
		v, err := parseOptionalFloat(c.Query(key))
		if err != nil || v == nil {
			writeError(c, http.StatusBadRequest, "missing or invalid "+key)
			return
		}
		coords[i] = v
	}
	from := pointFrom(coords[0], coords[1])
	to := pointFrom(coords[2], coords[3])

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	r, err := h.routing.Route(ctx, *from, *to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
