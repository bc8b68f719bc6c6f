// README: Place search and autocomplete handler.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cabsys/internal/http/middleware"
	"cabsys/internal/modules/geocoding"
)

type PlaceHandler struct {
	geo     *geocoding.Service
	timeout time.Duration
}

func NewPlaceHandler(svc *geocoding.Service, timeout time.Duration) *PlaceHandler {
	return &PlaceHandler{geo: svc, timeout: timeout}
}

// Search handles GET /api/places/search. With a field (pickup or drop) and an
// authenticated caller the query is an autocomplete suggestion: a newer query
// for the same field supersedes this one and the response is marked stale.
func (h *PlaceHandler) Search(c *gin.Context) {
	q := c.Query("q")
	country := c.Query("country")
	field := strings.TrimSpace(c.Query("field"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var out geocoding.Suggestion
	if uid := middleware.CallerUID(c); uid != "" && field != "" {
		out = h.geo.Suggest(ctx, uid+":"+field, q, country)
	} else {
		out = geocoding.Suggestion{Result: h.geo.Search(ctx, q, country)}
	}
	if out.Places == nil {
		out.Places = []geocoding.Place{}
	}
	writeJSON(c, http.StatusOK, out)
}
