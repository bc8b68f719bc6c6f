// README: Public cab listing handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cabsys/internal/modules/fleet"
)

type CabHandler struct {
	fleet *fleet.Service
}

func NewCabHandler(svc *fleet.Service) *CabHandler {
	return &CabHandler{fleet: svc}
}

func (h *CabHandler) List(c *gin.Context) {
	h.list(c, h.fleet.ListCabs)
}

func (h *CabHandler) Available(c *gin.Context) {
	h.list(c, h.fleet.AvailableCabs)
}

func (h *CabHandler) Eco(c *gin.Context) {
	h.list(c, h.fleet.EcoCabs)
}

func (h *CabHandler) ByType(c *gin.Context) {
	cabs, err := h.fleet.CabsByClass(c.Request.Context(), c.Param("type"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cabList(cabs))
}

func (h *CabHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cab, err := h.fleet.GetCab(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cab)
}

func (h *CabHandler) list(c *gin.Context, fn func(ctx context.Context) ([]fleet.Cab, error)) {
	cabs, err := fn(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cabList(cabs))
}

func cabList(cabs []fleet.Cab) map[string]any {
	if cabs == nil {
		cabs = []fleet.Cab{}
	}
	return map[string]any{"cabs": cabs}
}
