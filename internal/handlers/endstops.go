package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Endstop states
// @Description  Triggered state of every enabled endstop, honouring its inverting flag
// @Tags         endstops
// @Produce      json
// @Success      200  {array}   models.EndstopStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/endstops [get]
// @Security     BearerAuth
func (h *Handler) getEndstops(c *gin.Context) {
	states, err := h.services.Endstops.Query(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to read endstops", "endstops_query_failed", err)
		return
	}
	c.JSON(http.StatusOK, states)
}
