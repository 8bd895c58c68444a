package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// InjectFaultRequest breaks the sensor of a simulated heater.
type InjectFaultRequest struct {
	Channel string `json:"channel" binding:"required" example:"hotend_0"`
	// One of open, short, stuck, detached, timeout; empty clears the fault
	Fault string `json:"fault" example:"open"`
}

// SimEndstopRequest presses or releases a simulated endstop.
type SimEndstopRequest struct {
	Name      string `json:"name" binding:"required" example:"x_min"`
	Triggered bool   `json:"triggered" example:"true"`
}

// @Summary      Inject sensor fault
// @Description  Only with hal.driver=sim
// @Tags         simulation
// @Accept       json
// @Produce      json
// @Param        body  body      InjectFaultRequest  true  "Fault payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "simulation disabled"
// @Router       /api/v1/sim/faults [post]
// @Security     BearerAuth
func (h *Handler) injectFault(c *gin.Context) {
	var req InjectFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Simulation.InjectFault(req.Channel, req.Fault); err != nil {
		h.respondError(c, err, "sim_inject_failed", "channel", req.Channel, "fault", req.Fault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Set simulated endstop
// @Description  Only with hal.driver=sim
// @Tags         simulation
// @Accept       json
// @Produce      json
// @Param        body  body      SimEndstopRequest  true  "Endstop payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "simulation disabled"
// @Router       /api/v1/sim/endstops [post]
// @Security     BearerAuth
func (h *Handler) setSimEndstop(c *gin.Context) {
	var req SimEndstopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Simulation.SetEndstop(req.Name, req.Triggered); err != nil {
		h.respondError(c, err, "sim_endstop_failed", "name", req.Name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
