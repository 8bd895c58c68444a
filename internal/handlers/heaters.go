package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thermal_guard/internal/hal"
	"thermal_guard/internal/service"
	"thermal_guard/internal/thermal"
)

const (
	statusOK           = "ok"
	statusTargetSet    = "target_set"
	statusAcknowledged = "acknowledged"

	errListHeaters     = "failed to load heater states"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...any) {
	if h.log != nil && err != nil {
		fields := append([]any{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusForError maps control and service errors to HTTP codes. Unknown
// errors are 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, thermal.ErrUnknownChannel), errors.Is(err, service.ErrUnknownEndstop):
		return http.StatusNotFound
	case errors.Is(err, thermal.ErrTargetOutOfRange), errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, hal.ErrUnknownFault):
		return http.StatusBadRequest
	case errors.Is(err, thermal.ErrHeaterFaulted), errors.Is(err, service.ErrSimulationDisabled):
		return http.StatusConflict
	case errors.Is(err, thermal.ErrQueueFull), errors.Is(err, thermal.ErrLoopStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Client errors carry the
// error text; server errors are logged under logKey.
func (h *Handler) respondError(c *gin.Context, err error, logKey string, kv ...any) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		h.logAndJSONError(c, code, "internal error", logKey, err, kv...)
		return
	}
	if h.log != nil {
		h.log.Infow(logKey, append([]any{"err", err}, kv...)...)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// SetTargetRequest is the payload of POST /heaters/{channel}/target.
type SetTargetRequest struct {
	// Target temperature in Celsius; 0 turns the heater off
	TargetC *float64 `json:"target_c" binding:"required" example:"210"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List heaters
// @Description  Live state of every configured heater as of the last control tick
// @Tags         heaters
// @Produce      json
// @Success      200  {array}   models.HeaterState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/heaters [get]
// @Security     BearerAuth
func (h *Handler) listHeaters(c *gin.Context) {
	states, err := h.services.Monitoring.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListHeaters, "heaters_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, states)
}

// @Summary      Get heater
// @Tags         heaters
// @Produce      json
// @Param        channel  path      string  true  "bed, hotend_0 .. hotend_7"
// @Success      200      {object}  models.HeaterState
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/v1/heaters/{channel} [get]
// @Security     BearerAuth
func (h *Handler) getHeater(c *gin.Context) {
	st, err := h.services.Monitoring.Get(c.Request.Context(), c.Param("channel"))
	if err != nil {
		h.respondError(c, err, "heater_get_failed", "channel", c.Param("channel"))
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Set target temperature
// @Description  Target must be 0 (off) or strictly between the heater's MINTEMP and MAXTEMP
// @Tags         heaters
// @Accept       json
// @Produce      json
// @Param        channel  path      string            true  "bed, hotend_0 .. hotend_7"
// @Param        body     body      SetTargetRequest  true  "Target payload"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string  "heater is faulted"
// @Router       /api/v1/heaters/{channel}/target [post]
// @Security     BearerAuth
func (h *Handler) setTarget(c *gin.Context) {
	var req SetTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	channel := c.Param("channel")
	if err := h.services.Heaters.SetTarget(c.Request.Context(), channel, *req.TargetC); err != nil {
		h.respondError(c, err, "heater_set_target_failed", "channel", channel, "target_c", *req.TargetC)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusTargetSet, "channel": channel, "target_c": *req.TargetC})
}

// @Summary      Acknowledge fault
// @Description  Clears a latched fault; the heater returns to IDLE with target 0
// @Tags         heaters
// @Produce      json
// @Param        channel  path      string  true  "bed, hotend_0 .. hotend_7"
// @Success      200      {object}  map[string]interface{}
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/v1/heaters/{channel}/acknowledge [post]
// @Security     BearerAuth
func (h *Handler) acknowledge(c *gin.Context) {
	channel := c.Param("channel")
	if err := h.services.Heaters.Acknowledge(c.Request.Context(), channel); err != nil {
		h.respondError(c, err, "heater_acknowledge_failed", "channel", channel)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAcknowledged, "channel": channel})
}
