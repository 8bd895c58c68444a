package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"thermal_guard/internal/config"
)

const formatYAML = "yaml"

// @Summary      Firmware configuration
// @Description  Machine, heater channels, endstops and enabled defines. ?format=yaml returns YAML.
// @Tags         config
// @Produce      json
// @Produce      application/yaml
// @Param        format  query     string  false  "json (default) or yaml"  Enums(json,yaml)
// @Success      200     {object}  config.Snapshot
// @Failure      401     {object}  map[string]string
// @Router       /api/v1/config [get]
// @Security     BearerAuth
func (h *Handler) getConfig(c *gin.Context) {
	if strings.EqualFold(c.Query("format"), formatYAML) {
		out, err := h.services.Configuration.YAML()
		if err != nil {
			h.logAndJSONError(c, http.StatusInternalServerError, "failed to encode config", "config_yaml_failed", err)
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
		return
	}
	c.JSON(http.StatusOK, h.services.Configuration.Snapshot())
}

// defineView is a Define with its category, as listed by /config/defines.
type defineView struct {
	config.Define
	Category string `json:"category"`
}

// @Summary      List defines
// @Description  Every #define read from the firmware headers, in file order
// @Tags         config
// @Produce      json
// @Param        category  query     string  false  "machine, drivers, endstops, movement, temperature, filament, ui, advanced, other"
// @Param        search    query     string  false  "Substring of name, description or value"
// @Param        enabled   query     bool    false  "Only enabled defines"
// @Success      200       {object}  map[string]interface{}  "count, defines"
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Router       /api/v1/config/defines [get]
// @Security     BearerAuth
func (h *Handler) listDefines(c *gin.Context) {
	f := config.DefineFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if s := c.Query("enabled"); s != "" {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'enabled'; use true or false"})
			return
		}
		f.EnabledOnly = enabled
	}
	defs := h.services.Configuration.Defines(f)
	out := make([]defineView, len(defs))
	for i, d := range defs {
		out[i] = defineView{Define: d, Category: d.Category()}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(out),
		"defines": out,
	})
}
