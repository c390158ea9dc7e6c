package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Run the pump controller once
// @Description  Performs one controller step and returns "Started: <status>" or "Error: <reason>". Always answers 200.
// @Tags         pump
// @Produce      plain
// @Success      200  {string}  string
// @Router       / [get]
func (h *Handler) trigger(c *gin.Context) {
	status := h.services.Pump.Trigger(c.Request.Context())
	if h.log != nil {
		h.log.Infow("pump_trigger", "status", status, "remote", c.ClientIP())
	}
	c.String(http.StatusOK, status)
}
