package handlers

import (
	"errors"
	"net/http"

	"wellpump/internal/platform"
	"wellpump/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetState = "failed to load pump state"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
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

// @Summary      Get pump state
// @Description  Persisted phase, its deadline and whether the pumping window is open. Does not contact the device.
// @Tags         pump
// @Produce      json
// @Success      200  {object}  service.PumpStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/pump/state [get]
// @Security     BearerAuth
func (h *Handler) getPumpState(c *gin.Context) {
	st, err := h.services.Monitoring.GetStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "pump_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Run the pump controller once
// @Tags         pump
// @Produce      json
// @Success      200  {object}  service.RunResult
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/pump/run [post]
// @Security     BearerAuth
func (h *Handler) runPump(c *gin.Context) {
	res, err := h.services.Pump.RunNow(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, runErrorStatus(err), err.Error(), "pump_run_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// runErrorStatus maps a failed run to an HTTP status.
func runErrorStatus(err error) int {
	var (
		notFound *platform.NotFoundError
		persist  *repository.PersistenceError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &persist):
		return http.StatusInternalServerError
	case isPlatformError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isPlatformError(err error) bool {
	var (
		authErr    *platform.AuthError
		telemetry  *platform.TelemetryError
		commandErr *platform.CommandError
		requestErr *platform.RequestError
	)
	return errors.As(err, &authErr) || errors.As(err, &telemetry) ||
		errors.As(err, &commandErr) || errors.As(err, &requestErr)
}
