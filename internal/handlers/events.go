package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wellpump/internal/service"

	"github.com/gin-gonic/gin"
)

// Accepted layouts for event range bounds, tried in order.
var boundLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

var errSinceWithFrom = errors.New("'since' and 'from' are mutually exclusive")

// eventQuery is the query string of GET /api/v1/events.
type eventQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Since string `form:"since"`
	Type  string `form:"type"`
}

// filter turns the raw query into a service filter. A date-only 'to' covers
// the whole day; 'since' counts back from now.
func (q eventQuery) filter(now time.Time) (service.LogFilter, error) {
	f := service.LogFilter{Type: q.Type}

	if q.Since != "" {
		if q.From != "" {
			return f, errSinceWithFrom
		}
		d, err := time.ParseDuration(q.Since)
		if err != nil || d <= 0 {
			return f, fmt.Errorf("invalid 'since' %q; use a positive duration such as 90m", q.Since)
		}
		f.From = now.Add(-d).UTC()
	}

	var err error
	if q.From != "" {
		if f.From, err = parseBound(q.From); err != nil {
			return f, fmt.Errorf("invalid 'from': %w", err)
		}
	}
	if q.To != "" {
		if f.To, err = parseBound(q.To); err != nil {
			return f, fmt.Errorf("invalid 'to': %w", err)
		}
		if !strings.ContainsAny(q.To, "T ") {
			f.To = f.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	return f, nil
}

// parseBound reads one range bound and normalizes it to UTC.
func parseBound(s string) (time.Time, error) {
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}

// @Summary      Pump event history
// @Description  Decisions taken by the controller, oldest first. Repeated hold and skip decisions are stored once.
// @Tags         events
// @Produce      json
// @Param        from   query  string  false  "Lower bound (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD', UTC)"
// @Param        to     query  string  false  "Upper bound; a bare date includes the whole day"
// @Param        since  query  string  false  "Relative lower bound, e.g. 6h; excludes 'from'"
// @Param        type   query  string  false  "Event type"  Enums(PUMP_ON,PUMP_OFF,COOLDOWN,HOLD,SKIPPED,ERROR)
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/events [get]
// @Security     BearerAuth
func (h *Handler) getEvents(c *gin.Context) {
	var q eventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := q.filter(time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		if service.IsFilterError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load events", "events_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}
