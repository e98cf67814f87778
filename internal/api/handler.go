// Package api exposes the read-only dashboard surface: recent monitoring
// runs, recorded alerts, health, and Prometheus metrics. Triage and user
// alert CRUD live in the separate web backend, not here.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreeap/go-forest-watch/internal/alerts"
	"github.com/andreeap/go-forest-watch/internal/models"
)

type Handler struct {
	store alerts.Store
}

func NewHandler(store alerts.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, reg prometheus.Gatherer) {
	r.GET("/health", h.health)
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/runs", h.getRuns)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getAlerts(c *gin.Context) {
	filter := alerts.Filter{
		Limit: 20, // default page size
	}

	if region := c.Query("region"); region != "" {
		filter.Region = region
	}
	if t := c.Query("type"); t != "" {
		at := parseAlertType(t)
		if at != "" {
			filter.Type = &at
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	list, err := h.store.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	if c.Query("format") == "geojson" {
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, toGeoJSON(list))
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": toAlertDTOs(list)})
}

func (h *Handler) getRuns(c *gin.Context) {
	filter := alerts.Filter{
		Limit: 20,
	}

	if region := c.Query("region"); region != "" {
		filter.Region = region
	}
	if s := c.Query("status"); s != "" {
		filter.Status = s
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	runs, err := h.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch runs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": toRunDTOs(runs)})
}

func parseAlertType(s string) models.AlertType {
	switch s {
	case "baseline", "BASELINE":
		return models.AlertTypeBaseline
	case "deforestation", "DEFORESTATION":
		return models.AlertTypeDeforestation
	case "reforestation", "REFORESTATION":
		return models.AlertTypeReforestation
	default:
		return ""
	}
}
