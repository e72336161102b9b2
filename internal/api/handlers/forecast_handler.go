package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fuelops/spbu-backoffice/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func parseTankID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("tank_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tank_id"})
		return 0, false
	}
	return id, true
}

func parseSPBUID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("spbu_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing spbu_id"})
		return 0, false
	}
	return id, true
}

func (h *ForecastHandler) GetStockout(c *gin.Context) {
	tankID, ok := parseTankID(c)
	if !ok {
		return
	}

	pred, err := h.service.GetStockout(c.Request.Context(), tankID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stockout forecast", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pred)
}

func (h *ForecastHandler) GetDeliveryPlan(c *gin.Context) {
	tankID, ok := parseTankID(c)
	if !ok {
		return
	}

	rec, err := h.service.GetDeliveryPlan(c.Request.Context(), tankID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to plan delivery", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *ForecastHandler) GetDemandForecast(c *gin.Context) {
	spbuID, ok := parseSPBUID(c)
	if !ok {
		return
	}

	// Support both repeated params and a comma-separated list:
	//   ?fuel_types=pertalite&fuel_types=pertamax
	//   ?fuel_types=pertalite,pertamax
	raw := c.QueryArray("fuel_types")
	fuelTypes := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				fuelTypes = append(fuelTypes, part)
			}
		}
	}
	if len(fuelTypes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fuel_types is required"})
		return
	}

	days, err := h.service.GetDemandForecast(c.Request.Context(), spbuID, fuelTypes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to forecast demand", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"spbu_id": spbuID, "days": days})
}

func (h *ForecastHandler) GetDashboard(c *gin.Context) {
	spbuID, ok := parseSPBUID(c)
	if !ok {
		return
	}

	role := service.ParseDashboardRole(c.DefaultQuery("role", "operator"))

	summary, err := h.service.GetDashboard(c.Request.Context(), spbuID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
