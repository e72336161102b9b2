package handlers

import (
	"net/http"

	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/service"
	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	service *service.RecalcService
}

func NewSalesHandler(service *service.RecalcService) *SalesHandler {
	return &SalesHandler{service: service}
}

// RecordSale persists a sale and returns the refreshed stockout prediction
// for the affected tank.
func (h *SalesHandler) RecordSale(c *gin.Context) {
	var sale domain.NewSale
	if err := c.ShouldBindJSON(&sale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale payload", "details": err.Error()})
		return
	}
	if sale.Liters <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "liters must be positive"})
		return
	}

	pred, err := h.service.RecordSale(c.Request.Context(), sale)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record sale", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "recorded",
		"tank_id":  sale.TankID,
		"forecast": pred,
	})
}
