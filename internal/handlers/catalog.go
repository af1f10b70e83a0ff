package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/services"
	"github.com/ecoverse/backend/internal/types"
)

// CatalogHandler serves the stateless calculation endpoint and the
// emission factor catalog.
type CatalogHandler struct {
	calculator services.CalculatorService
}

func NewCatalogHandler(calculator services.CalculatorService) *CatalogHandler {
	return &CatalogHandler{calculator: calculator}
}

func (ch *CatalogHandler) Calculate(c *gin.Context) {
	var req struct {
		Category string  `json:"category"`
		Type     string  `json:"type"`
		Amount   float64 `json:"amount"`
		Unit     string  `json:"unit"`
		Location string  `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation(fmt.Errorf("invalid request body")))
		return
	}

	result, err := ch.calculator.Compute(types.ActivityCategory(req.Category), req.Type, req.Amount, req.Unit, req.Location)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, result)
}

func (ch *CatalogHandler) Categories(c *gin.Context) {
	RespondOK(c, gin.H{"categories": ch.calculator.Factors().Categories()})
}
