package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/requestdata"
	"github.com/ecoverse/backend/internal/services"
)

type AnalysisHandler struct {
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

func (ah *AnalysisHandler) Analyze(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	// Body is optional; an empty analyze request is valid.
	_ = c.ShouldBindJSON(&req)

	result, err := ah.analysisService.Analyze(c.Request.Context(), rd.UserID, req.Question)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, result)
}
