package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/requestdata"
	"github.com/ecoverse/backend/internal/services"
)

type InsightHandler struct {
	insightService services.InsightService
}

func NewInsightHandler(insightService services.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

func (ih *InsightHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	insights, err := ih.insightService.List(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"insights": insights, "count": len(insights)})
}
