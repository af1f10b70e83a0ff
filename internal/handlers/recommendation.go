package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/requestdata"
	"github.com/ecoverse/backend/internal/services"
	"github.com/ecoverse/backend/internal/types"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (rh *RecommendationHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	recommendations, err := rh.recommendationService.List(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recommendations, "count": len(recommendations)})
}

func (rh *RecommendationHandler) UpdateStatus(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	recommendationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.Validation(fmt.Errorf("invalid recommendation id")))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation(fmt.Errorf("invalid request body")))
		return
	}

	recommendation, err := rh.recommendationService.UpdateStatus(
		c.Request.Context(), rd.UserID, recommendationID, types.RecommendationStatus(req.Status))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendation": recommendation})
}
