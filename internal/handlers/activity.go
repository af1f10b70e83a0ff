package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/requestdata"
	"github.com/ecoverse/backend/internal/services"
	"github.com/ecoverse/backend/internal/types"
)

type ActivityHandler struct {
	activityService services.ActivityService
}

func NewActivityHandler(activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (ah *ActivityHandler) Log(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	var input services.LogActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.Validation(fmt.Errorf("invalid request body")))
		return
	}

	activity, result, err := ah.activityService.Log(c.Request.Context(), rd.UserID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"activity": activity, "calculation": result})
}

func (ah *ActivityHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	input := services.ListActivitiesInput{
		Category: types.ActivityCategory(c.Query("category")),
	}
	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			RespondError(c, apierr.Validation(fmt.Errorf("invalid days %q", v)))
			return
		}
		input.Days = days
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			RespondError(c, apierr.Validation(fmt.Errorf("invalid limit %q", v)))
			return
		}
		input.Limit = limit
	}

	activities, err := ah.activityService.List(c.Request.Context(), rd.UserID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"activities": activities, "count": len(activities)})
}

func (ah *ActivityHandler) Clear(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}

	deleted, err := ah.activityService.Clear(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": deleted})
}
