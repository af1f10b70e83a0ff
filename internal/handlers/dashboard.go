package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/requestdata"
	"github.com/ecoverse/backend/internal/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func windowDaysParam(c *gin.Context) (int, error) {
	v := c.Query("days")
	if v == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 0 {
		return 0, apierr.Validation(fmt.Errorf("invalid days %q", v))
	}
	return days, nil
}

func (dh *DashboardHandler) Summary(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}
	days, err := windowDaysParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	summary, err := dh.dashboardService.Summarize(c.Request.Context(), rd.UserID, days)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, summary)
}

func (dh *DashboardHandler) Trends(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized(fmt.Errorf("no request data in context")))
		return
	}
	days, err := windowDaysParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	trends, err := dh.dashboardService.Trends(c.Request.Context(), rd.UserID, days)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, trends)
}
