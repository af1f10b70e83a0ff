package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/services"
)

type DatasetHandler struct {
	datasetService services.DatasetService
}

func NewDatasetHandler(datasetService services.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasetService: datasetService}
}

func (dh *DatasetHandler) Summary(c *gin.Context) {
	summary := dh.datasetService.Summary()
	RespondOK(c, gin.H{"datasets": summary, "count": len(summary)})
}

func (dh *DatasetHandler) Insights(c *gin.Context) {
	insights := dh.datasetService.Insights()
	RespondOK(c, gin.H{"insights": insights, "count": len(insights)})
}

func (dh *DatasetHandler) Benchmarks(c *gin.Context) {
	RespondOK(c, gin.H{"benchmarks": dh.datasetService.Benchmarks()})
}
