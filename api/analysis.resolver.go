package api

import (
	"tradedash/internal/service"

	"github.com/gin-gonic/gin"
)

func (m ApiHandler) analyzePositions(c *gin.Context) {
	var req service.AnalyzeBatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	out, err := m.AnalysisService.AnalyzePositionsBatch(c, req)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, out)
}
