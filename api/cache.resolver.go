package api

import (
	"tradedash/internal/cache"

	"github.com/gin-gonic/gin"
)

type invalidateCacheRequest struct {
	UserID    string `json:"userId" binding:"required"`
	AccountID string `json:"accountId"`
	DataType  string `json:"dataType"`
}

func (m ApiHandler) invalidateCache(c *gin.Context) {
	var req invalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	m.AccountDataService.InvalidateCache(req.UserID, req.AccountID, cache.DataType(req.DataType))
	c.JSON(200, gin.H{"message": "cache invalidated"})
}

func (m ApiHandler) health(c *gin.Context) {
	c.JSON(200, m.AccountDataService.HealthCheck())
}
