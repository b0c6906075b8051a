package api

import (
	"tradedash/internal/domain"

	"github.com/gin-gonic/gin"
)

type multiAccountRequest struct {
	UserID       string                  `json:"userId" binding:"required"`
	Accounts     []domain.AccountRequest `json:"accounts" binding:"required"`
	ForceRefresh bool                    `json:"forceRefresh"`
}

func (m ApiHandler) getMultiAccountData(c *gin.Context) {
	var req multiAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	results := m.AccountDataService.GetMultiAccountData(c, req.UserID, req.Accounts, req.ForceRefresh)
	c.JSON(200, gin.H{"results": results})
}

type aggregateRequest struct {
	UserID   string                  `json:"userId" binding:"required"`
	Accounts []domain.AccountRequest `json:"accounts" binding:"required"`
}

func (m ApiHandler) getAggregatedAccountData(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	aggregated, err := m.AccountDataService.GetAggregatedAccountData(c, req.UserID, req.Accounts)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, aggregated)
}

func (m ApiHandler) backgroundSync(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	m.AccountDataService.SpawnBackgroundSync(req.UserID, req.Accounts)
	c.JSON(202, gin.H{"message": "sync started"})
}
