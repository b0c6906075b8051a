package api

import (
	"tradedash/internal/domain"

	"github.com/gin-gonic/gin"
)

type getAccountDataRequest struct {
	UserID        string                      `json:"userId" binding:"required"`
	AccountID     string                      `json:"accountId" binding:"required"`
	Credentials   domain.BrokerageCredentials `json:"credentials" binding:"required"`
	IncludeOrders bool                        `json:"includeOrders"`
}

func (m ApiHandler) getAccountData(c *gin.Context) {
	var req getAccountDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	summary, err := m.AccountDataService.GetAccountData(c, req.UserID, req.AccountID, req.Credentials, req.IncludeOrders)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, summary)
}

type getPortfolioRequest struct {
	UserID      string                      `json:"userId" binding:"required"`
	AccountID   string                      `json:"accountId" binding:"required"`
	Credentials domain.BrokerageCredentials `json:"credentials" binding:"required"`
}

func (m ApiHandler) getPortfolio(c *gin.Context) {
	var req getPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	summary, err := m.AccountDataService.GetPortfolioData(c, req.UserID, req.AccountID, req.Credentials)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, summary)
}
