package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// forceRefresh bypasses the cache for one account. Refreshes are the only
// route that consumes rate-limiter quota up front, since they always reach
// the upstream.
func (m ApiHandler) forceRefresh(c *gin.Context) {
	var req getAccountDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	if !m.AccountDataService.CanMakeRequest(req.UserID, req.AccountID) {
		retryAfter := m.AccountDataService.TimeUntilReset(req.UserID, req.AccountID)
		c.AbortWithStatusJSON(429, gin.H{
			"error":        fmt.Sprintf("rate limited for account %s", req.AccountID),
			"retryAfterMs": retryAfter.Milliseconds(),
		})
		return
	}

	summary, err := m.AccountDataService.ForceRefreshAccountData(c, req.UserID, req.AccountID, req.Credentials, req.IncludeOrders)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, summary)
}
