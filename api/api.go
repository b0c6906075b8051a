package api

import (
	"fmt"
	"time"

	"tradedash/internal/logger"
	"tradedash/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApiHandler struct {
	AccountDataService service.AccountDataService
	AnalysisService    service.AnalysisService
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to tradedash"})
	})
	router.GET("/health", m.health)
	router.POST("/accountData", m.getAccountData)
	router.POST("/portfolio", m.getPortfolio)
	router.POST("/multiAccountData", m.getMultiAccountData)
	router.POST("/aggregatedAccountData", m.getAggregatedAccountData)
	router.POST("/forceRefresh", m.forceRefresh)
	router.POST("/backgroundSync", m.backgroundSync)
	router.POST("/analyzePositions", m.analyzePositions)
	router.POST("/invalidateCache", m.invalidateCache)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	return m.InitializeRouterEngine().Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	fmt.Println(err.Error())
	c.AbortWithStatusJSON(500, gin.H{
		"error": err.Error(),
	})
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	fmt.Println(err.Error())
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (m ApiHandler) logRequestMiddleware(c *gin.Context) {
	start := time.Now()
	requestID := uuid.NewString()

	log := logger.New().With("requestId", requestID, "route", c.FullPath())
	c.Set(logger.ContextKey, log)

	c.Next()

	log.Infow("handled request",
		"method", c.Request.Method,
		"status", c.Writer.Status(),
		"latencyMs", time.Since(start).Milliseconds(),
	)
}
