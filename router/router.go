// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaizen-platform/gatekeeper/controller"
	"github.com/kaizen-platform/gatekeeper/middleware"
)

func SetupRouter(
	execController *controller.ExecController,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	api := router.Group("/")

	execController.RegisterRoutes(api)

	return router
}
