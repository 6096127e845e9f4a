package approuters

import (
	"github.com/OlharAngolano/MB.olharAngolano/internal/configuration"
	"github.com/OlharAngolano/MB.olharAngolano/internal/handler"
	"github.com/OlharAngolano/MB.olharAngolano/internal/hub"

	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorService := hub.NewMonitorService(container.Hub)
	monitorHandler := handler.NewMonitorHandler(monitorService)

	monitorGroup := router.Group("/api/monitor")
	{
		monitorGroup.GET("/stats", monitorHandler.GetHubStats)
	}
}
