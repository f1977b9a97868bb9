package routes

import (
	"github.com/gin-gonic/gin"

	integrationhandlers "github.com/fitdesk/accessgate/internal/interfaces/http/handlers/integration"
)

type IntegrationRouteConfig struct {
	Handler *integrationhandlers.Handler
}

// SetupIntegrationRoutes registers the per-branch integration API.
func SetupIntegrationRoutes(engine *gin.Engine, config *IntegrationRouteConfig) {
	branch := engine.Group("/api/v1/branches/:branchId")
	{
		branch.PUT("/credential", config.Handler.SaveCredential)
		branch.GET("/credential", config.Handler.GetCredential)
		branch.DELETE("/credential", config.Handler.DeactivateCredential)
		branch.POST("/test-connection", config.Handler.TestConnection)

		branch.POST("/devices/sync", config.Handler.SyncDevices)
		branch.GET("/devices", config.Handler.GetDevices)
		branch.POST("/doors/:doorId/open", config.Handler.OpenDoor)

		// grant and revoke must come before /:memberId
		branch.POST("/access/grant", config.Handler.GrantAccess)
		branch.POST("/access/revoke", config.Handler.RevokeAccess)
		branch.GET("/access/:memberId", config.Handler.GetMemberAccess)

		branch.POST("/polling/start", config.Handler.StartPolling)
		branch.POST("/polling/stop", config.Handler.StopPolling)
		branch.GET("/polling/status", config.Handler.PollingStatus)
	}
}
