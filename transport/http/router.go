package http

import (
	"github.com/certlayer/certlayer/service"
	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the gin router over the auth and registry services.
func SetupRouter(auth *service.AuthService, registry *service.RegistryService, serviceName string) *gin.Engine {
	router := gin.Default()
	router.Use(CredentialMiddleware())

	handlers := NewHandlers(auth, registry, serviceName)

	router.GET("/health", handlers.Health)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/challenge", handlers.Challenge)
		authGroup.POST("/verify", handlers.Verify)
		authGroup.POST("/logout", handlers.Logout)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/protocols", handlers.ListProtocols)
		v1.POST("/protocols/register", handlers.RegisterProtocol)
		v1.PATCH("/protocols/:id", handlers.UpdateProtocol)

		v1.POST("/incidents", handlers.AddIncident)
		v1.GET("/incidents", handlers.ListIncidents)
		v1.POST("/incidents/decision", handlers.IncidentDecision)

		v1.POST("/commitments", handlers.UpsertCommitment)
		v1.GET("/commitments", handlers.ListCommitments)

		v1.POST("/pools/deposit", handlers.Deposit)

		v1.POST("/reputation/recompute", handlers.RecomputeScore)
		v1.GET("/reputation/protocols", handlers.ReputationBoard)
	}

	return router
}
