package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Все маршруты происшествий требуют аутентификации
	occurrences := api.Group("/occurrences", JWTAuthMiddleware(h.cfg, h.logger))
	{
		occurrences.GET("", h.listOccurrences)
		// stats и stream регистрируются до /:id
		occurrences.GET("/stats", h.getStats)
		occurrences.GET("/stream", h.streamOccurrences)
		occurrences.GET("/:id", h.getOccurrence)
		occurrences.POST("", h.createOccurrence)
		occurrences.PUT("/:id", h.updateOccurrence)
		occurrences.DELETE("/:id", RequirePermission(PermissionDelete), h.deleteOccurrence)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
