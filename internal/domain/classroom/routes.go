package classroom

import (
	"classroombooking/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the classroom endpoints under rg. rg must already run
// the JWT middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	classrooms := rg.Group("/classrooms")
	{
		classrooms.GET("/:id", h.GetClassroom)
		classrooms.PATCH("/:id/active", middleware.AdminOnly(), h.SetActive)
	}
}
