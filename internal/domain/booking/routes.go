package booking

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the booking endpoints under rg. rg must already run
// the JWT middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBooking)
		bookings.POST("/check-availability", h.CheckAvailability)

		bookings.GET("/user/:user_id", h.ListUserBookings)
		bookings.GET("/classroom/:classroom_id/date/:date", h.ListClassroomBookingsOnDate)

		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.PATCH("/:id/confirm", h.ConfirmBooking)
		bookings.PATCH("/:id/cancel", h.CancelBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
}
