package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/controllers/booking_controller"
	middleware "github.com/cate-nduta/Lash-Business-sub009/middlewares"
	"github.com/cate-nduta/Lash-Business-sub009/middlewares/auth"
)

func RegisterBookingRoutes(router *gin.Engine, controller *booking_controller.BookingController) {

	router.POST("/bookings", middleware.NewRateLimiter("20-1m", "createBooking"), controller.CreateBooking)
	router.GET("/bookings/:id", controller.GetBooking)

	// Ledger and lifecycle mutations are owner-only
	protected := router.Group("/admin")
	protected.Use(auth.AdminMiddleware())
	{
		protected.POST("/bookings/:id/services", controller.AddService)
		protected.POST("/bookings/:id/fine", controller.AddFine)
		protected.POST("/bookings/:id/reschedule", controller.Reschedule)
		protected.POST("/bookings/:id/complete", controller.Complete)
	}
}
