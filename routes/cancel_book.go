package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/controllers/cancel_book_controller"
	"github.com/cate-nduta/Lash-Business-sub009/middlewares/auth"
)

func RegisterCancelBookRoutes(router *gin.Engine, controller *cancel_book_controller.CancelBookController) {

	// All routes within this group are protected by the auth middleware
	protected := router.Group("/admin")
	protected.Use(auth.AdminMiddleware())
	{
		protected.POST("/bookings/cancel", controller.CancelBook)
	}
}
