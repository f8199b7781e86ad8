package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/controllers/payment_controller"
	middleware "github.com/cate-nduta/Lash-Business-sub009/middlewares"
	"github.com/cate-nduta/Lash-Business-sub009/middlewares/auth"
)

func RegisterPaymentRoutes(router *gin.Engine, controller *payment_controller.PaymentController) {

	// Gateway callbacks authenticate by signature, not session
	router.POST("/webhooks/razorpay", middleware.NewRateLimiter("120-1m", "razorpayWebhook"), controller.HandleWebhook)

	protected := router.Group("/admin")
	protected.Use(auth.AdminMiddleware())
	{
		protected.POST("/bookings/:id/payments", controller.RecordPayment)
	}
}
