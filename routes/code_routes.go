package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/controllers/code_controller"
	middleware "github.com/cate-nduta/Lash-Business-sub009/middlewares"
	"github.com/cate-nduta/Lash-Business-sub009/middlewares/auth"
)

func RegisterCodeRoutes(router *gin.Engine, controller *code_controller.CodeController) {

	// Brute-forcing the code space is the obvious abuse here
	codes := router.Group("/codes")
	codes.Use(middleware.CombinedRateLimiter("codes", "10-1m", "40-1h"))
	{
		codes.POST("/validate", controller.ValidateCode)
		codes.POST("/redeem", controller.RedeemCode)
	}

	protected := router.Group("/admin")
	protected.Use(auth.AdminMiddleware())
	{
		protected.POST("/codes", controller.IssueCode)
	}
}
