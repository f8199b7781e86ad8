package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/controllers/admin_controller"
	middleware "github.com/cate-nduta/Lash-Business-sub009/middlewares"
)

func RegisterAdminRoutes(router *gin.Engine) {
	adminController := admin_controller.NewAdminController()

	router.POST("/admin/login", middleware.NewRateLimiter("5-1m", "adminLogin"), adminController.Login)
}
