package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/controllers/service_controller"
	"github.com/cate-nduta/Lash-Business-sub009/middlewares/auth"
)

func RegisterServicesRoutes(router *gin.Engine, db *pgxpool.Pool) {
	serviceController := service_controller.NewServiceController(db)

	router.GET("/services", serviceController.ListServices)
	router.GET("/services/:name", serviceController.GetService)

	protected := router.Group("/admin")
	protected.Use(auth.AdminMiddleware())
	{
		protected.POST("/services", serviceController.CreateService)
	}
}
