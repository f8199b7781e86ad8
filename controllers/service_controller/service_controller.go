package service_controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/service_models"
)

// ServiceController exposes the studio's service menu.
type ServiceController struct {
	db *pgxpool.Pool
}

func NewServiceController(db *pgxpool.Pool) *ServiceController {
	return &ServiceController{db: db}
}

// ListServices handles GET /services — the public menu.
func (sc *ServiceController) ListServices(c *gin.Context) {
	services, err := service_models.ListActiveServices(c.Request.Context(), sc.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetService handles GET /services/:name.
func (sc *ServiceController) GetService(c *gin.Context) {
	svc, err := service_models.GetServiceByName(c.Request.Context(), sc.db, c.Param("name"))
	if err != nil {
		if errors.Is(err, service_models.ErrServiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch service"})
		return
	}
	c.JSON(http.StatusOK, svc)
}

type createServiceRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Price           int64  `json:"price" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
}

// CreateService handles POST /admin/services.
func (sc *ServiceController) CreateService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	svc, err := service_models.NewLashService(req.Name, req.Description, req.Price, req.DurationMinutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := service_models.CreateService(c.Request.Context(), sc.db, svc); err != nil {
		logger.ErrorLogger.Errorf("Failed to create service %q: %v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create service"})
		return
	}
	c.JSON(http.StatusCreated, svc)
}
