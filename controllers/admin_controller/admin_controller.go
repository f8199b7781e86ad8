package admin_controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/utils"
)

// AdminController issues the owner's session token. The studio has one
// operator authenticated by PIN, not a user table.
type AdminController struct{}

func NewAdminController() *AdminController {
	return &AdminController{}
}

type loginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// Login handles POST /admin/login.
func (ac *AdminController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !utils.VerifyAdminPIN(req.PIN) {
		logger.WarnLogger.Warnf("Admin login rejected from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid PIN"})
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  "studio-admin",
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(utils.GetJWTSecret())
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to sign admin token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed, "expires_in": int((12 * time.Hour).Seconds())})
}
