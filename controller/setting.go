package controller

import (
	"net/http"

	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SettingController manages per-user settings. The stored API key is never
// returned, only whether one exists.
type SettingController struct {
	settings *service.SettingService
	logger   *logrus.Logger
}

func NewSettingController(settings *service.SettingService, logger *logrus.Logger) *SettingController {
	return &SettingController{settings: settings, logger: logger}
}

// Get handles GET /v1/settings.
func (ctrl *SettingController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	hasKey, err := ctrl.settings.HasAPIKey(c.Request.Context(), userID)
	if err != nil {
		ctrl.logger.Warnf("[%s] load settings error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasApiKey": hasKey})
}

// Put handles PUT /v1/settings. An empty apiKey clears the stored value.
func (ctrl *SettingController) Put(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input struct {
		APIKey string `json:"apiKey"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := ctrl.settings.SaveAPIKey(c.Request.Context(), userID, input.APIKey); err != nil {
		ctrl.logger.Warnf("[%s] save settings error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
