package controller

import (
	"errors"
	"net/http"

	"chatrelay/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ConversationController serves the conversation history endpoints. All of
// them require an authenticated session.
type ConversationController struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewConversationController(db *gorm.DB, logger *logrus.Logger) *ConversationController {
	return &ConversationController{db: db, logger: logger}
}

// List handles GET /v1/conversations, newest-activity first.
func (ctrl *ConversationController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var conversations []model.Conversation
	err := ctrl.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Find(&conversations).Error
	if err != nil {
		ctrl.logger.Warnf("[%s] list conversations error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// Get handles GET /v1/conversations/:id.
func (ctrl *ConversationController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var conversation model.Conversation
	err := ctrl.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	if err != nil {
		ctrl.logger.Warnf("[%s] get conversation error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// Rename handles PATCH /v1/conversations/:id.
func (ctrl *ConversationController) Rename(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	err := ctrl.db.WithContext(c.Request.Context()).
		Model(&model.Conversation{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Update("title", input.Title).Error
	if err != nil {
		ctrl.logger.Warnf("[%s] rename conversation error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete handles DELETE /v1/conversations/:id. Deleting a conversation
// removes its messages as well.
func (ctrl *ConversationController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	err := ctrl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var conversation model.Conversation
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&conversation).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&conversation).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already gone; deletion is idempotent.
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if err != nil {
		ctrl.logger.Warnf("[%s] delete conversation error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
