package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"healthlink/internal/models"
	"healthlink/internal/services"
)

type NotificationHandler struct {
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// POST /admin/notifications
func (h *NotificationHandler) Send(c *gin.Context) {
	adminID, _ := getUserAndRole(c)

	var req models.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.service.Send(adminID, &req)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedChannel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[admin][notifications] send failed for adminID=%d: err=%v", adminID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, n)
}

// GET /admin/notifications?page=&page_size=
func (h *NotificationHandler) History(c *gin.Context) {
	adminID, _ := getUserAndRole(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	history, err := h.service.History(adminID, page, pageSize)
	if err != nil {
		log.Printf("[admin][notifications] history failed for adminID=%d: err=%v", adminID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, history)
}
