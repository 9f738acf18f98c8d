package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"healthlink/internal/authz"
	"healthlink/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type updateProfileRequest struct {
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
	PreferredLanguage string `json:"preferred_language"`
}

type approvalRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	u, err := h.service.GetUserByID(userID)
	if err != nil {
		log.Printf("[users][me] lookup failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// PUT /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.GetUserByID(userID)
	if err != nil || u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if s := strings.TrimSpace(req.FullName); s != "" {
		u.FullName = s
	}
	if s := strings.TrimSpace(req.Phone); s != "" {
		u.Phone = s
	}
	if s := strings.TrimSpace(req.PreferredLanguage); s != "" {
		u.PreferredLanguage = s
	}

	if err := h.service.UpdateUser(u); err != nil {
		log.Printf("[users][update] failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// GET /admin/users?role=&limit=&offset=
func (h *UserHandler) ListUsers(c *gin.Context) {
	role := strings.ToUpper(c.Query("role"))
	if role != "" && !authz.IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	limit, offset := pagination(c)

	users, err := h.service.ListUsers(role, limit, offset)
	if err != nil {
		log.Printf("[admin][users] list failed: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GET /admin/users/:id
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	u, err := h.service.GetUserByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /admin/users/:id (soft)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteUser(id); err != nil {
		log.Printf("[admin][users] delete failed for userID=%d: err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// POST /admin/users/:id/approval
func (h *UserHandler) SetApproval(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetApproval(id, req.Approved, req.Reason); err != nil {
		log.Printf("[admin][users] approval update failed for userID=%d: err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update approval"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Approval updated"})
}
