package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/services"
)

type AppointmentHandler struct {
	service services.AppointmentService
}

func NewAppointmentHandler(service services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// POST /appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.service.Book(userID, &req)
	if err != nil {
		log.Printf("[appointments][book] failed for patientID=%d: err=%v", userID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, role := getUserAndRole(c)

	a, err := h.service.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load appointment"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}
	if role != authz.RoleAdmin && userID != a.PatientID && userID != a.DoctorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	// the host link is reserved for the doctor
	if userID == a.DoctorID && a.ZoomStartURL != "" {
		c.JSON(http.StatusOK, gin.H{"appointment": a, "zoom_start_url": a.ZoomStartURL})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": a})
}

// GET /appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	userID, role := getUserAndRole(c)
	limit, offset := pagination(c)

	var (
		items []*models.Appointment
		err   error
	)
	if role == authz.RoleDoctor {
		items, err = h.service.ListForDoctor(userID, limit, offset)
	} else {
		items, err = h.service.ListForPatient(userID, limit, offset)
	}
	if err != nil {
		log.Printf("[appointments][list] failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list appointments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": items})
}

// POST /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, role := getUserAndRole(c)

	if err := h.service.Cancel(id, userID, role); err != nil {
		switch {
		case errors.Is(err, services.ErrAppointmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, services.ErrNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": "Appointment cannot be cancelled"})
		default:
			log.Printf("[appointments][cancel] failed for appointmentID=%d: err=%v", id, err)
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled"})
}

// POST /appointments/:id/complete (doctor)
func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, role := getUserAndRole(c)

	a, err := h.service.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load appointment"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}
	if role != authz.RoleAdmin && userID != a.DoctorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.service.Complete(id); err != nil {
		log.Printf("[appointments][complete] failed for appointmentID=%d: err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete appointment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment completed"})
}

// POST /payments/:id/verify (admin)
func (h *AppointmentHandler) VerifyPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	p, err := h.service.VerifyPayment(id)
	if err != nil {
		log.Printf("[payments][verify] failed for paymentID=%d: err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		return
	}
	c.JSON(http.StatusOK, p)
}
