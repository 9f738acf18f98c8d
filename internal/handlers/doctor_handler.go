package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"healthlink/internal/models"
	"healthlink/internal/services"
)

type DoctorHandler struct {
	service services.DoctorService
}

func NewDoctorHandler(service services.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

type doctorProfileRequest struct {
	Specialty                           string  `json:"specialty" binding:"required"`
	ConsultationFee                     float64 `json:"consultation_fee" binding:"min=0"`
	RefundCutoffMinutes                 int     `json:"refund_cutoff_minutes"`
	RefundDeductionPercent              int     `json:"refund_deduction_percent" binding:"min=0,max=100"`
	AllowFullRefundOnDoctorCancellation bool    `json:"allow_full_refund_on_doctor_cancellation"`
}

type emergencyPatientRequest struct {
	PatientName string `json:"patient_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

// GET /doctors?specialty=&q=
func (h *DoctorHandler) Search(c *gin.Context) {
	limit, offset := pagination(c)
	doctors, err := h.service.Search(
		strings.TrimSpace(c.Query("specialty")),
		strings.TrimSpace(c.Query("q")),
		limit, offset,
	)
	if err != nil {
		log.Printf("[doctors][search] failed: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

// GET /doctors/:id/profile
func (h *DoctorHandler) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	p, err := h.service.GetProfile(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /doctor/profile (creates on first call)
func (h *DoctorHandler) UpsertProfile(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req doctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := &models.DoctorProfile{
		UserID:                              userID,
		Specialty:                           req.Specialty,
		ConsultationFee:                     req.ConsultationFee,
		RefundCutoffMinutes:                 req.RefundCutoffMinutes,
		RefundDeductionPercent:              req.RefundDeductionPercent,
		AllowFullRefundOnDoctorCancellation: req.AllowFullRefundOnDoctorCancellation,
	}

	existing, err := h.service.GetProfile(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if existing == nil {
		err = h.service.CreateProfile(profile)
	} else {
		err = h.service.UpdateProfile(profile)
	}
	if err != nil {
		log.Printf("[doctors][profile] save failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GET /doctor/dashboard
func (h *DoctorHandler) Dashboard(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	d, err := h.service.GetDashboard(userID)
	if err != nil {
		log.Printf("[doctors][dashboard] failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /doctor/emergency-patients
func (h *DoctorHandler) CreateEmergencyPatient(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req emergencyPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patient, appointment, err := h.service.CreateEmergencyPatient(userID, req.PatientName, req.PhoneNumber)
	if err != nil {
		log.Printf("[doctors][emergency] failed for doctorID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create emergency patient"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"patient":     patient,
		"appointment": appointment,
	})
}
