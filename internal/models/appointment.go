package models

import "time"

const (
	AppointmentInProgress = "IN_PROGRESS"
	AppointmentCompleted  = "COMPLETED"
	AppointmentCancelled  = "CANCELLED"
)

type Appointment struct {
	ID              int64     `json:"id"`
	PatientID       int64     `json:"patient_id"`
	DoctorID        int64     `json:"doctor_id"`
	FacilityID      *int64    `json:"facility_id,omitempty"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	IsEmergency     bool      `json:"is_emergency"`

	// Zoom provisioning result; empty when the integration is disabled or failed.
	ZoomMeetingID string `json:"zoom_meeting_id,omitempty"`
	ZoomJoinURL   string `json:"zoom_join_url,omitempty"`
	ZoomStartURL  string `json:"-"` // host link, only exposed to the doctor

	CreatedAt time.Time `json:"created_at"`
}

type CreateAppointmentRequest struct {
	DoctorID        int64     `json:"doctor_id" binding:"required"`
	FacilityID      *int64    `json:"facility_id"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	IsEmergency     bool      `json:"is_emergency"`
}
