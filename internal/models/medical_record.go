package models

import "time"

type MedicalRecord struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	DoctorID      int64     `json:"doctor_id"`
	AppointmentID *int64    `json:"appointment_id,omitempty"`
	Diagnosis     string    `json:"diagnosis"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}
