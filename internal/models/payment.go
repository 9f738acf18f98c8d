package models

import "time"

const (
	PaymentPending  = "PENDING"
	PaymentVerified = "VERIFIED"
	PaymentCaptured = "CAPTURED"
	PaymentRefunded = "REFUNDED"
)

type Payment struct {
	ID            int64      `json:"id"`
	AppointmentID int64      `json:"appointment_id"`
	PatientID     int64      `json:"patient_id"`
	DoctorID      int64      `json:"doctor_id"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	ReceiptPath   string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}
