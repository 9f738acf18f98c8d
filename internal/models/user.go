package models

import "time"

type User struct {
	ID                int64  `json:"id"`
	Role              string `json:"role"`
	Email             string `json:"email"`
	PasswordHash      string `json:"-"`
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
	ApprovalStatus    string `json:"approval_status"`
	IsActive          bool   `json:"is_active"`
	IsEmailVerified   bool   `json:"is_email_verified"`
	PreferredLanguage string `json:"preferred_language"`

	// refresh token storage (opaque value, never logged)
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// DoctorProfile extends a DOCTOR user with practice data.
type DoctorProfile struct {
	UserID                 int64   `json:"user_id"`
	Specialty              string  `json:"specialty"`
	ConsultationFee        float64 `json:"consultation_fee"`
	AverageRating          float64 `json:"average_rating"`
	TotalReviews           int     `json:"total_reviews"`
	RefundCutoffMinutes    int     `json:"refund_cutoff_minutes"`
	RefundDeductionPercent int     `json:"refund_deduction_percent"`
	AllowFullRefundOnDoctorCancellation bool `json:"allow_full_refund_on_doctor_cancellation"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
