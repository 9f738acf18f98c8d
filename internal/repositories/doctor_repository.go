package repositories

import (
	"database/sql"
	"fmt"

	"healthlink/internal/models"
)

type DoctorRepository interface {
	CreateProfile(profile *models.DoctorProfile) error
	GetProfile(userID int64) (*models.DoctorProfile, error)
	UpdateProfile(profile *models.DoctorProfile) error
	Search(specialty, query string, limit, offset int) ([]*models.User, error)
}

type doctorRepository struct {
	DB *sql.DB
}

func NewDoctorRepository(db *sql.DB) DoctorRepository {
	return &doctorRepository{DB: db}
}

func (r *doctorRepository) CreateProfile(profile *models.DoctorProfile) error {
	const q = `
		INSERT INTO doctor_profiles (
			user_id, specialty, consultation_fee,
			refund_cutoff_minutes, refund_deduction_percent, allow_full_refund_on_doctor_cancellation
		)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	if _, err := r.DB.Exec(q,
		profile.UserID, profile.Specialty, profile.ConsultationFee,
		profile.RefundCutoffMinutes, profile.RefundDeductionPercent, profile.AllowFullRefundOnDoctorCancellation,
	); err != nil {
		return fmt.Errorf("create doctor profile: %w", err)
	}
	return nil
}

func (r *doctorRepository) GetProfile(userID int64) (*models.DoctorProfile, error) {
	const q = `
		SELECT user_id, specialty, consultation_fee, average_rating, total_reviews,
		       refund_cutoff_minutes, refund_deduction_percent, allow_full_refund_on_doctor_cancellation
		FROM doctor_profiles WHERE user_id = $1
	`
	p := &models.DoctorProfile{}
	err := r.DB.QueryRow(q, userID).Scan(
		&p.UserID, &p.Specialty, &p.ConsultationFee, &p.AverageRating, &p.TotalReviews,
		&p.RefundCutoffMinutes, &p.RefundDeductionPercent, &p.AllowFullRefundOnDoctorCancellation,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get doctor profile: %w", err)
	}
	return p, nil
}

func (r *doctorRepository) UpdateProfile(profile *models.DoctorProfile) error {
	const q = `
		UPDATE doctor_profiles
		SET specialty = $1, consultation_fee = $2,
		    refund_cutoff_minutes = $3, refund_deduction_percent = $4,
		    allow_full_refund_on_doctor_cancellation = $5
		WHERE user_id = $6
	`
	if _, err := r.DB.Exec(q,
		profile.Specialty, profile.ConsultationFee,
		profile.RefundCutoffMinutes, profile.RefundDeductionPercent,
		profile.AllowFullRefundOnDoctorCancellation, profile.UserID,
	); err != nil {
		return fmt.Errorf("update doctor profile: %w", err)
	}
	return nil
}

// Search matches approved, active doctors by specialty and name fragment.
func (r *doctorRepository) Search(specialty, query string, limit, offset int) ([]*models.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.role = 'DOCTOR' AND u.approval_status = 'APPROVED'
		  AND u.is_active = TRUE AND u.deleted_at IS NULL
	`
	args := []any{}
	if specialty != "" {
		args = append(args, specialty)
		q += fmt.Sprintf(` AND p.specialty = $%d`, len(args))
	}
	if query != "" {
		args = append(args, "%"+query+"%")
		q += fmt.Sprintf(` AND u.full_name ILIKE $%d`, len(args))
	}
	q += fmt.Sprintf(` ORDER BY p.average_rating DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, u)
	}
	return doctors, rows.Err()
}
