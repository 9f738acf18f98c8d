package repositories

import (
	"database/sql"
	"fmt"

	"healthlink/internal/models"
)

type PaymentRepository interface {
	Create(p *models.Payment) error
	GetByID(id int64) (*models.Payment, error)
	GetByAppointment(appointmentID int64) (*models.Payment, error)
	MarkVerified(id int64, receiptPath string) error
	UpdateStatus(id int64, status string) error
	SumByDoctorAndStatus(doctorID int64, status string) (float64, error)
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

const paymentColumns = `
	id, appointment_id, patient_id, doctor_id, amount, status, receipt_path, created_at, verified_at
`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID, &p.AppointmentID, &p.PatientID, &p.DoctorID, &p.Amount,
		&p.Status, &p.ReceiptPath, &p.CreatedAt, &p.VerifiedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}

func (r *paymentRepository) Create(p *models.Payment) error {
	const q = `
		INSERT INTO payments (appointment_id, patient_id, doctor_id, amount, status, receipt_path, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q,
		p.AppointmentID, p.PatientID, p.DoctorID, p.Amount, p.Status, p.ReceiptPath,
	).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByID(id int64) (*models.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.DB.QueryRow(q, id))
}

func (r *paymentRepository) GetByAppointment(appointmentID int64) (*models.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE appointment_id = $1`
	return scanPayment(r.DB.QueryRow(q, appointmentID))
}

func (r *paymentRepository) MarkVerified(id int64, receiptPath string) error {
	const q = `
		UPDATE payments
		SET status = $1, receipt_path = $2, verified_at = NOW()
		WHERE id = $3
	`
	if _, err := r.DB.Exec(q, models.PaymentVerified, receiptPath, id); err != nil {
		return fmt.Errorf("mark payment verified: %w", err)
	}
	return nil
}

func (r *paymentRepository) UpdateStatus(id int64, status string) error {
	if _, err := r.DB.Exec(`UPDATE payments SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func (r *paymentRepository) SumByDoctorAndStatus(doctorID int64, status string) (float64, error) {
	var sum float64
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE doctor_id = $1 AND status = $2`
	if err := r.DB.QueryRow(q, doctorID, status).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum payments by doctor: %w", err)
	}
	return sum, nil
}
