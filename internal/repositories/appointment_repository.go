package repositories

import (
	"database/sql"
	"fmt"

	"healthlink/internal/models"
)

const appointmentColumns = `
	id, patient_id, doctor_id, facility_id, start_time, duration_minutes,
	status, is_emergency, zoom_meeting_id, zoom_join_url, zoom_start_url, created_at
`

type AppointmentRepository interface {
	Create(a *models.Appointment) error
	GetByID(id int64) (*models.Appointment, error)
	ListByPatient(patientID int64, limit, offset int) ([]*models.Appointment, error)
	ListByDoctor(doctorID int64, limit, offset int) ([]*models.Appointment, error)
	UpdateStatus(id int64, status string) error
	Count() (int, error)
	CountByStatus(status string) (int, error)
	CountByDoctor(doctorID int64) (int, error)
}

type appointmentRepository struct {
	DB *sql.DB
}

func NewAppointmentRepository(db *sql.DB) AppointmentRepository {
	return &appointmentRepository{DB: db}
}

func scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.FacilityID, &a.StartTime, &a.DurationMinutes,
		&a.Status, &a.IsEmergency, &a.ZoomMeetingID, &a.ZoomJoinURL, &a.ZoomStartURL, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return a, nil
}

func (r *appointmentRepository) Create(a *models.Appointment) error {
	const q = `
		INSERT INTO appointments (
			patient_id, doctor_id, facility_id, start_time, duration_minutes,
			status, is_emergency, zoom_meeting_id, zoom_join_url, zoom_start_url, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q,
		a.PatientID, a.DoctorID, a.FacilityID, a.StartTime, a.DurationMinutes,
		a.Status, a.IsEmergency, a.ZoomMeetingID, a.ZoomJoinURL, a.ZoomStartURL,
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(id int64) (*models.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return scanAppointment(r.DB.QueryRow(q, id))
}

func (r *appointmentRepository) ListByPatient(patientID int64, limit, offset int) ([]*models.Appointment, error) {
	return r.list(`patient_id`, patientID, limit, offset)
}

func (r *appointmentRepository) ListByDoctor(doctorID int64, limit, offset int) ([]*models.Appointment, error) {
	return r.list(`doctor_id`, doctorID, limit, offset)
}

func (r *appointmentRepository) list(column string, id int64, limit, offset int) ([]*models.Appointment, error) {
	q := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s = $1 ORDER BY start_time DESC LIMIT %d OFFSET %d`,
		appointmentColumns, column, limit, offset)
	rows, err := r.DB.Query(q, id)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *appointmentRepository) UpdateStatus(id int64, status string) error {
	if _, err := r.DB.Exec(`UPDATE appointments SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Count() (int, error) {
	var n int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM appointments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return n, nil
}

func (r *appointmentRepository) CountByStatus(status string) (int, error) {
	var n int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM appointments WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments by status: %w", err)
	}
	return n, nil
}

func (r *appointmentRepository) CountByDoctor(doctorID int64) (int, error) {
	var n int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`, doctorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments by doctor: %w", err)
	}
	return n, nil
}
