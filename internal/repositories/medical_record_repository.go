package repositories

import (
	"database/sql"
	"fmt"

	"healthlink/internal/models"
)

type MedicalRecordRepository interface {
	Create(rec *models.MedicalRecord) error
	ListByPatient(patientID int64) ([]*models.MedicalRecord, error)
	Count() (int, error)
}

type medicalRecordRepository struct {
	DB *sql.DB
}

func NewMedicalRecordRepository(db *sql.DB) MedicalRecordRepository {
	return &medicalRecordRepository{DB: db}
}

func (r *medicalRecordRepository) Create(rec *models.MedicalRecord) error {
	const q = `
		INSERT INTO medical_records (patient_id, doctor_id, appointment_id, diagnosis, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q,
		rec.PatientID, rec.DoctorID, rec.AppointmentID, rec.Diagnosis, rec.Notes,
	).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) ListByPatient(patientID int64) ([]*models.MedicalRecord, error) {
	const q = `
		SELECT id, patient_id, doctor_id, appointment_id, diagnosis, notes, created_at
		FROM medical_records WHERE patient_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var out []*models.MedicalRecord
	for rows.Next() {
		rec := &models.MedicalRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.AppointmentID,
			&rec.Diagnosis, &rec.Notes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *medicalRecordRepository) Count() (int, error) {
	var n int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM medical_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count medical records: %w", err)
	}
	return n, nil
}
