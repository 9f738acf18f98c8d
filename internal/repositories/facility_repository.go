package repositories

import (
	"database/sql"
	"fmt"

	"healthlink/internal/models"
)

type FacilityRepository interface {
	Create(f *models.Facility) error
	GetByID(id int64) (*models.Facility, error)
	ListByOrganization(orgID int64) ([]*models.Facility, error)
	Count() (int, error)
}

type facilityRepository struct {
	DB *sql.DB
}

func NewFacilityRepository(db *sql.DB) FacilityRepository {
	return &facilityRepository{DB: db}
}

const facilityColumns = `
	id, organization_id, name, address, city, state, zip_code, phone_number,
	email, description, opening_time, closing_time, latitude, longitude, consultation_fee
`

func scanFacility(row interface{ Scan(...any) error }) (*models.Facility, error) {
	f := &models.Facility{}
	err := row.Scan(
		&f.ID, &f.OrganizationID, &f.Name, &f.Address, &f.City, &f.State, &f.ZipCode, &f.PhoneNumber,
		&f.Email, &f.Description, &f.OpeningTime, &f.ClosingTime, &f.Latitude, &f.Longitude, &f.ConsultationFee,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan facility: %w", err)
	}
	return f, nil
}

func (r *facilityRepository) Create(f *models.Facility) error {
	const q = `
		INSERT INTO facilities (
			organization_id, name, address, city, state, zip_code, phone_number,
			email, description, opening_time, closing_time, latitude, longitude, consultation_fee
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`
	if err := r.DB.QueryRow(q,
		f.OrganizationID, f.Name, f.Address, f.City, f.State, f.ZipCode, f.PhoneNumber,
		f.Email, f.Description, f.OpeningTime, f.ClosingTime, f.Latitude, f.Longitude, f.ConsultationFee,
	).Scan(&f.ID); err != nil {
		return fmt.Errorf("create facility: %w", err)
	}
	return nil
}

func (r *facilityRepository) GetByID(id int64) (*models.Facility, error) {
	q := `SELECT ` + facilityColumns + ` FROM facilities WHERE id = $1`
	return scanFacility(r.DB.QueryRow(q, id))
}

func (r *facilityRepository) ListByOrganization(orgID int64) ([]*models.Facility, error) {
	q := `SELECT ` + facilityColumns + ` FROM facilities WHERE organization_id = $1 ORDER BY name`
	rows, err := r.DB.Query(q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var out []*models.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *facilityRepository) Count() (int, error) {
	var n int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM facilities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count facilities: %w", err)
	}
	return n, nil
}
