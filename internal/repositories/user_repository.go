package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"healthlink/internal/models"
)

const userColumns = `
	id, role, email, password_hash, full_name, phone,
	approval_status, is_active, is_email_verified, preferred_language,
	refresh_token, refresh_expires_at, refresh_revoked,
	created_at, deleted_at
`

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ExistsByEmail(email string) (bool, error)
	List(role string, limit, offset int) ([]*models.User, error)
	Update(user *models.User) error
	SoftDelete(id int64) error
	CountByRole(role string) (int, error)
	MarkEmailVerified(email string) error
	UpdatePassword(userID int64, passwordHash string) error
	SetApprovalStatus(userID int64, status string) error

	// refresh helpers
	UpdateRefresh(userID int64, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int64) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone,
		&u.ApprovalStatus, &u.IsActive, &u.IsEmailVerified, &u.PreferredLanguage,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
		&u.CreatedAt, &u.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			role, email, password_hash, full_name, phone,
			approval_status, is_active, is_email_verified, preferred_language,
			created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q,
		user.Role, user.Email, user.PasswordHash, user.FullName, user.Phone,
		user.ApprovalStatus, user.IsActive, user.IsEmailVerified, user.PreferredLanguage,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int64) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) ExistsByEmail(email string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

// List returns non-deleted users, optionally filtered by role.
func (r *userRepository) List(role string, limit, offset int) ([]*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}
	if role != "" {
		q += ` AND role = $1`
		args = append(args, role)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET full_name = $1, phone = $2, preferred_language = $3, is_active = $4
		WHERE id = $5
	`
	if _, err := r.DB.Exec(q, user.FullName, user.Phone, user.PreferredLanguage, user.IsActive, user.ID); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepository) SoftDelete(id int64) error {
	if _, err := r.DB.Exec(`UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	return nil
}

func (r *userRepository) CountByRole(role string) (int, error) {
	var n int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE role = $1 AND deleted_at IS NULL`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

func (r *userRepository) MarkEmailVerified(email string) error {
	if _, err := r.DB.Exec(`UPDATE users SET is_email_verified = TRUE WHERE email = $1`, email); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(userID int64, passwordHash string) error {
	if _, err := r.DB.Exec(`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *userRepository) SetApprovalStatus(userID int64, status string) error {
	if _, err := r.DB.Exec(`UPDATE users SET approval_status = $1 WHERE id = $2`, status, userID); err != nil {
		return fmt.Errorf("set approval status: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateRefresh(userID int64, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token = $1, refresh_expires_at = $2, refresh_revoked = FALSE
		WHERE id = $3
	`
	if _, err := r.DB.Exec(q, token, expiresAt, userID); err != nil {
		return fmt.Errorf("update refresh: %w", err)
	}
	return nil
}

func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token = $1, refresh_expires_at = $2
		WHERE refresh_token = $3 AND refresh_revoked = FALSE
		RETURNING ` + userColumns
	return scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(userID int64) error {
	const q = `
		UPDATE users
		SET refresh_token = NULL, refresh_expires_at = NULL, refresh_revoked = TRUE
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, userID); err != nil {
		return fmt.Errorf("clear refresh: %w", err)
	}
	return nil
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return scanUser(r.DB.QueryRow(q, token))
}
