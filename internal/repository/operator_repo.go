package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"thermal_guard/internal/models"
)

// ErrOperatorMissing is returned when a login is recorded for an id that is
// not in the users table.
var ErrOperatorMissing = errors.New("operator missing")

// OperatorRepository stores the accounts allowed to use the API.
type OperatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

var _ Authorization = (*OperatorRepository)(nil)

const (
	insertOperatorSQL      = `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`
	selectOperatorSQL      = `SELECT id, username, password_hash, role, last_login_at FROM users WHERE username = ?`
	updateOperatorLoginSQL = `UPDATE users SET last_login_at = ? WHERE id = ?`
)

// Create inserts an operator with role and returns its ID.
func (r *OperatorRepository) Create(username, passwordHash, role string) (int, error) {
	if role == "" {
		role = models.RoleOperator
	}
	res, err := r.db.Exec(insertOperatorSQL, username, passwordHash, role)
	if err != nil {
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for operator %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername returns (nil, nil) for an unknown username.
func (r *OperatorRepository) GetByUsername(username string) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullTime
	)
	err := r.db.QueryRow(selectOperatorSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	if lastLogin.Valid {
		at := lastLogin.Time.UTC()
		u.LastLoginAt = &at
	}
	return &u, nil
}

// RecordLogin stamps the operator's last successful sign-in.
func (r *OperatorRepository) RecordLogin(id int, at time.Time) error {
	res, err := r.db.Exec(updateOperatorLoginSQL, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("record login for operator %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record login for operator %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrOperatorMissing, id)
	}
	return nil
}
