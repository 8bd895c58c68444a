package models

import "time"

// RoleOperator may command heaters. Accounts created through sign-up get it.
const RoleOperator = "operator"

type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}
