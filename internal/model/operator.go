package model

import "time"

// Operator roles.  ADMIN manages the catalogue and the schedule;
// CASHIER issues, sells and cancels tickets.
const (
	RoleAdmin   = "ADMIN"
	RoleCashier = "CASHIER"
)

// Operator is a box office account as stored in the `operators` table.
// The json tags are omitted because operators never leave the
// service as-is; handlers build their own response maps.
//
// Fields:
//  ID           – primary key identifier of the operator.
//  Email        – unique email address (lower case).
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or CASHIER.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Operator struct {
	ID           uint64    // operators.id
	Email        string    // operators.email
	PasswordHash string    // operators.password_hash
	Role         string    // operators.role
	IsActive     bool      // operators.is_active
	CreatedAt    time.Time // operators.created_at
	UpdatedAt    time.Time // operators.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only
// the SHA-256 hash of the token handed to the client is stored.
//
// Fields:
//  ID         – primary key identifier.
//  OperatorID – owner of the token.
//  TokenHash  – SHA-256 hex digest of the token value.
//  ExpiresAt  – expiration timestamp of the token.
//  RevokedAt  – when the token was revoked (null if still active).
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
	ID         uint64     // refresh_tokens.id
	OperatorID uint64     // refresh_tokens.operator_id
	TokenHash  string     // refresh_tokens.token_hash
	ExpiresAt  time.Time  // refresh_tokens.expires_at
	RevokedAt  *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt  time.Time  // refresh_tokens.created_at
}
