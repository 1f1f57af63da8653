package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, name, email, password_hash, role, sector, active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash,
		&u.Role, &u.Sector, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserInput holds the writable fields of a user record
type UserInput struct {
	Username string
	Name     string
	Email    string
	Role     string
	Sector   string
}

// CreateUser inserts a new user with the given password hash
func (db *DB) CreateUser(ctx context.Context, input UserInput, passwordHash string) (*User, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO users (username, name, email, password_hash, role, sector)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		input.Username, input.Name, input.Email, passwordHash, input.Role, input.Sector,
	)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "user", Code: input.Username}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID regardless of active flag
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves an active user by username, for login
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND active`, username))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// ListUsers retrieves active users ordered by name
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE active ORDER BY name, username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's profile fields; an empty passwordHash keeps the
// current credential.
func (db *DB) UpdateUser(ctx context.Context, id uuid.UUID, input UserInput, passwordHash string) (*User, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE users
		 SET username = $2, name = $3, email = $4, role = $5, sector = $6,
		     password_hash = CASE WHEN $7 = '' THEN password_hash ELSE $7 END,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, input.Username, input.Name, input.Email, input.Role, input.Sector, passwordHash,
	)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "user", ID: id}
		}
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "user", Code: input.Username}
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeactivateUser soft-deletes a user
func (db *DB) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "user", ID: id}
	}
	return nil
}
