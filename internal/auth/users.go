package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrInvalidInput       = errors.New("invalid registration")
)

const minPasswordLength = 8

// User is a registered account. The password hash never leaves the package.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository stores accounts with bcrypt password hashes.
type UserRepository struct {
	db   *sql.DB
	cost int
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, cost: bcrypt.DefaultCost}
}

// Create registers a new user. Emails are compared case-insensitively.
func (r *UserRepository) Create(ctx context.Context, email, name, password string) (*User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	email = strings.ToLower(addr.Address)
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(email) DO NOTHING",
		email, name, string(hash), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrEmailTaken
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return &User{ID: id, Email: email, Name: name, CreatedAt: now}, nil
}

// Authenticate checks a password and returns the user.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var u User
	var hash string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &u.Name, &hash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// Get returns a user by id, or nil when missing.
func (r *UserRepository) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, name, created_at FROM users WHERE id = ?", id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
