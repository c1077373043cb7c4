// Package household groups users that share plans, a pantry and shopping
// lists. Every user belongs to exactly one household.
package household

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"meal-planner/internal/database"
)

var (
	ErrNotFound        = errors.New("household not found")
	ErrInvalidJoinCode = errors.New("join code is invalid or expired")
	ErrRemoveSelf      = errors.New("cannot remove yourself; leave the household instead")
	ErrNotMember       = errors.New("user is not a member of this household")
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

type Member struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

type Household struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Members []Member `json:"members"`
}

type JoinCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Repository is a database-backed repository for households.
type Repository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewRepository creates a repository whose join codes live for codeTTL.
func NewRepository(db *sql.DB, codeTTL time.Duration) *Repository {
	return &Repository{db: db, ttl: codeTTL, now: time.Now}
}

// DefaultName is the name given to a user's own household.
func DefaultName(userName string) string {
	return strings.TrimSpace(userName) + " Household"
}

// Ensure returns the user's household, creating one named after the user
// when they have none.
func (r *Repository) Ensure(ctx context.Context, userID int64, email, name string) (*Household, error) {
	h, err := r.ForUser(ctx, userID)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	err = database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := createFor(ctx, tx, userID, email, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.ForUser(ctx, userID)
}

func createFor(ctx context.Context, tx *sql.Tx, userID int64, email, name string) (int64, error) {
	res, err := tx.ExecContext(ctx, "INSERT INTO households (name) VALUES (?)", DefaultName(name))
	if err != nil {
		return 0, fmt.Errorf("failed to create household: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read household id: %w", err)
	}
	if err := moveMember(ctx, tx, id, userID, email); err != nil {
		return 0, err
	}
	return id, nil
}

// moveMember makes userID a member of householdID only.
func moveMember(ctx context.Context, tx *sql.Tx, householdID, userID int64, email string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO household_members (household_id, user_id, email) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET household_id = excluded.household_id, email = excluded.email`,
		householdID, userID, email)
	if err != nil {
		return fmt.Errorf("failed to add household member: %w", err)
	}
	return nil
}

// ForUser returns the household of userID with its members.
func (r *Repository) ForUser(ctx context.Context, userID int64) (*Household, error) {
	var h Household
	err := r.db.QueryRowContext(ctx,
		`SELECT h.id, h.name FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = ?`, userID).Scan(&h.ID, &h.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	if h.Members, err = r.Members(ctx, h.ID); err != nil {
		return nil, err
	}
	return &h, nil
}

// Members lists a household's members by email.
func (r *Repository) Members(ctx context.Context, householdID int64) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, email FROM household_members WHERE household_id = ? ORDER BY email", householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list household members: %w", err)
	}
	defer rows.Close()
	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan household member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateJoinCode issues a code others can use to join householdID.
func (r *Repository) CreateJoinCode(ctx context.Context, householdID int64) (*JoinCode, error) {
	code, err := newCode()
	if err != nil {
		return nil, err
	}
	jc := &JoinCode{Code: code, ExpiresAt: r.now().UTC().Add(r.ttl)}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO household_join_codes (code, household_id, expires_at) VALUES (?, ?, ?)",
		jc.Code, householdID, jc.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store join code: %w", err)
	}
	return jc, nil
}

func newCode() (string, error) {
	var b strings.Builder
	size := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Join moves userID into the household owning code. Codes are matched
// case-insensitively and may be used until they expire.
func (r *Repository) Join(ctx context.Context, userID int64, email, code string) (*Household, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var householdID int64
		var expires time.Time
		err := tx.QueryRowContext(ctx,
			"SELECT household_id, expires_at FROM household_join_codes WHERE code = ?", code).
			Scan(&householdID, &expires)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidJoinCode
		}
		if err != nil {
			return fmt.Errorf("failed to look up join code: %w", err)
		}
		if !expires.After(r.now()) {
			return ErrInvalidJoinCode
		}
		return moveMember(ctx, tx, householdID, userID, email)
	})
	if err != nil {
		return nil, err
	}
	return r.ForUser(ctx, userID)
}

// Leave moves userID into a fresh household of their own.
func (r *Repository) Leave(ctx context.Context, userID int64, email, name string) (*Household, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := createFor(ctx, tx, userID, email, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.ForUser(ctx, userID)
}

// Remove expels memberID from actorID's household. The removed member gets a
// household of their own.
func (r *Repository) Remove(ctx context.Context, actorID, memberID int64) error {
	if actorID == memberID {
		return ErrRemoveSelf
	}
	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var email string
		err := tx.QueryRowContext(ctx,
			`SELECT m.email FROM household_members m
			JOIN household_members a ON a.household_id = m.household_id
			WHERE a.user_id = ? AND m.user_id = ?`, actorID, memberID).Scan(&email)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotMember
		}
		if err != nil {
			return fmt.Errorf("failed to look up member: %w", err)
		}
		var name string
		if err := tx.QueryRowContext(ctx, "SELECT name FROM users WHERE id = ?", memberID).Scan(&name); err != nil {
			return fmt.Errorf("failed to look up member name: %w", err)
		}
		_, err = createFor(ctx, tx, memberID, email, name)
		return err
	})
}

// CleanupExpiredCodes deletes join codes that can no longer be used.
func (r *Repository) CleanupExpiredCodes(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM household_join_codes WHERE expires_at <= ?", r.now().UTC()); err != nil {
		return fmt.Errorf("failed to clean up join codes: %w", err)
	}
	return nil
}
