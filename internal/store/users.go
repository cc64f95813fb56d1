package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Account plans.
const (
	PlanCredits = "credits"
	PlanPro     = "pro"
)

type User struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	Plan             string    `db:"plan"`
	CreditsRemaining int       `db:"credits_remaining"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Unlimited reports whether publishing is free for this account.
func (u *User) Unlimited() bool {
	return u.Plan == PlanPro
}

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreate returns the account for email, creating it on the credits plan
// with defaultCredits when it does not exist yet.
func (s *UserStore) GetOrCreate(ctx context.Context, email string, defaultCredits int) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, email, plan, credits_remaining, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), uuid.New().String(), email, PlanCredits, defaultCredits, now, now)
	// A concurrent first request may have created the row already.
	if err != nil && !isUniqueConstraintError(err) {
		return nil, err
	}
	return s.GetByEmail(ctx, email)
}

// GetByEmail returns the user matching email, or ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT * FROM users WHERE email = ?`), strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT * FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddCredits adds n to the balance. n may be negative but the balance never
// drops below zero.
func (s *UserStore) AddCredits(ctx context.Context, id string, n int) (*User, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users
		SET credits_remaining = CASE WHEN credits_remaining + ? < 0 THEN 0 ELSE credits_remaining + ? END,
		    updated_at = ?
		WHERE id = ?
	`), n, n, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// SetPlan switches the account between the credits and pro plans.
func (s *UserStore) SetPlan(ctx context.Context, id, plan string) (*User, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`),
		plan, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}
