package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoCredits is returned by Publish when a credits-plan account has no
	// balance left.
	ErrNoCredits = errors.New("no credits remaining")

	// ErrAlreadyPublished is returned by Publish for a listing that is
	// already approved. No credit is consumed.
	ErrAlreadyPublished = errors.New("listing is already published")
)

// UserStoreIface exposes account operations.
type UserStoreIface interface {
	GetOrCreate(ctx context.Context, email string, defaultCredits int) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	AddCredits(ctx context.Context, id string, n int) (*User, error)
	SetPlan(ctx context.Context, id, plan string) (*User, error)
}

// PropertyStoreIface exposes listing operations. No handler queries the DB
// directly; all access goes through this interface.
type PropertyStoreIface interface {
	Create(ctx context.Context, p NewProperty) (*Property, error)
	GetByID(ctx context.Context, id string) (*Property, error)
	List(ctx context.Context, f PropertyFilter) ([]*Property, error)
	Update(ctx context.Context, id string, patch PropertyPatch) (*Property, error)
	SetCaption(ctx context.Context, id string, c CaptionUpdate) (*Property, error)
	MarkGenerationError(ctx context.Context, id, tag, kind string) (*Property, error)
	SetSocialPostID(ctx context.Context, id, postID string) error
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, propertyID, userID string) (*User, error)
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
