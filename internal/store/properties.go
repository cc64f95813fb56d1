package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Listing statuses.
const (
	StatusPending  = "pending"
	StatusError    = "error"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// StringList is a []string persisted as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("StringList: unsupported source type %T", src)
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(b, (*[]string)(l))
}

// Property represents a row in the properties table.
type Property struct {
	ID               string     `db:"id"`
	OwnerID          string     `db:"owner_id"`
	Title            string     `db:"title"`
	Description      string     `db:"description"`
	Images           StringList `db:"images"`
	PropertyType     string     `db:"property_type"`
	PropertyStandard string     `db:"property_standard"`
	City             string     `db:"city"`
	Neighborhood     string     `db:"neighborhood"`
	InvestmentValue  string     `db:"investment_value"`
	BuiltAreaM2      float64    `db:"built_area_m2"`
	Highlights       string     `db:"highlights"`
	CaptionAI        *string    `db:"caption_ai"` // generated caption JSON
	CaptionFinal     string     `db:"caption_final"`
	TemplateTag      string     `db:"template_tag"`
	Status           string     `db:"status"`
	GenerationError  string     `db:"generation_error"`
	SocialPostID     string     `db:"social_post_id"`
	PublishedAt      *time.Time `db:"published_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// NewProperty holds the columns written on insert.
type NewProperty struct {
	OwnerID          string
	Title            string
	Description      string
	Images           []string
	PropertyType     string
	PropertyStandard string
	City             string
	Neighborhood     string
	InvestmentValue  string
	BuiltAreaM2      float64
	Highlights       string
	CaptionAI        *string
	CaptionFinal     string
	TemplateTag      string
	Status           string
	GenerationError  string
}

// PropertyPatch carries a partial update. Nil fields are left untouched.
type PropertyPatch struct {
	Title            *string
	Description      *string
	Images           *[]string
	PropertyType     *string
	PropertyStandard *string
	City             *string
	Neighborhood     *string
	InvestmentValue  *string
	BuiltAreaM2      *float64
	Highlights       *string
	CaptionFinal     *string
	Status           *string
}

// Empty reports whether the patch changes nothing.
func (p PropertyPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Images == nil &&
		p.PropertyType == nil && p.PropertyStandard == nil && p.City == nil &&
		p.Neighborhood == nil && p.InvestmentValue == nil && p.BuiltAreaM2 == nil &&
		p.Highlights == nil && p.CaptionFinal == nil && p.Status == nil
}

// CaptionUpdate is written after a successful generation.
type CaptionUpdate struct {
	CaptionAI    string
	CaptionFinal string
	TemplateTag  string
}

// PropertyFilter narrows List. Empty fields match everything.
type PropertyFilter struct {
	OwnerID string
	Status  string
}

// PropertyStore is the sqlx-backed implementation of PropertyStoreIface.
type PropertyStore struct {
	db *sqlx.DB
}

func NewPropertyStore(db *sqlx.DB) *PropertyStore {
	return &PropertyStore{db: db}
}

func (s *PropertyStore) q(query string) string {
	return s.db.Rebind(query)
}

// Create inserts a listing. Status defaults to pending.
func (s *PropertyStore) Create(ctx context.Context, p NewProperty) (*Property, error) {
	if p.Status == "" {
		p.Status = StatusPending
	}
	if err := ValidateStatus(p.Status); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO properties (
			id, owner_id, title, description, images,
			property_type, property_standard, city, neighborhood, investment_value,
			built_area_m2, highlights, caption_ai, caption_final, template_tag,
			status, generation_error, social_post_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?)
	`), id, p.OwnerID, p.Title, p.Description, StringList(p.Images),
		p.PropertyType, p.PropertyStandard, p.City, p.Neighborhood, p.InvestmentValue,
		p.BuiltAreaM2, p.Highlights, p.CaptionAI, p.CaptionFinal, p.TemplateTag,
		p.Status, p.GenerationError, now, now)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the listing matching id, or ErrNotFound.
func (s *PropertyStore) GetByID(ctx context.Context, id string) (*Property, error) {
	var p Property
	err := s.db.GetContext(ctx, &p, s.q(`SELECT * FROM properties WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns listings newest first.
func (s *PropertyStore) List(ctx context.Context, f PropertyFilter) ([]*Property, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	query := `SELECT * FROM properties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id ASC`

	props := []*Property{}
	if err := s.db.SelectContext(ctx, &props, s.q(query), args...); err != nil {
		return nil, err
	}
	return props, nil
}

// Update applies the non-nil fields of patch. Approval only happens through
// Publish, so a patch setting status approved is rejected.
func (s *PropertyStore) Update(ctx context.Context, id string, patch PropertyPatch) (*Property, error) {
	if patch.Status != nil {
		if err := ValidateStatus(*patch.Status); err != nil {
			return nil, err
		}
		if *patch.Status == StatusApproved {
			return nil, ErrApproveViaPublish
		}
	}
	if patch.Empty() {
		return s.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Images != nil {
		set("images", StringList(*patch.Images))
	}
	if patch.PropertyType != nil {
		set("property_type", *patch.PropertyType)
	}
	if patch.PropertyStandard != nil {
		set("property_standard", *patch.PropertyStandard)
	}
	if patch.City != nil {
		set("city", *patch.City)
	}
	if patch.Neighborhood != nil {
		set("neighborhood", *patch.Neighborhood)
	}
	if patch.InvestmentValue != nil {
		set("investment_value", *patch.InvestmentValue)
	}
	if patch.BuiltAreaM2 != nil {
		set("built_area_m2", *patch.BuiltAreaM2)
	}
	if patch.Highlights != nil {
		set("highlights", *patch.Highlights)
	}
	if patch.CaptionFinal != nil {
		set("caption_final", *patch.CaptionFinal)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	set("updated_at", time.Now().UTC())
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, s.q(`UPDATE properties SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// SetCaption stores a fresh generation and clears any previous error. The
// listing goes back to pending unless it is already approved.
func (s *PropertyStore) SetCaption(ctx context.Context, id string, c CaptionUpdate) (*Property, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE properties
		SET caption_ai = ?, caption_final = ?, template_tag = ?, generation_error = '',
		    status = CASE WHEN status = ? THEN status ELSE ? END,
		    updated_at = ?
		WHERE id = ?
	`), c.CaptionAI, c.CaptionFinal, c.TemplateTag, StatusApproved, StatusPending, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// MarkGenerationError records a failed generation. The previous caption, if
// any, is kept. Approved listings keep their status.
func (s *PropertyStore) MarkGenerationError(ctx context.Context, id, tag, kind string) (*Property, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE properties
		SET generation_error = ?, template_tag = ?,
		    status = CASE WHEN status = ? THEN status ELSE ? END,
		    updated_at = ?
		WHERE id = ?
	`), kind, tag, StatusApproved, StatusError, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *PropertyStore) SetSocialPostID(ctx context.Context, id, postID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE properties SET social_post_id = ?, updated_at = ? WHERE id = ?`),
		postID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PropertyStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM properties WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Publish approves a listing owned by userID and charges one credit, in a
// single transaction. The debit is a conditional decrement so concurrent
// publishes can never take the balance below zero. Pro accounts are not
// charged. Returns the account after the debit.
func (s *PropertyStore) Publish(ctx context.Context, propertyID, userID string) (*User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.GetContext(ctx, &status, tx.Rebind(`SELECT status FROM properties WHERE id = ? AND owner_id = ?`), propertyID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == StatusApproved {
		return nil, ErrAlreadyPublished
	}

	var plan string
	err = tx.GetContext(ctx, &plan, tx.Rebind(`SELECT plan FROM users WHERE id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if plan != PlanPro {
		n, err := debitCredit(ctx, tx, userID, now)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNoCredits
		}
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE properties SET status = ?, published_at = ?, updated_at = ?
		WHERE id = ? AND status <> ?
	`), StatusApproved, now, now, propertyID, StatusApproved)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrAlreadyPublished
	}

	var u User
	if err := tx.GetContext(ctx, &u, tx.Rebind(`SELECT * FROM users WHERE id = ?`), userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

// debitCredit takes one credit from userID in a single conditional UPDATE and
// returns the number of rows changed: 0 when the balance is already zero.
func debitCredit(ctx context.Context, ext sqlx.ExtContext, userID string, now time.Time) (int64, error) {
	res, err := ext.ExecContext(ctx, ext.Rebind(`
		UPDATE users SET credits_remaining = credits_remaining - 1, updated_at = ?
		WHERE id = ? AND credits_remaining > 0
	`), now, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
