package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/db8labs/db8-agent/internal/store"
	"github.com/db8labs/db8-agent/internal/testutil"
)

type fixture struct {
	db    *sqlx.DB
	users *store.UserStore
	props *store.PropertyStore
	owner *store.User
}

func newFixture(t *testing.T, credits int) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{db: db, users: store.NewUserStore(db), props: store.NewPropertyStore(db)}
	owner, err := f.users.GetOrCreate(context.Background(), "owner@example.com", credits)
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	f.owner = owner
	return f
}

func (f *fixture) listing(t *testing.T, title string) *store.Property {
	t.Helper()
	p, err := f.props.Create(context.Background(), store.NewProperty{
		OwnerID:          f.owner.ID,
		Title:            title,
		Description:      "Apartamento com vista",
		Images:           []string{"https://img.example.com/1.jpg"},
		PropertyType:     "apartamento",
		PropertyStandard: "luxo",
		City:             "São Paulo",
		Neighborhood:     "Jardins",
		InvestmentValue:  "R$ 2.500.000",
		BuiltAreaM2:      180,
		CaptionFinal:     "Apartamento com vista",
		TemplateTag:      "APARTMENT_LUXURY",
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return p
}

func TestPropertyCreateAndGet(t *testing.T) {
	f := newFixture(t, 1)
	p := f.listing(t, "Cobertura")

	if p.Status != store.StatusPending {
		t.Errorf("status = %q, want pending", p.Status)
	}
	if p.CaptionAI != nil {
		t.Errorf("caption_ai = %v, want nil", *p.CaptionAI)
	}
	if len(p.Images) != 1 || p.Images[0] != "https://img.example.com/1.jpg" {
		t.Errorf("images = %v", p.Images)
	}
	if p.BuiltAreaM2 != 180 {
		t.Errorf("area = %v", p.BuiltAreaM2)
	}
	if p.PublishedAt != nil {
		t.Errorf("published_at = %v, want nil", p.PublishedAt)
	}

	got, err := f.props.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.City != "São Paulo" || got.Neighborhood != "Jardins" {
		t.Errorf("got %+v", got)
	}

	if _, err := f.props.GetByID(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPropertyCreate_InvalidStatus(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.props.Create(context.Background(), store.NewProperty{OwnerID: f.owner.ID, Status: "live"})
	if !errors.Is(err, store.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPropertyList_Filters(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	a := f.listing(t, "A")
	f.listing(t, "B")
	if _, err := f.props.MarkGenerationError(ctx, a.ID, "GENERIC", "provider_error"); err != nil {
		t.Fatalf("MarkGenerationError: %v", err)
	}

	all, err := f.props.List(ctx, store.PropertyFilter{OwnerID: f.owner.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	failed, err := f.props.List(ctx, store.PropertyFilter{Status: store.StatusError})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != a.ID {
		t.Errorf("failed = %v", failed)
	}

	none, err := f.props.List(ctx, store.PropertyFilter{OwnerID: "someone-else"})
	if err != nil {
		t.Fatalf("List other owner: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestPropertyUpdate_Patch(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.listing(t, "Original")

	title := "Novo título"
	images := []string{"a.jpg", "b.jpg"}
	rejected := store.StatusRejected
	got, err := f.props.Update(ctx, p.ID, store.PropertyPatch{Title: &title, Images: &images, Status: &rejected})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != title || len(got.Images) != 2 || got.Status != store.StatusRejected {
		t.Errorf("got %+v", got)
	}
	if got.City != "São Paulo" {
		t.Errorf("untouched field changed: city = %q", got.City)
	}

	approved := store.StatusApproved
	if _, err := f.props.Update(ctx, p.ID, store.PropertyPatch{Status: &approved}); !errors.Is(err, store.ErrApproveViaPublish) {
		t.Errorf("expected ErrApproveViaPublish, got %v", err)
	}
	bogus := "live"
	if _, err := f.props.Update(ctx, p.ID, store.PropertyPatch{Status: &bogus}); !errors.Is(err, store.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.props.Update(ctx, "missing", store.PropertyPatch{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCaptionAndMarkError(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.listing(t, "A")

	got, err := f.props.SetCaption(ctx, p.ID, store.CaptionUpdate{
		CaptionAI:    `{"title":"T"}`,
		CaptionFinal: "legenda\n\n#a",
		TemplateTag:  "APARTMENT_LUXURY",
	})
	if err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if got.CaptionAI == nil || *got.CaptionAI != `{"title":"T"}` {
		t.Errorf("caption_ai = %v", got.CaptionAI)
	}

	got, err = f.props.MarkGenerationError(ctx, p.ID, "APARTMENT_LUXURY", "provider_timeout")
	if err != nil {
		t.Fatalf("MarkGenerationError: %v", err)
	}
	if got.Status != store.StatusError || got.GenerationError != "provider_timeout" {
		t.Errorf("got status=%q error=%q", got.Status, got.GenerationError)
	}
	if got.CaptionFinal != "legenda\n\n#a" {
		t.Errorf("previous caption lost: %q", got.CaptionFinal)
	}

	got, err = f.props.SetCaption(ctx, p.ID, store.CaptionUpdate{CaptionAI: "{}", CaptionFinal: "nova", TemplateTag: "GENERIC"})
	if err != nil {
		t.Fatalf("SetCaption again: %v", err)
	}
	if got.Status != store.StatusPending || got.GenerationError != "" {
		t.Errorf("got status=%q error=%q, want pending and cleared", got.Status, got.GenerationError)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.listing(t, "A")

	if err := f.props.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.props.Delete(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPublish_DebitsOneCredit(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	p := f.listing(t, "A")

	u, err := f.props.Publish(ctx, p.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if u.CreditsRemaining != 1 {
		t.Errorf("credits = %d, want 1", u.CreditsRemaining)
	}

	got, _ := f.props.GetByID(ctx, p.ID)
	if got.Status != store.StatusApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.PublishedAt == nil {
		t.Error("published_at not set")
	}
}

func TestPublish_AlreadyPublished(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	p := f.listing(t, "A")

	if _, err := f.props.Publish(ctx, p.ID, f.owner.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := f.props.Publish(ctx, p.ID, f.owner.ID); !errors.Is(err, store.ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
	u, _ := f.users.GetByID(ctx, f.owner.ID)
	if u.CreditsRemaining != 4 {
		t.Errorf("credits = %d, want 4 (second publish must not debit)", u.CreditsRemaining)
	}
}

func TestPublish_NoCredits(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.listing(t, "A")

	if _, err := f.props.Publish(ctx, p.ID, f.owner.ID); !errors.Is(err, store.ErrNoCredits) {
		t.Fatalf("expected ErrNoCredits, got %v", err)
	}
	got, _ := f.props.GetByID(ctx, p.ID)
	if got.Status != store.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestPublish_ProPlanNeverDebits(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	if _, err := f.users.SetPlan(ctx, f.owner.ID, store.PlanPro); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}

	for i := 0; i < 3; i++ {
		p := f.listing(t, fmt.Sprintf("L%d", i))
		u, err := f.props.Publish(ctx, p.ID, f.owner.ID)
		if err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
		if u.CreditsRemaining != 0 {
			t.Errorf("credits = %d, want 0", u.CreditsRemaining)
		}
	}
}

func TestPublish_WrongOwner(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	p := f.listing(t, "A")
	other, _ := f.users.GetOrCreate(ctx, "other@example.com", 1)

	if _, err := f.props.Publish(ctx, p.ID, other.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPublish_ConcurrentNeverOverspends(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.db.SetMaxOpenConns(1)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.listing(t, fmt.Sprintf("L%d", i)).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		noCredits int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.props.Publish(ctx, id, f.owner.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrNoCredits):
				noCredits++
			default:
				t.Errorf("Publish: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if successes != 1 || noCredits != n-1 {
		t.Errorf("successes=%d noCredits=%d, want 1 and %d", successes, noCredits, n-1)
	}
	u, _ := f.users.GetByID(ctx, f.owner.ID)
	if u.CreditsRemaining != 0 {
		t.Errorf("credits = %d, want 0", u.CreditsRemaining)
	}
}
