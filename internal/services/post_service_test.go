package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

func strp(s string) *string { return &s }

func newPostSvc(t *testing.T) *PostService {
	t.Helper()
	return NewPostService(newSvcDB(t, &domain.BlogPost{}))
}

func TestPost_Create_DerivesSlugAndDefaultsDraft(t *testing.T) {
	s := newPostSvc(t)
	p, err := s.Create(context.Background(), PostInput{
		Title:   strp("  Almanya'da   Öğrenci Vizesi "),
		Content: strp("içerik"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Slug != "almanyada-ogrenci-vizesi" || p.Status != domain.PostDraft || p.Title != "Almanya'da Öğrenci Vizesi" {
		t.Fatalf("unexpected post %+v", p)
	}
}

func TestPost_Create_Validation(t *testing.T) {
	s := newPostSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, PostInput{Title: strp("x")}); !errors.Is(err, ErrPostInvalid) {
		t.Fatalf("want ErrPostInvalid, got %v", err)
	}
	if _, err := s.Create(ctx, PostInput{Title: strp("x"), Content: strp("y"), Status: strp("archived")}); !errors.Is(err, ErrInvalidPostStat) {
		t.Fatalf("want ErrInvalidPostStat, got %v", err)
	}
	if _, err := s.Create(ctx, PostInput{Title: strp("???"), Content: strp("y")}); !errors.Is(err, ErrPostInvalid) {
		t.Fatalf("a title without slug characters needs an explicit slug, got %v", err)
	}
}

func TestPost_Create_DuplicateSlug(t *testing.T) {
	s := newPostSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, PostInput{Title: strp("A"), Slug: strp("same"), Content: strp("c")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, PostInput{Title: strp("B"), Slug: strp("SAME"), Content: strp("c")}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("want ErrSlugTaken, got %v", err)
	}
}

func TestPost_PublicReadsOnlyPublished(t *testing.T) {
	s := newPostSvc(t)
	ctx := context.Background()
	draft, _ := s.Create(ctx, PostInput{Title: strp("Draft"), Content: strp("c")})
	time.Sleep(2 * time.Millisecond)
	pub, _ := s.Create(ctx, PostInput{Title: strp("Pub"), Content: strp("c"), Status: strp("published")})

	items, total, err := s.ListPublished(ctx, 1, 10)
	if err != nil || total != 1 || len(items) != 1 || items[0].ID != pub.ID {
		t.Fatalf("expected only the published post, got %+v total=%d err=%v", items, total, err)
	}
	if _, err := s.GetPublishedBySlug(ctx, draft.Slug); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("drafts must be hidden, got %v", err)
	}
	if got, err := s.GetPublishedBySlug(ctx, " PUB "); err != nil || got.ID != pub.ID {
		t.Fatalf("slug lookup failed: %v", err)
	}

	all, total, err := s.ListAll(ctx, 0, 0)
	if err != nil || total != 2 || len(all) != 2 || all[0].ID != pub.ID {
		t.Fatalf("admin list should show both, newest first: %+v total=%d", all, total)
	}
}

func TestPost_Paging(t *testing.T) {
	s := newPostSvc(t)
	s.MaxPageSize = 2
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		if _, err := s.Create(ctx, PostInput{Title: strp(title), Content: strp("c"), Status: strp("published")}); err != nil {
			t.Fatal(err)
		}
	}
	items, total, err := s.ListPublished(ctx, 2, 50)
	if err != nil || total != 3 || len(items) != 1 {
		t.Fatalf("page 2 with capped size 2 should hold 1 item, got %d total=%d err=%v", len(items), total, err)
	}

	empty := newPostSvc(t)
	items, total, err = empty.ListPublished(ctx, 1, 10)
	if err != nil || total != 0 || items == nil {
		t.Fatalf("empty list should be non-nil, got %v total=%d err=%v", items, total, err)
	}
}

func TestPost_UpdateAndDelete(t *testing.T) {
	s := newPostSvc(t)
	ctx := context.Background()
	p, _ := s.Create(ctx, PostInput{Title: strp("Old"), Content: strp("c")})

	got, err := s.Update(ctx, p.ID, PostInput{Status: strp("published"), Slug: strp("Yeni Başlık")})
	if err != nil || got.Status != domain.PostPublished || got.Slug != "yeni-baslik" || got.Title != "Old" {
		t.Fatalf("partial update failed: %+v err=%v", got, err)
	}
	if _, err := s.Update(ctx, p.ID, PostInput{Content: strp("  ")}); !errors.Is(err, ErrPostInvalid) {
		t.Fatalf("blank content should be rejected, got %v", err)
	}
	if _, err := s.Update(ctx, "missing", PostInput{}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("want ErrPostNotFound, got %v", err)
	}

	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, p.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("want ErrPostNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("want ErrPostNotFound, got %v", err)
	}
}
