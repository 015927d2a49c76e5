// Package services – PostService
//
// PostService manages blog posts. Public reads only ever see published posts;
// the admin API sees every status. Slugs are lowercase ASCII and unique; when
// the admin leaves the slug empty it is derived from the title.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/utils"
)

const postTracer = "services/PostService"

// PostInput carries the editable fields of a post. On update, nil pointers
// keep the stored value.
type PostInput struct {
	Title       *string
	Slug        *string
	Content     *string
	BannerImage *string
	Status      *string
	Author      *string
}

// PostService provides blog operations.
type PostService struct {
	DB *gorm.DB

	// DefaultPageSize applies when a caller passes pageSize <= 0.
	DefaultPageSize int
	// MaxPageSize caps pageSize.
	MaxPageSize int
}

// NewPostService constructs a PostService with default paging.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{DB: db, DefaultPageSize: 10, MaxPageSize: 100}
}

// ListPublished returns a page of published posts, newest update first.
func (s *PostService) ListPublished(ctx context.Context, page, pageSize int) ([]domain.BlogPost, int64, error) {
	return s.list(ctx, domain.PostPublished, page, pageSize)
}

// ListAll returns a page of posts of every status for the admin.
func (s *PostService) ListAll(ctx context.Context, page, pageSize int) ([]domain.BlogPost, int64, error) {
	return s.list(ctx, "", page, pageSize)
}

func (s *PostService) list(ctx context.Context, status string, page, pageSize int) ([]domain.BlogPost, int64, error) {
	ctx, span := otel.Tracer(postTracer).Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("status", status),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	page, pageSize = s.clampPage(page, pageSize)
	total, err := repo.CountPosts(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.BlogPost{}, 0, nil
	}
	items, err := repo.ListPostsPage(ctx, s.DB, status, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// GetPublishedBySlug returns a published post; drafts are reported as missing.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	ctx, span := otel.Tracer(postTracer).Start(ctx, "GetPublishedBySlug",
		trace.WithAttributes(attribute.String("slug", slug)))
	defer span.End()

	p, err := repo.GetPostBySlug(ctx, s.DB, strings.ToLower(strings.TrimSpace(slug)), domain.PostPublished)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return p, nil
}

// Get returns any post by ID.
func (s *PostService) Get(ctx context.Context, id string) (*domain.BlogPost, error) {
	p, err := repo.GetPost(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return p, nil
}

// Create stores a new post. Title and content are required; status defaults
// to draft.
func (s *PostService) Create(ctx context.Context, in PostInput) (*domain.BlogPost, error) {
	ctx, span := otel.Tracer(postTracer).Start(ctx, "Create")
	defer span.End()

	p := &domain.BlogPost{Status: domain.PostDraft}
	if err := applyPostInput(p, in); err != nil {
		return nil, err
	}
	if err := repo.CreatePost(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("post.id", p.ID))
	return p, nil
}

// Update applies a partial update to a post.
func (s *PostService) Update(ctx context.Context, id string, in PostInput) (*domain.BlogPost, error) {
	ctx, span := otel.Tracer(postTracer).Start(ctx, "Update",
		trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	p, err := repo.GetPost(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	if err := applyPostInput(p, in); err != nil {
		return nil, err
	}
	if err := repo.SavePost(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer(postTracer).Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()
	return notFound(repo.DeletePost(ctx, s.DB, id), ErrPostNotFound)
}

func (s *PostService) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
		if pageSize <= 0 {
			pageSize = 10
		}
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	return page, pageSize
}

// applyPostInput merges in into p and validates the result.
func applyPostInput(p *domain.BlogPost, in PostInput) error {
	if in.Title != nil {
		p.Title = normalizeText(*in.Title)
	}
	if in.Content != nil {
		p.Content = strings.TrimSpace(*in.Content)
	}
	if in.BannerImage != nil {
		p.BannerImage = strings.TrimSpace(*in.BannerImage)
	}
	if in.Author != nil {
		p.Author = normalizeText(*in.Author)
	}
	if in.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*in.Status))
		if st == "" {
			st = domain.PostDraft
		}
		if st != domain.PostDraft && st != domain.PostPublished {
			return ErrInvalidPostStat
		}
		p.Status = st
	}
	if p.Title == "" || p.Content == "" {
		return ErrPostInvalid
	}

	if in.Slug != nil {
		p.Slug = utils.Slugify(*in.Slug)
	}
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Title)
	}
	if p.Slug == "" {
		return ErrPostInvalid
	}
	return nil
}
