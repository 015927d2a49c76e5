// Blog HTTP handlers.
//
// Public:
//   - GET /posts               (published posts, paginated, ETag support)
//   - GET /posts/slug/{slug}   (one published post)
//
// Admin:
//   - GET    /admin/posts        (every status, paginated)
//   - POST   /admin/posts
//   - GET    /admin/posts/{id}
//   - PUT    /admin/posts/{id}
//   - DELETE /admin/posts/{id}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
)

// PostRequest is the JSON payload for creating or updating a post. On
// update, omitted fields keep their stored value. An empty slug is derived
// from the title.
type PostRequest struct {
	Title       *string `json:"title,omitempty"       example:"Almanya'da Yüksek Lisans Rehberi"`
	Slug        *string `json:"slug,omitempty"        example:"almanyada-yuksek-lisans-rehberi"`
	Content     *string `json:"content,omitempty"`
	BannerImage *string `json:"bannerImage,omitempty" example:"https://cdn.example.com/banner.jpg"`
	Status      *string `json:"status,omitempty"      example:"published"`
	Author      *string `json:"author,omitempty"      example:"Danışmanım Ekibi"`
}

func (r PostRequest) input() services.PostInput {
	return services.PostInput{
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		BannerImage: r.BannerImage,
		Status:      r.Status,
		Author:      r.Author,
	}
}

// PostResponse wraps a single post.
type PostResponse struct {
	Post *domain.BlogPost `json:"post"`
}

// ListPostsResponse wraps a page of posts and pagination information.
type ListPostsResponse struct {
	Posts      []domain.BlogPost `json:"posts"`
	Pagination Pagination        `json:"pagination"`
}

// ListPublishedPosts godoc
// @ID          listPublishedPosts
// @Summary     List published posts
// @Description Newest update first. Supports weak ETag via If-None-Match.
// @Tags        Blog
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize       query   int     false  "Items per page"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.ListPostsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [get]
func (h *Handlers) ListPublishedPosts(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	if h.db != nil {
		if count, maxTS, err := repo.PostsStats(ctx, h.db, domain.PostPublished); err == nil {
			prefix := "posts:" + c.Query("page") + ":" + c.Query("pageSize")
			if notModified(c, prefix, count, maxTS) {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.postSvc.ListPublished(ctx, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	h.writePosts(c, items, page, pageSize, total)
}

// GetPostBySlug godoc
// @ID          getPostBySlug
// @Summary     Get a published post
// @Tags        Blog
// @Produce     json
// @Param       slug  path      string  true  "Post slug"
// @Success     200   {object}  handlers.PostResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Post not found or not published"
// @Router      /posts/slug/{slug} [get]
func (h *Handlers) GetPostBySlug(c *gin.Context) {
	p, err := h.postSvc.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: p})
}

// ListAllPosts godoc
// @ID          listAllPosts
// @Summary     List posts of every status
// @Tags        Blog admin
// @Produce     json
// @Security    BearerAuth
// @Param       page      query  int  false  "Page number"     minimum(1) default(1)
// @Param       pageSize  query  int  false  "Items per page"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.ListPostsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Admin session required"
// @Router      /admin/posts [get]
func (h *Handlers) ListAllPosts(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.postSvc.ListAll(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	h.writePosts(c, items, page, pageSize, total)
}

// GetPost godoc
// @ID          getPost
// @Summary     Get a post by id
// @Tags        Blog admin
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Post ID (UUID)"
// @Success     200  {object}  handlers.PostResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /admin/posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.postSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: p})
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Title and content are required. The slug defaults to a transliteration of the title.
// @Tags        Blog admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.PostRequest  true  "Post"
// @Success     201   {object}  handlers.PostResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing title or content"
// @Failure     409   {object}  handlers.ErrorResponse  "Slug already in use"
// @Router      /admin/posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.postSvc.Create(c.Request.Context(), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, PostResponse{Post: p})
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Update a post
// @Tags        Blog admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string  true  "Post ID (UUID)"
// @Param       body  body      handlers.PostRequest  true  "Fields to change"
// @Success     200   {object}  handlers.PostResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid fields"
// @Failure     404   {object}  handlers.ErrorResponse  "Post not found"
// @Failure     409   {object}  handlers.ErrorResponse  "Slug already in use"
// @Router      /admin/posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.postSvc.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: p})
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Tags        Blog admin
// @Security    BearerAuth
// @Param       id   path  string  true  "Post ID (UUID)"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /admin/posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	if err := h.postSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

func (h *Handlers) writePosts(c *gin.Context, items []domain.BlogPost, page, pageSize int, total int64) {
	if items == nil {
		items = []domain.BlogPost{}
	}
	ok(c, http.StatusOK, ListPostsResponse{Posts: items, Pagination: newPagination(page, pageSize, total)})
}
