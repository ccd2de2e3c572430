package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huertohogar/storefront/internal/blog"
	"github.com/huertohogar/storefront/internal/contact"
	"github.com/huertohogar/storefront/internal/review"
	"github.com/huertohogar/storefront/pkg/web"
)

// postResponse adds the resolved cover image URL to the canonical post.
type postResponse struct {
	blog.Post
	ImageURL string `json:"imageUrl,omitempty"`
}

// ListPosts returns blog posts, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	posts, err := h.blog.List(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing posts", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	items := make([]postResponse, 0, len(posts))
	for idx := range posts {
		items = append(items, h.renderPost(&posts[idx]))
	}
	web.RespondJSON(w, mLogger, http.StatusOK, items)
}

// GetPost returns one blog post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	post, err := h.blog.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Post not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error fetching post", "post_id", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch post")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.renderPost(post))
}

// CreatePost publishes a blog post. Admin only.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, user, ok := h.requireUser(w, r, mLogger)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		web.RespondError(w, mLogger, http.StatusForbidden, "Admin access required")
		return
	}
	var req blog.CreateRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	post, err := h.blog.Create(r.Context(), sess.Token(), user.ID, req)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating post", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create post")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, h.renderPost(post))
}

// ListReviews returns a product's reviews.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID := chi.URLParam(r, "id")

	reviews, err := h.reviews.ListByProduct(r.Context(), productID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing reviews", "product_id", productID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, reviews)
}

// CreateReview adds a review to a product. Requires login.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, user, ok := h.requireUser(w, r, mLogger)
	if !ok {
		return
	}
	var req review.CreateRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	created, err := h.reviews.Create(r.Context(), sess.Token(), chi.URLParam(r, "id"), user.ID, req)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating review", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create review")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// CreateContact stores a contact-form submission.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req contact.CreateRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	msg, err := h.contacts.Create(r.Context(), req)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating contact message", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to submit message")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, msg)
}

// AdminSummary returns the dashboard aggregate. Admin only.
func (h *Handler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, user, ok := h.requireUser(w, r, mLogger)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		web.RespondError(w, mLogger, http.StatusForbidden, "Admin access required")
		return
	}

	summary, err := h.admin.Summarize(r.Context(), sess.Token())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error computing admin summary", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to compute summary")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, summary)
}

func (h *Handler) renderPost(p *blog.Post) postResponse {
	resp := postResponse{Post: *p}
	if p.Image != "" {
		resp.ImageURL = h.blog.ImageURL(p)
	}
	return resp
}
