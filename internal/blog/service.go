// Package blog reads and writes the posts collection.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// Collection is the posts collection name.
const Collection = "posts"

var ErrPostNotFound = errors.New("post not found")

// Post is a blog entry.
type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Image   string `json:"image"`
	Created string `json:"created"`
}

// CreateRequest carries a new post.
type CreateRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Service talks to the posts collection.
type Service struct {
	pb     *pocketbase.Client
	logger *slog.Logger
}

func NewService(pb *pocketbase.Client, logger *slog.Logger) *Service {
	return &Service{pb: pb, logger: logger.With("component", "blog")}
}

// List returns posts, newest first.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	result, err := s.pb.List(ctx, "", Collection, pocketbase.Query{Sort: "-created"})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	posts := make([]Post, 0, len(result.Items))
	for _, rec := range result.Items {
		posts = append(posts, fromRecord(rec))
	}
	return posts, nil
}

// FindByID fetches one post.
func (s *Service) FindByID(ctx context.Context, id string) (*Post, error) {
	rec, err := s.pb.Get(ctx, "", Collection, id)
	if err != nil {
		if pocketbase.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post %s: %w", id, err)
	}
	post := fromRecord(rec)
	return &post, nil
}

// Create inserts a post authored by the given user.
func (s *Service) Create(ctx context.Context, token, authorID string, req CreateRequest) (*Post, error) {
	rec, err := s.pb.Create(ctx, token, Collection, map[string]any{
		"title":   req.Title,
		"content": req.Content,
		"author":  authorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	post := fromRecord(rec)
	return &post, nil
}

// ImageURL resolves a post's cover image.
func (s *Service) ImageURL(p *Post) string {
	return s.pb.FileURL(Collection, p.ID, p.Image)
}

func fromRecord(rec pocketbase.Record) Post {
	return Post{
		ID:      rec.ID(),
		Title:   rec.GetString("title"),
		Content: rec.GetString("content"),
		Author:  rec.GetString("author"),
		Image:   rec.GetString("image"),
		Created: rec.GetString("created"),
	}
}
