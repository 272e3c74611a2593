package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler     authHandler
	blogPostHandler blogPostHandler
	categoryHandler categoryHandler
	userHandler     userHandler
	uploadHandler   uploadHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// BlogPostRequest is the body of create and update calls.
type BlogPostRequest struct {
	Title      string            `json:"title" example:"React basics"`
	Content    string            `json:"content" example:"<p>Hello</p>"`
	Tags       []string          `json:"tags" example:"react,frontend"`
	Categories []string          `json:"categories"`
	Status     models.PostStatus `json:"status,omitempty" example:"draft"`
}

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type BlogPostResponse struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	Tags       []string           `json:"tags"`
	Categories []CategoryResponse `json:"categories"`
	Status     models.PostStatus  `json:"status"`
	UserID     uuid.UUID          `json:"userId"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func newBlogPostResponse(p *models.BlogPost) BlogPostResponse {
	categories := make([]CategoryResponse, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, CategoryResponse{ID: c.ID, Name: c.Name})
	}
	return BlogPostResponse{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		Tags:       p.TagValues(),
		Categories: categories,
		Status:     p.Status,
		UserID:     p.UserID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func newBlogPostResponses(posts []*models.BlogPost) []BlogPostResponse {
	out := make([]BlogPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, newBlogPostResponse(p))
	}
	return out
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type MessageResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message"`
}
