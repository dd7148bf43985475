package client

import "time"

// User is the public shape of an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Category as returned by /api/categories.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	PostsCount  int       `json:"postsCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryRef is the reduced category embedded in posts.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Comment struct {
	ID        string    `json:"id"`
	User      *User     `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post covers both list items and the detail shape; ContentHTML and
// Comments are only filled by single-post responses.
type Post struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Content       string       `json:"content"`
	ContentHTML   string       `json:"contentHtml,omitempty"`
	Excerpt       string       `json:"excerpt"`
	Category      *CategoryRef `json:"category"`
	Author        *User        `json:"author"`
	Tags          []string     `json:"tags"`
	FeaturedImage string       `json:"featuredImage"`
	IsPublished   bool         `json:"isPublished"`
	ViewCount     int          `json:"viewCount"`
	Comments      []Comment    `json:"comments,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// PostInput is the body for create and update.
type PostInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt,omitempty"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags,omitempty"`
	FeaturedImage string   `json:"featuredImage,omitempty"`
	IsPublished   *bool    `json:"isPublished,omitempty"`
}

// Pagination mirrors the server's paging metadata.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// DefaultPagination is the state before the first fetch.
var DefaultPagination = Pagination{Page: 1, Limit: 10}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ListParams filters FetchPosts. Zero values are omitted from the query.
type ListParams struct {
	Page     int
	Limit    int
	Category string
	Search   string
	Tag      string
}
