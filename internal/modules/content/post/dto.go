package post

import (
	"strings"
	"time"

	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/markdown"
)

// CreatePostDTO is the request body for creating a post.
type CreatePostDTO struct {
	Title         string   `json:"title"         validate:"required,notblank,max=100"`
	Content       string   `json:"content"       validate:"required"`
	Excerpt       string   `json:"excerpt"       validate:"max=200"`
	Category      string   `json:"category"      validate:"required,notblank"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featuredImage"`
	IsPublished   *bool    `json:"isPublished"`
}

func (d *CreatePostDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Excerpt = strings.TrimSpace(d.Excerpt)
	d.Category = strings.TrimSpace(d.Category)
	d.FeaturedImage = strings.TrimSpace(d.FeaturedImage)
	d.Tags = normalizeTags(d.Tags)
}

// UpdatePostDTO replaces title, content and category; the remaining fields
// change only when present.
type UpdatePostDTO struct {
	Title         string   `json:"title"         validate:"required,notblank,max=100"`
	Content       string   `json:"content"       validate:"required"`
	Excerpt       *string  `json:"excerpt"       validate:"omitempty,max=200"`
	Category      string   `json:"category"      validate:"required,notblank"`
	Tags          []string `json:"tags"`
	FeaturedImage *string  `json:"featuredImage"`
	IsPublished   *bool    `json:"isPublished"`
}

func (d *UpdatePostDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	if d.Excerpt != nil {
		v := strings.TrimSpace(*d.Excerpt)
		d.Excerpt = &v
	}
	if d.FeaturedImage != nil {
		v := strings.TrimSpace(*d.FeaturedImage)
		d.FeaturedImage = &v
	}
	if d.Tags != nil {
		d.Tags = normalizeTags(d.Tags)
	}
}

// CommentDTO is the request body for adding a comment.
type CommentDTO struct {
	Content string `json:"content"`
}

// ListQuery holds query params for listing posts.
type ListQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Tag      string `form:"tag"`
	Sort     string `form:"sort"`
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type categoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type userRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio,omitempty"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	User      *userRef  `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// postResponse is the API response shape for a post in lists.
type postResponse struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Content       string       `json:"content"`
	Excerpt       string       `json:"excerpt"`
	Category      *categoryRef `json:"category"`
	Author        *userRef     `json:"author"`
	Tags          []string     `json:"tags"`
	FeaturedImage string       `json:"featuredImage"`
	IsPublished   bool         `json:"isPublished"`
	ViewCount     int          `json:"viewCount"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// postDetail is a single post with rendered content and its comments.
type postDetail struct {
	postResponse
	ContentHTML string            `json:"contentHtml"`
	Comments    []commentResponse `json:"comments"`
}

func toResponse(p *models.PostModel) postResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	excerpt := p.Excerpt
	if excerpt == "" {
		excerpt = markdown.Excerpt(p.Content)
	}
	resp := postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Content:       p.Content,
		Excerpt:       excerpt,
		Tags:          tags,
		FeaturedImage: p.FeaturedImage,
		IsPublished:   p.IsPublished,
		ViewCount:     p.ViewCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		resp.Category = &categoryRef{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	} else if p.CategoryID != "" {
		resp.Category = &categoryRef{ID: p.CategoryID}
	}
	if p.Author != nil {
		resp.Author = toUserRef(p.Author, true)
	} else if p.AuthorID != "" {
		resp.Author = &userRef{ID: p.AuthorID}
	}
	return resp
}

func toResponses(posts []models.PostModel) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for i := range posts {
		out = append(out, toResponse(&posts[i]))
	}
	return out
}

func toDetail(p *models.PostModel, html string) postDetail {
	comments := make([]commentResponse, 0, len(p.Comments))
	for _, cm := range p.Comments {
		item := commentResponse{ID: cm.ID, Content: cm.Content, CreatedAt: cm.CreatedAt}
		if cm.User != nil {
			item.User = toUserRef(cm.User, false)
		} else {
			item.User = &userRef{ID: cm.UserID}
		}
		comments = append(comments, item)
	}
	return postDetail{postResponse: toResponse(p), ContentHTML: html, Comments: comments}
}

func toUserRef(u *models.UserModel, full bool) *userRef {
	ref := &userRef{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	if full {
		ref.Email = u.Email
		ref.Bio = u.Bio
	}
	return ref
}
