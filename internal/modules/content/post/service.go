package post

import (
	"context"
	"errors"
	"strings"

	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/modules/content/category"
	"github.com/quillpost/core/internal/pkg/apperr"
	"github.com/quillpost/core/internal/pkg/authz"
	"github.com/quillpost/core/internal/pkg/markdown"
	"github.com/quillpost/core/internal/pkg/pagination"
	"github.com/quillpost/core/internal/pkg/response"
	"github.com/quillpost/core/internal/pkg/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SearchLimit caps the number of posts returned by Search.
const SearchLimit = 20

var (
	ErrNotFound             = apperr.NotFound("Post not found")
	ErrForbiddenUpdate      = apperr.Forbidden("Not authorized to update this post")
	ErrForbiddenDelete      = apperr.Forbidden("Not authorized to delete this post")
	ErrCommentRequired      = apperr.Invalid("Comment content is required")
	ErrSearchQueryRequired  = apperr.Invalid("Search query is required")
	errAuthenticationNeeded = apperr.Unauthorized("No token, authorization denied")
)

// Action names a mutation checked by Authorize.
type Action int

const (
	ActionUpdate Action = iota
	ActionDelete
)

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger}
}

// List returns one page of published posts.
func (s *Service) List(ctx context.Context, q pagination.Query, lq ListQuery) ([]models.PostModel, response.Pagination, error) {
	order, err := parseSort(lq.Sort)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	db := s.db.WithContext(ctx).Model(&models.PostModel{}).Where("posts.is_published = ?", true)
	if ref := strings.TrimSpace(lq.Category); ref != "" {
		ids := s.db.WithContext(ctx).Model(&models.CategoryModel{}).
			Select("id").
			Where("id = ? OR slug = ?", ref, ref)
		db = db.Where("posts.category_id IN (?)", ids)
	}
	if term := strings.TrimSpace(lq.Search); term != "" {
		db = db.Scopes(matchText(term))
	}
	if tag := strings.TrimSpace(lq.Tag); tag != "" {
		db = db.Scopes(hasTag(tag))
	}

	posts := []models.PostModel{}
	pg, err := pagination.Paginate(db, q, &posts, withRefs, ordered(order))
	if err != nil {
		return nil, response.Pagination{}, err
	}
	return posts, pg, nil
}

// Get resolves a post by id or slug, counts the view and returns the post
// with its comments.
func (s *Service) Get(ctx context.Context, ident string) (*models.PostModel, error) {
	db := s.db.WithContext(ctx)
	id, err := resolveID(db, ident)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.PostModel{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return nil, err
	}
	return load(db, id)
}

// Create stores a post authored by the caller and bumps its category count.
func (s *Service) Create(ctx context.Context, who authz.Identity, dto *CreatePostDTO) (*models.PostModel, error) {
	if !who.Authenticated() {
		return nil, errAuthenticationNeeded
	}

	post := models.PostModel{
		Title:         dto.Title,
		Content:       dto.Content,
		Excerpt:       dto.Excerpt,
		Tags:          models.StringArray(dto.Tags),
		FeaturedImage: dto.FeaturedImage,
		IsPublished:   true,
		CategoryID:    dto.Category,
		AuthorID:      who.UserID,
	}
	if post.FeaturedImage == "" {
		post.FeaturedImage = models.DefaultFeaturedImage
	}
	if dto.IsPublished != nil {
		post.IsPublished = *dto.IsPublished
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := category.Exists(tx, dto.Category)
		if err != nil {
			return err
		}
		if !ok {
			return category.ErrUnknownCategory
		}
		if post.Slug, err = uniqueSlug(tx, dto.Title); err != nil {
			return err
		}
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return category.IncrementPosts(tx, post.CategoryID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created", zap.String("id", post.ID), zap.String("author", who.UserID))
	return load(s.db.WithContext(ctx), post.ID)
}

// Authorize loads the post and checks that who may perform action on it.
// A missing post wins over a forbidden one.
func (s *Service) Authorize(ctx context.Context, who authz.Identity, id string, action Action) (*models.PostModel, error) {
	return authorize(s.db.WithContext(ctx), who, id, action)
}

// Update replaces the post's fields. The slug stays as first generated.
func (s *Service) Update(ctx context.Context, who authz.Identity, id string, dto *UpdatePostDTO) (*models.PostModel, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := authorize(tx, who, id, ActionUpdate)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"title":   dto.Title,
			"content": dto.Content,
		}
		if dto.Excerpt != nil {
			updates["excerpt"] = *dto.Excerpt
		}
		if dto.Tags != nil {
			updates["tags"] = models.StringArray(dto.Tags)
		}
		if dto.FeaturedImage != nil {
			img := *dto.FeaturedImage
			if img == "" {
				img = models.DefaultFeaturedImage
			}
			updates["featured_image"] = img
		}
		if dto.IsPublished != nil {
			updates["is_published"] = *dto.IsPublished
		}

		if dto.Category != post.CategoryID {
			ok, err := category.Exists(tx, dto.Category)
			if err != nil {
				return err
			}
			if !ok {
				return category.ErrUnknownCategory
			}
			if err := category.DecrementPosts(tx, post.CategoryID); err != nil {
				return err
			}
			if err := category.IncrementPosts(tx, dto.Category); err != nil {
				return err
			}
			updates["category_id"] = dto.Category
		}

		return tx.Model(post).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return load(s.db.WithContext(ctx), id)
}

// Delete removes the post with its comments and releases its category slot.
func (s *Service) Delete(ctx context.Context, who authz.Identity, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := authorize(tx, who, id, ActionDelete)
		if err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.CommentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(post).Error; err != nil {
			return err
		}
		return category.DecrementPosts(tx, post.CategoryID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("post deleted", zap.String("id", id), zap.String("by", who.UserID))
	return nil
}

// AddComment appends a comment by the caller and returns the updated post.
func (s *Service) AddComment(ctx context.Context, who authz.Identity, ident, content string) (*models.PostModel, error) {
	if !who.Authenticated() {
		return nil, errAuthenticationNeeded
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentRequired
	}

	var postID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := resolveID(tx, ident)
		if err != nil {
			return err
		}
		postID = id
		return tx.Create(&models.CommentModel{
			PostID:  id,
			UserID:  who.UserID,
			Content: content,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return load(s.db.WithContext(ctx), postID)
}

// Search returns up to SearchLimit published posts matching q, newest first.
func (s *Service) Search(ctx context.Context, q string) ([]models.PostModel, error) {
	term := strings.TrimSpace(q)
	if term == "" {
		return nil, ErrSearchQueryRequired
	}
	posts := []models.PostModel{}
	err := s.db.WithContext(ctx).
		Model(&models.PostModel{}).
		Where("posts.is_published = ?", true).
		Scopes(matchText(term), withRefs).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(SearchLimit).
		Find(&posts).Error
	return posts, err
}

// RenderHTML renders the post body; failures are logged and yield "".
func (s *Service) RenderHTML(p *models.PostModel) string {
	html, err := markdown.Render(p.Content)
	if err != nil {
		s.logger.Warn("render post content", zap.String("id", p.ID), zap.Error(err))
		return ""
	}
	return html
}

func authorize(db *gorm.DB, who authz.Identity, id string, action Action) (*models.PostModel, error) {
	var post models.PostModel
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !authz.CanMutate(who, post.AuthorID) {
		if action == ActionDelete {
			return nil, ErrForbiddenDelete
		}
		return nil, ErrForbiddenUpdate
	}
	return &post, nil
}

// resolveID finds the id of the post matching ident by id, then by slug.
func resolveID(db *gorm.DB, ident string) (string, error) {
	for _, column := range []string{"id", "slug"} {
		var post models.PostModel
		err := db.Select("id").Where(column+" = ?", ident).Take(&post).Error
		if err == nil {
			return post.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}
	return "", ErrNotFound
}

func load(db *gorm.DB, id string) (*models.PostModel, error) {
	var post models.PostModel
	err := db.Scopes(withRefs).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_comments.created_at ASC, post_comments.id ASC")
		}).
		Preload("Comments.User").
		First(&post, "posts.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func uniqueSlug(tx *gorm.DB, title string) (string, error) {
	return slug.Unique(title, "post", func(candidate string) (bool, error) {
		var n int64
		err := tx.Model(&models.PostModel{}).Where("slug = ?", candidate).Count(&n).Error
		return n > 0, err
	})
}
