package category

import (
	"context"
	"errors"

	"github.com/quillpost/core/internal/models"
	"github.com/quillpost/core/internal/pkg/apperr"
	"github.com/quillpost/core/internal/pkg/slug"
	"gorm.io/gorm"
)

var (
	ErrNotFound = apperr.NotFound("Category not found")
	// ErrUnknownCategory is returned when a post references a category that
	// does not exist. It is a client mistake in the payload, hence 400.
	ErrUnknownCategory = apperr.BusinessRule("Category not found")
	ErrHasPosts        = apperr.BusinessRule("Cannot delete category with posts")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns all categories sorted by name.
func (s *Service) List(ctx context.Context) ([]models.CategoryModel, error) {
	cats := []models.CategoryModel{}
	return cats, s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
}

// GetByQuery looks a category up by id, then by slug.
func (s *Service) GetByQuery(ctx context.Context, query string) (*models.CategoryModel, error) {
	db := s.db.WithContext(ctx)
	for _, column := range []string{"id", "slug"} {
		var cat models.CategoryModel
		err := db.Where(column+" = ?", query).First(&cat).Error
		if err == nil {
			return &cat, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (s *Service) Create(ctx context.Context, dto *CreateCategoryDTO) (*models.CategoryModel, error) {
	cat := models.CategoryModel{
		Name:        dto.Name,
		Description: dto.Description,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, dto.Name, ""); err != nil {
			return err
		}
		var err error
		if cat.Slug, err = uniqueSlug(tx, dto.Name, ""); err != nil {
			return err
		}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Update renames a category and re-derives its slug when the name changes.
// postsCount is never touched here.
func (s *Service) Update(ctx context.Context, id string, dto *UpdateCategoryDTO) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if dto.Name != cat.Name {
			if err := ensureNameFree(tx, dto.Name, cat.ID); err != nil {
				return err
			}
			sl, err := uniqueSlug(tx, dto.Name, cat.ID)
			if err != nil {
				return err
			}
			updates["name"] = dto.Name
			updates["slug"] = sl
		}
		if dto.Description != nil {
			updates["description"] = *dto.Description
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&cat).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&cat, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Delete removes an empty category.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.CategoryModel
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if cat.PostsCount > 0 {
			return ErrHasPosts
		}
		return tx.Delete(&cat).Error
	})
}

// ensureNameFree reports a duplicate before the insert so the error names
// the field the caller sent; the unique index still guards races.
func ensureNameFree(tx *gorm.DB, name, exceptID string) error {
	q := tx.Model(&models.CategoryModel{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Duplicate("name")
	}
	return nil
}

// uniqueSlug derives a slug from name that no other category holds.
// Names that differ only in punctuation ("C++", "C#") get -2, -3, ...
func uniqueSlug(tx *gorm.DB, name, exceptID string) (string, error) {
	return slug.Unique(name, "category", func(candidate string) (bool, error) {
		q := tx.Model(&models.CategoryModel{}).Where("slug = ?", candidate)
		if exceptID != "" {
			q = q.Where("id <> ?", exceptID)
		}
		var n int64
		err := q.Count(&n).Error
		return n > 0, err
	})
}
