package category

import (
	"github.com/quillpost/core/internal/models"
	"gorm.io/gorm"
)

// The helpers below run inside the caller's transaction so the counter moves
// together with the post write. Arithmetic happens in SQL, so concurrent
// writers never lose an update.

// Exists reports whether a category with id exists.
func Exists(tx *gorm.DB, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	var n int64
	err := tx.Model(&models.CategoryModel{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// IncrementPosts adds one to the category's postsCount.
func IncrementPosts(tx *gorm.DB, id string) error {
	return tx.Model(&models.CategoryModel{}).
		Where("id = ?", id).
		UpdateColumn("posts_count", gorm.Expr("posts_count + 1")).Error
}

// DecrementPosts subtracts one from postsCount, never going below zero.
func DecrementPosts(tx *gorm.DB, id string) error {
	return tx.Model(&models.CategoryModel{}).
		Where("id = ?", id).
		UpdateColumn("posts_count", gorm.Expr("CASE WHEN posts_count > 0 THEN posts_count - 1 ELSE 0 END")).Error
}
