package models

// CategoryModel groups posts. PostsCount is denormalized and only moves
// together with post writes.
type CategoryModel struct {
	Base
	Name        string `json:"name"        gorm:"size:50;uniqueIndex;not null"`
	Description string `json:"description" gorm:"size:200"`
	Slug        string `json:"slug"        gorm:"size:191;uniqueIndex;not null"`
	PostsCount  int    `json:"postsCount"  gorm:"column:posts_count;not null;default:0"`
}

func (CategoryModel) TableName() string { return "categories" }
