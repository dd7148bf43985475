package models

const DefaultFeaturedImage = "default-post.jpg"

// PostModel represents a blog post.
type PostModel struct {
	Base
	Title         string         `json:"title"         gorm:"size:100;not null"`
	Slug          string         `json:"slug"          gorm:"size:191;uniqueIndex;not null"`
	Content       string         `json:"content"       gorm:"type:longtext;not null"`
	Excerpt       string         `json:"excerpt"       gorm:"size:200"`
	CategoryID    string         `json:"categoryId"    gorm:"type:char(36);index;not null"`
	Category      *CategoryModel `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	AuthorID      string         `json:"authorId"      gorm:"type:char(36);index;not null"`
	Author        *UserModel     `json:"author,omitempty"   gorm:"foreignKey:AuthorID"`
	Tags          StringArray    `json:"tags"          gorm:"type:text"`
	FeaturedImage string         `json:"featuredImage" gorm:"default:default-post.jpg"`
	IsPublished   bool           `json:"isPublished"   gorm:"index;not null;default:false"`
	ViewCount     int            `json:"viewCount"     gorm:"column:view_count;not null;default:0"`
	Comments      []CommentModel `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

func (PostModel) TableName() string { return "posts" }
