package models

// CommentModel is a comment owned by a post. It has no life of its own:
// it is created through its post and removed with it.
type CommentModel struct {
	Base
	PostID  string     `json:"-"       gorm:"type:char(36);index;not null"`
	UserID  string     `json:"userId"  gorm:"type:char(36);index;not null"`
	User    *UserModel `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Content string     `json:"content" gorm:"type:text;not null"`
}

func (CommentModel) TableName() string { return "post_comments" }
