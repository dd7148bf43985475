package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultAvatar = "default-avatar.jpg"
)

// UserModel is a registered account. Email is stored lower-cased.
type UserModel struct {
	Base
	Name     string `json:"name"     gorm:"size:50;not null"`
	Email    string `json:"email"    gorm:"size:191;uniqueIndex;not null"`
	Password string `json:"-"        gorm:"not null"`
	Role     string `json:"role"     gorm:"size:16;not null;default:user"`
	Avatar   string `json:"avatar"   gorm:"default:default-avatar.jpg"`
	Bio      string `json:"bio"      gorm:"size:500"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
