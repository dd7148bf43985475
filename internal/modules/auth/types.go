package auth

import (
	"strings"
)

type RegisterDTO struct {
	Name     string `json:"name"     validate:"required,notblank,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6" label:"Password"`
}

func (d *RegisterDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = normalizeEmail(d.Email)
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Normalize() {
	d.Email = normalizeEmail(d.Email)
}

// UpdateProfileDTO changes only the fields that are present.
type UpdateProfileDTO struct {
	Name   *string `json:"name"   validate:"omitnil,notblank,max=50"`
	Bio    *string `json:"bio"    validate:"omitnil,max=500"`
	Avatar *string `json:"avatar" validate:"omitnil,max=255"`
}

func (d *UpdateProfileDTO) Normalize() {
	for _, p := range []*string{d.Name, d.Bio, d.Avatar} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
