package category

import "strings"

type CreateCategoryDTO struct {
	Name        string `json:"name"        validate:"required,notblank,max=50" label:"Category name"`
	Description string `json:"description" validate:"max=200"`
}

func (d *CreateCategoryDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
}

type UpdateCategoryDTO struct {
	Name        string  `json:"name"        validate:"required,notblank,max=50" label:"Category name"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (d *UpdateCategoryDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	if d.Description != nil {
		v := strings.TrimSpace(*d.Description)
		d.Description = &v
	}
}
