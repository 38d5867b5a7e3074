package dto

type SaveUserDTO struct {
	Name string `json:"name"`
}

type UpdateRoleDTO struct {
	Role string `json:"role" binding:"required,oneof=viewer premium admin"`
}
