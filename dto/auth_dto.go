package dto

type TokenRequestDTO struct {
	Email string `json:"email" binding:"required,email"`
}
