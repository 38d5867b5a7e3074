package dto

type CreateArticleDTO struct {
	Title       string   `json:"title" binding:"required,min=3"`
	Description string   `json:"description"`
	Content     string   `json:"content" binding:"required"`
	ImageUrl    string   `json:"imageUrl"`
	Publisher   string   `json:"publisher"`
	Tags        []string `json:"tags"`
}

type UpdateArticleDTO struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Content     *string   `json:"content,omitempty"`
	ImageUrl    *string   `json:"imageUrl,omitempty"`
	Publisher   *string   `json:"publisher,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

type RejectArticleDTO struct {
	Reason string `json:"reason" binding:"required"`
}
