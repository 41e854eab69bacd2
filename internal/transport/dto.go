package transport

import "github.com/Skotchmaster/storefront/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email_address"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

type CreateProductRequest struct {
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	CountInStock int     `json:"countInStock"`
}

// PatchProductRequest distinguishes an absent field (nil) from an explicit zero.
type PatchProductRequest struct {
	Name         *string  `json:"name"`
	Image        *string  `json:"image"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	CountInStock *int     `json:"countInStock"`
}

type ProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SearchResponse struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type CatalogResponse struct {
	Data []models.Product `json:"data"`
	Meta PageMeta         `json:"meta"`
}
