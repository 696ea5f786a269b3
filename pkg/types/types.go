package types

// Common response types

type ErrorResponse struct {
	Error string `json:"error"`
	// Code is a stable machine-readable reason, e.g. "refused_target".
	Code string `json:"code,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Auth types

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// Preferences

type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}

// Catalog types

type AddToolRequest struct {
	Name        string `json:"name" binding:"required"`
	URL         string `json:"url" binding:"required"`
	Description string `json:"description"`
}

type FavoriteResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

// Viewer types

type OpenToolRequest struct {
	ToolID string `json:"toolId" binding:"required"`
}
