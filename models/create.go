package models

import "github.com/shopspring/decimal"

type SignUpRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Gender   bool   `json:"gender"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type UserStatusRequest struct {
	Status *bool `json:"status" binding:"required"`
}

type CreateCategory struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Status   *bool  `json:"status"`
}

// UpdateCategory is a partial update; nil fields are left untouched.
type UpdateCategory struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"imageUrl"`
	Status   *bool   `json:"status"`
}

type SaveBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" binding:"required"`
}

type AllocationRequest struct {
	CategoryID int64           `json:"categoryId" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

type AllocationAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CreateTransaction struct {
	CategoryID int64           `json:"categoryId" binding:"required"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"number"`
	Note       string          `json:"note"`
	Month      string          `json:"month" example:"2025-09"`
	// ExternalID identifies an imported statement line; a second import of it is skipped.
	ExternalID string `json:"externalId,omitempty"`
}
