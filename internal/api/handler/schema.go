package handler

import (
	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// --- Items ---

type createItemRequest struct {
	Title       string `json:"title"        validate:"required"`
	Description string `json:"description"`
	Image       string `json:"image"        validate:"required"`
	PointsValue int    `json:"points_value" validate:"required,gt=0"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listItemsResponse struct {
	Data       []*domain.Item     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

// --- Exchange ---

type redeemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type redeemResponse struct {
	Trade *domain.Trade `json:"trade"`
	User  *domain.User  `json:"user"`
	Item  *domain.Item  `json:"item"`
}

type proposeSwapRequest struct {
	ItemID        string `json:"item_id"         validate:"required"`
	OfferedItemID string `json:"offered_item_id" validate:"required"`
}

type tradeResponse struct {
	Trade *domain.Trade `json:"trade"`
}
