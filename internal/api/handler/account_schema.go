package handler

import (
	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

const statusSuccess = "SUCCESS"

// --- Request types ---

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type listQuery struct {
	Page int `query:"page"`
}

type searchQuery struct {
	Name  string `query:"name"`
	Limit int    `query:"limit"`
	Page  int    `query:"page"`
}

// --- Response types ---

type accountResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    *domain.Account `json:"data"`
}

type signinResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    *domain.Account `json:"data"`
	Token   string          `json:"token"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type pageResponse struct {
	Users     []*domain.Account `json:"users"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	ItemCount int64             `json:"itemCount"`
	PageCount int               `json:"pageCount"`
}

func toPageResponse(p *ports.AccountPage) pageResponse {
	return pageResponse{
		Users:     p.Items,
		Page:      p.Page,
		Limit:     p.Limit,
		ItemCount: p.ItemCount,
		PageCount: p.PageCount,
	}
}
