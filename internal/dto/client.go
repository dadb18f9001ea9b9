package dto

import (
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
)

// CreateClientRequest defines the payload for registering a new client.
type CreateClientRequest struct {
	FirstName      string `json:"firstName" binding:"required"`
	LastName       string `json:"lastName" binding:"required"`
	DocumentType   string `json:"documentType" binding:"required,oneof=DNI RUC PASSPORT"`
	DocumentNumber string `json:"documentNumber" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone"`
}

// UpdateClientRequest defines the payload for updating a client. Nil fields
// are left unchanged.
type UpdateClientRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone"`
}

// ClientResponse defines the data returned for a client.
type ClientResponse struct {
	ClientID       string `json:"clientID"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	IsActive       bool   `json:"isActive"`
}

// ToClientResponse converts a domain.Client to ClientResponse DTO.
func ToClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ClientID:       c.ClientID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		DocumentType:   string(c.DocumentType),
		DocumentNumber: c.DocumentNumber,
		Email:          c.Email,
		Phone:          c.Phone,
		IsActive:       c.IsActive,
	}
}

// ToClientResponses converts a slice of domain.Client to []ClientResponse.
func ToClientResponses(clients []domain.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses
}
