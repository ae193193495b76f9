package api

import (
	"time"

	"github.com/adiwardana/lyra/domain/entities"
)

// AuthRequest represents the request payload for client authentication
type AuthRequest struct {
	ClientID  string `json:"client_id" validate:"required"`
	SecretKey string `json:"secret_key" validate:"required"`
}

// AuthResponse represents the response payload for client authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// ConverseRequest represents a text round trip request
type ConverseRequest struct {
	Text   string `json:"text" validate:"required"`
	Stream bool   `json:"stream,omitempty"`
}

// ExchangesResponse lists archived round trips, newest first
type ExchangesResponse struct {
	Exchanges []entities.Exchange `json:"exchanges"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
