package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
	"github.com/adiwardana/lyra/internal/auth"
	"github.com/adiwardana/lyra/internal/gateway"
	"github.com/adiwardana/lyra/usecase"
)

// PipelineFactory builds a fresh pipeline for one text round trip
type PipelineFactory func() *usecase.Pipeline

// Server holds the dependencies behind the HTTP surface
type Server struct {
	authn        *auth.Authenticator
	clientSecret string
	store        repositories.ExchangeStore
	newPipeline  PipelineFactory
	gateway      *gateway.Gateway
	logger       *zap.Logger
}

// NewServer creates the API server
func NewServer(
	authn *auth.Authenticator,
	clientSecret string,
	store repositories.ExchangeStore,
	newPipeline PipelineFactory,
	gw *gateway.Gateway,
	logger *zap.Logger,
) *Server {
	return &Server{
		authn:        authn,
		clientSecret: clientSecret,
		store:        store,
		newPipeline:  newPipeline,
		gateway:      gw,
		logger:       logger,
	}
}

// InitRoutes initializes all API routes
func (s *Server) InitRoutes(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "lyra-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/auth/token", s.issueToken)
	v1.POST("/converse", s.converse)
	v1.GET("/exchanges", s.listExchanges)

	// WebSocket endpoint; token validation happens inside the gateway
	if s.gateway != nil {
		e.GET("/ws", s.gateway.HandleWebSocket)
	}
}

// issueToken exchanges a shared client secret for a JWT
func (s *Server) issueToken(c echo.Context) error {
	var req AuthRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Error("Failed to bind auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.ClientID == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Client ID and secret key are required",
		})
	}

	if req.SecretKey != s.clientSecret {
		s.logger.Warn("Client authentication failed",
			zap.String("client_id", req.ClientID))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid client credentials",
		})
	}

	token, err := s.authn.GenerateClientToken(req.ClientID)
	if err != nil {
		s.logger.Error("Failed to generate client token",
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		ClientID:  req.ClientID,
	})
}

// converse runs one text round trip and returns its timing summary
func (s *Server) converse(c echo.Context) error {
	claims, ok := s.authenticate(c)
	if !ok {
		return nil
	}

	var req ConverseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Text is required",
		})
	}

	pipeline := s.newPipeline()
	resp, err := pipeline.ProcessText(c.Request().Context(), req.Text, usecase.Options{
		StreamLLM: req.Stream,
		PlayAudio: false,
	})
	if err != nil {
		s.logger.Error("Text round trip failed",
			zap.String("client_id", claims.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "pipeline_failed",
			Message: err.Error(),
		})
	}
	if resp == nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "busy",
			Message: "A session is already in progress",
		})
	}

	if s.store != nil {
		exchange := &entities.Exchange{
			ClientID:  claims.ClientID,
			SessionID: pipeline.SessionID(),
			Response:  *resp,
			CreatedAt: time.Now(),
		}
		if err := s.store.Save(c.Request().Context(), exchange); err != nil {
			s.logger.Error("Failed to archive exchange", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// listExchanges returns the caller's recent archived round trips
func (s *Server) listExchanges(c echo.Context) error {
	claims, ok := s.authenticate(c)
	if !ok {
		return nil
	}

	if s.store == nil {
		return c.JSON(http.StatusOK, ExchangesResponse{Exchanges: []entities.Exchange{}})
	}

	exchanges, err := s.store.ListRecent(c.Request().Context(), claims.ClientID, 20)
	if err != nil {
		s.logger.Error("Failed to list exchanges",
			zap.String("client_id", claims.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list exchanges",
		})
	}
	if exchanges == nil {
		exchanges = []entities.Exchange{}
	}

	return c.JSON(http.StatusOK, ExchangesResponse{Exchanges: exchanges})
}

// authenticate extracts and validates the Bearer token. When it returns
// false the 401 response has already been written.
func (s *Server) authenticate(c echo.Context) (*auth.JWTClaims, bool) {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token == "" {
		_ = c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
		return nil, false
	}

	claims, err := s.authn.ValidateToken(token)
	if err != nil {
		s.logger.Warn("Request rejected: invalid token", zap.Error(err))
		_ = c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
		return nil, false
	}

	return claims, true
}
