package gateway

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/adapters/tts"
	"github.com/adiwardana/lyra/domain/repositories"
	"github.com/adiwardana/lyra/internal/auth"
	"github.com/adiwardana/lyra/usecase"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway accepts WebSocket clients and runs one pipeline per connection
type Gateway struct {
	transcriber repositories.Transcriber
	generator   repositories.ResponseGenerator
	voice       tts.Voice
	store       repositories.ExchangeStore
	authn       *auth.Authenticator
	config      usecase.Config

	// Registered sessions.
	mu         sync.RWMutex
	sessions   map[*Session]struct{}
	register   chan *Session
	unregister chan *Session

	logger *zap.Logger
}

// NewGateway creates a new WebSocket gateway
func NewGateway(
	transcriber repositories.Transcriber,
	generator repositories.ResponseGenerator,
	voice tts.Voice,
	store repositories.ExchangeStore,
	authn *auth.Authenticator,
	config usecase.Config,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		transcriber: transcriber,
		generator:   generator,
		voice:       voice,
		store:       store,
		authn:       authn,
		config:      config,
		sessions:    make(map[*Session]struct{}),
		register:    make(chan *Session),
		unregister:  make(chan *Session),
		logger:      logger,
	}
}

// Run starts the gateway's bookkeeping loop
func (g *Gateway) Run() {
	for {
		select {
		case session := <-g.register:
			g.mu.Lock()
			g.sessions[session] = struct{}{}
			g.mu.Unlock()
			g.logger.Info("Session registered", zap.String("clientID", session.clientID))

		case session := <-g.unregister:
			g.mu.Lock()
			if _, ok := g.sessions[session]; ok {
				delete(g.sessions, session)
				session.shutdown()
			}
			g.mu.Unlock()
			g.logger.Info("Session unregistered", zap.String("clientID", session.clientID))
		}
	}
}

// SessionCount reports the number of connected clients
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// HandleWebSocket upgrades an authenticated request into a session.
// The client token rides in the token query parameter.
func (g *Gateway) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	claims, err := g.authn.ValidateToken(token)
	if err != nil {
		g.logger.Warn("Rejected WebSocket client", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		g.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	session := newSession(g, conn, claims.ClientID)
	g.register <- session

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go session.writePump()
	go session.readPump()

	session.sendFrame(ReadyFrame(session.connID))
	return nil
}
