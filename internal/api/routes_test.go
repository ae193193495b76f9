package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/adiwardana/lyra/adapters/capture"
	"github.com/adiwardana/lyra/adapters/llm"
	"github.com/adiwardana/lyra/adapters/memory"
	"github.com/adiwardana/lyra/adapters/stt"
	"github.com/adiwardana/lyra/adapters/tts"
	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/internal/auth"
	"github.com/adiwardana/lyra/usecase"
)

func newTestServer(t *testing.T) (*Server, *echo.Echo) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	authn := auth.NewAuthenticator([]byte("test-secret"), time.Hour)
	store := memory.NewExchangeStore()

	factory := func() *usecase.Pipeline {
		return usecase.NewPipeline(
			capture.NewMock(),
			stt.NewMockTranscriber(),
			llm.NewMockGenerator(),
			tts.NewMockSynthesizer(),
			usecase.DefaultConfig(),
			logger,
		)
	}

	s := NewServer(authn, "client-secret", store, factory, nil, logger)
	e := echo.New()
	s.InitRoutes(e)
	return s, e
}

func bearerToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	body := `{"client_id":"client-1","secret_key":"client-secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("auth token request failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode auth response: %v", err)
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIssueTokenRejectsBadSecret(t *testing.T) {
	_, e := newTestServer(t)

	body := `{"client_id":"client-1","secret_key":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestConverse(t *testing.T) {
	_, e := newTestServer(t)
	token := bearerToken(t, e)

	body := `{"text":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/converse", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp entities.PipelineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserTranscript != "hello there" {
		t.Errorf("unexpected transcript: %q", resp.UserTranscript)
	}
	if resp.AssistantResponse == "" {
		t.Error("expected a non-empty response")
	}
	if resp.TTSTimeMs != 0 || resp.TranscriptionTimeMs != 0 {
		t.Errorf("text round trip must skip capture and synthesis: %+v", resp)
	}
}

func TestConverseRequiresAuth(t *testing.T) {
	_, e := newTestServer(t)

	body := `{"text":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/converse", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestConverseEmptyText(t *testing.T) {
	_, e := newTestServer(t)
	token := bearerToken(t, e)

	body := `{"text":"   "}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/converse", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListExchangesAfterConverse(t *testing.T) {
	_, e := newTestServer(t)
	token := bearerToken(t, e)

	body := `{"text":"archive me"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/converse", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("converse failed: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exchanges", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ExchangesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Exchanges) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(resp.Exchanges))
	}
	if resp.Exchanges[0].Response.UserTranscript != "archive me" {
		t.Errorf("unexpected archived transcript: %q", resp.Exchanges[0].Response.UserTranscript)
	}
}
