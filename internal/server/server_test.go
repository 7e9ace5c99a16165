package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/handtrack/internal/store"
)

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantLive bool
	}{
		{"without a pipeline", Config{Logger: quietLogger()}, false},
		{"with a pipeline", Config{Frames: newFakeSource(), Logger: quietLogger()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.config)
			defer s.Close()

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}

			response := decodeHealth(t, rec)
			if response["status"] != "ok" {
				t.Errorf("expected status 'ok', got %v", response["status"])
			}
			if _, exists := response["uptime"]; !exists {
				t.Error("expected 'uptime' field in response")
			}
			if response["live"] != tt.wantLive {
				t.Errorf("live = %v, want %v", response["live"], tt.wantLive)
			}
		})
	}

	t.Run("only allows GET method", func(t *testing.T) {
		s := New(Config{Logger: quietLogger()})
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_Routes(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	tests := []struct {
		name       string
		config     Config
		path       string
		wantStatus int
	}{
		{"sessions need a store", Config{}, "/api/sessions", http.StatusNotFound},
		{"sessions with a store", Config{Store: st}, "/api/sessions", http.StatusOK},
		{"unknown session", Config{Store: st}, "/api/sessions/none", http.StatusNotFound},
		{"unknown api path", Config{Store: st}, "/api/nonexistent", http.StatusNotFound},
		{"no root page", Config{Store: st}, "/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Logger = quietLogger()
			s := New(tt.config)

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s: expected status %d, got %d", tt.path, tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("defaults the logger", func(t *testing.T) {
		s := New(Config{})
		if s.logger == nil {
			t.Fatal("expected a default logger")
		}
		if s.landmarks != nil {
			t.Error("no landmark feed without a frame source")
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		var _ http.Handler = New(Config{})
	})
}
