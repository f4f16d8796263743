package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pysugar/notion-nexus/internal/db"
	"github.com/pysugar/notion-nexus/internal/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func TestAPIKeyAuth(t *testing.T) {
	gdb := newTestDB(t)
	if err := db.SetSetting(gdb, "api_key", "sk-secret"); err != nil {
		t.Fatalf("set api key: %v", err)
	}

	handler := APIKeyAuth(gdb)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"bearer valid", "Authorization", "Bearer sk-secret", http.StatusOK},
		{"bearer invalid", "Authorization", "Bearer wrong", http.StatusUnauthorized},
		{"x-api-key valid", "x-api-key", "sk-secret", http.StatusOK},
		{"x-api-key invalid", "x-api-key", "wrong", http.StatusUnauthorized},
		{"no header", "", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestAPIKeyAuth_NoKeyConfigured(t *testing.T) {
	handler := APIKeyAuth(newTestDB(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("requests must pass before an api key is provisioned, got %d", rec.Code)
	}
}
