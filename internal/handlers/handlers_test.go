package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/pysugar/notion-nexus/internal/config"
	"github.com/pysugar/notion-nexus/internal/db/models"
	"github.com/pysugar/notion-nexus/internal/session"
	"github.com/pysugar/notion-nexus/internal/store"
	"github.com/pysugar/notion-nexus/internal/upstream"
)

func newTestStore(t *testing.T) *store.Service {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.NotionCredential{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store.NewService(gdb)
}

func seedCredential(t *testing.T, st *store.Service, userID, token string) {
	t.Helper()
	err := st.Upsert(userID, store.Credential{
		AccessToken:   token,
		BotID:         "bot-" + userID,
		WorkspaceID:   "ws-1",
		WorkspaceName: "Acme",
	})
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
}

// newNotionServer fakes the two Notion endpoints the handlers reach.
func newNotionServer(t *testing.T, wantToken string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer "+wantToken {
			t.Errorf("auth header = %q", auth)
		}
		switch {
		case r.URL.Path == "/v1/search":
			w.Write([]byte(`{"results":[{"id":"db-1","title":[{"plain_text":"Tasks"}]}]}`))
		case strings.HasPrefix(r.URL.Path, "/v1/databases/"):
			w.Write([]byte(`{"id":"db-1","title":[{"plain_text":"Tasks"}],"properties":{"Name":{"id":"p1","type":"title"}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, handlers always answer 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestDatabasesHandler(t *testing.T) {
	st := newTestStore(t)
	seedCredential(t, st, "user-1", "tok")
	srv := newNotionServer(t, "tok")
	defer srv.Close()

	handler := DatabasesHandler(st, srv.URL, srv.Client())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/notion/databases?userId=user-1", nil))

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	databases, _ := body["databases"].([]interface{})
	if len(databases) != 1 {
		t.Fatalf("expected 1 database, got %v", body["databases"])
	}
}

func TestDatabasesHandler_MissingUser(t *testing.T) {
	handler := DatabasesHandler(newTestStore(t), "http://unused", nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/notion/databases", nil))

	body := decodeBody(t, rec)
	if body["success"] != false || body["error"] != "User ID is required" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDatabasesHandler_NoStoredToken(t *testing.T) {
	handler := DatabasesHandler(newTestStore(t), "http://unused", nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/notion/databases?userId=ghost", nil))

	body := decodeBody(t, rec)
	if body["error"] != "Failed to retrieve Notion access token" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSearchDatabasesHandler_ShortQuery(t *testing.T) {
	st := newTestStore(t)
	seedCredential(t, st, "user-1", "tok")
	handler := SearchDatabasesHandler(st, "http://unused", nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/notion/databases/search?userId=user-1&query=ab", nil))

	body := decodeBody(t, rec)
	if body["error"] != "Search query must be at least 3 characters" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSearchDatabasesHandler(t *testing.T) {
	st := newTestStore(t)
	seedCredential(t, st, "user-1", "tok")
	srv := newNotionServer(t, "tok")
	defer srv.Close()

	handler := SearchDatabasesHandler(st, srv.URL, srv.Client())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/notion/databases/search?userId=user-1&query=tasks", nil))

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDatabaseSchemaHandler(t *testing.T) {
	st := newTestStore(t)
	seedCredential(t, st, "user-1", "tok")
	srv := newNotionServer(t, "tok")
	defer srv.Close()

	router := chi.NewRouter()
	router.Get("/api/notion/databases/{databaseID}/schema", DatabaseSchemaHandler(st, srv.URL, srv.Client()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notion/databases/db-1/schema?userId=user-1", nil))

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	database, _ := body["database"].(map[string]interface{})
	if database["id"] != "db-1" || database["title"] != "Tasks" {
		t.Fatalf("unexpected database: %v", database)
	}
}

func TestFormulaGenerateHandler(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"prop(\"Done\")"}}]}`))
	}))
	defer llm.Close()

	client := upstream.NewClient(config.LLMConfig{APIKey: "k", BaseURL: llm.URL, Model: "m"}, llm.Client())
	handler := FormulaGenerateHandler(client)

	req := httptest.NewRequest(http.MethodPost, "/api/formula/generate",
		strings.NewReader(`{"userRequirements":"checkbox formula","databaseStructure":{"title":"Tasks"}}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	body := decodeBody(t, rec)
	if body["success"] != true || body["text"] != `prop("Done")` {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestFormulaGenerateHandler_UpstreamFailure(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer llm.Close()

	client := upstream.NewClient(config.LLMConfig{APIKey: "k", BaseURL: llm.URL, Model: "m"}, llm.Client())
	handler := FormulaGenerateHandler(client)

	req := httptest.NewRequest(http.MethodPost, "/api/formula/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	body := decodeBody(t, rec)
	if body["error"] != "Failed to generate formula" {
		t.Fatalf("error must stay generic, got %v", body)
	}
}

func TestSessionHandler(t *testing.T) {
	state := session.NewState()
	handler := SessionHandler(state)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	body := decodeBody(t, rec)
	if body["connected"] != false {
		t.Fatalf("fresh state must report disconnected: %v", body)
	}
}

func TestStoreLister(t *testing.T) {
	st := newTestStore(t)
	seedCredential(t, st, "user-1", "tok")
	srv := newNotionServer(t, "tok")
	defer srv.Close()

	lister := &StoreLister{Store: st, APIBaseURL: srv.URL, HTTPClient: srv.Client()}
	sources, err := lister.ListDataSources(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListDataSources: %v", err)
	}
	if len(sources) != 1 || sources[0].ID != "db-1" || sources[0].Title != "Tasks" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestStoreLister_UnknownUser(t *testing.T) {
	lister := &StoreLister{Store: newTestStore(t), APIBaseURL: "http://unused"}
	if _, err := lister.ListDataSources(context.Background(), "ghost"); err == nil {
		t.Fatal("expected lookup failure")
	}
}

func TestConnectController_RejectsConcurrentStart(t *testing.T) {
	block := make(chan struct{})
	cfg := config.DetectorConfig{PollInterval: time.Millisecond, GraceDelay: time.Millisecond, Timeout: time.Second}
	factory := func() *session.Detector {
		return session.NewDetector(cfg, "http://example.invalid/auth",
			blockingOpener{block: block}, session.NewMemoryMailbox(), session.NewState(), nil)
	}
	ctrl := NewConnectController(factory)

	rec := httptest.NewRecorder()
	ctrl.StartHandler()(rec, httptest.NewRequest(http.MethodPost, "/api/notion/connect/start", nil))
	if body := decodeBody(t, rec); body["success"] != true {
		t.Fatalf("first start should succeed: %v", body)
	}

	rec = httptest.NewRecorder()
	ctrl.StartHandler()(rec, httptest.NewRequest(http.MethodPost, "/api/notion/connect/start", nil))
	if body := decodeBody(t, rec); body["success"] != false {
		t.Fatalf("second start should be rejected: %v", body)
	}

	close(block)
}

// blockingOpener keeps the detector in flight until the test releases it.
type blockingOpener struct {
	block chan struct{}
}

func (o blockingOpener) Open(url string) (session.Window, error) {
	<-o.block
	return nil, context.Canceled
}
