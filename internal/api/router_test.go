package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutrition-insights/internal/core/auth"
	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/core/cluster"
	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/core/ingest"
	"nutrition-insights/internal/core/insights"
	"nutrition-insights/internal/core/store"
	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const cleanCSV = "diet_type,recipe,protein,carbs,fat,calories\n" +
	"keto,Eggs,30,5,40,500\n" +
	"keto,Bacon,20,1,50,\n" +
	"vegan,Salad Bowl,3,20,1,101\n" +
	"vegan,Tofu Salad,15,5,8,152\n" +
	"paleo,Steak,60,0,30,510\n"

type testServer struct {
	router *gin.Engine
	blobs  blob.Store
	queue  *ingest.Queue
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Blob.RawName = "raw.csv"
	cfg.Blob.CleanName = "clean.csv"
	cfg.Dataset.DefaultK = 2
	cfg.Dataset.DefaultPageSize = 2
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, seed bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	blobs, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if seed {
		if err := blobs.Upload(context.Background(), cfg.Blob.CleanName, []byte(cleanCSV), "text/csv"); err != nil {
			t.Fatalf("seed dataset: %v", err)
		}
	}

	docs := store.NewMemoryStore(10, 0)
	loader := dataset.NewLoader(blobs, cfg.Blob.CleanName)
	insightsSvc := insights.NewService(docs, loader, "nutrition-insights", 300, 42)
	ingestSvc := ingest.NewService(blobs, loader, insightsSvc)
	queue := ingest.NewQueue(ingestSvc.Run, 1, 4)
	queue.Start(context.Background())
	t.Cleanup(queue.Close)

	authSvc := auth.NewService(auth.NewMemoryUserRepository(), auth.NewTokenIssuer("test-secret", time.Hour), bcrypt.MinCost)

	router, err := SetupRouter(cfg, &Services{
		Insights: insightsSvc,
		Records:  loader,
		Clusters: cluster.NewEngine(42, 300),
		Auth:     authSvc,
		Blobs:    blobs,
		Queue:    queue,
		Docs:     docs,
	})
	if err != nil {
		t.Fatalf("SetupRouter: %v", err)
	}
	return &testServer{router: router, blobs: blobs, queue: queue}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var resp common.ErrorResponse
	decode(t, w, &resp)
	if resp.Code != code || resp.Error == "" {
		t.Fatalf("error response = %+v, want code %s", resp, code)
	}
}

func TestGetNutritionalInsights(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := s.do(t, http.MethodGet, "/api/getNutritionalInsights?dietType=keto", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var doc insights.Document
	decode(t, w, &doc)
	if doc.Meta.Rows != 2 || doc.Meta.DietType != "keto" || doc.Meta.Source != insights.SourceLive {
		t.Fatalf("meta = %+v", doc.Meta)
	}
	if len(doc.BarChart) != 1 || doc.BarChart[0].Protein != 25 || *doc.BarChart[0].Calories != 500 {
		t.Fatalf("bar = %+v", doc.BarChart)
	}
}

func TestGetNutritionalInsightsMissingDataset(t *testing.T) {
	s := newTestServer(t, testConfig(), false)

	w := s.do(t, http.MethodGet, "/api/getNutritionalInsights", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content-type = %q, want text/plain", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "clean.csv") {
		t.Fatalf("body = %q, want raw error message", w.Body.String())
	}
}

func TestGetClusters(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	w := s.do(t, http.MethodGet, "/api/getClusters?k=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var result cluster.Result
	decode(t, w, &result)
	if result.Meta.K != 2 || result.Meta.Rows != 5 || len(result.Meta.Centers) != 2 || len(result.Clusters) != 5 {
		t.Fatalf("result = %+v", result.Meta)
	}

	w = s.do(t, http.MethodGet, "/api/getClusters?dietType=vegan", nil, nil)
	decode(t, w, &result)
	if result.Meta.Rows != 2 || result.Meta.K != 2 {
		t.Fatalf("filtered result = %+v", result.Meta)
	}

	expectError(t, s.do(t, http.MethodGet, "/api/getClusters?k=abc", nil, nil), http.StatusBadRequest, common.ErrCodeInvalidRequest)
	expectError(t, s.do(t, http.MethodGet, "/api/getClusters?k=0", nil, nil), http.StatusBadRequest, common.ErrCodeInvalidRequest)
	expectError(t, s.do(t, http.MethodGet, "/api/getClusters?k=9", nil, nil), http.StatusBadRequest, common.ErrCodeInvalidRequest)
}

func TestGetRecipes(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	type page struct {
		Meta struct {
			Total    int `json:"total"`
			Page     int `json:"page"`
			PageSize int `json:"pageSize"`
		} `json:"meta"`
		Recipes []struct {
			Recipe   string   `json:"recipe"`
			DietType string   `json:"diet_type"`
			Calories *float64 `json:"calories"`
		} `json:"recipes"`
	}

	var p page
	decode(t, s.do(t, http.MethodGet, "/api/getRecipes", nil, nil), &p)
	if p.Meta.Total != 5 || p.Meta.Page != 1 || p.Meta.PageSize != 2 || len(p.Recipes) != 2 {
		t.Fatalf("default page = %+v", p)
	}

	decode(t, s.do(t, http.MethodGet, "/api/getRecipes?q=salad&page=0&pageSize=-3", nil, nil), &p)
	if p.Meta.Total != 2 || p.Meta.Page != 1 || p.Meta.PageSize != 2 {
		t.Fatalf("keyword page = %+v", p.Meta)
	}

	decode(t, s.do(t, http.MethodGet, "/api/getRecipes?dietType=keto&page=1&pageSize=5", nil, nil), &p)
	if p.Meta.Total != 2 || p.Recipes[1].Recipe != "Bacon" || p.Recipes[1].Calories != nil {
		t.Fatalf("keto page = %+v", p)
	}

	expectError(t, s.do(t, http.MethodGet, "/api/getRecipes?page=x", nil, nil), http.StatusBadRequest, common.ErrCodeInvalidRequest)
	expectError(t, s.do(t, http.MethodGet, "/api/getRecipes?pageSize=1.5", nil, nil), http.StatusBadRequest, common.ErrCodeInvalidRequest)
}

func register(t *testing.T, s *testServer, email string) auth.Session {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/register", []byte(`{"email":"`+email+`","password":"pw"}`), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	var session auth.Session
	decode(t, w, &session)
	return session
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	session := register(t, s, "Eve@Example.com")
	if session.Token == "" || session.User.Email != "eve@example.com" || session.User.Name != "eve" {
		t.Fatalf("session = %+v", session)
	}
	if strings.Contains(s.do(t, http.MethodPost, "/api/login", []byte(`{"email":"eve@example.com","password":"pw"}`), nil).Body.String(), "passwordHash") {
		t.Fatalf("login response leaks password hash")
	}

	expectError(t, s.do(t, http.MethodPost, "/api/register", []byte(`{"email":"eve@example.com","password":"pw"}`), nil),
		http.StatusBadRequest, common.ErrCodeConflict)
	expectError(t, s.do(t, http.MethodPost, "/api/register", []byte(`{"email":"","password":"x"}`), nil),
		http.StatusBadRequest, common.ErrCodeInvalidRequest)
	expectError(t, s.do(t, http.MethodPost, "/api/register", []byte(`not json`), nil),
		http.StatusBadRequest, common.ErrCodeInvalidRequest)
	expectError(t, s.do(t, http.MethodPost, "/api/login", []byte(`{"email":"eve@example.com","password":"bad"}`), nil),
		http.StatusUnauthorized, common.ErrCodeUnauthorized)

	expectError(t, s.do(t, http.MethodGet, "/api/me", nil, nil), http.StatusUnauthorized, common.ErrCodeUnauthorized)
	expectError(t, s.do(t, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer junk"}),
		http.StatusUnauthorized, common.ErrCodeUnauthorized)

	w := s.do(t, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer " + session.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", w.Code, w.Body.String())
	}
	var me struct {
		User struct {
			Email string `json:"email"`
			Sub   string `json:"sub"`
			Exp   int64  `json:"exp"`
		} `json:"user"`
	}
	decode(t, w, &me)
	if me.User.Email != "eve@example.com" || me.User.Sub != session.User.ID || me.User.Exp == 0 {
		t.Fatalf("me = %+v", me)
	}
}

func TestUploadDataset(t *testing.T) {
	cfg := testConfig()
	s := newTestServer(t, cfg, false)
	raw := []byte("Diet_type,Recipe_name,Protein(g),Carbs(g),Fat(g)\nKeto,Eggs,30,5,40\nVegan,Salad,3,20,1\n")

	expectError(t, s.do(t, http.MethodPost, "/api/uploadDataset", raw, map[string]string{"Content-Type": "text/csv"}),
		http.StatusUnauthorized, common.ErrCodeUnauthorized)

	session := register(t, s, "frank@example.com")
	authHeader := map[string]string{"Authorization": "Bearer " + session.Token, "Content-Type": "text/csv"}

	expectError(t, s.do(t, http.MethodPost, "/api/uploadDataset", []byte("  "), authHeader),
		http.StatusBadRequest, common.ErrCodeInvalidRequest)

	w := s.do(t, http.MethodPost, "/api/uploadDataset", raw, authHeader)
	if w.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string `json:"jobId"`
	}
	decode(t, w, &resp)
	if resp.JobID == "" {
		t.Fatalf("missing job id")
	}

	s.queue.Close()
	if status := s.queue.Status(); status.ProcessedCount != 1 {
		t.Fatalf("queue status = %+v", status)
	}

	w = s.do(t, http.MethodGet, "/api/getNutritionalInsights", nil, nil)
	var doc insights.Document
	decode(t, w, &doc)
	if doc.Meta.Source != insights.SourceCache || doc.Meta.Rows != 2 {
		t.Fatalf("meta after ingest = %+v", doc.Meta)
	}
}

func TestUploadDatasetMultipart(t *testing.T) {
	s := newTestServer(t, testConfig(), false)
	session := register(t, s, "gina@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "All_Diets.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte("Diet_type,Protein,Carbs,Fat\nketo,1,2,3\n"))
	_ = mw.Close()

	w := s.do(t, http.MethodPost, "/api/uploadDataset", body.Bytes(), map[string]string{
		"Authorization": "Bearer " + session.Token,
		"Content-Type":  mw.FormDataContentType(),
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	data, err := s.blobs.Download(context.Background(), "raw.csv")
	if err != nil {
		t.Fatalf("raw blob: %v", err)
	}
	if !strings.HasPrefix(string(data), "Diet_type") {
		t.Fatalf("raw blob = %q", data)
	}
}

func TestDeduplicationUpload(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	s := newTestServer(t, cfg, false)

	session := register(t, s, "henry@example.com")
	headers := map[string]string{"Authorization": "Bearer " + session.Token, "Content-Type": "text/csv"}
	raw := []byte("Diet_type,Protein,Carbs,Fat\nketo,1,2,3\n")

	if w := s.do(t, http.MethodPost, "/api/uploadDataset", raw, headers); w.Code != http.StatusAccepted {
		t.Fatalf("first upload status = %d, body %s", w.Code, w.Body.String())
	}
	expectError(t, s.do(t, http.MethodPost, "/api/uploadDataset", raw, headers),
		http.StatusTooManyRequests, common.ErrCodeTooManyRequests)
}

func TestDuplicateAuthRequestsNotDeduplicated(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Second
	s := newTestServer(t, cfg, false)

	body := []byte(`{"email":"ivy@example.com","password":"pw"}`)
	if w := s.do(t, http.MethodPost, "/api/register", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d, body %s", w.Code, w.Body.String())
	}
	expectError(t, s.do(t, http.MethodPost, "/api/register", body, nil), http.StatusBadRequest, common.ErrCodeConflict)

	badLogin := []byte(`{"email":"ivy@example.com","password":"wrong"}`)
	for i := 0; i < 2; i++ {
		expectError(t, s.do(t, http.MethodPost, "/api/login", badLogin, nil), http.StatusUnauthorized, common.ErrCodeUnauthorized)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig(), true)

	// 快取未命中也會計入文件儲存統計
	s.do(t, http.MethodGet, "/api/getNutritionalInsights", nil, nil)

	w := s.do(t, http.MethodGet, "/health", nil, nil)
	var health struct {
		Status string `json:"status"`
		Queue  struct {
			Workers int `json:"workers"`
		} `json:"queue"`
		Store struct {
			MaxSize int   `json:"max_size"`
			Misses  int64 `json:"misses"`
		} `json:"store"`
	}
	decode(t, w, &health)
	if health.Status != "ok" || health.Queue.Workers != 1 || health.Store.MaxSize != 10 || health.Store.Misses != 1 {
		t.Fatalf("health = %+v", health)
	}

	for _, path := range []string{"/ready", "/live"} {
		if w := s.do(t, http.MethodGet, path, nil, nil); w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
	}
}

func TestSetupRouterRequiresServices(t *testing.T) {
	if _, err := SetupRouter(testConfig(), &Services{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}
