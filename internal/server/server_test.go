package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/service"
	"github.com/schoolcms/schoolcms/internal/store"
	"github.com/schoolcms/schoolcms/internal/upload"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const (
	testJWTSecret = "test-secret-for-jwt-integration-tests"
	testUsername  = "admin"
	testPassword  = "supersecretpassword"
	testAdminName = "Test Admin"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// testEnv holds all the shared state for integration tests.
type testEnv struct {
	server  *Server
	store   *store.Store
	uploads *upload.Storage
	tokens  *service.TokenService
}

// newTestEnv creates a fresh test environment with an in-memory store, a
// temporary upload directory and a fully wired Server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, DefaultConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, cfg, store.Options{}) // in-memory SQLite
}

func newTestEnvWithStore(t *testing.T, cfg Config, opts store.Options) *testEnv {
	t.Helper()

	st, err := store.Open(opts)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	uploads, err := upload.NewStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("upload.NewStorage: %v", err)
	}

	tokens := service.NewTokenService(testJWTSecret)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		server:  New(cfg, st, uploads, tokens, logger),
		store:   st,
		uploads: uploads,
		tokens:  tokens,
	}
}

// seedAdmin creates the default admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T) *model.Admin {
	t.Helper()
	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{
		Username:     testUsername,
		PasswordHash: hash,
		Name:         testAdminName,
		Email:        "admin@example.com",
	}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// adminToken seeds an admin and returns a token for it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	admin := e.seedAdmin(t)
	token, err := e.tokens.Issue(service.Identity{AdminID: admin.ID, Username: admin.Username})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

// do executes an HTTP request against the test server and returns the
// recorded response.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// doAuth executes an HTTP request with a bearer token.
func (e *testEnv) doAuth(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// doUpload sends a multipart form with one file and optional fields. An
// empty filename sends the fields only.
func (e *testEnv) doUpload(t *testing.T, path, token, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// jsonBody marshals v to a JSON reader for use as a request body.
func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return bytes.NewReader(data)
}

// decodeJSON decodes the response body into a generic map.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decodeJSON: %v\nbody: %s", err, rr.Body.String())
	}
	return result
}

// assertStatus checks the HTTP status code and fails with body context.
func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d; body: %s", want, rr.Code, rr.Body.String())
	}
}

// assertError checks the status and the {"code","message"} error body.
func assertError(t *testing.T, rr *httptest.ResponseRecorder, wantCode int, wantMessage string) {
	t.Helper()
	assertStatus(t, rr, wantCode)
	var e model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if e.Code != wantCode {
		t.Errorf("error code = %d, want %d", e.Code, wantCode)
	}
	if wantMessage != "" && e.Message != wantMessage {
		t.Errorf("error message = %q, want %q", e.Message, wantMessage)
	}
}

// ---------------------------------------------------------------------------
// Health, metrics and OpenAPI
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/healthz", nil)
	assertStatus(t, rr, http.StatusOK)
	if body := decodeJSON(t, rr); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	assertStatus(t, env.do(t, "GET", "/readyz", nil), http.StatusOK)

	env.store.Close()
	rr := env.do(t, "GET", "/readyz", nil)
	assertStatus(t, rr, http.StatusServiceUnavailable)
	if body := decodeJSON(t, rr); body["status"] != "degraded" {
		t.Errorf("expected degraded, got %v", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "GET", "/api/news", nil)

	rr := env.do(t, "GET", "/metrics", nil)
	assertStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `route="/api/news"`) {
		t.Errorf("metrics output missing /api/news route:\n%s", rr.Body.String())
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableMetrics = false
	env := newTestEnvWithConfig(t, cfg)
	if rr := env.do(t, "GET", "/metrics", nil); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for /metrics when disabled, got %d", rr.Code)
	}
}

func TestOpenAPIEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil)
	assertStatus(t, rr, http.StatusOK)

	paths, ok := decodeJSON(t, rr)["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("expected paths object")
	}
	if _, ok := paths["/api/auth/login"]; !ok {
		t.Error("expected /api/auth/login in document")
	}
}

// ---------------------------------------------------------------------------
// Auth flow
// ---------------------------------------------------------------------------

func TestLoginIssues24HourToken(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	before := time.Now()
	rr := env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
		"username": testUsername,
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)

	var res struct {
		Token string             `json:"token"`
		Admin model.AdminProfile `json:"admin"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Admin.ID != admin.ID || res.Admin.Username != testUsername || res.Admin.Name != testAdminName {
		t.Errorf("unexpected admin %+v", res.Admin)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("login response must not contain password data")
	}

	claims, err := env.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != testUsername {
		t.Errorf("unexpected claims %+v", claims.Identity)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt); ttl != service.TokenTTL {
		t.Errorf("token lifetime = %v, want %v", ttl, service.TokenTTL)
	}
	if claims.IssuedAt.Before(before.Add(-time.Second)) {
		t.Errorf("issued at %v is before the request", claims.IssuedAt)
	}

	activities, err := env.store.ListActivities(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(activities) != 1 || activities[0].Type != model.ActivityLogin {
		t.Fatalf("expected one login activity, got %+v", activities)
	}
	if activities[0].UserID == nil || *activities[0].UserID != admin.ID {
		t.Errorf("login activity actor = %v", activities[0].UserID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	wrongPassword := env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
		"username": testUsername,
		"password": "wrong",
	}))
	unknownUser := env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
		"username": "nobody",
		"password": "wrong",
	}))

	assertError(t, wrongPassword, http.StatusUnauthorized, "invalid username or password")
	assertStatus(t, unknownUser, http.StatusUnauthorized)
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Errorf("failure bodies differ:\n%s\n%s", wrongPassword.Body.String(), unknownUser.Body.String())
	}

	if n, _ := env.store.CountActivities(context.Background()); n != 0 {
		t.Errorf("failed logins must not be recorded, got %d activities", n)
	}
}

func TestLoginBadRequests(t *testing.T) {
	env := newTestEnv(t)

	assertStatus(t, env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{"username": testUsername})), http.StatusBadRequest)
	assertStatus(t, env.do(t, "POST", "/api/auth/login", strings.NewReader("{not json")), http.StatusBadRequest)
}

func TestLoginRateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginRateLimit = 2
	env := newTestEnvWithConfig(t, cfg)

	var rr *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rr = env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
			"username": "nobody",
			"password": "x",
		}))
	}
	assertStatus(t, rr, http.StatusTooManyRequests)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	t.Run("no token", func(t *testing.T) {
		assertError(t, env.do(t, "GET", "/api/auth/me", nil), http.StatusUnauthorized, "authentication required")
	})
	t.Run("invalid token", func(t *testing.T) {
		assertError(t, env.doAuth(t, "GET", "/api/auth/me", "invalid", nil), http.StatusForbidden, "token invalid or expired")
	})
	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-25 * time.Hour)
		expired, err := service.NewTokenService(testJWTSecret, service.WithClock(func() time.Time { return past })).
			Issue(service.Identity{AdminID: 1, Username: testUsername})
		if err != nil {
			t.Fatal(err)
		}
		assertStatus(t, env.doAuth(t, "GET", "/api/auth/me", expired, nil), http.StatusForbidden)
	})
	t.Run("valid token", func(t *testing.T) {
		rr := env.doAuth(t, "GET", "/api/auth/me", token, nil)
		assertStatus(t, rr, http.StatusOK)
		admin := decodeJSON(t, rr)["admin"].(map[string]interface{})
		if admin["username"] != testUsername || admin["name"] != testAdminName {
			t.Errorf("unexpected admin %v", admin)
		}
		if _, ok := admin["password_hash"]; ok {
			t.Error("profile must not contain the password hash")
		}
	})
	t.Run("deleted admin", func(t *testing.T) {
		ghost, _ := env.tokens.Issue(service.Identity{AdminID: 999, Username: "ghost"})
		assertStatus(t, env.doAuth(t, "GET", "/api/auth/me", ghost, nil), http.StatusNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.doAuth(t, "PUT", "/api/auth/password", token, jsonBody(t, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "n3w-password",
	}))
	assertStatus(t, rr, http.StatusUnauthorized)

	rr = env.doAuth(t, "PUT", "/api/auth/password", token, jsonBody(t, map[string]string{
		"currentPassword": testPassword,
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.doAuth(t, "PUT", "/api/auth/password", token, jsonBody(t, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "n3w-password",
	}))
	assertStatus(t, rr, http.StatusOK)

	login := func(password string) int {
		return env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
			"username": testUsername,
			"password": password,
		})).Code
	}
	if code := login(testPassword); code != http.StatusUnauthorized {
		t.Errorf("old password login status = %d, want 401", code)
	}
	if code := login("n3w-password"); code != http.StatusOK {
		t.Errorf("new password login status = %d, want 200", code)
	}

	// Tokens issued before the change stay valid.
	assertStatus(t, env.doAuth(t, "GET", "/api/auth/me", token, nil), http.StatusOK)
}

func TestChangePasswordLongerThanBcryptLimit(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	long := strings.Repeat("p", 73)

	rr := env.doAuth(t, "PUT", "/api/auth/password", token, jsonBody(t, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     long,
	}))
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
		"username": testUsername,
		"password": long,
	}))
	assertStatus(t, rr, http.StatusOK)
}

// failActivityInserts installs a trigger that aborts every insert into the
// activity log of the SQLite file at dsn.
func failActivityInserts(t *testing.T, dsn string) {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open %s: %v", dsn, err)
	}
	defer db.Close()
	_, err = db.Exec(`CREATE TRIGGER fail_activity_insert BEFORE INSERT ON activities
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}

func TestActivityWriteFailureAnswers500(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "schoolcms.db")
	env := newTestEnvWithStore(t, DefaultConfig(), store.Options{DSN: dsn})
	token := env.adminToken(t)
	failActivityInserts(t, dsn)

	rr := env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
		"username": testUsername,
		"password": testPassword,
	}))
	assertError(t, rr, http.StatusInternalServerError, "login failed")
	if strings.Contains(rr.Body.String(), "disk full") {
		t.Error("500 body must not leak the store error")
	}

	rr = env.doAuth(t, "PUT", "/api/auth/password", token, jsonBody(t, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "n3w-password",
	}))
	assertError(t, rr, http.StatusInternalServerError, "failed to change password")

	rr = env.doAuth(t, "POST", "/api/news", token, jsonBody(t, map[string]string{"title": "Sports day"}))
	assertError(t, rr, http.StatusInternalServerError, "failed to record activity")

	rr = env.doAuth(t, "POST", "/api/activities", token, jsonBody(t, map[string]string{
		"type":        "test",
		"description": "x",
	}))
	assertStatus(t, rr, http.StatusInternalServerError)
}

// ---------------------------------------------------------------------------
// Activity log
// ---------------------------------------------------------------------------

func TestActivities(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	assertStatus(t, env.do(t, "GET", "/api/activities", nil), http.StatusUnauthorized)

	rr := env.doAuth(t, "POST", "/api/activities", token, jsonBody(t, map[string]string{"type": "news"}))
	assertError(t, rr, http.StatusBadRequest, "type and description are required")

	for i := 1; i <= 3; i++ {
		rr = env.doAuth(t, "POST", "/api/activities", token, jsonBody(t, map[string]string{
			"type":        "news",
			"description": fmt.Sprintf("entry %d", i),
		}))
		assertStatus(t, rr, http.StatusCreated)
	}
	created := decodeJSON(t, rr)
	if created["description"] != "entry 3" || created["id"] == nil {
		t.Errorf("unexpected create response %v", created)
	}
	if _, err := time.Parse(time.RFC3339Nano, created["created_at"].(string)); err != nil {
		t.Errorf("created_at not RFC 3339: %v", err)
	}

	rr = env.doAuth(t, "GET", "/api/activities?page=1&limit=2", token, nil)
	assertStatus(t, rr, http.StatusOK)
	body := decodeJSON(t, rr)
	list := body["activities"].([]interface{})
	if len(list) != 2 {
		t.Fatalf("expected 2 activities on page 1, got %d", len(list))
	}
	if first := list[0].(map[string]interface{}); first["description"] != "entry 3" {
		t.Errorf("newest entry should come first, got %v", first["description"])
	}
	pagination := body["pagination"].(map[string]interface{})
	if pagination["total"] != float64(3) || pagination["totalPages"] != float64(2) || pagination["limit"] != float64(2) {
		t.Errorf("unexpected pagination %v", pagination)
	}

	assertStatus(t, env.doAuth(t, "DELETE", "/api/activities/clear", token, nil), http.StatusOK)

	body = decodeJSON(t, env.doAuth(t, "GET", "/api/activities", token, nil))
	if got := body["activities"].([]interface{}); len(got) != 0 {
		t.Errorf("expected empty log, got %d entries", len(got))
	}
	if total := body["pagination"].(map[string]interface{})["total"]; total != float64(0) {
		t.Errorf("expected total 0, got %v", total)
	}
}

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

func TestNewsCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	assertStatus(t, env.do(t, "POST", "/api/news", jsonBody(t, map[string]string{"title": "x"})), http.StatusUnauthorized)
	assertStatus(t, env.doAuth(t, "POST", "/api/news", token, jsonBody(t, map[string]string{"content": "x"})), http.StatusBadRequest)

	rr := env.doAuth(t, "POST", "/api/news", token, jsonBody(t, map[string]string{
		"title":   "Sports day",
		"content": "Everyone is welcome.",
	}))
	assertStatus(t, rr, http.StatusOK)
	id := int64(decodeJSON(t, rr)["newsId"].(float64))
	itemPath := fmt.Sprintf("/api/news/%d", id)

	rr = env.do(t, "GET", itemPath, nil)
	assertStatus(t, rr, http.StatusOK)
	if news := decodeJSON(t, rr)["news"].(map[string]interface{}); news["title"] != "Sports day" {
		t.Errorf("unexpected news %v", news)
	}

	assertStatus(t, env.doAuth(t, "PUT", itemPath, token, jsonBody(t, map[string]string{"title": "Sports day (moved)"})), http.StatusOK)

	rr = env.do(t, "GET", "/api/news?limit=5", nil)
	assertStatus(t, rr, http.StatusOK)
	list := decodeJSON(t, rr)["news"].([]interface{})
	if len(list) != 1 || list[0].(map[string]interface{})["title"] != "Sports day (moved)" {
		t.Errorf("unexpected news list %v", list)
	}

	assertStatus(t, env.doAuth(t, "DELETE", itemPath, token, nil), http.StatusOK)
	assertError(t, env.do(t, "GET", itemPath, nil), http.StatusNotFound, "news not found")
	assertStatus(t, env.doAuth(t, "DELETE", itemPath, token, nil), http.StatusNotFound)
	assertError(t, env.do(t, "GET", "/api/news/abc", nil), http.StatusBadRequest, "invalid id")

	activities, _ := env.store.ListActivities(context.Background(), 1, 10)
	var descs []string
	for _, a := range activities {
		descs = append(descs, a.Description)
	}
	want := []string{"deleted news: Sports day (moved)", "updated news: Sports day (moved)", "added news: Sports day"}
	if strings.Join(descs, "|") != strings.Join(want, "|") {
		t.Errorf("activities = %v, want %v", descs, want)
	}
}

func TestSlidesAndTeachers(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	assertStatus(t, env.doAuth(t, "POST", "/api/slides", token, jsonBody(t, map[string]interface{}{"title": "no image"})), http.StatusBadRequest)

	for _, s := range []map[string]interface{}{
		{"title": "second", "image_url": "/uploads/b.png", "order_num": 2},
		{"title": "first", "image_url": "/uploads/a.png", "order_num": 1},
	} {
		assertStatus(t, env.doAuth(t, "POST", "/api/slides", token, jsonBody(t, s)), http.StatusOK)
	}
	slides := decodeJSON(t, env.do(t, "GET", "/api/slides", nil))["slides"].([]interface{})
	if len(slides) != 2 || slides[0].(map[string]interface{})["title"] != "first" {
		t.Errorf("slides not ordered by order_num: %v", slides)
	}

	rr := env.doAuth(t, "POST", "/api/teachers", token, jsonBody(t, map[string]interface{}{"name": "Ms. Li", "department": "Math"}))
	assertStatus(t, rr, http.StatusOK)
	teacherID := int64(decodeJSON(t, rr)["teacherId"].(float64))

	rr = env.do(t, "GET", fmt.Sprintf("/api/teachers/%d", teacherID), nil)
	assertStatus(t, rr, http.StatusOK)
	if teacher := decodeJSON(t, rr)["teacher"].(map[string]interface{}); teacher["order_num"] != float64(1) {
		t.Errorf("default order_num = %v, want 1", teacher["order_num"])
	}

	assertStatus(t, env.doAuth(t, "PUT", "/api/teachers/999", token, jsonBody(t, map[string]interface{}{"name": "x"})), http.StatusNotFound)
	assertStatus(t, env.doAuth(t, "DELETE", fmt.Sprintf("/api/teachers/%d", teacherID), token, nil), http.StatusOK)
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	assertStatus(t, env.doUpload(t, "/api/upload", "", "logo.png", pngHeader, nil), http.StatusUnauthorized)
	assertStatus(t, env.doUpload(t, "/api/upload", token, "", nil, nil), http.StatusBadRequest)
	assertStatus(t, env.doUpload(t, "/api/upload", token, "notes.txt", []byte("hello"), nil), http.StatusBadRequest)
	assertStatus(t, env.doUpload(t, "/api/upload", token, "fake.png", []byte("not an image"), nil), http.StatusBadRequest)

	rr := env.doUpload(t, "/api/upload", token, "logo.png", pngHeader, nil)
	assertStatus(t, rr, http.StatusOK)
	file := decodeJSON(t, rr)["file"].(map[string]interface{})
	url, _ := file["url"].(string)
	if !strings.HasPrefix(url, "/uploads/file-") || file["mimetype"] != "image/png" {
		t.Fatalf("unexpected file %v", file)
	}

	rr = env.do(t, "GET", url, nil)
	assertStatus(t, rr, http.StatusOK)
	if !bytes.Equal(rr.Body.Bytes(), pngHeader) {
		t.Error("served file differs from upload")
	}
	assertStatus(t, env.do(t, "GET", "/uploads/", nil), http.StatusNotFound)
}

func TestUploadTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxImageSize = 16
	env := newTestEnvWithConfig(t, cfg)
	token := env.adminToken(t)

	big := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	assertStatus(t, env.doUpload(t, "/api/upload", token, "big.png", big, nil), http.StatusRequestEntityTooLarge)
}

func TestDownloads(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	content := []byte("term dates and holidays")

	assertStatus(t, env.doUpload(t, "/api/downloads", token, "run.exe", content, nil), http.StatusBadRequest)

	rr := env.doUpload(t, "/api/downloads", token, "calendar.txt", content, map[string]string{
		"title":    "School calendar",
		"category": "notices",
	})
	assertStatus(t, rr, http.StatusOK)
	id := int64(decodeJSON(t, rr)["downloadId"].(float64))

	list := decodeJSON(t, env.do(t, "GET", "/api/downloads?category=notices", nil))["downloads"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("expected 1 download, got %d", len(list))
	}
	item := list[0].(map[string]interface{})
	if item["file_name"] != "calendar.txt" || item["file_size"] != float64(len(content)) {
		t.Errorf("unexpected download %v", item)
	}
	if _, ok := item["stored_name"]; ok {
		t.Error("stored name must not be exposed")
	}
	if got := decodeJSON(t, env.do(t, "GET", "/api/downloads?category=other", nil))["downloads"].([]interface{}); len(got) != 0 {
		t.Errorf("category filter returned %d items", len(got))
	}

	rr = env.do(t, "GET", fmt.Sprintf("/api/downloads/%d/file", id), nil)
	assertStatus(t, rr, http.StatusOK)
	if !bytes.Equal(rr.Body.Bytes(), content) {
		t.Errorf("downloaded body = %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "calendar.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rr = env.do(t, "GET", fmt.Sprintf("/api/downloads/%d", id), nil)
	if d := decodeJSON(t, rr)["download"].(map[string]interface{}); d["download_count"] != float64(1) {
		t.Errorf("download_count = %v, want 1", d["download_count"])
	}

	assertStatus(t, env.doAuth(t, "DELETE", fmt.Sprintf("/api/downloads/%d", id), token, nil), http.StatusOK)
	assertStatus(t, env.do(t, "GET", fmt.Sprintf("/api/downloads/%d/file", id), nil), http.StatusNotFound)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.do(t, "GET", "/api/settings", nil)
	assertStatus(t, rr, http.StatusOK)
	settings := decodeJSON(t, rr)["settings"].(map[string]interface{})
	if _, ok := settings["school_name"]; !ok {
		t.Errorf("expected default school_name setting, got %v", settings)
	}

	assertStatus(t, env.do(t, "PUT", "/api/settings", jsonBody(t, map[string]string{"school_name": "x"})), http.StatusUnauthorized)
	assertStatus(t, env.doAuth(t, "PUT", "/api/settings", token, jsonBody(t, map[string]string{})), http.StatusBadRequest)
	assertStatus(t, env.doAuth(t, "PUT", "/api/settings", token, jsonBody(t, map[string]int{"school_name": 1})), http.StatusBadRequest)

	rr = env.doAuth(t, "PUT", "/api/settings", token, jsonBody(t, map[string]string{
		"school_name": "Riverside Primary",
		"motto":       "Learn together",
	}))
	assertStatus(t, rr, http.StatusOK)

	settings = decodeJSON(t, env.do(t, "GET", "/api/settings", nil))["settings"].(map[string]interface{})
	if settings["school_name"] != "Riverside Primary" || settings["motto"] != "Learn together" {
		t.Errorf("unexpected settings %v", settings)
	}
}

func TestUsersCount(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/users/count", nil)
	assertStatus(t, rr, http.StatusOK)
	if n := decodeJSON(t, rr)["count"]; n != float64(0) {
		t.Errorf("count = %v, want 0", n)
	}

	env.seedAdmin(t)
	if n := decodeJSON(t, env.do(t, "GET", "/api/users/count", nil))["count"]; n != float64(1) {
		t.Errorf("count = %v, want 1", n)
	}
}

func TestJSONBodyLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodySize = 64
	env := newTestEnvWithConfig(t, cfg)
	token := env.adminToken(t)

	rr := env.doAuth(t, "POST", "/api/news", token, jsonBody(t, map[string]string{
		"title":   "long",
		"content": strings.Repeat("x", 256),
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}
