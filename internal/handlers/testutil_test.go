package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/config"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/internal/services"
	"github.com/kurbezz/shared-lists/internal/session"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	cfg      *config.Config
	audit    *services.AuditService
	sessions *session.DBStore
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithOAuth(t, nil)
}

func setupTestEnvWithOAuth(t *testing.T, oauth *services.OAuthProviderService) *testEnv {
	t.Helper()

	logger.SetOutput(io.Discard)
	utils.ConfigureJWT(testJWTSecret, 24)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 24},
		Server: config.ServerConfig{
			FrontendURL: "http://localhost:5173",
			BodyLimit:   1024 * 1024,
		},
	}

	auditService := services.NewAuditService(db, nil, 100)
	t.Cleanup(auditService.Close)

	sessions := session.NewDBStore(db)

	app := NewApp(Deps{
		Cfg:      cfg,
		DB:       db,
		Sessions: sessions,
		Audit:    auditService,
		OAuth:    oauth,
	})

	return &testEnv{app: app, db: db, cfg: cfg, audit: auditService, sessions: sessions}
}

func createTestUser(t *testing.T, db *gorm.DB, username string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		TwitchID: "twitch-" + username,
		Username: username,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, _, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d body=%q", expected, resp.StatusCode, string(raw))
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func assertValidationField(t *testing.T, body map[string]any, field string) {
	t.Helper()
	assertEnvelopeError(t, body, "validation failed")
	fields, _ := body["fields"].([]any)
	for _, raw := range fields {
		if entry, ok := raw.(map[string]any); ok && entry["field"] == field {
			return
		}
	}
	t.Fatalf("expected validation error on field %q, got %+v", field, body["fields"])
}

func dataObject(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T (%+v)", body["data"], body)
	}
	return data
}

func dataArray(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected array data, got %T (%+v)", body["data"], body)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			t.Fatalf("expected object entries, got %T", entry)
		}
		out = append(out, obj)
	}
	return out
}

func createPage(t *testing.T, env *testEnv, token, title string) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/pages", map[string]any{"title": title}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataObject(t, decodeJSONMap(t, resp))["id"].(string)
}

func createList(t *testing.T, env *testEnv, token, pageID, title string) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/pages/%s/lists", pageID), map[string]any{"title": title}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataObject(t, decodeJSONMap(t, resp))["id"].(string)
}

func createItem(t *testing.T, env *testEnv, token, listID, content string) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/lists/%s/items", listID), map[string]any{"content": content}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataObject(t, decodeJSONMap(t, resp))["id"].(string)
}

func grantAccess(t *testing.T, env *testEnv, token, pageID string, userID uuid.UUID, canEdit bool) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/pages/%s/permissions", pageID), map[string]any{
		"user_id":  userID.String(),
		"can_edit": canEdit,
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataObject(t, decodeJSONMap(t, resp))["id"].(string)
}

func titles(entries []map[string]any, key string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		value, _ := entry[key].(string)
		out = append(out, value)
	}
	return out
}
