package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() Config {
	return Config{
		SecretKey:      "test-secret",
		Algorithm:      "HS256",
		AccessTokenTTL: 30 * time.Minute,
		CORSOrigin:     "http://localhost:4200",
	}
}

// newTestAPI wires the full router against an in-memory sqlite database.
func newTestAPI(t *testing.T) (*api, http.Handler) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err, "failed to open test database")
	// a second pooled connection would see its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, autoMigrate(db), "failed to migrate test database")
	cfg := testConfig()
	a := newAPI(db, cfg)
	return a, a.routes(cfg)
}

// doJSON sends a JSON request (body may be nil) with an optional bearer token.
func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func registerUser(t *testing.T, h http.Handler, email, username, password string) User {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[User](t, rec)
}

// loginForm posts the form-encoded login and returns the raw recorder.
func loginForm(t *testing.T, h http.Handler, identifier, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {identifier}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func loginUser(t *testing.T, h http.Handler, identifier, password string) string {
	t.Helper()
	rec := loginForm(t, h, identifier, password)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody[struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}](t, rec)
	require.Equal(t, "bearer", out.TokenType)
	return out.AccessToken
}
