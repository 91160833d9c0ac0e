package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/filebox/config"
	"github.com/cppla/filebox/models"
	"github.com/cppla/filebox/utils"
)

func testRouter(t *testing.T) (http.Handler, config.AppConfig) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "files.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, &models.File{}))

	cfg := config.AppConfig{
		JWTSecret:          "router-secret",
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "logs", "gin.log"),
		RateLimitPerMinute: 600,
		AllowedOrigins:     []string{"*"},
		StorageRoot:        t.TempDir(),
		UploadsDir:         "uploads",
		MaxUploadMB:        1,
	}
	return SetupRouter(cfg, db, utils.NewCache(nil, time.Minute)), cfg
}

func bearer(t *testing.T, cfg config.AppConfig, userID uint) string {
	t.Helper()
	token, err := utils.GenerateToken(cfg.JWTSecret, userID, "tester", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, w.Body.String())
}

func TestFilesRequireAuth(t *testing.T) {
	r, _ := testRouter(t)
	for _, target := range []string{"/api/v1/files", "/api/v1/files/1/download"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadAndDownloadThroughRouter(t *testing.T) {
	r, cfg := testRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "hello.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello router"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, cfg, 42))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		File models.File `json:"file"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, uint(42), created.File.UserID)

	// another user cannot see it
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/files/%d/download", created.File.FileID), nil)
	req.Header.Set("Authorization", bearer(t, cfg, 43))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/files/%d/download", created.File.FileID), nil)
	req.Header.Set("Authorization", bearer(t, cfg, 42))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello router", w.Body.String())
}
