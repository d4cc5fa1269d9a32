package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newUploadRouter(t *testing.T, limiter *rate.Limiter) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	h, err := NewHandler(dir)
	require.NoError(t, err)
	r := gin.New()
	Register(r.Group("/api"), h, limiter)
	return r, dir
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	r, dir := newUploadRouter(t, rate.NewLimiter(rate.Inf, 1))

	body, contentType := multipartBody(t, "cube.glb", []byte("binary-model-data"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.URL, "/uploads/"+resp.Filename)
	assert.Equal(t, ".glb", filepath.Ext(resp.Filename))
	assert.Equal(t, int64(len("binary-model-data")), resp.Size)

	stored, err := os.ReadFile(filepath.Join(dir, resp.Filename))
	require.NoError(t, err)
	assert.Equal(t, []byte("binary-model-data"), stored)
}

func TestUpload_NoFile(t *testing.T) {
	r, _ := newUploadRouter(t, rate.NewLimiter(rate.Inf, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_RateLimited(t *testing.T) {
	r, _ := newUploadRouter(t, rate.NewLimiter(0, 0))

	body, contentType := multipartBody(t, "cube.glb", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
