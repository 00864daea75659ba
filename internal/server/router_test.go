package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/abduss/filegate/internal/config"
	"github.com/abduss/filegate/internal/file"
	"github.com/abduss/filegate/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(origins ...string) config.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return config.Config{
		Storage: config.StorageConfig{
			Driver:          config.DriverS3,
			Bucket:          "uploads",
			Region:          "us-east-1",
			AccessKeyID:     "AKIAEXAMPLE",
			SecretAccessKey: "super-secret",
		},
		CORS:    config.DefaultCORSPolicy(origins),
		Metrics: config.MetricsConfig{PrometheusPath: "/metrics"},
	}
}

func newTestRouter(t *testing.T, store *memoryStore, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(Dependencies{
		Config:      cfg,
		ObjectStore: store,
		FileService: file.NewService(store, nil, 0),
	})
}

func TestHealthRoutes(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouter(t, store, testConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	store.pingErr = errors.New("bucket unreachable")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","component":"object-store","error":"bucket unreachable"}`, rr.Body.String())
}

func TestConfigRouteOmitsCredentials(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(), testConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/aws-config", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "super-secret")
	assert.NotContains(t, rr.Body.String(), "AKIAEXAMPLE")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "uploads", body["S3_BUCKET"])
	assert.Equal(t, "us-east-1", body["AWS_REGION"])
	assert.EqualValues(t, 3600, body["LINK_TTL_SECONDS"])
}

func TestCORSActualRequest(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(), testConfig("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardOrigin(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(), testConfig())

	req := httptest.NewRequest(http.MethodDelete, "/delete/a.txt", nil)
	req.Header.Set("Origin", "https://any.example.com")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightStopsChain(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouter(t, store, testConfig("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Zero(t, store.calls)
}

func TestCORSNotAppliedOutsidePolicy(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(), testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://any.example.com")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryReturnsGenericError(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(), testConfig())
	router.GET("/boom", func(c *gin.Context) {
		panic("unexpected")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, newMemoryStore(), testConfig())
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "filegate_http_requests_total")
}

func TestUploadListDeleteFlow(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouter(t, store, testConfig())

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "report.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var uploaded struct {
		Filename    string `json:"filename"`
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &uploaded))
	assert.Contains(t, uploaded.DownloadURL, uploaded.Filename)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var listing struct {
		Files []file.Entry `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Len(t, listing.Files, 1)
	assert.Equal(t, uploaded.Filename, listing.Files[0].Filename)
	assert.Equal(t, int64(8), listing.Files[0].Size)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/delete/"+uploaded.Filename, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.JSONEq(t, `{"files":[]}`, rr.Body.String())
}

// memoryStore is an in-process storage.Store for router tests.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string]storage.ObjectInfo
	calls   int
	pingErr error
}

var _ storage.Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]storage.ObjectInfo)}
}

func (m *memoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.objects[key] = storage.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now(), ContentType: contentType}
	return nil
}

func (m *memoryStore) List(ctx context.Context, limit int) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]storage.ObjectInfo, 0, len(m.objects))
	for _, obj := range m.objects {
		if len(out) == limit {
			break
		}
		out = append(out, obj)
	}
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return "https://uploads.s3.amazonaws.com/" + key + "?X-Amz-Expires=3600", nil
}

func (m *memoryStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *memoryStore) Close() error {
	return nil
}
