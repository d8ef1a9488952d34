package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Himejjad/media-app/internal/api"
	"github.com/Himejjad/media-app/internal/apperr"
	"github.com/Himejjad/media-app/internal/config"
	"github.com/Himejjad/media-app/internal/domain"
	"github.com/Himejjad/media-app/internal/repository"
	"github.com/Himejjad/media-app/internal/service"
	"github.com/Himejjad/media-app/internal/storage"
)

// --- fakes ---

type fakeMediaService struct {
	listFn   func(ctx context.Context, opts domain.ListOptions) (*repository.ListResult, error)
	getFn    func(ctx context.Context, id primitive.ObjectID) (*domain.Media, error)
	uploadFn func(ctx context.Context, files []service.UploadInput, uploadedBy string) ([]domain.Media, error)
	deleteFn func(ctx context.Context, id primitive.ObjectID) error
	statsFn  func(ctx context.Context) (*domain.StatsSummary, error)
}

func (f *fakeMediaService) List(ctx context.Context, opts domain.ListOptions) (*repository.ListResult, error) {
	if f.listFn == nil {
		return &repository.ListResult{Items: []domain.Media{}}, nil
	}
	return f.listFn(ctx, opts)
}

func (f *fakeMediaService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Media, error) {
	if f.getFn == nil {
		return nil, apperr.New(apperr.KindNotFound, "Media file not found")
	}
	return f.getFn(ctx, id)
}

func (f *fakeMediaService) Upload(ctx context.Context, files []service.UploadInput, uploadedBy string) ([]domain.Media, error) {
	if f.uploadFn == nil {
		return nil, apperr.New(apperr.KindValidation, "No files uploaded")
	}
	return f.uploadFn(ctx, files, uploadedBy)
}

func (f *fakeMediaService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteFn == nil {
		return apperr.New(apperr.KindNotFound, "Media file not found")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeMediaService) Stats(ctx context.Context) (*domain.StatsSummary, error) {
	if f.statsFn == nil {
		return &domain.StatsSummary{}, nil
	}
	return f.statsFn(ctx)
}

type fakeHealthStore struct {
	err error
}

func (f fakeHealthStore) Put(context.Context, string, []byte, string, map[string]string) (storage.PutResult, error) {
	return storage.PutResult{}, nil
}
func (f fakeHealthStore) Delete(context.Context, string) error { return nil }
func (f fakeHealthStore) HealthCheck(context.Context) error    { return f.err }
func (f fakeHealthStore) Bucket() string                       { return "test-bucket" }

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination *api.Pagination `json:"pagination"`
}

func newTestRouter(t *testing.T, svc service.MediaService, dbErr, storeErr error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Upload: config.UploadConfig{MaxFileSize: 50 * 1024 * 1024, MaxFiles: 5, MaxConcurrent: 5},
	}
	router := gin.New()
	health := api.NewHealthHandler(func(context.Context) error { return dbErr }, fakeHealthStore{err: storeErr}, "test")
	api.SetupRoutes(router, cfg, zap.NewNop(), svc, health, nil)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func sampleMedia(name string) domain.Media {
	return domain.Media{
		ID:           primitive.NewObjectID(),
		Name:         name,
		OriginalName: name,
		URL:          "https://test-bucket.example.com/media/" + name,
		S3Key:        "media/" + name,
		Type:         domain.MediaTypeAudio,
		MimeType:     "audio/mpeg",
		Size:         42,
		Metadata:     domain.MediaMetadata{UploadedBy: "anonymous", Bucket: "test-bucket"},
	}
}

// --- tests ---

func TestListPassesValidatedQuery(t *testing.T) {
	var gotOpts domain.ListOptions
	svc := &fakeMediaService{
		listFn: func(_ context.Context, opts domain.ListOptions) (*repository.ListResult, error) {
			gotOpts = opts
			return &repository.ListResult{
				Items: []domain.Media{sampleMedia("a"), sampleMedia("b")},
				Total: 3,
			}, nil
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/media?type=audio&sort=name&order=asc&limit=2&page=1", nil)
	w, env := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, domain.ListOptions{
		Type: domain.MediaTypeAudio, Sort: "name", Order: "asc", Page: 1, Limit: 2,
	}, gotOpts)

	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.CurrentPage)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.Equal(t, int64(3), env.Pagination.TotalItems)
	assert.Equal(t, 2, env.Pagination.ItemsPerPage)

	var data []api.MediaResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data, 2)
	assert.Equal(t, "a", data[0].Name)
	assert.Equal(t, "b", data[1].Name)
}

func TestListDefaults(t *testing.T) {
	var gotOpts domain.ListOptions
	svc := &fakeMediaService{
		listFn: func(_ context.Context, opts domain.ListOptions) (*repository.ListResult, error) {
			gotOpts = opts
			return &repository.ListResult{Items: []domain.Media{}}, nil
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	w, _ := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/media", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ListOptions{Sort: "createdAt", Order: "desc", Page: 1, Limit: 50}, gotOpts)
}

func TestListInvalidQuery(t *testing.T) {
	cases := []string{
		"/media?limit=0",
		"/media?limit=101",
		"/media?page=0",
		"/media?type=video",
		"/media?sort=url",
		"/media?order=sideways",
		"/media?limit=abc",
	}
	called := false
	svc := &fakeMediaService{
		listFn: func(context.Context, domain.ListOptions) (*repository.ListResult, error) {
			called = true
			return nil, nil
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	for _, path := range cases {
		w, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
		assert.False(t, env.Success)
		assert.Equal(t, "Invalid query parameters", env.Error)
	}
	assert.False(t, called, "invalid queries must not reach the store")
}

func TestGetMalformedID(t *testing.T) {
	router := newTestRouter(t, &fakeMediaService{}, nil, nil)

	w, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/media/not-a-hex-id", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Media file not found", env.Error)
}

func TestGetOK(t *testing.T) {
	m := sampleMedia("song.mp3")
	svc := &fakeMediaService{
		getFn: func(_ context.Context, id primitive.ObjectID) (*domain.Media, error) {
			if id == m.ID {
				return &m, nil
			}
			return nil, apperr.New(apperr.KindNotFound, "Media file not found")
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	w, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/media/"+m.ID.Hex(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var data api.MediaResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, m.ID.Hex(), data.ID)
	assert.Equal(t, "song.mp3", data.Name)

	w, _ = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/media/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadCreated(t *testing.T) {
	var gotFiles []service.UploadInput
	svc := &fakeMediaService{
		uploadFn: func(_ context.Context, files []service.UploadInput, _ string) ([]domain.Media, error) {
			gotFiles = files
			return []domain.Media{sampleMedia("song.mp3")}, nil
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	body, contentType := multipartBody(t, map[string]string{"song.mp3": "mp3-bytes"})
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	w, env := doRequest(t, router, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Successfully uploaded 1 file(s)", env.Message)

	require.Len(t, gotFiles, 1)
	assert.Equal(t, "song.mp3", gotFiles[0].OriginalName)
	assert.Equal(t, []byte("mp3-bytes"), gotFiles[0].Data)
	assert.Equal(t, int64(len("mp3-bytes")), gotFiles[0].Size)
}

func TestUploadOverCountRejectedBeforeBuffering(t *testing.T) {
	reached := false
	svc := &fakeMediaService{
		uploadFn: func(context.Context, []service.UploadInput, string) ([]domain.Media, error) {
			reached = true
			return nil, nil
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	// Six files against MaxFiles: 5, each carrying a payload that must
	// never be read.
	files := make(map[string]string, 6)
	payload := strings.Repeat("x", 1024*1024)
	for i := 0; i < 6; i++ {
		files[fmt.Sprintf("clip-%d.mp3", i)] = payload
	}
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	w, env := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Too many files. Maximum is 5 files per request", env.Error)
	assert.False(t, reached, "over-count request must be rejected before payloads reach the service")
}

func TestUploadWithoutFiles(t *testing.T) {
	router := newTestRouter(t, &fakeMediaService{}, nil, nil)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	w, env := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No files uploaded", env.Error)
}

func TestUploadValidationFailure(t *testing.T) {
	svc := &fakeMediaService{
		uploadFn: func(context.Context, []service.UploadInput, string) ([]domain.Media, error) {
			return nil, apperr.New(apperr.KindValidation, "File type video/mp4 is not allowed")
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	body, contentType := multipartBody(t, map[string]string{"movie.mp4": "mpeg4"})
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	w, env := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestUploadStoreFailure(t *testing.T) {
	svc := &fakeMediaService{
		uploadFn: func(context.Context, []service.UploadInput, string) ([]domain.Media, error) {
			return nil, apperr.Wrap(apperr.KindStore, "Failed to upload song.mp3", errors.New("insert timeout"))
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	body, contentType := multipartBody(t, map[string]string{"song.mp3": "x"})
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	w, env := doRequest(t, router, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload song.mp3", env.Error)
}

func TestDeleteOK(t *testing.T) {
	id := primitive.NewObjectID()
	svc := &fakeMediaService{
		deleteFn: func(_ context.Context, got primitive.ObjectID) error {
			if got == id {
				return nil
			}
			return apperr.New(apperr.KindNotFound, "Media file not found")
		},
	}
	router := newTestRouter(t, svc, nil, nil)

	w, env := doRequest(t, router, httptest.NewRequest(http.MethodDelete, "/media/"+id.Hex(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Media file deleted successfully", env.Message)
}

func TestDeleteMissing(t *testing.T) {
	router := newTestRouter(t, &fakeMediaService{}, nil, nil)

	w, env := doRequest(t, router, httptest.NewRequest(http.MethodDelete, "/media/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Media file not found", env.Error)
}

func TestStatsEmptyCatalog(t *testing.T) {
	router := newTestRouter(t, &fakeMediaService{}, nil, nil)

	w, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/media/stats/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var data map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &data))
	expected := map[string]int64{
		"total": 0, "totalSize": 0,
		"images": 0, "audio": 0,
		"imagesSize": 0, "audioSize": 0,
	}
	assert.Equal(t, expected, data)
}

func TestHealthHealthy(t *testing.T) {
	router := newTestRouter(t, &fakeMediaService{}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "OK", payload["message"])
}

func TestHealthDependencyDown(t *testing.T) {
	router := newTestRouter(t, &fakeMediaService{}, errors.New("no reachable servers"), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	router = newTestRouter(t, &fakeMediaService{}, nil, errors.New("NoSuchBucket"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
