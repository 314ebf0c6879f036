package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vision-relay/internal/application"
	"github.com/bryanwahyu/vision-relay/internal/application/analyses"
	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

type stubAnalyzer struct {
	state domain.ConnState
	full  any
	label string
}

func (s *stubAnalyzer) Connect(ctx context.Context) error {
	s.state = domain.StateConnected
	return nil
}

func (s *stubAnalyzer) State() domain.ConnState { return s.state }

func (s *stubAnalyzer) AnalyzeFull(ctx context.Context, img *images.Image) (any, error) {
	if img.Empty() {
		return nil, domain.ErrNoImage
	}
	return s.full, nil
}

func (s *stubAnalyzer) Orientation(ctx context.Context, img *images.Image) (string, error) {
	return s.label, nil
}

func (s *stubAnalyzer) AnalyzeColors(ctx context.Context, img *images.Image) (string, error) {
	return "Color analysis:\n1 distinct color", nil
}

func (s *stubAnalyzer) ExtractTextInfo(ctx context.Context, img *images.Image) (any, error) {
	return map[string]any{"has_text": false}, nil
}

type stubRepo struct {
	saved []*domain.Analysis
}

func (s *stubRepo) Save(ctx context.Context, a *domain.Analysis) error {
	s.saved = append(s.saved, a)
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	for _, a := range s.saved {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubRepo) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	return s.saved, nil
}

func (s *stubRepo) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, int64, error) {
	return s.saved, int64(len(s.saved)), nil
}

type stubStore struct{}

func (stubStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "http://store.local/" + key, nil
}

func newTestHandler(an *stubAnalyzer, repo *stubRepo) http.Handler {
	return NewRouter(&analyses.Service{
		Analyzer: an,
		Repo:     repo,
		Images:   stubStore{},
		Clock:    application.SystemClock{},
		Source:   "gradio",
	})
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConnectAndStatusEndpoints(t *testing.T) {
	an := &stubAnalyzer{}
	h := newTestHandler(an, &stubRepo{})

	rec := doJSON(t, h, http.MethodPost, "/v1/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res analyses.ConnectResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "connected", res.State)

	rec = doJSON(t, h, http.MethodGet, "/v1/status", nil)
	assert.Contains(t, rec.Body.String(), "connected")
}

func TestAnalyzeWithSampleImage(t *testing.T) {
	an := &stubAnalyzer{state: domain.StateConnected, full: map[string]any{"format": "PNG"}}
	repo := &stubRepo{}
	h := newTestHandler(an, repo)

	rec := doJSON(t, h, http.MethodPost, "/v1/analyze", map[string]string{"sample": "red-rectangle"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Error)
	assert.Equal(t, map[string]any{"format": "PNG"}, res.Data)
	assert.Len(t, repo.saved, 1)
}

func TestAnalyzeWithInlineBase64(t *testing.T) {
	an := &stubAnalyzer{state: domain.StateConnected, full: map[string]any{"width": float64(2)}}
	h := newTestHandler(an, &stubRepo{})

	// grab real PNG bytes from a generated sample and send them inline
	sample := doJSON(t, h, http.MethodGet, "/v1/samples/blue-square", nil)
	require.Equal(t, http.StatusOK, sample.Code)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(sample.Body.Bytes())
	rec := doJSON(t, h, http.MethodPost, "/v1/analyze", map[string]string{"image": payload})
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Error)
}

func TestAnalyzeWithoutImageFoldsIntoResult(t *testing.T) {
	an := &stubAnalyzer{state: domain.StateConnected}
	h := newTestHandler(an, &stubRepo{})

	rec := doJSON(t, h, http.MethodPost, "/v1/analyze", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.Error, "no image")
}

func TestAnalyzeRejectsBadBase64(t *testing.T) {
	h := newTestHandler(&stubAnalyzer{state: domain.StateConnected}, &stubRepo{})

	rec := doJSON(t, h, http.MethodPost, "/v1/analyze", map[string]string{"image": "!!not-base64!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid base64")
}

func TestOrientationEndpoint(t *testing.T) {
	an := &stubAnalyzer{state: domain.StateConnected, label: "portrait"}
	h := newTestHandler(an, &stubRepo{})

	rec := doJSON(t, h, http.MethodPost, "/v1/orientation", map[string]string{"sample": "gradient"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Orientation: portrait")
}

func TestAnalyzeAllEndpoint(t *testing.T) {
	an := &stubAnalyzer{state: domain.StateConnected, full: map[string]any{"format": "PNG"}, label: "square"}
	repo := &stubRepo{}
	h := newTestHandler(an, repo)

	rec := doJSON(t, h, http.MethodPost, "/v1/analyze/all", map[string]string{"sample": "checkerboard"})
	require.Equal(t, http.StatusOK, rec.Code)

	var report analyses.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Orientation: square", report.Orientation)
	assert.Contains(t, report.Colors, "Color analysis:")
	assert.Len(t, repo.saved, 4)
}

func TestAnalysisLookup(t *testing.T) {
	repo := &stubRepo{saved: []*domain.Analysis{{
		ID:         "3e7c0c2e-55f1-4f36-9d0f-0d8b70c9a111",
		Capability: domain.CapabilityFull,
		Result:     `{"format":"PNG"}`,
		CreatedAt:  time.Now(),
	}}}
	h := newTestHandler(&stubAnalyzer{}, repo)

	rec := doJSON(t, h, http.MethodGet, "/v1/analyses/3e7c0c2e-55f1-4f36-9d0f-0d8b70c9a111", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PNG")

	rec = doJSON(t, h, http.MethodGet, "/v1/analyses/9e7c0c2e-55f1-4f36-9d0f-0d8b70c9a999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/analyses/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSamplesEndpoints(t *testing.T) {
	h := newTestHandler(&stubAnalyzer{}, &stubRepo{})

	rec := doJSON(t, h, http.MethodGet, "/v1/samples", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, name := range []string{"red-rectangle", "blue-square", "gradient", "checkerboard"} {
		assert.Contains(t, rec.Body.String(), name)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/samples/red-rectangle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = doJSON(t, h, http.MethodGet, "/v1/samples/nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
