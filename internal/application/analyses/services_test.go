package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vision-relay/internal/application"
	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

type fakeAnalyzer struct {
	state      domain.ConnState
	connectErr error
	full       any
	fullErr    error
	label      string
	labelErr   error
	colors     string
	textInfo   any
}

func (f *fakeAnalyzer) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		f.state = domain.StateFailed
		return f.connectErr
	}
	f.state = domain.StateConnected
	return nil
}

func (f *fakeAnalyzer) State() domain.ConnState { return f.state }

func (f *fakeAnalyzer) AnalyzeFull(ctx context.Context, img *images.Image) (any, error) {
	return f.full, f.fullErr
}

func (f *fakeAnalyzer) Orientation(ctx context.Context, img *images.Image) (string, error) {
	return f.label, f.labelErr
}

func (f *fakeAnalyzer) AnalyzeColors(ctx context.Context, img *images.Image) (string, error) {
	return f.colors, nil
}

func (f *fakeAnalyzer) ExtractTextInfo(ctx context.Context, img *images.Image) (any, error) {
	return f.textInfo, nil
}

type fakeRepo struct {
	saved []*domain.Analysis
	err   error
}

func (f *fakeRepo) Save(ctx context.Context, a *domain.Analysis) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	for _, a := range f.saved {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRepo) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	if limit > len(f.saved) {
		limit = len(f.saved)
	}
	return f.saved[:limit], nil
}

func (f *fakeRepo) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, int64, error) {
	return f.saved, int64(len(f.saved)), nil
}

type fakeStore struct {
	uploads int
	err     error
}

func (f *fakeStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return "http://store.local/" + key, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var _ application.Clock = fixedClock{}

func newService(an *fakeAnalyzer, repo *fakeRepo, store *fakeStore) *Service {
	return &Service{
		Analyzer: an,
		Repo:     repo,
		Images:   store,
		Clock:    fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Source:   "gradio",
	}
}

func img(t *testing.T) *images.Image {
	t.Helper()
	return &images.Image{Width: 4, Height: 3, Mode: "RGB", PNG: []byte{0x89, 'P', 'N', 'G'}}
}

func TestConnectSuccessAndFailure(t *testing.T) {
	an := &fakeAnalyzer{}
	svc := newService(an, &fakeRepo{}, &fakeStore{})

	res := svc.Connect(context.Background())
	assert.Equal(t, "connected", res.State)
	assert.Contains(t, res.Message, "successfully connected")

	an.connectErr = errors.New("failed to connect to http://space: dial refused")
	res = svc.Connect(context.Background())
	assert.Equal(t, "failed", res.State)
	assert.Contains(t, res.Message, "http://space")
	assert.Equal(t, "failed", svc.Status())
}

func TestAnalyzeFullPersistsResult(t *testing.T) {
	an := &fakeAnalyzer{state: domain.StateConnected, full: map[string]any{"width": float64(10)}}
	repo := &fakeRepo{}
	store := &fakeStore{}
	svc := newService(an, repo, store)

	res := svc.AnalyzeFull(context.Background(), img(t))
	require.False(t, res.Failed())
	assert.Equal(t, map[string]any{"width": float64(10)}, res.Data)

	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]
	assert.Equal(t, domain.CapabilityFull, saved.Capability)
	assert.Equal(t, `{"width":10}`, saved.Result)
	assert.False(t, saved.Failed)
	assert.Equal(t, "gradio", saved.Source)
	assert.Equal(t, 1, store.uploads)
	assert.NotEmpty(t, saved.ImageURL)
}

func TestAnalyzeFullFoldsErrorsIntoResult(t *testing.T) {
	an := &fakeAnalyzer{state: domain.StateConnected, fullErr: domain.ErrNotConnected}
	repo := &fakeRepo{}
	svc := newService(an, repo, &fakeStore{})

	res := svc.AnalyzeFull(context.Background(), img(t))
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "not connected")

	require.Len(t, repo.saved, 1)
	assert.True(t, repo.saved[0].Failed)
}

func TestPersistenceFailureDoesNotPoisonResult(t *testing.T) {
	an := &fakeAnalyzer{state: domain.StateConnected, full: map[string]any{"ok": true}}
	repo := &fakeRepo{err: errors.New("db down")}
	store := &fakeStore{err: errors.New("bucket gone")}
	svc := newService(an, repo, store)

	res := svc.AnalyzeFull(context.Background(), img(t))
	assert.False(t, res.Failed())
	assert.Equal(t, map[string]any{"ok": true}, res.Data)
}

func TestOrientationFormatsLabel(t *testing.T) {
	an := &fakeAnalyzer{state: domain.StateConnected, label: "landscape"}
	svc := newService(an, &fakeRepo{}, &fakeStore{})

	got := svc.Orientation(context.Background(), img(t))
	assert.Equal(t, "Orientation: landscape", got)
}

func TestOrientationFoldsErrorIntoText(t *testing.T) {
	an := &fakeAnalyzer{state: domain.StateConnected, labelErr: domain.ErrNoImage}
	repo := &fakeRepo{}
	svc := newService(an, repo, &fakeStore{})

	got := svc.Orientation(context.Background(), nil)
	assert.Contains(t, got, "Error:")
	assert.Contains(t, got, "no image")
	require.Len(t, repo.saved, 1)
	assert.True(t, repo.saved[0].Failed)
}

func TestAnalyzeAllRunsEveryCapability(t *testing.T) {
	an := &fakeAnalyzer{
		state:    domain.StateConnected,
		full:     map[string]any{"format": "png"},
		label:    "square",
		colors:   "Color analysis:\n2 distinct colors",
		textInfo: map[string]any{"has_text": false},
	}
	repo := &fakeRepo{}
	svc := newService(an, repo, &fakeStore{})

	report := svc.AnalyzeAll(context.Background(), img(t))
	assert.Equal(t, map[string]any{"format": "png"}, report.Full.Data)
	assert.Equal(t, "Orientation: square", report.Orientation)
	assert.Equal(t, "Color analysis:\n2 distinct colors", report.Colors)
	assert.Equal(t, map[string]any{"has_text": false}, report.TextInfo.Data)
	assert.Len(t, repo.saved, 4)
}

func TestPaginateDefaults(t *testing.T) {
	repo := &fakeRepo{saved: []*domain.Analysis{{ID: "a"}, {ID: "b"}}}
	svc := newService(&fakeAnalyzer{}, repo, &fakeStore{})

	page, err := svc.Paginate(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.TotalPages)
}
