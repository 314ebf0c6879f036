package analysis

import (
	"context"

	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

// Analyzer port (interface untuk remote analysis providers)
type Analyzer interface {
	// Connect performs the endpoint handshake. It never panics; failures come
	// back as the returned error and as State() == StateFailed.
	Connect(ctx context.Context) error
	State() ConnState

	AnalyzeFull(ctx context.Context, img *images.Image) (any, error)
	Orientation(ctx context.Context, img *images.Image) (string, error)
	AnalyzeColors(ctx context.Context, img *images.Image) (string, error)
	ExtractTextInfo(ctx context.Context, img *images.Image) (any, error)
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	Latest(ctx context.Context, limit int) ([]*Analysis, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Analysis, int64, error)
}

// ImageStore port (interface untuk penyimpanan gambar)
type ImageStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
