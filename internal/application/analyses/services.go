package analyses

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/vision-relay/internal/application"
	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

// Service implements use-cases around the remote analysis endpoint.
// The analyzer holds a single shared connection handle that is not safe for
// concurrent use, so the service serializes every call through mu.
type Service struct {
	Analyzer domain.Analyzer
	Repo     domain.Repository
	Images   domain.ImageStore
	Clock    application.Clock
	Source   string // provider label stored with each analysis

	mu sync.Mutex
}

// ConnectResult is what the presentation layer renders after a connect attempt.
type ConnectResult struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// Report bundles the original comprehensive run: all four operations
// against one image.
type Report struct {
	Full        domain.Result `json:"full"`
	Orientation string        `json:"orientation"`
	Colors      string        `json:"colors"`
	TextInfo    domain.Result `json:"text_info"`
}

// Connect attempts the endpoint handshake. Failures come back as a result,
// never as a fault; connect again to retry.
func (s *Service) Connect(ctx context.Context) ConnectResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Analyzer.Connect(ctx); err != nil {
		return ConnectResult{
			State:   s.Analyzer.State().String(),
			Message: err.Error(),
		}
	}
	return ConnectResult{
		State:   s.Analyzer.State().String(),
		Message: "successfully connected to analysis endpoint",
	}
}

// Status reports the current connection state without touching the wire.
func (s *Service) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Analyzer.State().String()
}

// AnalyzeFull runs the full-analysis capability. Every failure mode is
// folded into the returned Result.
func (s *Service) AnalyzeFull(ctx context.Context, img *images.Image) domain.Result {
	return s.structured(ctx, domain.CapabilityFull, img, s.callFull)
}

// ExtractTextInfo runs the text-info capability with the same contract.
func (s *Service) ExtractTextInfo(ctx context.Context, img *images.Image) domain.Result {
	return s.structured(ctx, domain.CapabilityTextInfo, img, s.callTextInfo)
}

// Orientation returns the orientation label, prefixed for display. Errors
// are folded into the returned text, matching the contract that nothing
// escapes as a fault.
func (s *Service) Orientation(ctx context.Context, img *images.Image) string {
	return s.scalar(ctx, domain.CapabilityOrientation, img, "Orientation: ", s.Analyzer.Orientation)
}

// AnalyzeColors returns the color summary (the analyzer already prefixes it).
func (s *Service) AnalyzeColors(ctx context.Context, img *images.Image) string {
	return s.scalar(ctx, domain.CapabilityColors, img, "", s.Analyzer.AnalyzeColors)
}

// AnalyzeAll runs every capability against one image and bundles the
// results. Operations are independent: one failing leaves the rest intact.
func (s *Service) AnalyzeAll(ctx context.Context, img *images.Image) Report {
	return Report{
		Full:        s.AnalyzeFull(ctx, img),
		Orientation: s.Orientation(ctx, img),
		Colors:      s.AnalyzeColors(ctx, img),
		TextInfo:    s.ExtractTextInfo(ctx, img),
	}
}

//
// ==== QUERIES ====
//

func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Repo.Latest(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) Paginate(ctx context.Context, page, pageSize int) (*domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	list, total, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &domain.PaginatedResult{
		Data:       list,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

//
// ==== internals ====
//

func (s *Service) callFull(ctx context.Context, img *images.Image) (any, error) {
	return s.Analyzer.AnalyzeFull(ctx, img)
}

func (s *Service) callTextInfo(ctx context.Context, img *images.Image) (any, error) {
	return s.Analyzer.ExtractTextInfo(ctx, img)
}

func (s *Service) structured(ctx context.Context, capability domain.Capability, img *images.Image, call func(context.Context, *images.Image) (any, error)) domain.Result {
	started := s.Clock.Now()

	s.mu.Lock()
	v, err := call(ctx, img)
	s.mu.Unlock()

	var res domain.Result
	if err != nil {
		res = domain.Fail(err)
	} else {
		res = domain.OK(v)
	}
	s.record(ctx, capability, img, res.Raw(), res.Failed(), started)
	return res
}

func (s *Service) scalar(ctx context.Context, capability domain.Capability, img *images.Image, prefix string, call func(context.Context, *images.Image) (string, error)) string {
	started := s.Clock.Now()

	s.mu.Lock()
	text, err := call(ctx, img)
	s.mu.Unlock()

	if err != nil {
		s.record(ctx, capability, img, err.Error(), true, started)
		return "Error: " + err.Error()
	}
	s.record(ctx, capability, img, text, false, started)
	return prefix + text
}

// record persists the analysis and its input image. Persistence failures are
// logged and swallowed: they must never poison an analysis that already
// succeeded.
func (s *Service) record(ctx context.Context, capability domain.Capability, img *images.Image, raw string, failed bool, started time.Time) {
	if s.Repo == nil {
		return
	}

	id := uuid.New().String()
	a := &domain.Analysis{
		ID:         domain.AnalysisID(id),
		Capability: capability,
		Result:     raw,
		Failed:     failed,
		Source:     s.Source,
		DurationMS: s.Clock.Now().Sub(started).Milliseconds(),
		CreatedAt:  started,
	}

	if img != nil && !img.Empty() {
		a.Width = img.Width
		a.Height = img.Height
		if s.Images != nil {
			key := fmt.Sprintf("inputs/%s.png", id)
			url, err := s.Images.UploadBytes(ctx, key, img.PNG, "image/png")
			if err != nil {
				log.Printf("image upload failed for analysis %s: %v", id, err)
			} else {
				a.ImageKey = key
				a.ImageURL = url
			}
		}
	}

	if err := s.Repo.Save(ctx, a); err != nil {
		log.Printf("failed to save analysis %s: %v", id, err)
	}
}
