package httpserver

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/vision-relay/internal/application/analyses"
	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
	"github.com/bryanwahyu/vision-relay/internal/infra/samples"
	"github.com/bryanwahyu/vision-relay/internal/middleware"
)

type Router struct {
	svc *analyses.Service
}

func NewRouter(svc *analyses.Service) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/connect", r.wrap(r.handleConnect))
		rt.Get("/status", r.wrap(r.handleStatus))

		rt.Post("/analyze", r.wrap(r.handleAnalyzeFull))
		rt.Post("/analyze/all", r.wrap(r.handleAnalyzeAll))
		rt.Post("/orientation", r.wrap(r.handleOrientation))
		rt.Post("/colors", r.wrap(r.handleColors))
		rt.Post("/text-info", r.wrap(r.handleTextInfo))

		rt.Get("/analyses", r.wrap(r.handleAnalysesList))
		rt.Get("/analyses/latest", r.wrap(r.handleAnalysesLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleAnalysisGet))

		rt.Get("/samples", r.wrap(r.handleSamplesList))
		rt.Get("/samples/{name}", r.wrap(r.handleSampleGet))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks caller mistakes so wrap can answer 400 instead of 500.
type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &badRequestError{err: err} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br *badRequestError
			switch {
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.As(err, &br):
				http.Error(w, br.Error(), http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// analyzeRequest carries the image for an analysis call: either an inline
// base64 payload (raw or data URL) or the name of a built-in sample.
type analyzeRequest struct {
	Image  string `json:"image,omitempty"`
	Sample string `json:"sample,omitempty"`
}

func (r *Router) decodeImage(req *http.Request) (*images.Image, error) {
	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, badRequest(fmt.Errorf("invalid request body: %w", err))
	}

	if body.Sample != "" {
		img, err := samples.Generate(body.Sample)
		if err != nil {
			return nil, badRequest(err)
		}
		return img, nil
	}

	if body.Image == "" {
		// the analyzer answers this with its uniform "no image" result
		return nil, nil
	}

	payload := body.Image
	if idx := strings.Index(payload, "base64,"); idx >= 0 {
		payload = payload[idx+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, badRequest(fmt.Errorf("invalid base64 image: %w", err))
	}
	if err := middleware.ValidateImagePayload(raw); err != nil {
		return nil, badRequest(err)
	}
	img, err := images.FromBytes(raw)
	if err != nil {
		return nil, badRequest(err)
	}
	return img, nil
}

// POST /v1/connect
func (r *Router) handleConnect(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementConnectAttempts()
	res := r.svc.Connect(req.Context())
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /v1/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"state": r.svc.Status()})
}

// POST /v1/analyze
func (r *Router) handleAnalyzeFull(w http.ResponseWriter, req *http.Request) error {
	img, err := r.decodeImage(req)
	if err != nil {
		return err
	}
	res := r.svc.AnalyzeFull(req.Context(), img)
	trackAnalysis(res.Failed())
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// POST /v1/analyze/all
func (r *Router) handleAnalyzeAll(w http.ResponseWriter, req *http.Request) error {
	img, err := r.decodeImage(req)
	if err != nil {
		return err
	}
	report := r.svc.AnalyzeAll(req.Context(), img)
	trackAnalysis(report.Full.Failed() || report.TextInfo.Failed())
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(report)
}

// POST /v1/orientation
func (r *Router) handleOrientation(w http.ResponseWriter, req *http.Request) error {
	img, err := r.decodeImage(req)
	if err != nil {
		return err
	}
	text := r.svc.Orientation(req.Context(), img)
	trackAnalysis(strings.HasPrefix(text, "Error:"))
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"text": text})
}

// POST /v1/colors
func (r *Router) handleColors(w http.ResponseWriter, req *http.Request) error {
	img, err := r.decodeImage(req)
	if err != nil {
		return err
	}
	text := r.svc.AnalyzeColors(req.Context(), img)
	trackAnalysis(strings.HasPrefix(text, "Error:"))
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"text": text})
}

// POST /v1/text-info
func (r *Router) handleTextInfo(w http.ResponseWriter, req *http.Request) error {
	img, err := r.decodeImage(req)
	if err != nil {
		return err
	}
	res := r.svc.ExtractTextInfo(req.Context(), img)
	trackAnalysis(res.Failed())
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleAnalysesList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Paginate(req.Context(), page, size)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/analyses/latest?limit=20
func (r *Router) handleAnalysesLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/analyses/{id}
func (r *Router) handleAnalysisGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return badRequest(err)
	}

	a, err := r.svc.Get(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}

// GET /v1/samples
func (r *Router) handleSamplesList(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string][]string{"samples": samples.Names()})
}

// GET /v1/samples/{name}
func (r *Router) handleSampleGet(w http.ResponseWriter, req *http.Request) error {
	img, err := samples.Generate(chi.URLParam(req, "name"))
	if err != nil {
		return badRequest(err)
	}
	w.Header().Set("Content-Type", "image/png")
	_, err = w.Write(img.PNG)
	return err
}

func trackAnalysis(failed bool) {
	middleware.IncrementAnalyses()
	if failed {
		middleware.IncrementAnalysesFailed()
	}
}
