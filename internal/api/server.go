// Package api serves the classification and history contract the client
// depends on.
package api

import (
	"context"
	"net/http"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/store"
)

// maxRequestBodySize limits POST body sizes.
const maxRequestBodySize = 1 << 20

type Classifier interface {
	Classify(text string) (models.Label, float64)
}

type ClassificationCache interface {
	GetClassification(ctx context.Context, text string) (models.Label, float64, bool)
	SetClassification(ctx context.Context, text string, label models.Label, score float64) error
}

type EventPublisher interface {
	PublishAnalysisRecorded(ctx context.Context, a models.StoredAnalysis) error
}

type Server struct {
	store      store.Store
	classifier Classifier
	cache      ClassificationCache
	publisher  EventPublisher
	healthy    func() bool
}

type Option func(*Server)

func WithCache(c ClassificationCache) Option {
	return func(s *Server) { s.cache = c }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithHealth makes GET /api/v1/health report "degraded" while fn is false.
func WithHealth(fn func() bool) Option {
	return func(s *Server) { s.healthy = fn }
}

func NewServer(st store.Store, classifier Classifier, opts ...Option) *Server {
	s := &Server{store: st, classifier: classifier}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API:
//
//	GET    /api/v1/health
//	POST   /api/v1/classify
//	GET    /api/v1/history/
//	POST   /api/v1/history/
//	GET    /api/v1/history/search
//	GET    /api/v1/history/{id}
//	DELETE /api/v1/history/{id}
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/classify", s.handleClassify)
	mux.HandleFunc("GET /api/v1/history", s.handleListHistory)
	mux.HandleFunc("GET /api/v1/history/{$}", s.handleListHistory)
	mux.HandleFunc("POST /api/v1/history", s.handleSaveHistory)
	mux.HandleFunc("POST /api/v1/history/{$}", s.handleSaveHistory)
	mux.HandleFunc("GET /api/v1/history/search", s.handleSearchHistory)
	mux.HandleFunc("GET /api/v1/history/{id}", s.handleGetHistory)
	mux.HandleFunc("DELETE /api/v1/history/{id}", s.handleDeleteHistory)
	return withCORS(withLogging(mux))
}
