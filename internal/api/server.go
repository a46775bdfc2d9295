// internal/api/server.go
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"advisory-engine/internal/common/auth"
	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
	"advisory-engine/internal/service"
)

// advisoryService is the surface the HTTP layer needs from the service.
type advisoryService interface {
	FieldRecommendations(ctx context.Context, userID string) (*service.FieldRecommendationsResult, error)
	ProgramsByField(ctx context.Context, userID, fieldName string) (*service.ProgramRecommendationsResult, error)
	Recommendations(ctx context.Context, userID string) (*service.CombinedRecommendationsResult, error)
	History(ctx context.Context, userID, recommendationType string, limit int) ([]models.RecommendationRecord, error)
	Compare(ctx context.Context, programAID, programBID int64) (*service.ComparisonResult, error)
}

type Server struct {
	service    advisoryService
	verifier   *auth.Verifier
	errHandler *errors.HTTPHandler
	logger     logger.Logger
}

func NewServer(svc advisoryService, verifier *auth.Verifier, log logger.Logger) *Server {
	return &Server{
		service:    svc,
		verifier:   verifier,
		errHandler: errors.NewHTTPHandler(log),
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Router builds the HTTP surface. Health is unauthenticated; everything
// under /api/ai requires a bearer token.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestMetrics)

	r.Get("/health", s.handleHealth)

	r.Route("/api/ai", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/recommend/fields", s.handleFieldRecommendations)
		r.Post("/recommend/programs-by-field", s.handleProgramsByField)
		r.Post("/recommendations", s.handleRecommendations)
		r.Get("/recommendations/history", s.handleHistory)
		r.Post("/compare/explain", s.handleCompare)
	})

	return r
}
