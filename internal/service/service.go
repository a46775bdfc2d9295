// internal/service/service.go
package service

import (
	"context"
	"time"

	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
	applyscoringrules "advisory-engine/internal/stages/apply-scoring-rules"
	compareprograms "advisory-engine/internal/stages/compare-programs"
	filtercandidates "advisory-engine/internal/stages/filter-candidates"
	normalizeprobabilities "advisory-engine/internal/stages/normalize-probabilities"
	persistrecommendations "advisory-engine/internal/stages/persist-recommendations"
	rankprograms "advisory-engine/internal/stages/rank-programs"
	scorefields "advisory-engine/internal/stages/score-fields"
	validateexplanations "advisory-engine/internal/stages/validate-explanations"
	validatefields "advisory-engine/internal/stages/validate-fields"
)

// profileStore is the profile read surface the pipeline needs.
type profileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	GetPreferences(ctx context.Context, userID string) (*models.Preferences, error)
}

// catalogStore is the catalog read surface the pipeline needs.
type catalogStore interface {
	GetFieldByName(ctx context.Context, name string) (*models.Field, error)
	GetActiveProgramsByField(ctx context.Context, fieldID int64) ([]models.ProgramCandidate, error)
	GetAllActivePrograms(ctx context.Context) ([]models.ProgramCandidate, error)
	GetProgramByID(ctx context.Context, programID int64) (*models.ProgramCandidate, error)
}

// historyReader is the history read surface for the history endpoint.
type historyReader interface {
	GetHistory(ctx context.Context, userID, recommendationType string, limit int) ([]models.RecommendationRecord, error)
}

// observer records per-flow spans and run outcomes. Optional; a nil
// observer turns the instrumentation off.
type observer interface {
	StartSpan(ctx context.Context, name string) (context.Context, func())
	RecordRun(ctx context.Context, flow, status string)
	RecordRunDuration(ctx context.Context, duration time.Duration, flow string)
}

// Config bounds the history read path.
type Config struct {
	HistoryLimit    int
	HistoryMaxLimit int
}

// Service runs the recommendation pipeline. Each stage is request-scoped
// and strictly sequential; the only cross-request state lives in the
// injected stores.
type Service struct {
	config   Config
	profiles profileStore
	catalog  catalogStore
	history  historyReader

	scorer     *scorefields.Handler
	fieldCheck *validatefields.Handler
	normalizer *normalizeprobabilities.Handler
	filter     *filtercandidates.Handler
	ranker     *rankprograms.Handler
	rules      *applyscoringrules.Handler
	explainer  *validateexplanations.Handler
	persister  *persistrecommendations.Handler
	comparator *compareprograms.Handler

	obs    observer
	logger logger.Logger
}

type Deps struct {
	Profiles profileStore
	Catalog  catalogStore
	History  historyReader

	Scorer     *scorefields.Handler
	FieldCheck *validatefields.Handler
	Normalizer *normalizeprobabilities.Handler
	Filter     *filtercandidates.Handler
	Ranker     *rankprograms.Handler
	Rules      *applyscoringrules.Handler
	Explainer  *validateexplanations.Handler
	Persister  *persistrecommendations.Handler
	Comparator *compareprograms.Handler

	Obs observer
}

func New(config Config, deps Deps, log logger.Logger) *Service {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 50
	}
	if config.HistoryMaxLimit <= 0 {
		config.HistoryMaxLimit = 200
	}
	return &Service{
		config:     config,
		profiles:   deps.Profiles,
		catalog:    deps.Catalog,
		history:    deps.History,
		scorer:     deps.Scorer,
		fieldCheck: deps.FieldCheck,
		normalizer: deps.Normalizer,
		filter:     deps.Filter,
		ranker:     deps.Ranker,
		rules:      deps.Rules,
		explainer:  deps.Explainer,
		persister:  deps.Persister,
		comparator: deps.Comparator,
		obs:        deps.Obs,
		logger:     log.WithFields(map[string]interface{}{"component": "advisory-service"}),
	}
}

// observeRun opens a span for one flow and returns a finish callback that
// records the run outcome and duration. Both are no-ops without an observer.
func (s *Service) observeRun(ctx context.Context, flow string) (context.Context, func(error)) {
	if s.obs == nil {
		return ctx, func(error) {}
	}
	ctx, endSpan := s.obs.StartSpan(ctx, "flow."+flow)
	start := time.Now()
	return ctx, func(err error) {
		endSpan()
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.obs.RecordRun(ctx, flow, status)
		s.obs.RecordRunDuration(ctx, time.Since(start), flow)
	}
}
