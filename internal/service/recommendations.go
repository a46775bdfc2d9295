// internal/service/recommendations.go
package service

import (
	"context"
	"time"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/metrics"
	"advisory-engine/internal/models"
	applyscoringrules "advisory-engine/internal/stages/apply-scoring-rules"
	filtercandidates "advisory-engine/internal/stages/filter-candidates"
	normalizeprobabilities "advisory-engine/internal/stages/normalize-probabilities"
	persistrecommendations "advisory-engine/internal/stages/persist-recommendations"
	rankprograms "advisory-engine/internal/stages/rank-programs"
	scorefields "advisory-engine/internal/stages/score-fields"
	validateexplanations "advisory-engine/internal/stages/validate-explanations"
	validatefields "advisory-engine/internal/stages/validate-fields"
)

const (
	flowFields          = "fields"
	flowProgramsByField = "programs-by-field"
	flowCombined        = "recommendations"
)

// FieldRecommendations runs the field flow: scorer, validator, normalizer,
// then a best-effort save. A missing profile or an unreachable scoring
// service both yield an empty result rather than an error.
func (s *Service) FieldRecommendations(ctx context.Context, userID string) (*FieldRecommendationsResult, error) {
	ctx, finish := s.observeRun(ctx, flowFields)
	result, err := s.fieldRecommendations(ctx, userID)
	finish(err)
	return result, err
}

func (s *Service) fieldRecommendations(ctx context.Context, userID string) (*FieldRecommendationsResult, error) {
	pc, err := s.loadProfile(ctx, userID)
	if err != nil {
		if hasCode(err, errors.ErrCodeProfileNotFound) {
			s.logger.Info("no profile stored, returning empty fields", map[string]interface{}{"userId": userID})
			return emptyFieldResult(), nil
		}
		metrics.PipelineRunsFailed.WithLabelValues(flowFields, errorCode(err)).Inc()
		return nil, err
	}

	fields, validated, audit, err := s.scoreAndValidateFields(ctx, userID, pc)
	if err != nil {
		metrics.PipelineRunsFailed.WithLabelValues(flowFields, errorCode(err)).Inc()
		return nil, err
	}
	if len(fields) == 0 {
		return emptyFieldResult(), nil
	}

	poweredBy := []string{models.EngineML}
	if validated {
		poweredBy = append(poweredBy, models.EngineLLM)
	} else {
		poweredBy = append(poweredBy, models.EngineFallback)
	}

	s.persist(ctx, &persistrecommendations.Input{
		UserID:          userID,
		Fields:          fields,
		MLProbabilities: audit.probabilities,
		MLFieldRanks:    audit.ranks,
		LLMValidated:    validated,
		PoweredBy:       poweredBy,
	})

	metrics.PipelineRunsCompleted.WithLabelValues(flowFields).Inc()
	return &FieldRecommendationsResult{Fields: fields, PoweredBy: poweredBy}, nil
}

// scoreAndValidateFields runs scorer, LLM validation and normalization.
// The scorer output is already cut to the top fields; its raw probabilities
// and ranks are kept for audit rows.
func (s *Service) scoreAndValidateFields(ctx context.Context, userID string, pc *profileContext) ([]models.FieldPrediction, bool, *fieldAudit, error) {
	scoreStart := time.Now()
	scored, err := s.scorer.Execute(ctx, &scorefields.Input{Profile: pc.profile})
	metrics.StageDuration.WithLabelValues(scorefields.StageName).Observe(time.Since(scoreStart).Seconds())
	if err != nil {
		s.logger.Warn("field scoring unavailable, returning empty fields", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		metrics.StageFallbacks.WithLabelValues(scorefields.StageName, "upstream_error").Inc()
		return nil, false, nil, nil
	}
	if len(scored.Fields) == 0 {
		return nil, false, nil, nil
	}

	audit := &fieldAudit{
		probabilities: make(map[string]float64, len(scored.Fields)),
		ranks:         make(map[string]int, len(scored.Fields)),
	}
	for i, f := range scored.Fields {
		audit.probabilities[f.FieldName] = f.Probability
		audit.ranks[f.FieldName] = i + 1
	}

	checked, err := s.fieldCheck.Execute(ctx, &validatefields.Input{
		Fields:         scored.Fields,
		ProfileSummary: pc.summary,
	})
	if err != nil {
		return nil, false, nil, err
	}

	normalized, err := s.normalizer.Execute(ctx, &normalizeprobabilities.Input{Fields: checked.Fields})
	if err != nil {
		return nil, false, nil, err
	}
	return normalized.Fields, checked.Validated, audit, nil
}

// fieldAudit holds the scorer's raw probabilities and ranks, captured before
// validation and normalization reorder the fields.
type fieldAudit struct {
	probabilities map[string]float64
	ranks         map[string]int
}

// ProgramsByField runs the by-field program flow. The ranking model is
// optional here: when it is down the first few filtered candidates stand in.
func (s *Service) ProgramsByField(ctx context.Context, userID, fieldName string) (*ProgramRecommendationsResult, error) {
	ctx, finish := s.observeRun(ctx, flowProgramsByField)
	result, err := s.programsByField(ctx, userID, fieldName)
	finish(err)
	return result, err
}

func (s *Service) programsByField(ctx context.Context, userID, fieldName string) (*ProgramRecommendationsResult, error) {
	pc, err := s.loadProfile(ctx, userID)
	if err != nil {
		if hasCode(err, errors.ErrCodeProfileNotFound) {
			s.logger.Info("no profile stored, returning empty programs", map[string]interface{}{"userId": userID})
			return emptyProgramResult(fieldName), nil
		}
		metrics.PipelineRunsFailed.WithLabelValues(flowProgramsByField, errorCode(err)).Inc()
		return nil, err
	}

	field, err := s.catalog.GetFieldByName(ctx, fieldName)
	if err != nil {
		if hasCode(err, errors.ErrCodeFieldNotFound) {
			s.logger.Info("unknown field requested", map[string]interface{}{"fieldName": fieldName})
			return emptyProgramResult(fieldName), nil
		}
		metrics.PipelineRunsFailed.WithLabelValues(flowProgramsByField, errorCode(err)).Inc()
		return nil, err
	}

	candidates, err := s.catalog.GetActiveProgramsByField(ctx, field.ID)
	if err != nil {
		metrics.PipelineRunsFailed.WithLabelValues(flowProgramsByField, errorCode(err)).Inc()
		return nil, err
	}
	if len(candidates) == 0 {
		return emptyProgramResult(field.Name), nil
	}

	recommendations, poweredBy, err := s.rankAndExplain(ctx, pc, candidates, []int64{field.ID},
		field.Name, map[int64]string{field.ID: field.Name}, true)
	if err != nil {
		metrics.PipelineRunsFailed.WithLabelValues(flowProgramsByField, errorCode(err)).Inc()
		return nil, err
	}

	s.persist(ctx, &persistrecommendations.Input{
		UserID:          userID,
		Recommendations: recommendations.programs,
		MLScores:        recommendations.mlScores,
		MLRanks:         recommendations.mlRanks,
		LLMValidated:    recommendations.validated,
		PoweredBy:       poweredBy,
	})

	metrics.PipelineRunsCompleted.WithLabelValues(flowProgramsByField).Inc()
	return &ProgramRecommendationsResult{
		FieldName: field.Name,
		Programs:  recommendations.programs,
		PoweredBy: poweredBy,
	}, nil
}

// Recommendations is the deprecated combined flow kept for older clients:
// the field flow, then the program flow over the union of the top fields'
// candidates. Unlike ProgramsByField, a ranking failure here fails the run.
func (s *Service) Recommendations(ctx context.Context, userID string) (*CombinedRecommendationsResult, error) {
	ctx, finish := s.observeRun(ctx, flowCombined)
	result, err := s.recommendations(ctx, userID)
	finish(err)
	return result, err
}

func (s *Service) recommendations(ctx context.Context, userID string) (*CombinedRecommendationsResult, error) {
	pc, err := s.loadProfile(ctx, userID)
	if err != nil {
		if hasCode(err, errors.ErrCodeProfileNotFound) {
			return &CombinedRecommendationsResult{
				Fields:    []models.FieldPrediction{},
				Programs:  []models.RankedRecommendation{},
				PoweredBy: []string{},
			}, nil
		}
		metrics.PipelineRunsFailed.WithLabelValues(flowCombined, errorCode(err)).Inc()
		return nil, err
	}

	fields, validated, audit, err := s.scoreAndValidateFields(ctx, userID, pc)
	if err != nil {
		metrics.PipelineRunsFailed.WithLabelValues(flowCombined, errorCode(err)).Inc()
		return nil, err
	}
	if len(fields) == 0 {
		return &CombinedRecommendationsResult{
			Fields:    []models.FieldPrediction{},
			Programs:  []models.RankedRecommendation{},
			PoweredBy: []string{},
		}, nil
	}

	fieldIDs, fieldNames, candidates := s.collectFieldCandidates(ctx, fields)
	if len(candidates) == 0 {
		poweredBy := []string{models.EngineML}
		if validated {
			poweredBy = append(poweredBy, models.EngineLLM)
		}
		return &CombinedRecommendationsResult{
			Fields:    fields,
			Programs:  []models.RankedRecommendation{},
			PoweredBy: poweredBy,
		}, nil
	}

	recommendations, poweredBy, err := s.rankAndExplain(ctx, pc, candidates, fieldIDs, "", fieldNames, false)
	if err != nil {
		metrics.PipelineRunsFailed.WithLabelValues(flowCombined, errorCode(err)).Inc()
		return nil, err
	}
	if validated && !contains(poweredBy, models.EngineLLM) {
		poweredBy = append(poweredBy, models.EngineLLM)
	}

	s.persist(ctx, &persistrecommendations.Input{
		UserID:          userID,
		Fields:          fields,
		MLProbabilities: audit.probabilities,
		MLFieldRanks:    audit.ranks,
		Recommendations: recommendations.programs,
		MLScores:        recommendations.mlScores,
		MLRanks:         recommendations.mlRanks,
		LLMValidated:    validated || recommendations.validated,
		PoweredBy:       poweredBy,
	})

	metrics.PipelineRunsCompleted.WithLabelValues(flowCombined).Inc()
	return &CombinedRecommendationsResult{
		Fields:    fields,
		Programs:  recommendations.programs,
		PoweredBy: poweredBy,
	}, nil
}

// collectFieldCandidates resolves the predicted fields, reads the full
// active catalog once, and keeps the programs belonging to those fields.
// Fields that fail to resolve are skipped, not fatal.
func (s *Service) collectFieldCandidates(ctx context.Context, fields []models.FieldPrediction) ([]int64, map[int64]string, []models.ProgramCandidate) {
	var fieldIDs []int64
	fieldNames := make(map[int64]string, len(fields))
	wanted := make(map[int64]bool, len(fields))

	for _, f := range fields {
		field, err := s.catalog.GetFieldByName(ctx, f.FieldName)
		if err != nil {
			s.logger.Warn("field resolution failed, skipping its candidates", map[string]interface{}{
				"fieldName": f.FieldName,
				"error":     err.Error(),
			})
			continue
		}
		fieldIDs = append(fieldIDs, field.ID)
		fieldNames[field.ID] = field.Name
		wanted[field.ID] = true
	}
	if len(fieldIDs) == 0 {
		return nil, fieldNames, nil
	}

	all, err := s.catalog.GetAllActivePrograms(ctx)
	if err != nil {
		s.logger.Warn("catalog read failed, no candidates", map[string]interface{}{
			"error": err.Error(),
		})
		return fieldIDs, fieldNames, nil
	}

	candidates := make([]models.ProgramCandidate, 0, len(all))
	for _, p := range all {
		if wanted[p.FieldID] {
			candidates = append(candidates, p)
		}
	}
	return fieldIDs, fieldNames, candidates
}

// explainedPrograms carries the program-flow output plus the raw ML scores
// captured before the rules engine touched them.
type explainedPrograms struct {
	programs  []models.RankedRecommendation
	mlScores  map[int64]float64
	mlRanks   map[int64]int
	validated bool
}

// rankAndExplain runs filter, ranker, rules engine and explanation
// validator over a candidate set. rankerOptional selects the by-field
// degradation: catalog-order fallback instead of a failed request.
func (s *Service) rankAndExplain(ctx context.Context, pc *profileContext, candidates []models.ProgramCandidate,
	fieldIDs []int64, fieldName string, fieldNames map[int64]string, rankerOptional bool) (*explainedPrograms, []string, error) {

	filtered, err := s.filter.Execute(ctx, &filtercandidates.Input{
		Candidates:      candidates,
		StudyLevel:      pc.studyLevel,
		Budget:          pc.budget,
		PreferredStates: pc.states,
	})
	if err != nil {
		return nil, nil, err
	}

	rankInput := &rankprograms.Input{
		Candidates:      filtered.Candidates,
		StudyLevel:      pc.studyLevel,
		FieldIDs:        fieldIDs,
		CGPA:            pc.profile.CGPA(),
		Budget:          pc.budget,
		PreferredStates: pc.states,
	}

	poweredBy := []string{models.EngineML}
	rankStart := time.Now()
	ranked, err := s.ranker.Execute(ctx, rankInput)
	metrics.StageDuration.WithLabelValues(rankprograms.StageName).Observe(time.Since(rankStart).Seconds())
	if err != nil {
		if !rankerOptional {
			return nil, nil, err
		}
		s.logger.Warn("ranking unavailable, using catalog order", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.StageFallbacks.WithLabelValues(rankprograms.StageName, "upstream_error").Inc()
		ranked = s.ranker.FallbackRanking(rankInput)
		poweredBy = []string{models.EngineFallback}
	}

	mlScores := make(map[int64]float64, len(ranked.Ranked))
	mlRanks := make(map[int64]int, len(ranked.Ranked))
	for i, entry := range ranked.Ranked {
		mlScores[entry.Program.ID] = entry.Score
		mlRanks[entry.Program.ID] = i + 1
	}

	adjusted, err := s.rules.Execute(ctx, &applyscoringrules.Input{
		Ranked:          ranked.Ranked,
		Budget:          pc.budget,
		PreferredStates: pc.states,
	})
	if err != nil {
		return nil, nil, err
	}
	poweredBy = append(poweredBy, models.EngineRules)

	explained, err := s.explainer.Execute(ctx, &validateexplanations.Input{
		Ranked:          adjusted.Ranked,
		ProfileSummary:  pc.summary,
		FieldName:       fieldName,
		FieldNames:      fieldNames,
		StudyLevel:      pc.studyLevel,
		Budget:          pc.budget,
		PreferredStates: pc.states,
	})
	if err != nil {
		return nil, nil, err
	}
	if explained.Validated {
		poweredBy = append(poweredBy, models.EngineLLM)
	} else if !contains(poweredBy, models.EngineFallback) {
		poweredBy = append(poweredBy, models.EngineFallback)
	}

	return &explainedPrograms{
		programs:  explained.Recommendations,
		mlScores:  mlScores,
		mlRanks:   mlRanks,
		validated: explained.Validated,
	}, poweredBy, nil
}

// persist saves best-effort: a failed write is logged and swallowed so it
// never blocks returning the already-computed recommendations.
func (s *Service) persist(ctx context.Context, input *persistrecommendations.Input) {
	if _, err := s.persister.Execute(ctx, input); err != nil {
		s.logger.Error("recommendation save failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}
}

func errorCode(err error) string {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternal)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
