// internal/stages/score-fields/handler.go
package scorefields

import (
	"context"
	"sort"

	"advisory-engine/internal/clients/mlservice"
	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/models"
)

const StageName = "score-fields"

// mlGradeKeys maps stored subject keys to the scoring model's feature names.
var mlGradeKeys = map[string]string{
	"bm":                                "BM",
	"english":                           "English",
	"history":                           "History",
	"mathematics":                       "Mathematics",
	"islamic_education_moral_education": "IslamicOrMoral",
	"physics":                           "Physics",
	"chemistry":                         "Chemistry",
	"biology":                           "Bio",
	"additional_mathematics":            "AddMaths",
	"geography":                         "Geography",
	"economics":                         "Economics",
	"accounting":                        "Accounting",
	"chinese":                           "Chinese",
	"tamil":                             "Tamil",
	"ict":                               "ICT",
}

var interestKeys = []string{
	"Maths_Interest",
	"Science_Interest",
	"Computer_Interest",
	"Writing_Interest",
	"Art_Interest",
	"Business_Interest",
	"Social_Interest",
}

var skillKeys = []string{
	"Logical",
	"Problem_Solving",
	"Creativity",
	"Communication",
	"Teamwork",
	"Leadership",
	"Attention_to_Detail",
}

// fieldNameMapping translates the scoring model's output labels into catalog
// field names. Labels with no entry here are dropped.
var fieldNameMapping = map[string]string{
	"Computer Science & IT":            "Computer Science & IT",
	"Engineering":                      "Engineering",
	"Law":                              "Law",
	"Health Science":                   "Health Science",
	"Medicine, Dentistry & Pharmacy":   "Medicine, Dentistry & Pharmacy",
	"Architecture & Built Environment": "Architecture",
	"Business & Management":            "Accounting & Business",
	"Education":                        "Education & Teaching",
	"Arts & Design":                    "Design & Media Production",
	"Hospitality & Tourism":            "Culinary Arts & Hospitality",
	"Social Sciences":                  "Psychology",
}

// fieldPredictor is the slice of the ML client this stage needs.
type fieldPredictor interface {
	PredictFields(ctx context.Context, req *mlservice.FieldPredictionRequest) (*mlservice.FieldPredictionResponse, error)
}

// fieldCatalog resolves predicted names against the program catalog.
type fieldCatalog interface {
	GetFieldByName(ctx context.Context, name string) (*models.Field, error)
	FieldHasPrograms(ctx context.Context, fieldID int64) (bool, error)
}

type Handler struct {
	config    *Config
	predictor fieldPredictor
	catalog   fieldCatalog
	logger    logger.Logger
}

func NewHandler(config *Config, predictor fieldPredictor, catalog fieldCatalog, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		predictor: predictor,
		catalog:   catalog,
		logger:    log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute scores a profile against the field model, translates the labels
// back into catalog field names, deduplicates, drops fields with no active
// programs, and keeps the top TopFields by probability. A malformed upstream
// payload yields an empty list; a transport failure is returned to the caller.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := h.buildRequest(input.Profile)

	resp, err := h.predictor.PredictFields(ctx, req)
	if err != nil {
		if stdErr, ok := err.(*errors.StandardError); ok && stdErr.Code == errors.ErrCodeMalformedUpstreamResponse {
			h.logger.Warn("malformed field prediction response, returning no fields", map[string]interface{}{
				"userId": input.Profile.UserID,
				"error":  stdErr.Message,
			})
			return &Output{Fields: []models.FieldPrediction{}}, nil
		}
		return nil, err
	}

	mapped := h.translateFields(resp.Fields)
	filtered := h.filterFieldsWithPrograms(ctx, mapped)
	if h.config.TopFields > 0 && len(filtered) > h.config.TopFields {
		filtered = filtered[:h.config.TopFields]
	}

	h.logger.Info("fields scored", map[string]interface{}{
		"userId":    input.Profile.UserID,
		"predicted": len(resp.Fields),
		"mapped":    len(mapped),
		"kept":      len(filtered),
	})

	return &Output{Fields: filtered}, nil
}

func (h *Handler) buildRequest(profile *models.StudentProfile) *mlservice.FieldPredictionRequest {
	grades := make(map[string]string, len(mlGradeKeys))
	subjectTaken := make(map[string]int, len(mlGradeKeys))
	for dbKey, mlKey := range mlGradeKeys {
		grade := "0"
		if g, ok := profile.Grades[dbKey]; ok && g != "" {
			grade = g
		}
		grades[mlKey] = grade
		if profile.SubjectTaken(dbKey) {
			subjectTaken["Took_"+mlKey] = 1
		} else {
			subjectTaken["Took_"+mlKey] = 0
		}
	}

	interests := make(map[string]int, len(interestKeys))
	for _, key := range interestKeys {
		interests[key] = ratingOrDefault(profile.Interests, key)
	}
	skills := make(map[string]int, len(skillKeys))
	for _, key := range skillKeys {
		skills[key] = ratingOrDefault(profile.Skills, key)
	}

	return &mlservice.FieldPredictionRequest{
		Study:           profile.StudyLevel,
		Extracurricular: profile.Extracurricular,
		Grades:          grades,
		SubjectTaken:    subjectTaken,
		Interests:       interests,
		Skills:          skills,
	}
}

// ratingOrDefault treats an absent or out-of-range self-rating as neutral.
func ratingOrDefault(ratings map[string]int, key string) int {
	if value, ok := ratings[key]; ok && value >= 1 && value <= 5 {
		return value
	}
	return 3
}

// translateFields maps model labels to catalog names, keeping the maximum
// probability when two labels collapse onto the same catalog field.
func (h *Handler) translateFields(predicted []mlservice.FieldPrediction) []models.FieldPrediction {
	best := make(map[string]float64)
	for _, p := range predicted {
		catalogName, ok := fieldNameMapping[p.FieldName]
		if !ok {
			h.logger.Debug("unmapped field label dropped", map[string]interface{}{
				"fieldName": p.FieldName,
			})
			continue
		}
		if current, seen := best[catalogName]; !seen || p.Probability > current {
			best[catalogName] = p.Probability
		}
	}

	fields := make([]models.FieldPrediction, 0, len(best))
	for name, probability := range best {
		fields = append(fields, models.FieldPrediction{FieldName: name, Probability: probability})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Probability > fields[j].Probability
	})
	return fields
}

// filterFieldsWithPrograms drops fields that have no active programs. Any
// catalog read failure leaves the list unfiltered rather than failing closed.
func (h *Handler) filterFieldsWithPrograms(ctx context.Context, fields []models.FieldPrediction) []models.FieldPrediction {
	kept := make([]models.FieldPrediction, 0, len(fields))
	for _, f := range fields {
		field, err := h.catalog.GetFieldByName(ctx, f.FieldName)
		if err != nil {
			if stdErr, ok := err.(*errors.StandardError); ok && stdErr.Code == errors.ErrCodeFieldNotFound {
				h.logger.Debug("predicted field not in catalog", map[string]interface{}{
					"fieldName": f.FieldName,
				})
				continue
			}
			h.logger.Warn("field lookup failed, skipping program filter", map[string]interface{}{
				"error": err.Error(),
			})
			return fields
		}

		hasPrograms, err := h.catalog.FieldHasPrograms(ctx, field.ID)
		if err != nil {
			h.logger.Warn("program check failed, skipping program filter", map[string]interface{}{
				"fieldId": field.ID,
				"error":   err.Error(),
			})
			return fields
		}
		if !hasPrograms {
			h.logger.Info("field dropped, no active programs", map[string]interface{}{
				"fieldName": f.FieldName,
			})
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
