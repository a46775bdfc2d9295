// internal/clients/mlservice/models.go
package mlservice

// FieldPredictionRequest is the fixed-shape body for POST /predict-fields.
// Grades uses "0" for subjects not taken; SubjectTaken carries a parallel
// Took_<subject> 0|1 map; interest and skill scores default to 3 upstream.
type FieldPredictionRequest struct {
	Study           string            `json:"study"` // SPM or STPM
	Extracurricular bool              `json:"extracurricular"`
	Grades          map[string]string `json:"grades"`
	SubjectTaken    map[string]int    `json:"subject_taken"`
	Interests       map[string]int    `json:"interests"`
	Skills          map[string]int    `json:"skills"`
}

type FieldPrediction struct {
	FieldName   string  `json:"field_name"`
	Probability float64 `json:"probability"`
}

type FieldPredictionResponse struct {
	Fields []FieldPrediction `json:"fields"`
}

// StudentProfile is the profile block sent with ranking requests.
type StudentProfile struct {
	StudyLevel      string   `json:"study_level"` // target program level, e.g. Bachelor
	FieldIDs        []int64  `json:"field_ids"`
	CGPA            *float64 `json:"cgpa,omitempty"`
	Budget          *float64 `json:"budget,omitempty"`
	PreferredStates []string `json:"preferred_states,omitempty"`
}

// ProgramInput is one candidate in a ranking request.
type ProgramInput struct {
	ProgramID      int64    `json:"program_id"`
	UniversityID   int64    `json:"university_id"`
	FieldID        int64    `json:"field_id"`
	TuitionFee     *float64 `json:"tuition_fee,omitempty"`
	DurationMonths *int     `json:"duration_months,omitempty"`
	Level          string   `json:"level"`
}

type RecommendationRequest struct {
	StudentProfile StudentProfile `json:"student_profile"`
	Programs       []ProgramInput `json:"programs"`
}

type ProgramRecommendation struct {
	ProgramID int64   `json:"program_id"`
	Score     float64 `json:"score"`
}

type RecommendationResponse struct {
	Recommendations []ProgramRecommendation `json:"recommendations"`
}
