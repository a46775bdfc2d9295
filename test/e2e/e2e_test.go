// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"advisory-engine/internal/api"
	"advisory-engine/internal/cache"
	"advisory-engine/internal/clients/llm"
	"advisory-engine/internal/clients/mlservice"
	"advisory-engine/internal/common/auth"
	"advisory-engine/internal/common/config"
	"advisory-engine/internal/common/database"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/service"
	"advisory-engine/internal/store"
	"advisory-engine/pkg/prompts"

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

// The full pipeline against real PostgreSQL and Redis. The ML and LLM
// services are stubbed with local HTTP servers so the run is deterministic.
// Gated behind ADVISORY_E2E=1; requires both databases on localhost.

const testSecret = "e2e-secret"

func TestMain(m *testing.M) {
	if os.Getenv("ADVISORY_E2E") != "1" {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestFullPipelineE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	// Force localhost so the test never reaches a shared environment.
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	zapLog, _ := zap.NewDevelopment()
	log := logger.NewZapAdapter(zapLog)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	defer pg.Close()

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	require.NoError(t, redisClient.Ping(ctx), "Redis ping failed")
	defer redisClient.Close()

	createTables(t, ctx, pg)
	seedTestData(t, ctx, pg)

	mlServer := stubMLServer(t)
	defer mlServer.Close()
	llmServer := stubLLMServer(t)
	defer llmServer.Close()

	server := buildServer(t, cfg, pg, redisClient, mlServer.URL, llmServer.URL, log)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	token := signToken(t, "e2e-user")

	t.Run("field recommendations", func(t *testing.T) {
		body := postJSON(t, ts.URL+"/api/ai/recommend/fields", token, nil)
		data := body["data"].(map[string]interface{})
		fields := data["fields"].([]interface{})
		assert.NotEmpty(t, fields)

		total := 0.0
		for _, raw := range fields {
			field := raw.(map[string]interface{})
			total += field["probability"].(float64)
		}
		assert.InDelta(t, 1.0, total, 0.01)
	})

	t.Run("programs by field", func(t *testing.T) {
		body := postJSON(t, ts.URL+"/api/ai/recommend/programs-by-field", token,
			map[string]string{"field_name": "Engineering"})
		data := body["data"].(map[string]interface{})
		programs := data["programs"].([]interface{})
		require.NotEmpty(t, programs)

		first := programs[0].(map[string]interface{})
		assert.Equal(t, float64(1), first["rank"])
		assert.NotEmpty(t, first["explanation"])
	})

	t.Run("history after runs", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/ai/recommendations/history?limit=50", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Greater(t, body["count"].(float64), float64(0))
	})

	t.Run("compare is cached on second call", func(t *testing.T) {
		// Clear any entry left behind by a previous run.
		require.NoError(t, redisClient.Del(ctx, "advisory-e2e:compare:9001-9002"))

		first := postJSON(t, ts.URL+"/api/ai/compare/explain", token,
			map[string]int64{"program_a_id": 9001, "program_b_id": 9002})
		assert.Equal(t, false, first["data"].(map[string]interface{})["cached"])

		second := postJSON(t, ts.URL+"/api/ai/compare/explain", token,
			map[string]int64{"program_a_id": 9001, "program_b_id": 9002})
		assert.Equal(t, true, second["data"].(map[string]interface{})["cached"])
	})
}

// ==========================
// Stack Assembly
// ==========================

func buildServer(t *testing.T, cfg *config.Config, pg *database.PostgresClient, redisClient *database.RedisClient,
	mlURL, llmURL string, log logger.Logger) *api.Server {

	registry := prompts.Defaults()

	mlClient := mlservice.NewClient(mlservice.Config{
		BaseURL:    mlURL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}, log)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:    llmURL,
		APIKey:     "e2e-key",
		Model:      "gpt-3.5-turbo",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		MaxTokens:  800,
	}, log)

	cacheStore := cache.NewRedisStore(redisClient.GetClient(), "advisory-e2e")
	profiles := store.NewProfileStore(pg.GetDB(), cacheStore, 5*time.Minute, log)
	catalog := store.NewCatalogStore(pg.GetDB(), log)
	history := store.NewHistoryStore(pg.GetDB(), log)

	svc := service.New(service.Config{}, service.Deps{
		Profiles: profiles,
		Catalog:  catalog,
		History:  history,

		Scorer:     scorefields.NewHandler(scorefields.LoadConfig(), mlClient, catalog, log),
		FieldCheck: validatefields.NewHandler(validatefields.LoadConfig(), llmClient, registry, log),
		Normalizer: normalizeprobabilities.NewHandler(normalizeprobabilities.LoadConfig(), log),
		Filter:     filtercandidates.NewHandler(filtercandidates.LoadConfig(), log),
		Ranker:     rankprograms.NewHandler(rankprograms.LoadConfig(), mlClient, log),
		Rules:      applyscoringrules.NewHandler(applyscoringrules.LoadConfig(), log),
		Explainer:  validateexplanations.NewHandler(validateexplanations.LoadConfig(), llmClient, registry, log),
		Persister:  persistrecommendations.NewHandler(persistrecommendations.LoadConfig(), history, catalog, log),
		Comparator: compareprograms.NewHandler(compareprograms.LoadConfig(), llmClient, cacheStore, registry, log),
	}, log)

	verifier := auth.NewVerifier(testSecret, "", "")
	return api.NewServer(svc, verifier, log)
}

// ==========================
// Service Stubs
// ==========================

func stubMLServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict-fields":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"fields": []map[string]interface{}{
					{"field_name": "Engineering", "probability": 0.7},
					{"field_name": "Computer Science & IT", "probability": 0.3},
				},
			})
		case "/recommend":
			var req mlservice.RecommendationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			recommendations := make([]map[string]interface{}, 0, len(req.Programs))
			for i, p := range req.Programs {
				recommendations = append(recommendations, map[string]interface{}{
					"program_id": p.ProgramID,
					"score":      0.9 - float64(i)*0.1,
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"recommendations": recommendations})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func stubLLMServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Both programs lead to solid engineering careers; program A costs less."}},
			},
		})
	}))
}

// ==========================
// Database Setup
// ==========================

func createTables(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS student_profile (
			user_id VARCHAR(255) PRIMARY KEY,
			study_level VARCHAR(50) NOT NULL,
			extracurricular BOOLEAN DEFAULT FALSE,
			grades JSONB,
			interests JSONB,
			skills JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id VARCHAR(255) PRIMARY KEY,
			budget_range VARCHAR(100),
			preferred_locations TEXT,
			preferred_country VARCHAR(100),
			study_mode VARCHAR(50)
		)`,
		`CREATE TABLE IF NOT EXISTS field_of_interest (
			id BIGINT PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS universities (
			id BIGINT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			city VARCHAR(100),
			state VARCHAR(100)
		)`,
		`CREATE TABLE IF NOT EXISTS programs (
			id BIGINT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			field_id BIGINT REFERENCES field_of_interest(id),
			university_id BIGINT REFERENCES universities(id),
			level VARCHAR(100),
			tuition_fee NUMERIC,
			duration VARCHAR(50),
			employment_rate NUMERIC,
			rating NUMERIC,
			average_salary NUMERIC,
			is_active BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS ai_recommendations (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			recommendation_type VARCHAR(50) NOT NULL,
			field_of_interest_id BIGINT,
			field_name VARCHAR(255),
			program_id BIGINT,
			program_name VARCHAR(255),
			ml_confidence_score NUMERIC,
			ml_rank INTEGER,
			llm_validated BOOLEAN DEFAULT FALSE,
			llm_adjusted_score NUMERIC,
			llm_explanation TEXT,
			final_rank INTEGER,
			final_score NUMERIC,
			powered_by TEXT[],
			recommendation_session_id VARCHAR(64) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, query := range queries {
		_, err := pg.Exec(ctx, query)
		require.NoError(t, err)
	}
}

func seedTestData(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	statements := []string{
		`INSERT INTO student_profile (user_id, study_level, extracurricular, grades, interests, skills)
		 VALUES ('e2e-user', 'SPM', TRUE,
		         '{"mathematics":"A","physics":"A","chemistry":"B"}',
		         '{"Maths_Interest":5,"Science_Interest":4}',
		         '{"Logical":5,"Problem_Solving":4}')
		 ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO user_preferences (user_id, budget_range, preferred_locations, preferred_country, study_mode)
		 VALUES ('e2e-user', '20000-50000', 'Selangor', 'Malaysia', 'Full-time')
		 ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO field_of_interest (id, name) VALUES (9101, 'Engineering'), (9102, 'Computer Science & IT')
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO universities (id, name, city, state) VALUES
		 (9201, 'Universiti Malaya', 'Kuala Lumpur', 'Kuala Lumpur'),
		 (9202, 'Universiti Kebangsaan Malaysia', 'Bangi', 'Selangor')
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO programs (id, name, field_id, university_id, level, tuition_fee, duration,
		                       employment_rate, rating, average_salary, is_active) VALUES
		 (9001, 'Bachelor of Mechanical Engineering', 9101, 9201, 'Bachelor''s Degree', 42000, '4 years', 91, 4.5, 3900, TRUE),
		 (9002, 'Bachelor of Civil Engineering', 9101, 9202, 'Bachelor''s Degree', 38000, '4 years', 85, 4.2, 3600, TRUE),
		 (9003, 'Bachelor of Software Engineering', 9102, 9201, 'Bachelor''s Degree', 45000, '3 years', 94, 4.7, 4300, TRUE)
		 ON CONFLICT (id) DO NOTHING`,
	}
	for _, statement := range statements {
		_, err := pg.Exec(ctx, statement)
		require.NoError(t, err)
	}
}

// ==========================
// HTTP Helpers
// ==========================

func signToken(t *testing.T, subject string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func postJSON(t *testing.T, url, token string, payload interface{}) map[string]interface{} {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Equal(t, true, decoded["success"])
	return decoded
}
