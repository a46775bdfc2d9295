// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   *int        `json:"count,omitempty"`
}

func (s *Server) writeData(w http.ResponseWriter, data interface{}) {
	s.writeEnvelope(w, successEnvelope{Success: true, Data: data})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, envelope successEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.logger.Error("response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeData(w, map[string]string{"status": "ok"})
}

func (s *Server) handleFieldRecommendations(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	result, err := s.service.FieldRecommendations(r.Context(), user.ID)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	s.writeData(w, result)
}

type programsByFieldRequest struct {
	FieldName string `json:"field_name"`
}

func (s *Server) handleProgramsByField(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req programsByFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.FieldName) == "" {
		s.writeBadRequest(w, "field_name is required")
		return
	}

	result, err := s.service.ProgramsByField(r.Context(), user.ID, strings.TrimSpace(req.FieldName))
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	s.writeData(w, result)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	result, err := s.service.Recommendations(r.Context(), user.ID)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	s.writeData(w, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	recommendationType := r.URL.Query().Get("type")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := s.service.History(r.Context(), user.ID, recommendationType, limit)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}

	count := len(records)
	s.writeEnvelope(w, successEnvelope{Success: true, Data: records, Count: &count})
}

type compareRequest struct {
	ProgramAID int64 `json:"program_a_id"`
	ProgramBID int64 `json:"program_b_id"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProgramAID <= 0 || req.ProgramBID <= 0 {
		s.writeBadRequest(w, "program_a_id and program_b_id are required")
		return
	}

	result, err := s.service.Compare(r.Context(), req.ProgramAID, req.ProgramBID)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	s.writeData(w, result)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	response := map[string]interface{}{
		"success": false,
		"error":   map[string]string{"message": message},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}
