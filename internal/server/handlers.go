package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/graph"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/llm"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/search"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/storage"
)

type errorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type extractRequest struct {
	Content string `json:"content"`
}

type searchRequest struct {
	Claim string `json:"claim"`
}

type verifyRequest struct {
	Claim        string           `json:"claim"`
	OriginalText string           `json:"original_text"`
	Sources      []claim.Evidence `json:"exasources"`
}

type factCheckRequest struct {
	Content    string `json:"content"`
	Status     string `json:"status" validate:"omitempty,oneof=all true false insufficient"`
	Sort       string `json:"sort" validate:"omitempty,oneof=asc desc"`
	ApplyFixes bool   `json:"apply_fixes"`
}

type factCheckResponse struct {
	*graph.Report
	FixedContent string `json:"fixed_content,omitempty"`
	FixesApplied int    `json:"fixes_applied,omitempty"`
}

type feedbackRequest struct {
	Type       string `json:"type" validate:"required,oneof=incorrect improvement general"`
	ClaimID    string `json:"claim_id" validate:"max=200"`
	ClaimText  string `json:"claim_text" validate:"max=2000"`
	Assessment string `json:"assessment" validate:"max=40"`
	Feedback   string `json:"feedback" validate:"required,max=5000"`
}

func (s *Server) handleExtractClaims(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Content is required"})
		return
	}
	if s.deps.Extractor == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: llm.ErrNotConfigured.Error()})
		return
	}

	claims, err := s.deps.Extractor.Extract(r.Context(), req.Content)
	if err != nil {
		s.logger.Error("extract claims failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("Failed to extract claims | %v", err)})
		return
	}
	if claims == nil {
		claims = []claim.Claim{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": claims})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Claim) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: map[string][]string{"claim": {"Claim cannot be empty"}},
		})
		return
	}
	if s.deps.Retriever == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: search.ErrNotConfigured.Error(), Code: "EXA_SEARCH_FAILED"})
		return
	}

	results, err := s.deps.Retriever.Retrieve(r.Context(), req.Claim)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	case errors.Is(err, search.ErrNoResults):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "No supporting sources found",
			"code":    "EXA_NO_RESULTS",
			"results": []claim.Evidence{},
		})
	case errors.Is(err, search.ErrInvalidResponse):
		s.logger.Error("invalid search response", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Received invalid data from Exa", Code: "EXA_INVALID_RESPONSE"})
	case errors.Is(err, search.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "EXA_SEARCH_FAILED"})
	default:
		s.logger.Error("search failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "EXA_SEARCH_FAILED"})
	}
}

func (s *Server) handleVerifyClaims(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil ||
		strings.TrimSpace(req.Claim) == "" || strings.TrimSpace(req.OriginalText) == "" || len(req.Sources) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Claim and sources are required"})
		return
	}
	if s.deps.Adjudicator == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: llm.ErrNotConfigured.Error()})
		return
	}

	v, err := s.deps.Adjudicator.Adjudicate(r.Context(), claim.Claim{Claim: req.Claim, OriginalText: req.OriginalText}, req.Sources)
	if err != nil {
		s.logger.Error("verify claim failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("Failed to verify claims | %v", err)})
		return
	}
	metrics.ClaimsCheckedTotal.WithLabelValues(string(v.Assessment)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"claims": v})
}

func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req factCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_BODY"})
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationError(err))
		return
	}
	if s.deps.Pipeline == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "fact-check pipeline is not configured"})
		return
	}

	report, err := s.deps.Pipeline.Run(r.Context(), req.Content)
	switch {
	case errors.Is(err, graph.ErrContentTooShort), errors.Is(err, claim.ErrEmptyContent):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "CONTENT_TOO_SHORT"})
		return
	case err != nil:
		s.logger.Error("fact-check failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("Failed to fact-check content | %v", err)})
		return
	}

	resp := factCheckResponse{Report: report}
	if req.ApplyFixes {
		resp.FixedContent, resp.FixesApplied = processing.ApplyFixes(req.Content, graph.Fixes(report.Results))
	}
	filtered, err := graph.Filter(report.Results, req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_BODY"})
		return
	}
	if req.Sort != "" {
		filtered = graph.SortByConfidence(filtered, req.Sort == "desc")
	}
	view := *report
	view.Results = filtered
	resp.Report = &view
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_BODY"})
		return
	}
	req.Feedback = strings.TrimSpace(req.Feedback)
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationError(err))
		return
	}

	f := &storage.Feedback{
		Type:       storage.FeedbackType(req.Type),
		ClaimID:    req.ClaimID,
		ClaimText:  req.ClaimText,
		Assessment: req.Assessment,
		Message:    req.Feedback,
	}
	if err := s.deps.Feedback.Save(r.Context(), f); err != nil {
		s.logger.Error("saving feedback failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to save feedback"})
		return
	}
	metrics.FeedbackTotal.WithLabelValues(req.Type).Inc()
	writeJSON(w, http.StatusCreated, map[string]any{"id": f.ID, "status": "received"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "healthy"}
	for name, p := range s.deps.Checks {
		if p == nil {
			health[name] = "disabled"
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := p.Ping(ctx); err != nil {
			health[name] = "disconnected"
		} else {
			health[name] = "connected"
		}
		cancel()
	}
	writeJSON(w, http.StatusOK, health)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func validationError(err error) errorResponse {
	details := map[string][]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fe.Field()
			details[field] = append(details[field], fmt.Sprintf("failed on %q", fe.Tag()))
		}
	}
	return errorResponse{Error: "Invalid request body", Code: "INVALID_BODY", Details: details}
}
