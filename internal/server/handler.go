package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
)

// AnalyzeService is the pipeline surface the handler depends on.
// Implemented by pipeline.Analyzer.
type AnalyzeService interface {
	Analyze(ctx context.Context, packageID, network string) (artifact.SafetyCard, bool, error)
}

type analyzeRequest struct {
	PackageID string `json:"package_id"`
	Network   string `json:"network"`
}

type analyzeResponse struct {
	Message    string              `json:"message"`
	SafetyCard artifact.SafetyCard `json:"safetyCard"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Handler struct {
	Service AnalyzeService
}

// Mux builds the route table: POST /analyze and GET /healthz.
func (h *Handler) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", h.analyze)
	mux.HandleFunc("/healthz", h.healthz)
	return CORS(mux)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	req.PackageID = strings.TrimSpace(req.PackageID)
	if req.PackageID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "package_id is required"})
		return
	}

	card, cached, err := h.Service.Analyze(r.Context(), req.PackageID, req.Network)
	if err != nil {
		log.Printf("server: analysis of %s failed: %v", req.PackageID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Analysis failed", Details: err.Error()})
		return
	}

	message := "analysis complete"
	if cached {
		message = "cached result"
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Message: message, SafetyCard: card})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("server: write response: %v", err)
	}
}
