package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
)

type stubService struct {
	card   artifact.SafetyCard
	cached bool
	err    error

	gotPackageID string
	gotNetwork   string
}

func (s *stubService) Analyze(ctx context.Context, packageID, network string) (artifact.SafetyCard, bool, error) {
	s.gotPackageID = packageID
	s.gotNetwork = network
	return s.card, s.cached, s.err
}

func postAnalyze(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint_Fresh(t *testing.T) {
	svc := &stubService{card: artifact.SafetyCard{RiskScore: 95, RiskLevel: "critical", Summary: "drainable pool"}}
	rec := postAnalyze(t, (&Handler{Service: svc}).Mux(), `{"package_id":"0xpool","network":"testnet"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0xpool", svc.gotPackageID)
	require.Equal(t, "testnet", svc.gotNetwork)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "analysis complete", resp.Message)
	require.Equal(t, 95, resp.SafetyCard.RiskScore)
}

func TestAnalyzeEndpoint_Cached(t *testing.T) {
	svc := &stubService{card: artifact.SafetyCard{RiskScore: 5, RiskLevel: "low"}, cached: true}
	rec := postAnalyze(t, (&Handler{Service: svc}).Mux(), `{"package_id":"0xpool"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "cached result", resp.Message)
}

func TestAnalyzeEndpoint_BadRequests(t *testing.T) {
	h := (&Handler{Service: &stubService{}}).Mux()

	rec := postAnalyze(t, h, `{"network":"mainnet"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postAnalyze(t, h, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeEndpoint_PipelineFailure(t *testing.T) {
	svc := &stubService{err: errors.New("rpc unreachable")}
	rec := postAnalyze(t, (&Handler{Service: svc}).Mux(), `{"package_id":"0xpool"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Analysis failed", resp.Error)
	require.Contains(t, resp.Details, "rpc unreachable")
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	(&Handler{Service: &stubService{}}).Mux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	(&Handler{Service: &stubService{}}).Mux().ServeHTTP(rec, req)

	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Body.String())
}
