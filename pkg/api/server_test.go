package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/models"
)

type fakeVerifier struct{ ok bool }

func (f fakeVerifier) Verify(vendor string, body []byte, signatureHeader string) bool { return f.ok }

type fakeIngester struct {
	signalID string
	err      error
	lastReq  SubmitSignalRequest
	lastSrc  string
}

func (f *fakeIngester) Ingest(ctx context.Context, source string, req SubmitSignalRequest) (string, error) {
	f.lastSrc = source
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.signalID, nil
}

type fakeApprovals struct {
	pending  []map[string]any
	approved []string
	rejected []string
	err      error
}

func (f *fakeApprovals) ListPending(ctx context.Context, merchantID, riskLevel string) ([]map[string]any, error) {
	return f.pending, f.err
}
func (f *fakeApprovals) Approve(ctx context.Context, decisionID, operatorID string) error {
	if f.err != nil {
		return f.err
	}
	f.approved = append(f.approved, decisionID)
	return nil
}
func (f *fakeApprovals) Reject(ctx context.Context, decisionID, operatorID, feedback string) error {
	if f.err != nil {
		return f.err
	}
	f.rejected = append(f.rejected, decisionID)
	return nil
}

type fakeIssues struct {
	issues []map[string]any
	total  int
	get    map[string]any
	err    error
}

func (f *fakeIssues) List(ctx context.Context, filters map[string]string, page, pageSize int) ([]map[string]any, int, error) {
	return f.issues, f.total, f.err
}
func (f *fakeIssues) Get(ctx context.Context, issueID string) (map[string]any, error) {
	return f.get, f.err
}

type fakeMetrics struct{ err error }

func (f *fakeMetrics) Performance(ctx context.Context) (map[string]any, error) {
	return map[string]any{"auto_resolution_rate": 0.8}, f.err
}
func (f *fakeMetrics) Deflection(ctx context.Context) (map[string]any, error) {
	return map[string]any{"deflected": 10}, f.err
}
func (f *fakeMetrics) Calibration(ctx context.Context) (map[string]any, error) {
	return map[string]any{"buckets": []any{}}, f.err
}

func newTestServer(ingester SignalIngester, approvals ApprovalStore, issues IssueStore, metrics MetricsSink, verifier SignatureVerifier) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(Dependencies{
		Verifier:  verifier,
		Ingester:  ingester,
		Approvals: approvals,
		Issues:    issues,
		Metrics:   metrics,
	})
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandlerRejectsInvalidSignature(t *testing.T) {
	s := newTestServer(&fakeIngester{}, nil, nil, nil, fakeVerifier{ok: false})
	rec := doRequest(s, http.MethodPost, "/api/v1/webhooks/zendesk", SubmitSignalRequest{Source: "zendesk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookHandlerRejectsUnsupportedVendor(t *testing.T) {
	s := newTestServer(&fakeIngester{}, nil, nil, nil, fakeVerifier{ok: true})
	rec := doRequest(s, http.MethodPost, "/api/v1/webhooks/unknownvendor", SubmitSignalRequest{Source: "unknownvendor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandlerIngestsOnValidSignature(t *testing.T) {
	ingester := &fakeIngester{signalID: "sig-123"}
	s := newTestServer(ingester, nil, nil, nil, fakeVerifier{ok: true})
	rec := doRequest(s, http.MethodPost, "/api/v1/webhooks/zendesk", SubmitSignalRequest{Source: "zendesk", MerchantID: "m1"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sig-123", resp.SignalID)
	assert.Equal(t, "zendesk", ingester.lastSrc)
}

func TestSubmitSignalHandlerMapsValidationError(t *testing.T) {
	ingester := &fakeIngester{err: models.ErrUnsupportedSource}
	s := newTestServer(ingester, nil, nil, nil, nil)
	rec := doRequest(s, http.MethodPost, "/api/v1/signals/submit", SubmitSignalRequest{Source: "carrier_pigeon"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.ErrorCode)
}

func TestSubmitSignalHandlerRequiresSource(t *testing.T) {
	s := newTestServer(&fakeIngester{}, nil, nil, nil, nil)
	rec := doRequest(s, http.MethodPost, "/api/v1/signals/submit", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListApprovalsHandler(t *testing.T) {
	approvals := &fakeApprovals{pending: []map[string]any{{"decision_id": "d1"}}}
	s := newTestServer(nil, approvals, nil, nil, nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/approvals?risk_level=high", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["count"])
}

func TestApproveHandler(t *testing.T) {
	approvals := &fakeApprovals{}
	s := newTestServer(nil, approvals, nil, nil, nil)
	rec := doRequest(s, http.MethodPost, "/api/v1/approvals/d1/approve", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d1"}, approvals.approved)
}

func TestRejectHandlerRecordsFeedback(t *testing.T) {
	approvals := &fakeApprovals{}
	s := newTestServer(nil, approvals, nil, nil, nil)
	rec := doRequest(s, http.MethodPost, "/api/v1/approvals/d1/reject", ApprovalDecisionRequest{Feedback: "rollback looked risky"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d1"}, approvals.rejected)
}

func TestApproveHandlerMapsInvalidTransition(t *testing.T) {
	approvals := &fakeApprovals{err: &models.InvalidTransitionError{From: models.IssueActionExecuted, To: models.IssuePendingApproval}}
	s := newTestServer(nil, approvals, nil, nil, nil)
	rec := doRequest(s, http.MethodPost, "/api/v1/approvals/d1/approve", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_transition", resp.ErrorCode)
}

func TestListIssuesHandlerDefaultsPagination(t *testing.T) {
	issues := &fakeIssues{issues: []map[string]any{{"issue_id": "i1"}}, total: 1}
	s := newTestServer(nil, nil, issues, nil, nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/issues", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, defaultPage, resp["page"])
	assert.EqualValues(t, defaultPageSize, resp["page_size"])
}

func TestGetIssueHandlerUnrecognizedErrorReturns500(t *testing.T) {
	issues := &fakeIssues{err: errors.New("boom")}
	s := newTestServer(nil, nil, issues, nil, nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/issues/missing", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsHandlers(t *testing.T) {
	metrics := &fakeMetrics{}
	s := newTestServer(nil, nil, nil, metrics, nil)

	for _, path := range []string{
		"/api/v1/metrics/performance",
		"/api/v1/metrics/deflection",
		"/api/v1/metrics/calibration",
	} {
		rec := doRequest(s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHealthHandlerDefaultsHealthy(t *testing.T) {
	s := newTestServer(nil, nil, nil, nil, nil)
	rec := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
