// Package api exposes the thin HTTP ingestion/query/approval layer named in
// the component design: webhook and signal-submission ingestion, and the
// approvals/issues/metrics query surface. Signature verification, operator
// authorization, and metrics exposition are narrow interfaces this package
// calls through — not implementations — per spec's explicit Non-goals.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SignatureVerifier verifies a per-vendor webhook HMAC signature. Real
// verification (HMAC-SHA256 for Zendesk/Freshdesk, HMAC-SHA1 for Intercom)
// is an external contract; this package only calls through the interface.
type SignatureVerifier interface {
	Verify(vendor string, body []byte, signatureHeader string) bool
}

// MetricsSink supplies the performance/deflection/calibration snapshots for
// the metrics query endpoints. Prometheus exposition is out of scope; this
// just returns the computed aggregates.
type MetricsSink interface {
	Performance(ctx context.Context) (map[string]any, error)
	Deflection(ctx context.Context) (map[string]any, error)
	Calibration(ctx context.Context) (map[string]any, error)
}

// SignalIngester accepts a normalized-or-raw signal submission and returns
// the assigned signal_id, or an error mapped via mapError.
type SignalIngester interface {
	Ingest(ctx context.Context, source string, req SubmitSignalRequest) (signalID string, err error)
}

// ApprovalStore lists and resolves pending Decisions awaiting operator
// approval.
type ApprovalStore interface {
	ListPending(ctx context.Context, merchantID, riskLevel string) ([]map[string]any, error)
	Approve(ctx context.Context, decisionID, operatorID string) error
	Reject(ctx context.Context, decisionID, operatorID, feedback string) error
}

// IssueStore lists and fetches IssueState records.
type IssueStore interface {
	List(ctx context.Context, filters map[string]string, page, pageSize int) ([]map[string]any, int, error)
	Get(ctx context.Context, issueID string) (map[string]any, error)
}

// HealthChecker reports this process's own component health for GET /health.
type HealthChecker interface {
	Health(ctx context.Context) (status string, details map[string]any)
}

// Server is the gin-backed HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	verifier   SignatureVerifier
	authorizer Authorizer
	ingester   SignalIngester
	approvals  ApprovalStore
	issues     IssueStore
	metrics    MetricsSink
	health     HealthChecker
}

// Dependencies bundles every collaborator the router calls through. All
// fields are required except Authorizer, which falls back to
// NewHeaderAuthorizer() when nil, and Health, whose absence makes GET
// /health report "healthy".
type Dependencies struct {
	Verifier   SignatureVerifier
	Authorizer Authorizer
	Ingester   SignalIngester
	Approvals  ApprovalStore
	Issues     IssueStore
	Metrics    MetricsSink
	Health     HealthChecker
}

// NewServer builds a Server and registers its routes.
func NewServer(deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), securityHeaders())
	e.MaxMultipartMemory = 2 << 20 // 2 MB, matching the teacher's body-size ceiling

	authorizer := deps.Authorizer
	if authorizer == nil {
		authorizer = NewHeaderAuthorizer()
	}

	s := &Server{
		engine:     e,
		verifier:   deps.Verifier,
		authorizer: authorizer,
		ingester:   deps.Ingester,
		approvals:  deps.Approvals,
		issues:     deps.Issues,
		metrics:    deps.Metrics,
		health:     deps.Health,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/webhooks/:vendor", s.webhookHandler)
	v1.POST("/signals/submit", s.submitSignalHandler)

	v1.GET("/approvals", s.listApprovalsHandler)
	v1.POST("/approvals/:id/approve", s.approveHandler)
	v1.POST("/approvals/:id/reject", s.rejectHandler)

	v1.GET("/issues", s.listIssuesHandler)
	v1.GET("/issues/:id", s.getIssueHandler)

	v1.GET("/metrics/performance", s.performanceMetricsHandler)
	v1.GET("/metrics/deflection", s.deflectionMetricsHandler)
	v1.GET("/metrics/calibration", s.calibrationMetricsHandler)
}

// Start runs the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, details := "healthy", map[string]any{}
	if s.health != nil {
		status, details = s.health.Health(reqCtx)
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{"status": status, "details": details})
}
