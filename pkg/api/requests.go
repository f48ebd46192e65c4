package api

// SubmitSignalRequest is the HTTP request body for POST /api/v1/signals/submit.
// Fields mirror pkg/models.Signal's JSON shape.
type SubmitSignalRequest struct {
	Source            string         `json:"source" binding:"required"`
	MerchantID        string         `json:"merchant_id"`
	MigrationStage    string         `json:"migration_stage"`
	AffectedResource  string         `json:"affected_resource"`
	Severity          string         `json:"severity"`
	ErrorCode         string         `json:"error_code"`
	ErrorMessage      string         `json:"error_message"`
	RawData           map[string]any `json:"raw_data"`
	Context           map[string]any `json:"context"`
}

// ApprovalDecisionRequest is the HTTP request body for
// POST /api/v1/approvals/:id/reject. The operator identity comes from the
// Authorizer, not the body — this only carries the reviewer's feedback.
type ApprovalDecisionRequest struct {
	Feedback string `json:"feedback"`
}
