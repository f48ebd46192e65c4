package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listApprovalsHandler handles GET /api/v1/approvals?merchant_id=&risk_level=
func (s *Server) listApprovalsHandler(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	riskLevel := c.Query("risk_level")

	pending, err := s.approvals.ListPending(c.Request.Context(), merchantID, riskLevel)
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"approvals": pending, "count": len(pending)})
}

// approveHandler handles POST /api/v1/approvals/:id/approve
func (s *Server) approveHandler(c *gin.Context) {
	decisionID := c.Param("id")

	operatorID, ok := s.authorizer.Authorize(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "could not determine operator identity")
		return
	}

	if err := s.approvals.Approve(c.Request.Context(), decisionID, operatorID); err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "approved", "decision_id": decisionID, "operator_id": operatorID})
}

// rejectHandler handles POST /api/v1/approvals/:id/reject
func (s *Server) rejectHandler(c *gin.Context) {
	decisionID := c.Param("id")

	operatorID, ok := s.authorizer.Authorize(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "could not determine operator identity")
		return
	}

	var req ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	if err := s.approvals.Reject(c.Request.Context(), decisionID, operatorID, req.Feedback); err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "rejected", "decision_id": decisionID, "operator_id": operatorID})
}
