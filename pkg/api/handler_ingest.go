package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// webhookHandler handles POST /api/v1/webhooks/{zendesk|intercom|freshdesk},
// grounded on the teacher's submitAlertHandler (bind, validate, delegate,
// map errors), generalized to verify a per-vendor HMAC signature first.
func (s *Server) webhookHandler(c *gin.Context) {
	vendor := c.Param("vendor")
	if !isSupportedVendor(vendor) {
		respondError(c, http.StatusBadRequest, "unsupported_vendor", "unsupported webhook vendor: "+vendor)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	signatureHeader := signatureHeaderFor(vendor, c)
	if s.verifier == nil || !s.verifier.Verify(vendor, body, signatureHeader) {
		respondError(c, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
		return
	}

	var req SubmitSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	signalID, err := s.ingester.Ingest(c.Request.Context(), vendor, req)
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, IngestResponse{Status: "accepted", Message: "signal normalized and published", SignalID: signalID})
}

// submitSignalHandler handles POST /api/v1/signals/submit — a canonical
// signal submitted directly rather than via a vendor webhook.
func (s *Server) submitSignalHandler(c *gin.Context) {
	var req SubmitSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	signalID, err := s.ingester.Ingest(c.Request.Context(), req.Source, req)
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, IngestResponse{Status: "accepted", Message: "signal submitted for processing", SignalID: signalID})
}

func isSupportedVendor(vendor string) bool {
	switch vendor {
	case "zendesk", "intercom", "freshdesk":
		return true
	default:
		return false
	}
}

// signatureHeaderFor returns the vendor-specific HMAC signature header, with
// Intercom's leading "sha1=" kept intact — the Verifier strips it, not this
// package, since stripping is part of the verification contract.
func signatureHeaderFor(vendor string, c *gin.Context) string {
	switch vendor {
	case "zendesk":
		return c.GetHeader("X-Zendesk-Webhook-Signature")
	case "freshdesk":
		return c.GetHeader("X-Freshdesk-Signature")
	case "intercom":
		return c.GetHeader("X-Hub-Signature")
	default:
		return ""
	}
}
