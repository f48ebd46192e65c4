package api

import "github.com/gin-gonic/gin"

// Authorizer is the narrow extension point this core calls through for
// request authorization; JWT/RBAC enforcement is an external contract per
// spec's Non-goals, not a body this package implements.
type Authorizer interface {
	Authorize(c *gin.Context) (operatorID string, ok bool)
}

// headerAuthorizer extracts an operator identity from an upstream proxy's
// forwarded-auth headers, matching the teacher's oauth2-proxy convention.
// It never rejects a request — it's a best-effort identity source for
// audit actor fields until a real Authorizer is wired in.
type headerAuthorizer struct{}

// NewHeaderAuthorizer returns the default, permissive Authorizer.
func NewHeaderAuthorizer() Authorizer { return headerAuthorizer{} }

func (headerAuthorizer) Authorize(c *gin.Context) (string, bool) {
	if user := c.GetHeader("X-Forwarded-User"); user != "" {
		return user, true
	}
	if email := c.GetHeader("X-Forwarded-Email"); email != "" {
		return email, true
	}
	return "api-client", true
}
