package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// listIssuesHandler handles GET /api/v1/issues?status=&merchant_id=&category=&page=&page_size=
func (s *Server) listIssuesHandler(c *gin.Context) {
	filters := map[string]string{}
	for _, key := range []string{"status", "merchant_id", "category", "migration_stage"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	page := queryInt(c, "page", defaultPage)
	pageSize := queryInt(c, "page_size", defaultPageSize)

	issues, total, err := s.issues.List(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":    issues,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// getIssueHandler handles GET /api/v1/issues/:id
func (s *Server) getIssueHandler(c *gin.Context) {
	issueID := c.Param("id")

	issue, err := s.issues.Get(c.Request.Context(), issueID)
	if err != nil {
		mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
