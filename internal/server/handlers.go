package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordonio/cordon/internal/accounts"
	"github.com/cordonio/cordon/internal/claims"
	"github.com/cordonio/cordon/internal/observability"
)

// notFoundBody is the single external answer for every denial and for
// resources that genuinely do not exist.
var notFoundBody = gin.H{"error": "Not Found"}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGetAccount serves one account record after authorization.
func (s *Server) handleGetAccount(c *gin.Context) {
	accountID := c.Param("id")
	requestClaims, tenantID := claims.FromHeaders(c.Request.Header)

	decision, err := s.pipeline.Authorize(
		c.Request.Context(),
		requestClaims,
		tenantID,
		accounts.KindAccount,
		accountID,
		"view",
	)
	if err != nil {
		s.logger.Error("authorization failed",
			observability.String("requestId", RequestID(c)),
			observability.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if !decision.Allowed {
		c.JSON(http.StatusNotFound, notFoundBody)
		return
	}

	account, ok := s.store.Get(accountID)
	if !ok {
		// Authorized against a record that vanished between the
		// decision and the read. Same external answer.
		c.JSON(http.StatusNotFound, notFoundBody)
		return
	}

	c.JSON(http.StatusOK, account)
}
