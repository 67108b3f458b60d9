package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type verifyRequest struct {
	Claim string `json:"claim"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claim := strings.TrimSpace(req.Claim)
	if claim == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claim must not be empty"})
		return
	}

	result, err := s.verifier.Verify(c.Request.Context(), claim)
	if err != nil {
		s.logger.Error("verification failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleIngest(c *gin.Context) {
	if s.ingestor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion not configured"})
		return
	}

	count, err := s.ingestor.Ingest(c.Request.Context())
	if err != nil {
		s.logger.Error("ingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chunks_ingested": count})
}
