// Package api exposes the pipeline over HTTP. It is a thin surface: all
// logic stays behind graph.Runner.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dialogcore/server/internal/agent/graph"
	"github.com/dialogcore/server/internal/agent/model"
	"github.com/dialogcore/server/internal/core"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

type messageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	UserID    string `json:"user_id"`
	Text      string `json:"text" binding:"required"`
}

type messageResponse struct {
	Reply      string           `json:"reply"`
	Intent     string           `json:"intent"`
	Confidence float64          `json:"confidence"`
	Sentiment  model.Sentiment  `json:"sentiment"`
	Entities   []model.Entity   `json:"entities,omitempty"`
	Degraded   bool             `json:"degraded,omitempty"`
}

// Server routes HTTP requests into the pipeline runner.
type Server struct {
	runner graph.Runner
	engine *gin.Engine
}

func NewServer(runner graph.Runner, env core.Environment) *Server {
	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{runner: runner, engine: gin.New()}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.health)
	v1 := s.engine.Group("/api/v1")
	v1.POST("/messages", s.postMessage)

	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.runner.ProcessTurn(c.Request.Context(), model.TurnInput{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Text:      req.Text,
	})
	if err != nil {
		logx.Error().Err(err).Str("session_id", req.SessionID).Msg("turn processing failed")
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.Status, gin.H{"error": appErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": errx.SystemErrorMessage})
		return
	}

	c.JSON(http.StatusOK, messageResponse{
		Reply:      result.Reply,
		Intent:     result.NLU.Intent.Name,
		Confidence: result.NLU.Intent.Confidence,
		Sentiment:  result.NLU.Sentiment,
		Entities:   result.NLU.Entities,
		Degraded:   result.Degraded,
	})
}
