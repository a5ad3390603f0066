package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"proctorhub/internal/quiz"
	"proctorhub/internal/registry"
	"proctorhub/pkg/interfaces"
	"proctorhub/pkg/types"
)

// HealthChecker is what the health endpoint needs from the store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the HTTP quiz surface. It owns no hub state: it persists
// through the store and mirrors successful writes through the fan-out
// adapter. A failed durable write is returned to the caller and never
// broadcast.
type Server struct {
	store    interfaces.QuizStore
	health   HealthChecker
	fanout   *quiz.Adapter
	registry *registry.Registry
}

// NewServer creates the quiz API server.
func NewServer(store interfaces.QuizStore, health HealthChecker, fanout *quiz.Adapter, reg *registry.Registry) *Server {
	return &Server{
		store:    store,
		health:   health,
		fanout:   fanout,
		registry: reg,
	}
}

// Router builds the gin engine with the quiz routes, the health endpoint
// and the WebSocket entry point.
func (s *Server) Router(mode string, wsHandler http.HandlerFunc) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/question-paper")
	api.POST("", s.createPaper)
	api.GET("/latest", s.latestPaper)
	api.POST("/submit", s.submitAnswers)
	api.GET("/last-leaderboard", s.lastLeaderboard)

	r.GET("/health", s.healthCheck)
	r.GET("/ws", func(c *gin.Context) {
		wsHandler(c.Writer, c.Request)
	})

	return r
}

type createPaperRequest struct {
	FacultyID string           `json:"facultyId"`
	Title     string           `json:"title"`
	Questions []types.Question `json:"questions"`
}

func (s *Server) createPaper(c *gin.Context) {
	var req createPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" || len(req.Questions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and questions are required"})
		return
	}
	for _, q := range req.Questions {
		if q.Text == "" || len(q.Options) != 4 ||
			q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "each question needs text, 4 options and a valid correct index"})
			return
		}
	}

	paper := &types.Paper{
		FacultyID: req.FacultyID,
		Title:     req.Title,
		Questions: req.Questions,
	}
	if err := s.store.CreatePaper(c.Request.Context(), paper); err != nil {
		log.Error().Err(err).Str("module", "api").Msg("paper create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create paper"})
		return
	}

	// The faculty client publishes the saved paper to students over the
	// socket; creation alone broadcasts nothing.
	c.JSON(http.StatusCreated, paper)
}

func (s *Server) latestPaper(c *gin.Context) {
	paper, err := s.store.GetLatestPaper(c.Request.Context())
	if err != nil {
		if err == interfaces.ErrPaperNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "no paper published yet"})
			return
		}
		log.Error().Err(err).Str("module", "api").Msg("latest paper query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load paper"})
		return
	}
	c.JSON(http.StatusOK, paper)
}

type submitRequest struct {
	PaperID     string `json:"paperId"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Answers     []*int `json:"answers"`
}

type submitResponse struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

func (s *Server) submitAnswers(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PaperID == "" || req.StudentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paperId and studentId are required"})
		return
	}

	paper, err := s.store.GetPaper(c.Request.Context(), req.PaperID)
	if err != nil {
		if err == interfaces.ErrPaperNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "paper not found"})
			return
		}
		log.Error().Err(err).Str("module", "api").Msg("paper lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load paper"})
		return
	}

	sub := &types.Submission{
		PaperID:     req.PaperID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Answers:     req.Answers,
		Score:       quiz.Score(paper, req.Answers),
	}
	if err := s.store.CreateSubmission(c.Request.Context(), sub); err != nil {
		log.Error().Err(err).Str("module", "api").Msg("submission create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save submission"})
		return
	}

	// Durable write succeeded; the live update is best-effort from here.
	s.fanout.ReportSubmission(sub)

	c.JSON(http.StatusOK, submitResponse{Score: sub.Score, Total: len(paper.Questions)})
}

type leaderboardResponse struct {
	PaperID     string                   `json:"paperId"`
	Leaderboard []types.LeaderboardEntry `json:"leaderboard"`
}

func (s *Server) lastLeaderboard(c *gin.Context) {
	paper, err := s.store.GetLatestPaper(c.Request.Context())
	if err != nil {
		if err == interfaces.ErrPaperNotFound {
			c.JSON(http.StatusOK, leaderboardResponse{Leaderboard: []types.LeaderboardEntry{}})
			return
		}
		log.Error().Err(err).Str("module", "api").Msg("latest paper query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load paper"})
		return
	}

	entries, err := s.store.GetLeaderboard(c.Request.Context(), paper.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "api").Msg("leaderboard query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, leaderboardResponse{PaperID: paper.ID, Leaderboard: entries})
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.health.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"connections": s.registry.Stats(),
	})
}
