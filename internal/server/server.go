// Package server exposes the scheduling engine over HTTP.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"beacon-scheduler/internal/service"
)

// Server wires the scheduler service into a gin engine.
type Server struct {
	engine *gin.Engine
	svc    *service.SchedulerService
	log    zerolog.Logger
}

func New(svc *service.SchedulerService, log zerolog.Logger, environment string) *Server {
	if environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(log))

	s := &Server{engine: engine, svc: svc, log: log}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api/v1/scheduler")
	{
		api.GET("/events", s.listEvents)
		api.POST("/tasks", s.addTask)
		api.PATCH("/tasks/:id", s.patchTask)
		api.POST("/reschedule", s.reschedule)
	}
}

func (s *Server) listEvents(c *gin.Context) {
	start := parseISO(c.Query("start"))
	end := parseISO(c.Query("end"))

	events, err := s.svc.ListEvents(c.Request.Context(), start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eventsResponse{Count: len(events), Events: toEventSchemas(events)})
}

func (s *Server) addTask(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	task, events, err := s.svc.AddTask(c.Request.Context(), service.TaskInput{
		Title:          req.Title,
		Module:         req.Module,
		DueAt:          parseISO(req.DueAt),
		WeightPercent:  req.WeightPercent,
		EstimatedHours: req.EstimatedHours,
		Notes:          req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task, events))
}

func (s *Server) patchTask(c *gin.Context) {
	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	patch := service.TaskPatch{
		Title:          req.Title,
		Module:         req.Module,
		WeightPercent:  req.WeightPercent,
		EstimatedHours: req.EstimatedHours,
		Notes:          req.Notes,
		Completed:      req.Completed,
	}
	if req.DueAt != nil {
		// An explicitly sent but empty or unparsable due date means
		// "no deadline": clear any stored one.
		if parsed := parseISO(*req.DueAt); parsed != nil {
			patch.DueAt = parsed
		} else {
			patch.ClearDueAt = true
		}
	}

	task, events, err := s.svc.PatchTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task, events))
}

func (s *Server) reschedule(c *gin.Context) {
	events, err := s.svc.Reschedule(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rescheduleResponse{RescheduledCount: len(events), Events: toEventSchemas(events)})
}

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
