package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/config"
	"onyxAgent/internal/database"
	"onyxAgent/internal/logger"
)

type Server struct {
	cfg    config.Server
	log    *logger.Zap
	repo   *database.TaskRepository
	runner *agent.TaskRunner

	// базовый контекст фоновых прогонов
	runCtx context.Context
}

func New(cfg config.Server, log *logger.Zap, repo *database.TaskRepository, runner *agent.TaskRunner) *Server {
	return &Server{
		cfg:    cfg,
		log:    log,
		repo:   repo,
		runner: runner,
		runCtx: context.Background(),
	}
}

// Handler собирает маршруты.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Простейший лог-мидлвар
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("HTTP",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "busy": s.runner.Busy()})
	})

	api := r.Group("/api")
	api.POST("/tasks", s.createTask)
	api.GET("/tasks", s.listTasks)
	api.GET("/tasks/:id", s.getTask)
	api.GET("/tasks/:id/steps", s.getSteps)
	api.POST("/tasks/:id/run", s.runTask)
	api.POST("/stop", s.stop)

	return r
}

// Run слушает адрес из настроек до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	s.runCtx = ctx
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.runner.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Сервер остановлен")
	return nil
}

func (s *Server) createTask(c *gin.Context) {
	var req struct {
		Goal string `json:"goal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := database.Task{Goal: req.Goal, Status: database.StatusPending}
	if err := s.repo.CreateTask(&task); err != nil {
		s.log.Error("db create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) listTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	tasks, err := s.repo.ListTasks(limit, offset)
	if err != nil {
		s.log.Error("db list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c *gin.Context) {
	task, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) getSteps(c *gin.Context) {
	task, ok := s.lookup(c)
	if !ok {
		return
	}
	steps, err := s.repo.GetStepsByTaskID(task.ID)
	if err != nil {
		s.log.Error("db steps", zap.Uint("task_id", task.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, steps)
}

// runTask запускает прогон в фоне и сразу отвечает 202.
func (s *Server) runTask(c *gin.Context) {
	task, ok := s.lookup(c)
	if !ok {
		return
	}

	done, err := s.runner.Start(s.runCtx, task.ID)
	if errors.Is(err, agent.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("run task", zap.Uint("task_id", task.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	go func() {
		res := <-done
		s.log.Info("Фоновый прогон завершён",
			zap.Uint("task_id", task.ID),
			zap.String("run_id", res.RunID),
			zap.String("status", string(res.Status)))
	}()

	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "status": database.StatusRunning})
}

func (s *Server) stop(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopped": s.runner.Stop()})
}

func (s *Server) lookup(c *gin.Context) (*database.Task, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return nil, false
	}
	task, err := s.repo.GetTaskByID(uint(id64))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return task, true
}
