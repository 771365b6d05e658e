// Package server exposes the agent over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/concurrent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Runner answers one utterance. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, utterance string, maxTurns int) (*agent.Result, error)
}

type Options struct {
	Addr           string
	RequestTimeout time.Duration
	Concurrency    int
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
	Logger  logger.Logger
}

type Server struct {
	runner  Runner
	pool    *concurrent.WorkerPool
	opts    Options
	log     logger.Logger
	router  *gin.Engine
	httpSrv *http.Server
}

type QueryRequest struct {
	Utterance string `json:"utterance" binding:"required"`
	MaxTurns  int    `json:"max_turns" binding:"gte=0"`
}

type QueryResponse struct {
	RunID      string           `json:"run_id"`
	Answer     string           `json:"answer"`
	Turns      int              `json:"turns"`
	StopReason string           `json:"stop_reason"`
	ToolCalls  []agent.ToolCall `json:"tool_calls"`
}

func New(runner Runner, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.FromContext(context.Background())
	}
	s := &Server{
		runner: runner,
		pool:   concurrent.NewWorkerPool(opts.Concurrency),
		opts:   opts,
		log:    log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(s.log))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
	r.POST("/v1/query", s.handleQuery)
	return r
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	ctx := logger.ContextWithLogger(c.Request.Context(), s.log)
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	var res *agent.Result
	err := s.pool.TryDo(func() error {
		var runErr error
		res, runErr = s.runner.Run(ctx, req.Utterance, req.MaxTurns)
		return runErr
	})
	if err != nil {
		status := statusFor(err)
		s.log.Warn("query failed", "status", status, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	calls := res.ToolCalls
	if calls == nil {
		calls = []agent.ToolCall{}
	}
	c.JSON(http.StatusOK, QueryResponse{
		RunID:      res.RunID,
		Answer:     res.Answer,
		Turns:      res.Turns,
		StopReason: res.StopReason,
		ToolCalls:  calls,
	})
}

func statusFor(err error) int {
	var unknown *agent.UnknownActionError
	switch {
	case errors.Is(err, agent.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity
	case errors.Is(err, agent.ErrTurnLimitExceeded), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, concurrent.ErrPoolBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.opts.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down http server")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
