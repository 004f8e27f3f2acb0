package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

const shutdownTimeout = 10 * time.Second

// Server はブラウザ UI 向けのローカル JSON API です。
type Server struct {
	wf     workflow.Workflow
	engine *gin.Engine
}

// New は Workflow を公開する gin のルーターを組み立てます。
func New(wf workflow.Workflow) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{wf: wf, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

// Handler は http.Handler としてルーターを返します。
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		sb := api.Group("/storyboards")
		{
			sb.POST("", s.structure)
			sb.POST("/optimize", s.optimize)
			sb.GET("/markdown", s.markdown)
		}

		images := api.Group("/images")
		{
			images.POST("/cover", s.renderCover)
			images.POST("/scenes", s.renderAllScenes)
			images.POST("/scenes/:index", s.renderScene)
			images.GET("/status", s.imageStatus)
		}

		api.GET("/workspace", s.getWorkspace)
		api.PUT("/workspace", s.putWorkspace)

		projects := api.Group("/projects")
		{
			projects.GET("", s.listProjects)
			projects.POST("", s.newProject)
			projects.DELETE("", s.clearProjects)
			projects.POST("/:id/load", s.loadProject)
			projects.DELETE("/:id", s.deleteProject)
		}
	}
}

// Run は addr で待ち受け、ctx が終了したらグレースフルに停止します。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP サーバーを起動しました", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP サーバーの起動に失敗しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("HTTP サーバーを停止しています...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP サーバーの停止に失敗しました: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
