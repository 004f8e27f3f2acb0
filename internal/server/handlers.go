package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/project"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

type imageResponse struct {
	Target  string `json:"target"`
	DataURI string `json:"dataUri"`
}

type batchImageResponse struct {
	Scenes []imageResponse `json:"scenes"`
	Error  string          `json:"error,omitempty"`
}

type projectResponse struct {
	Saved *domain.SavedProject `json:"saved"`
}

func (s *Server) structure(c *gin.Context) {
	var req domain.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = domain.DefaultAspectRatio
	}
	if req.OptimizationMode == "" {
		req.OptimizationMode = domain.ModeStrict
	}

	ws, err := s.wf.Structure(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (s *Server) optimize(c *gin.Context) {
	ws, err := s.wf.Optimize(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// markdown は現在のストーリーボードをナレーション原稿の Markdown で返します。画像は data URI で埋め込みます。
func (s *Server) markdown(c *gin.Context) {
	ctx := c.Request.Context()
	ws, err := s.wf.Workspace(ctx)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	if ws.Result == nil {
		respondError(c, workflow.ErrNoStoryboard, http.StatusInternalServerError)
		return
	}

	links := publisher.ImageLinks{Scenes: make([]string, len(ws.Result.Body))}
	if a, ok := s.wf.ImageAsset(domain.CoverTarget()); ok {
		links.Cover = a.DataURI
	}
	for i := range links.Scenes {
		if a, ok := s.wf.ImageAsset(domain.SceneTarget(i)); ok {
			links.Scenes[i] = a.DataURI
		}
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(publisher.BuildMarkdown(ws, links)))
}

func (s *Server) renderCover(c *gin.Context) {
	uri, err := s.wf.RenderCover(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, imageResponse{Target: domain.CoverTarget().String(), DataURI: uri})
}

func (s *Server) renderScene(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, fmt.Errorf("%w: シーン番号が不正です: %q", domain.ErrInvalidRequest, c.Param("index")), http.StatusBadRequest)
		return
	}

	uri, err := s.wf.RenderScene(c.Request.Context(), index)
	if err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, imageResponse{Target: domain.SceneTarget(index).String(), DataURI: uri})
}

// renderAllScenes は成功したシーンだけを返します。一部が失敗した場合もエラー文と共に 200 を返します。
func (s *Server) renderAllScenes(c *gin.Context) {
	uris, err := s.wf.RenderAllScenes(c.Request.Context())
	if uris == nil && err != nil {
		respondError(c, err, http.StatusBadGateway)
		return
	}

	resp := batchImageResponse{Scenes: make([]imageResponse, 0, len(uris))}
	for i, uri := range uris {
		if uri == "" {
			continue
		}
		resp.Scenes = append(resp.Scenes, imageResponse{Target: domain.SceneTarget(i).String(), DataURI: uri})
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) imageStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.wf.ImageStatuses())
}

func (s *Server) getWorkspace(c *gin.Context) {
	ws, err := s.wf.Workspace(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (s *Server) putWorkspace(c *gin.Context) {
	var ws domain.Workspace
	if err := c.ShouldBindJSON(&ws); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	if ws.AspectRatio != "" && !domain.IsSupportedAspectRatio(ws.AspectRatio) {
		respondError(c, fmt.Errorf("%w: 未対応のアスペクト比です: %s", domain.ErrInvalidRequest, ws.AspectRatio), http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	if err := s.wf.SaveWorkspace(ctx, ws); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	saved, err := s.wf.Workspace(ctx)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) listProjects(c *gin.Context) {
	list, err := s.wf.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) newProject(c *gin.Context) {
	saved, err := s.wf.NewProject(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, projectResponse{Saved: saved})
}

func (s *Server) loadProject(c *gin.Context) {
	ws, err := s.wf.LoadProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.wf.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

// clearProjects はクエリ confirm=true を確認の代わりとして扱います。
func (s *Server) clearProjects(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	confirm := project.ConfirmFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	})
	if err := s.wf.ClearProjects(c.Request.Context(), confirm); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}
