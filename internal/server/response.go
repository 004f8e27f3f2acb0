package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/project"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// エラーコードはクライアントが分岐に使う機械可読な値なのだ。
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeCredential     = "CREDENTIAL"
	codeBusy           = "TARGET_BUSY"
	codeStale          = "STALE_GENERATION"
	codeNotOffered     = "OPTIMIZE_NOT_OFFERED"
	codeNoStoryboard   = "NO_STORYBOARD"
	codeNotFound       = "NOT_FOUND"
	codeNotConfirmed   = "NOT_CONFIRMED"
	codeMalformed      = "MALFORMED_RESPONSE"
	codeVerbatim       = "VERBATIM_VIOLATION"
	codeNoImage        = "NO_IMAGE"
	codeBackend        = "BACKEND"
	codeInternal       = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classifyError はエラーを HTTP ステータスとエラーコードに変換します。
// どれにも当てはまらない場合は fallback を使います。
func classifyError(err error, fallback int) (int, string) {
	var (
		malformed *parser.MalformedResponseError
		verbatim  *parser.VerbatimError
		noImage   *generator.NoImageError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, codeInvalidRequest
	case errors.Is(err, project.ErrNotConfirmed):
		return http.StatusBadRequest, codeNotConfirmed
	case errors.Is(err, generator.ErrMissingCredential), generator.IsCredentialError(err):
		return http.StatusUnauthorized, codeCredential
	case errors.Is(err, generator.ErrTargetBusy):
		return http.StatusConflict, codeBusy
	case errors.Is(err, generator.ErrStaleGeneration):
		return http.StatusConflict, codeStale
	case errors.Is(err, workflow.ErrOptimizeNotOffered):
		return http.StatusConflict, codeNotOffered
	case errors.Is(err, workflow.ErrNoStoryboard):
		return http.StatusConflict, codeNoStoryboard
	case errors.Is(err, project.ErrProjectNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.As(err, &malformed):
		return http.StatusBadGateway, codeMalformed
	case errors.As(err, &verbatim):
		return http.StatusBadGateway, codeVerbatim
	case errors.As(err, &noImage):
		return http.StatusBadGateway, codeNoImage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeBackend
	}

	if fallback == http.StatusBadGateway {
		return fallback, codeBackend
	}
	return fallback, codeInternal
}

func respondError(c *gin.Context, err error, fallback int) {
	status, code := classifyError(err, fallback)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "リクエストの処理に失敗しました", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: code})
}
