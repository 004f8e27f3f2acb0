package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

const strictJSON = `{"title":"夜","imagePrompt":"cover","body":[{"timestamp":"0:00","originalText":"その夜、灯りが消えた。","visual":"v","imagePrompt":"p","bubbleText":"消えた","emotionColor":"Dark Grey"}]}`

const viralJSON = `{"title":"ヤバい夜","imagePrompt":"neon","body":[{"timestamp":"0:00","originalText":"灯りが消えた…","visual":"闇","imagePrompt":"dark","bubbleText":"消灯","emotionColor":"Blue"}],"analysis":{"score":97,"hookStrength":"強","emotionalAppeal":"高","retentionPrediction":"80%","improvementTips":[]}}`

type stubBackend struct{}

func (stubBackend) GenerateText(ctx context.Context, in generator.TextInput) (string, error) {
	if in.Mode == domain.ModeViral {
		return viralJSON, nil
	}
	return strictJSON, nil
}

func (stubBackend) GenerateImage(ctx context.Context, in generator.ImageInput) ([]generator.InlineImage, error) {
	return []generator.InlineImage{{MIMEType: "image/png", Data: []byte("png")}}, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	kv, err := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatalf("NewFileStore でエラー: %v", err)
	}
	cfg := workflow.DefaultConfig()
	cfg.RateInterval = 0
	m, err := workflow.New(context.Background(), workflow.ManagerArgs{
		Config:  cfg,
		Store:   kv,
		Backend: stubBackend{},
	})
	if err != nil {
		t.Fatalf("workflow.New でエラー: %v", err)
	}
	return New(m).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("リクエストのエンコードに失敗: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("エラーレスポンスのデコードに失敗: %v (%s)", err, rec.Body.String())
	}
	return e
}

func structure(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/storyboards", domain.ScriptRequest{
		ScriptContent:     "その夜、灯りが消えた。",
		IncludeBubbleText: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("構造化に失敗: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStructure(t *testing.T) {
	h := newTestServer(t)

	t.Run("既定値を補って構造化するのだ", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/storyboards", domain.ScriptRequest{ScriptContent: "その夜、灯りが消えた。"})
		if rec.Code != http.StatusOK {
			t.Fatalf("期待値 200, 実際の値 %d: %s", rec.Code, rec.Body.String())
		}
		var ws domain.Workspace
		if err := json.Unmarshal(rec.Body.Bytes(), &ws); err != nil {
			t.Fatal(err)
		}
		if ws.Result == nil || ws.Result.Title != "夜" || ws.Result.AspectRatio != domain.DefaultAspectRatio {
			t.Errorf("ワークスペースの結果が違います: %+v", ws.Result)
		}
	})

	t.Run("空の台本は 400", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/storyboards", domain.ScriptRequest{ScriptContent: "  "})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("期待値 400, 実際の値 %d", rec.Code)
		}
		if e := decodeError(t, rec); e.Code != codeInvalidRequest {
			t.Errorf("期待値 %s, 実際の値 %s", codeInvalidRequest, e.Code)
		}
	})

	t.Run("壊れた JSON は 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/storyboards", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("期待値 400, 実際の値 %d", rec.Code)
		}
	})
}

func TestImages(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/images/cover", nil)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != codeNoStoryboard {
		t.Fatalf("構造化前のカバー生成は 409 NO_STORYBOARD を期待: %d %s", rec.Code, rec.Body.String())
	}

	structure(t, h)

	rec = do(t, h, http.MethodPost, "/api/images/scenes/0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("シーン生成に失敗: %d %s", rec.Code, rec.Body.String())
	}
	var img imageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &img); err != nil {
		t.Fatal(err)
	}
	if img.Target != "scene:0" || !strings.HasPrefix(img.DataURI, "data:image/png;base64,") {
		t.Errorf("レスポンスが違います: %+v", img)
	}

	rec = do(t, h, http.MethodGet, "/api/images/status", nil)
	var statuses map[string]domain.GenerationStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatal(err)
	}
	if statuses["scene:0"] != domain.StatusReady {
		t.Errorf("scene:0 は ready であるべきです: %v", statuses)
	}

	for _, path := range []string{"/api/images/scenes/abc", "/api/images/scenes/5"} {
		if rec := do(t, h, http.MethodPost, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: 期待値 400, 実際の値 %d", path, rec.Code)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/storyboards/markdown", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "![scene 1](data:image/png;base64,") {
		t.Errorf("Markdown に生成済みのシーン画像が埋め込まれていません: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/images/scenes", nil)
	var batch batchImageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || len(batch.Scenes) != 1 || batch.Error != "" {
		t.Errorf("一括生成のレスポンスが違います: %d %+v", rec.Code, batch)
	}
}

func TestOptimize(t *testing.T) {
	h := newTestServer(t)
	structure(t, h)

	rec := do(t, h, http.MethodPost, "/api/storyboards/optimize", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("最適化に失敗: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/storyboards/optimize", nil)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != codeNotOffered {
		t.Errorf("高スコア後の再最適化は 409 を期待: %d %s", rec.Code, rec.Body.String())
	}
}

func TestWorkspaceAndProjects(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/api/workspace", domain.Workspace{ScriptContent: "下書き", AspectRatio: domain.AspectSquare})
	if rec.Code != http.StatusOK {
		t.Fatalf("ワークスペースの保存に失敗: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPut, "/api/workspace", domain.Workspace{AspectRatio: "2:1"}); rec.Code != http.StatusBadRequest {
		t.Errorf("未対応のアスペクト比は 400 を期待: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/projects", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("新規プロジェクトに失敗: %d %s", rec.Code, rec.Body.String())
	}
	var created projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Saved == nil || created.Saved.Data.ScriptContent != "下書き" {
		t.Fatalf("下書きが履歴に保存されていません: %+v", created.Saved)
	}

	rec = do(t, h, http.MethodGet, "/api/projects", nil)
	var list []domain.SavedProject
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("期待値 1件, 実際の値 %d件", len(list))
	}

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/projects/%s/load", created.Saved.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("読み込みに失敗: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/api/projects/unknown/load", nil); rec.Code != http.StatusNotFound {
		t.Errorf("存在しない ID は 404 を期待: %d", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, "/api/projects", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("確認なしの全削除は 400 を期待: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/projects?confirm=true", nil); rec.Code != http.StatusNoContent {
		t.Errorf("確認ありの全削除は 204 を期待: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/projects", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("全削除後も %d件残っています", len(list))
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		fallback   int
		wantStatus int
		wantCode   string
	}{
		{"認証拒否は 401", fmt.Errorf("wrap: %w", generator.ErrCredentialRejected), http.StatusBadGateway, http.StatusUnauthorized, codeCredential},
		{"生成中は 409", generator.ErrTargetBusy, http.StatusBadGateway, http.StatusConflict, codeBusy},
		{"古い生成は 409", generator.ErrStaleGeneration, http.StatusBadGateway, http.StatusConflict, codeStale},
		{"画像なしは 502", &generator.NoImageError{Target: domain.CoverTarget()}, http.StatusBadGateway, http.StatusBadGateway, codeNoImage},
		{"不正な応答は 502", &parser.MalformedResponseError{Record: "storyboard", Reason: "x"}, http.StatusBadGateway, http.StatusBadGateway, codeMalformed},
		{"原文違反は 502", &parser.VerbatimError{Scene: 0, Reason: "x"}, http.StatusBadGateway, http.StatusBadGateway, codeVerbatim},
		{"未分類のバックエンドエラー", errors.New("boom"), http.StatusBadGateway, http.StatusBadGateway, codeBackend},
		{"未分類の内部エラー", errors.New("boom"), http.StatusInternalServerError, http.StatusInternalServerError, codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyError(tt.err, tt.fallback)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classifyError() = (%d, %s), 期待値 (%d, %s)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}
