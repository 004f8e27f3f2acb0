package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/project"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
)

const viralResponse = `{
	"title": "ヤバい夜",
	"imagePrompt": "neon cover",
	"body": [
		{"timestamp":"0:00-0:02","originalText":"灯りが消えた瞬間…","visual":"闇","imagePrompt":"darkness","bubbleText":"消灯","emotionColor":"Electric Blue","mangaExpression":"shock","transition":"Smash Cut"}
	],
	"analysis": {"score": %SCORE%, "hookStrength":"強","emotionalAppeal":"高","retentionPrediction":"80%","improvementTips":["冒頭を短く"]}
}`

// stubBackend は固定の応答を返すのだ。
type stubBackend struct {
	text string
}

func (s *stubBackend) GenerateText(ctx context.Context, in generator.TextInput) (string, error) {
	if in.Mode == domain.ModeViral {
		return s.text, nil
	}
	return `{"title":"夜","imagePrompt":"cover","body":[{"timestamp":"0:00","originalText":"その夜、灯りが消えた。","visual":"v","imagePrompt":"p","bubbleText":"消えた","emotionColor":"Dark Grey"}]}`, nil
}

func (s *stubBackend) GenerateImage(ctx context.Context, in generator.ImageInput) ([]generator.InlineImage, error) {
	return []generator.InlineImage{{MIMEType: "image/png", Data: []byte("png")}}, nil
}

func newTestManager(t *testing.T, score string) *Manager {
	t.Helper()
	kv, err := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatalf("NewFileStore でエラー: %v", err)
	}
	cfg := DefaultConfig()
	cfg.RateInterval = 0
	m, err := New(context.Background(), ManagerArgs{
		Config:  cfg,
		Store:   kv,
		Backend: &stubBackend{text: strings.Replace(viralResponse, "%SCORE%", score, 1)},
	})
	if err != nil {
		t.Fatalf("New でエラー: %v", err)
	}
	return m
}

func TestNew_RequiresStoreAndKey(t *testing.T) {
	if _, err := New(context.Background(), ManagerArgs{Config: DefaultConfig()}); err == nil {
		t.Error("Store なしでエラーになりませんでした")
	}
	kv, _ := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	_, err := New(context.Background(), ManagerArgs{Config: DefaultConfig(), Store: kv})
	if !errors.Is(err, generator.ErrMissingCredential) {
		t.Errorf("ErrMissingCredential を期待しましたが %v でした", err)
	}
}

func TestManager_StructureAndOptimize(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, "80")

	req := domain.ScriptRequest{
		ScriptContent:     "その夜、灯りが消えた。",
		AspectRatio:       domain.AspectPortrait,
		OptimizationMode:  domain.ModeStrict,
		IncludeBubbleText: true,
	}
	ws, err := m.Structure(ctx, req)
	if err != nil {
		t.Fatalf("Structure でエラー: %v", err)
	}
	if ws.Phase() != domain.PhaseGenerated {
		t.Errorf("フェーズ: 期待値 generated, 実際の値 %s", ws.Phase())
	}

	if _, err := m.RenderScene(ctx, 0); err != nil {
		t.Fatalf("RenderScene でエラー: %v", err)
	}
	if m.ImageStatuses()["scene:0"] != domain.StatusReady {
		t.Errorf("シーン0の状態が ready ではありません: %v", m.ImageStatuses())
	}

	ws, err = m.Optimize(ctx)
	if err != nil {
		t.Fatalf("Optimize でエラー: %v", err)
	}
	if ws.Phase() != domain.PhaseOptimized || ws.Mode != domain.ModeViral || ws.Result.Analysis.Score != 80 {
		t.Errorf("最適化結果が違います: %+v", ws)
	}
	if len(m.ImageStatuses()) != 0 {
		t.Errorf("再構造化後に古い画像の状態が残っています: %v", m.ImageStatuses())
	}

	if _, err := m.Optimize(ctx); err != nil {
		t.Errorf("スコア80では再最適化できるはずです: %v", err)
	}
}

func TestManager_OptimizeGate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, "97")
	if err := m.SaveWorkspace(ctx, domain.Workspace{ScriptContent: "台本", AspectRatio: domain.AspectPortrait}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Optimize(ctx); err != nil {
		t.Fatalf("1回目の Optimize でエラー: %v", err)
	}
	if _, err := m.Optimize(ctx); !errors.Is(err, ErrOptimizeNotOffered) {
		t.Errorf("ErrOptimizeNotOffered を期待しましたが %v でした", err)
	}
}

func TestManager_RenderWithoutStoryboard(t *testing.T) {
	m := newTestManager(t, "50")
	if _, err := m.RenderCover(context.Background()); !errors.Is(err, ErrNoStoryboard) {
		t.Errorf("ErrNoStoryboard を期待しましたが %v でした", err)
	}
}

func TestManager_ProjectsResetImages(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, "50")
	if err := m.SaveWorkspace(ctx, domain.Workspace{ScriptContent: "台本", AspectRatio: domain.AspectPortrait}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Optimize(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RenderCover(ctx); err != nil {
		t.Fatalf("RenderCover でエラー: %v", err)
	}

	saved, err := m.NewProject(ctx)
	if err != nil || saved == nil {
		t.Fatalf("NewProject でエラー: %v", err)
	}
	if len(m.ImageStatuses()) != 0 {
		t.Error("新規プロジェクトで画像の状態が破棄されていません")
	}

	ws, err := m.LoadProject(ctx, saved.ID)
	if err != nil || ws.Result == nil || ws.Result.Title != "ヤバい夜" {
		t.Fatalf("LoadProject の結果が違います: %+v (err=%v)", ws, err)
	}
	list, _ := m.ListProjects(ctx)
	if len(list) != 1 {
		t.Errorf("読み込み後も履歴は残るはずです: %d 件", len(list))
	}
}

// holdingKV は armed の間、次のワークスペース読み込みを値を読んだ後で止めるのだ。
type holdingKV struct {
	storage.KV

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (h *holdingKV) Get(ctx context.Context, key string) (string, error) {
	v, err := h.KV.Get(ctx, key)
	h.mu.Lock()
	hold := h.armed && key == project.KeyWorkspace
	if hold {
		h.armed = false
	}
	h.mu.Unlock()
	if hold {
		close(h.entered)
		<-h.release
	}
	return v, err
}

// scriptedBackend は strict の応答のシーンプロンプトを差し替えられるのだ。
type scriptedBackend struct {
	mu          sync.Mutex
	scenePrompt string
	textCalled  chan struct{}
	images      []string
}

func (b *scriptedBackend) GenerateText(ctx context.Context, in generator.TextInput) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.textCalled != nil {
		close(b.textCalled)
		b.textCalled = nil
	}
	return `{"title":"夜","imagePrompt":"cover","body":[{"timestamp":"0:00","originalText":"その夜、灯りが消えた。","visual":"v","imagePrompt":"` + b.scenePrompt + `","bubbleText":"消えた","emotionColor":"Dark Grey"}]}`, nil
}

func (b *scriptedBackend) GenerateImage(ctx context.Context, in generator.ImageInput) ([]generator.InlineImage, error) {
	b.mu.Lock()
	b.images = append(b.images, in.Prompt)
	b.mu.Unlock()
	return []generator.InlineImage{{MIMEType: "image/png", Data: []byte("png")}}, nil
}

func TestManager_RenderDuringRestructure(t *testing.T) {
	ctx := context.Background()
	inner, err := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatalf("NewFileStore でエラー: %v", err)
	}
	kv := &holdingKV{KV: inner, entered: make(chan struct{}), release: make(chan struct{})}
	backend := &scriptedBackend{scenePrompt: "OLD_PROMPT"}
	cfg := DefaultConfig()
	cfg.RateInterval = 0
	m, err := New(ctx, ManagerArgs{Config: cfg, Store: kv, Backend: backend})
	if err != nil {
		t.Fatalf("New でエラー: %v", err)
	}

	req := domain.ScriptRequest{
		ScriptContent:     "その夜、灯りが消えた。",
		AspectRatio:       domain.AspectPortrait,
		OptimizationMode:  domain.ModeStrict,
		IncludeBubbleText: true,
	}
	if _, err := m.Structure(ctx, req); err != nil {
		t.Fatalf("Structure でエラー: %v", err)
	}

	// 描画が古いワークスペースを読んだところで止め、その間に再構造化を始めるのだ
	kv.mu.Lock()
	kv.armed = true
	kv.mu.Unlock()
	renderDone := make(chan error, 1)
	go func() {
		_, err := m.RenderScene(ctx, 0)
		renderDone <- err
	}()
	<-kv.entered

	backend.mu.Lock()
	backend.scenePrompt = "NEW_PROMPT"
	textCalled := make(chan struct{})
	backend.textCalled = textCalled
	backend.mu.Unlock()
	structureDone := make(chan error, 1)
	go func() {
		_, err := m.Structure(ctx, req)
		structureDone <- err
	}()
	<-textCalled
	close(kv.release)

	if err := <-structureDone; err != nil {
		t.Fatalf("2回目の Structure でエラー: %v", err)
	}
	if err := <-renderDone; err != nil && !errors.Is(err, generator.ErrStaleGeneration) {
		t.Fatalf("RenderScene で想定外のエラー: %v", err)
	}

	ws, err := m.Workspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Result.Body[0].ImagePrompt != "NEW_PROMPT" {
		t.Fatalf("ワークスペースが更新されていません: %q", ws.Result.Body[0].ImagePrompt)
	}
	if got := m.ImageStatuses()["scene:0"]; got == domain.StatusReady {
		t.Errorf("古いプロンプトの画像が新しいストーリーボードで ready になっています: %v", backend.images)
	}
	if _, ok := m.ImageAsset(domain.SceneTarget(0)); ok {
		t.Error("古いプロンプトの画像が残っています")
	}
}
