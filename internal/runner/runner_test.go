package runner

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/examples"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

func TestScriptRunner_BuildRequest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "script.txt", []byte("その夜、灯りが消えた。"), 0o644)
	_ = afero.WriteFile(fsys, "hero.JPG", []byte("jpeg"), 0o644)

	t.Run("ファイルから読み込むのだ", func(t *testing.T) {
		r := NewScriptRunner(fsys, nil, config.GenerateOptions{
			ScriptFile: "script.txt",
			Character:  "hero.JPG",
			CoverTitle: "  夜  ",
			NoBubble:   true,
		})
		req, err := r.BuildRequest(context.Background())
		if err != nil {
			t.Fatalf("BuildRequest でエラー: %v", err)
		}
		if req.ScriptContent != "その夜、灯りが消えた。" || req.CoverTitle != "夜" {
			t.Errorf("台本かタイトルが違います: %+v", req)
		}
		if req.IncludeBubbleText || req.OptimizationMode != domain.ModeStrict || req.AspectRatio != domain.DefaultAspectRatio {
			t.Errorf("既定値の反映が違います: %+v", req)
		}
		if !strings.HasPrefix(req.CharacterImage, "data:image/jpeg;base64,") {
			t.Errorf("参照画像の MIME タイプが違います: %s", req.CharacterImage)
		}
		if err := req.Validate(); err != nil {
			t.Errorf("組み立てたリクエストが検証を通りません: %v", err)
		}
	})

	t.Run("標準入力から読み込むのだ", func(t *testing.T) {
		r := NewScriptRunner(fsys, strings.NewReader("stdin script"), config.GenerateOptions{ScriptFile: StdinPath, Viral: true, AspectRatio: "1:1"})
		req, err := r.BuildRequest(context.Background())
		if err != nil {
			t.Fatalf("BuildRequest でエラー: %v", err)
		}
		if req.ScriptContent != "stdin script" || req.OptimizationMode != domain.ModeViral || req.AspectRatio != "1:1" {
			t.Errorf("リクエストが違います: %+v", req)
		}
	})

	t.Run("サンプル台本を読み込むのだ", func(t *testing.T) {
		req, err := NewScriptRunner(fsys, nil, config.GenerateOptions{ScriptFile: examples.SampleScriptName}).BuildRequest(context.Background())
		if err != nil {
			t.Fatalf("BuildRequest でエラー: %v", err)
		}
		if !strings.HasPrefix(req.ScriptContent, "その夜、図書館の灯りがすべて消えた。") {
			t.Errorf("サンプル台本が読み込まれていません: %q", req.ScriptContent)
		}
	})

	t.Run("ファイル未指定は ErrInvalidRequest", func(t *testing.T) {
		_, err := NewScriptRunner(fsys, nil, config.GenerateOptions{}).BuildRequest(context.Background())
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("ErrInvalidRequest を期待しましたが %v でした", err)
		}
	})

	t.Run("存在しないファイル", func(t *testing.T) {
		_, err := NewScriptRunner(fsys, nil, config.GenerateOptions{ScriptFile: "missing.txt"}).BuildRequest(context.Background())
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("fs.ErrNotExist を期待しましたが %v でした", err)
		}
	})
}

type pngBackend struct{}

func (pngBackend) GenerateText(ctx context.Context, in generator.TextInput) (string, error) {
	return `{"title":"夜","imagePrompt":"cover","body":[
		{"timestamp":"0:00","originalText":"その夜、","visual":"v","imagePrompt":"p1"},
		{"timestamp":"0:02","originalText":"灯りが消えた。","visual":"v","imagePrompt":"p2"}
	]}`, nil
}

func (pngBackend) GenerateImage(ctx context.Context, in generator.ImageInput) ([]generator.InlineImage, error) {
	return []generator.InlineImage{{MIMEType: "image/png", Data: []byte("\x89PNG")}}, nil
}

func TestImageRunner(t *testing.T) {
	ctx := context.Background()
	kv, err := storage.NewFileStore(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatal(err)
	}
	cfg := workflow.DefaultConfig()
	cfg.RateInterval = 0
	wf, err := workflow.New(ctx, workflow.ManagerArgs{Config: cfg, Store: kv, Backend: pngBackend{}})
	if err != nil {
		t.Fatal(err)
	}

	out := afero.NewMemMapFs()
	r := NewImageRunner(wf, out, "/out")

	if _, err := r.RunCover(ctx); !errors.Is(err, workflow.ErrNoStoryboard) {
		t.Fatalf("構造化前は ErrNoStoryboard を期待しましたが %v でした", err)
	}

	if _, err := wf.Structure(ctx, domain.ScriptRequest{
		ScriptContent:    "その夜、灯りが消えた。",
		AspectRatio:      domain.AspectPortrait,
		OptimizationMode: domain.ModeStrict,
	}); err != nil {
		t.Fatalf("Structure でエラー: %v", err)
	}

	coverPath, err := r.RunCover(ctx)
	if err != nil {
		t.Fatalf("RunCover でエラー: %v", err)
	}
	data, err := afero.ReadFile(out, coverPath)
	if err != nil || string(data) != "\x89PNG" {
		t.Errorf("カバー画像が保存されていません: %v", err)
	}

	paths, err := r.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll でエラー: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("期待値 2枚, 実際の値 %d枚", len(paths))
	}
	for _, p := range paths {
		if ok, _ := afero.Exists(out, p); !ok {
			t.Errorf("%s が保存されていません", p)
		}
	}
	if paths[0] == paths[1] || paths[0] == coverPath {
		t.Errorf("出力パスが重複しています: %v / %s", paths, coverPath)
	}
}
