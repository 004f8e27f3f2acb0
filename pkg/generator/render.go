package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

var errNoStoryboard = fmt.Errorf("%w: ストーリーボードがありません", domain.ErrInvalidRequest)

// RenderCover は Storyboard のカバー画像を生成します。
func (o *Orchestrator) RenderCover(ctx context.Context, sb *domain.Storyboard, opts RenderOptions) (string, error) {
	if sb == nil {
		return "", errNoStoryboard
	}
	return o.RenderImage(ctx, domain.CoverTarget(), ImageRequest{
		Prompt:         sb.ImagePrompt,
		AspectRatio:    sb.AspectRatio,
		Mode:           domain.ImageModeCover,
		ReferenceImage: opts.ReferenceImage,
		Cinematic:      opts.Cinematic,
		Epoch:          opts.Epoch,
	})
}

// RenderScene は index 番目のシーンの画像を生成します。
func (o *Orchestrator) RenderScene(ctx context.Context, sb *domain.Storyboard, index int, opts RenderOptions) (string, error) {
	if sb == nil {
		return "", errNoStoryboard
	}
	if index < 0 || index >= len(sb.Body) {
		return "", fmt.Errorf("%w: シーン番号 %d は範囲外です (0-%d)", domain.ErrInvalidRequest, index, len(sb.Body)-1)
	}
	return o.RenderImage(ctx, domain.SceneTarget(index), sceneRequest(sb, index, opts))
}

func sceneRequest(sb *domain.Storyboard, index int, opts RenderOptions) ImageRequest {
	scene := sb.Body[index]
	req := ImageRequest{
		Prompt:         scene.ImagePrompt,
		AspectRatio:    sb.AspectRatio,
		Mode:           domain.ImageModeScene,
		ReferenceImage: opts.ReferenceImage,
		Cinematic:      opts.Cinematic,
		Epoch:          opts.Epoch,
	}
	if opts.IncludeBubbles && scene.HasBubble() {
		req.Bubble = &prompts.Bubble{Text: scene.BubbleText, Color: scene.EmotionColor}
	}
	return req
}

// RenderAllScenes は未生成のシーン画像を並列に生成します。
// 同時実行数は MaxConcurrentImages で制限し、失敗したシーンだけが failed になります。
// 戻り値のスライスはシーン順で、失敗・スキップしたシーンは空文字です。
func (o *Orchestrator) RenderAllScenes(ctx context.Context, sb *domain.Storyboard, opts RenderOptions) ([]string, error) {
	if sb == nil {
		return nil, errNoStoryboard
	}

	uris := make([]string, len(sb.Body))
	var (
		mu   sync.Mutex
		errs []error
	)

	var eg errgroup.Group
	eg.SetLimit(o.concurrency)

	for i := range sb.Body {
		target := domain.SceneTarget(i)
		switch o.Status(target) {
		case domain.StatusReady:
			if a, ok := o.Asset(target); ok {
				uris[i] = a.DataURI
			}
			continue
		case domain.StatusPending:
			continue
		}

		eg.Go(func() error {
			uri, err := o.RenderImage(ctx, target, sceneRequest(sb, i, opts))
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("scene %d: %w", i, err))
				mu.Unlock()
				return nil
			}
			uris[i] = uri
			return nil
		})
	}
	_ = eg.Wait()

	if len(errs) > 0 {
		slog.WarnContext(ctx, "一部のシーン画像の生成に失敗しました", "failed", len(errs), "total", len(sb.Body))
		return uris, errors.Join(errs...)
	}
	return uris, nil
}
