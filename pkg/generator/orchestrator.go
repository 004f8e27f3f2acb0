package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// DefaultMaxConcurrentImages は RenderAllScenes の同時実行数の既定値です。
const DefaultMaxConcurrentImages = 3

// Options は Orchestrator の動作設定です。
type Options struct {
	Executor            *retry.Executor
	Limiter             *rate.Limiter
	MaxConcurrentImages int
	// VerifyVerbatim が true のとき、strict モードの結果が原文を保持しているか検証します。
	VerifyVerbatim bool
}

// Orchestrator はプロンプト構築 → バックエンド呼び出し → 正規化の流れを統括し、
// ターゲットごとの生成状態と生成済み画像を管理します。
type Orchestrator struct {
	backend      Backend
	scriptPrompt prompts.ScriptPrompt
	imagePrompt  prompts.ImagePrompt
	executor     *retry.Executor
	limiter      *rate.Limiter
	concurrency  int
	verify       bool

	mu       sync.Mutex
	epoch    uint64
	statuses map[domain.Target]domain.GenerationStatus
	assets   *cache.Cache
}

// NewOrchestrator は Orchestrator を生成します。
func NewOrchestrator(backend Backend, sp prompts.ScriptPrompt, ip prompts.ImagePrompt, opts Options) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("backend は必須です")
	}
	if sp == nil || ip == nil {
		return nil, errors.New("プロンプトビルダーは必須です")
	}

	executor := opts.Executor
	if executor == nil {
		executor = retry.NewExecutor(retry.DefaultMaxRetries, retry.DefaultInitialDelay)
	}
	// 認証エラーとキャンセルは再試行しても無駄なので恒久的なエラーとして扱う
	executor = executor.WithPermanent(isPermanent)

	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	concurrency := opts.MaxConcurrentImages
	if concurrency <= 0 {
		concurrency = DefaultMaxConcurrentImages
	}

	return &Orchestrator{
		backend:      backend,
		scriptPrompt: sp,
		imagePrompt:  ip,
		executor:     executor,
		limiter:      limiter,
		concurrency:  concurrency,
		verify:       opts.VerifyVerbatim,
		epoch:        1,
		statuses:     make(map[domain.Target]domain.GenerationStatus),
		assets:       cache.New(cache.NoExpiration, 0),
	}, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrCredentialRejected) ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// CommitFunc は構造化に成功した Storyboard を保存します。
type CommitFunc func(ctx context.Context, sb *domain.Storyboard) error

// StructureScript は台本を構造化し、新しい Storyboard を返します。
// 成功した時点で以前のストーリーボードに紐づく生成状態と画像はすべて破棄されます。
func (o *Orchestrator) StructureScript(ctx context.Context, req domain.ScriptRequest) (*domain.Storyboard, error) {
	return o.StructureScriptAndCommit(ctx, req, nil)
}

// StructureScriptAndCommit は StructureScript と同じく構造化を行い、commit で結果を保存してから
// 生成状態を破棄します。commit が失敗した場合、現在の生成状態と画像はそのまま残ります。
func (o *Orchestrator) StructureScriptAndCommit(ctx context.Context, req domain.ScriptRequest, commit CommitFunc) (*domain.Storyboard, error) {
	prompt, err := o.scriptPrompt.BuildStructuringPrompt(req)
	if err != nil {
		return nil, err
	}

	logger := slog.With("mode", req.OptimizationMode, "aspect_ratio", req.AspectRatio)
	logger.InfoContext(ctx, "台本の構造化を開始します", "attachments", len(prompt.Attachments))
	start := time.Now()

	raw, err := retry.Do(ctx, o.executor, func(ctx context.Context) (string, error) {
		text, err := o.backend.GenerateText(ctx, TextInput{
			SystemInstruction: prompt.SystemInstruction,
			Prompt:            prompt.Instruction,
			Attachments:       prompt.Attachments,
			Mode:              prompt.Mode,
		})
		return text, classify(err)
	})
	if err != nil {
		return nil, fmt.Errorf("台本の構造化に失敗しました: %w", err)
	}

	sb, err := parser.Normalize(raw, req)
	if err != nil {
		return nil, err
	}
	if o.verify && req.OptimizationMode == domain.ModeStrict {
		if err := parser.VerifyVerbatim(req.ScriptContent, sb); err != nil {
			return nil, err
		}
	}

	if commit != nil {
		if err := commit(ctx, sb); err != nil {
			return nil, err
		}
	}

	o.Reset()
	logger.InfoContext(ctx, "台本の構造化が完了しました",
		"scenes", len(sb.Body),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return sb, nil
}

// Reset は生成状態と生成済み画像をすべて破棄します。生成中の応答は到着時に捨てられます。
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	o.statuses = make(map[domain.Target]domain.GenerationStatus)
	o.assets.Flush()
}

// Epoch は現在の世代番号を返します。世代は Reset のたびに進みます。
func (o *Orchestrator) Epoch() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.epoch
}

// RenderImage は指定ターゲットの画像を生成し、データURIを返します。
// 生成中のターゲットへの重複リクエストは ErrTargetBusy で拒否します。
// req.Epoch が現在の世代と異なる場合は ErrStaleGeneration を返します。
func (o *Orchestrator) RenderImage(ctx context.Context, target domain.Target, req ImageRequest) (string, error) {
	if target.Kind == domain.TargetScene && target.Index < 0 {
		return "", fmt.Errorf("%w: シーン番号が不正です: %d", domain.ErrInvalidRequest, target.Index)
	}

	var reference *prompts.Attachment
	if req.ReferenceImage != "" {
		mimeType, data, err := asset.DecodeDataURI(req.ReferenceImage)
		if err != nil {
			return "", fmt.Errorf("%w: 参照画像: %v", domain.ErrInvalidRequest, err)
		}
		reference = &prompts.Attachment{MIMEType: mimeType, Data: data}
	}

	epoch, err := o.begin(target, req.Epoch)
	if err != nil {
		return "", err
	}

	prompt := o.imagePrompt.BuildImagePrompt(req.Prompt, req.Mode, prompts.ImageOptions{
		AspectRatio:  req.AspectRatio,
		Cinematic:    req.Cinematic,
		HasReference: reference != nil,
		Bubble:       req.Bubble,
	})

	logger := slog.With("target", target.String(), "aspect_ratio", req.AspectRatio)
	logger.InfoContext(ctx, "画像生成を開始します", "use_reference", reference != nil)
	start := time.Now()

	uri, genErr := o.generateImage(ctx, target, prompt, req.AspectRatio, reference)
	if err := o.finish(epoch, target, uri, genErr); err != nil {
		logger.WarnContext(ctx, "画像生成に失敗しました", "error", err)
		return "", err
	}

	logger.InfoContext(ctx, "画像生成が完了しました", "duration", time.Since(start).Round(time.Millisecond))
	return uri, nil
}

func (o *Orchestrator) generateImage(ctx context.Context, target domain.Target, prompt, aspectRatio string, reference *prompts.Attachment) (string, error) {
	images, err := retry.Do(ctx, o.executor, func(ctx context.Context) ([]InlineImage, error) {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		imgs, err := o.backend.GenerateImage(ctx, ImageInput{
			Prompt:      prompt,
			AspectRatio: aspectRatio,
			Reference:   reference,
		})
		return imgs, classify(err)
	})
	if err != nil {
		return "", fmt.Errorf("画像生成に失敗しました (%s): %w", target, err)
	}

	for _, img := range images {
		if len(img.Data) > 0 {
			return asset.EncodeDataURI(img.MIMEType, img.Data), nil
		}
	}
	return "", &NoImageError{Target: target}
}

// begin はターゲットを pending にし、現在の世代番号を返します。
// expected が 0 でなければ、その世代のままであることを確認します。
func (o *Orchestrator) begin(target domain.Target, expected uint64) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if expected != 0 && expected != o.epoch {
		return 0, fmt.Errorf("%w: %s", ErrStaleGeneration, target)
	}
	if o.statuses[target] == domain.StatusPending {
		return 0, fmt.Errorf("%w: %s", ErrTargetBusy, target)
	}
	o.statuses[target] = domain.StatusPending
	return o.epoch, nil
}

// finish は生成結果を反映します。世代が変わっていれば結果を捨てます。
func (o *Orchestrator) finish(epoch uint64, target domain.Target, uri string, genErr error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		if genErr != nil {
			return fmt.Errorf("%w: %w", ErrStaleGeneration, genErr)
		}
		return ErrStaleGeneration
	}
	if genErr != nil {
		o.statuses[target] = domain.StatusFailed
		return genErr
	}

	o.statuses[target] = domain.StatusReady
	mimeType, _, _ := asset.DecodeDataURI(uri)
	o.assets.Set(target.String(), domain.GeneratedAsset{
		Target:    target,
		DataURI:   uri,
		MIMEType:  mimeType,
		CreatedAt: time.Now(),
	}, cache.NoExpiration)
	return nil
}

// Status はターゲットの生成状態を返します。未着手なら idle です。
func (o *Orchestrator) Status(target domain.Target) domain.GenerationStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.statuses[target]; ok {
		return s
	}
	return domain.StatusIdle
}

// Statuses は idle 以外のターゲットの生成状態のコピーを返します。
func (o *Orchestrator) Statuses() map[domain.Target]domain.GenerationStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[domain.Target]domain.GenerationStatus, len(o.statuses))
	for k, v := range o.statuses {
		out[k] = v
	}
	return out
}

// Asset は生成済みの画像を返します。
func (o *Orchestrator) Asset(target domain.Target) (domain.GeneratedAsset, bool) {
	v, ok := o.assets.Get(target.String())
	if !ok {
		return domain.GeneratedAsset{}, false
	}
	a, ok := v.(domain.GeneratedAsset)
	return a, ok
}
