// Package project は現在のワークスペースと保存済みプロジェクトの履歴を管理します。
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
)

const (
	// KeyWorkspace は現在のワークスペースを保存するキーです。
	KeyWorkspace = "workspace"
	// KeyHistory は保存済みプロジェクト一覧を保存するキーです。
	KeyHistory = "history"

	// DefaultMaxHistory は保持する履歴の上限です。
	DefaultMaxHistory = 50
)

var (
	ErrEmptyWorkspace  = errors.New("ワークスペースが空のため保存できません")
	ErrProjectNotFound = errors.New("プロジェクトが見つかりません")
	ErrNotConfirmed    = errors.New("操作が確認されませんでした")
)

// Confirmer は破壊的な操作の前にユーザーの確認を取ります。
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc は関数を Confirmer として扱うためのアダプタです。
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// Store はワークスペースと履歴を KV に JSON で保存します。
// 書き込みは常にドキュメント全体の置き換えです。
type Store struct {
	kv         storage.KV
	maxHistory int
	now        func() time.Time

	mu sync.Mutex
}

// NewStore は Store を生成します。maxHistory が 0 以下なら DefaultMaxHistory を使います。
func NewStore(kv storage.KV, maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{kv: kv, maxHistory: maxHistory, now: time.Now}
}

// Workspace は保存されているワークスペースを返します。無い・壊れている場合は空のワークスペースです。
func (s *Store) Workspace(ctx context.Context) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadWorkspace(ctx)
}

// SaveWorkspace はワークスペースを丸ごと保存します。
func (s *Store) SaveWorkspace(ctx context.Context, ws domain.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveJSON(ctx, KeyWorkspace, ws)
}

// CommitStoryboard は構造化に成功した結果で現在のワークスペースを置き換えます。
// 送信したリクエストの入力も一緒に記録します。
func (s *Store) CommitStoryboard(ctx context.Context, req domain.ScriptRequest, sb *domain.Storyboard) (domain.Workspace, error) {
	if sb == nil {
		return domain.Workspace{}, errors.New("ストーリーボードが nil です")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.loadWorkspace(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}
	ws.ScriptContent = req.ScriptContent
	ws.CoverTitle = req.CoverTitle
	ws.IncludeBubble = req.IncludeBubbleText
	ws.CharacterImage = req.CharacterImage
	ws.AspectRatio = req.AspectRatio
	ws.Mode = req.OptimizationMode
	ws.Result = sb.Clone()

	if err := s.saveJSON(ctx, KeyWorkspace, ws); err != nil {
		return domain.Workspace{}, err
	}
	return ws, nil
}

// CreateSnapshot はワークスペースを履歴の先頭に保存します。
func (s *Store) CreateSnapshot(ctx context.Context, ws domain.Workspace) (domain.SavedProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSnapshot(ctx, ws)
}

func (s *Store) createSnapshot(ctx context.Context, ws domain.Workspace) (domain.SavedProject, error) {
	if ws.IsEmpty() {
		return domain.SavedProject{}, ErrEmptyWorkspace
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.SavedProject{}, fmt.Errorf("プロジェクトIDの生成に失敗しました: %w", err)
	}
	data := ws
	data.Result = ws.Result.Clone()

	p := domain.SavedProject{
		ID:        id.String(),
		Timestamp: s.now().UnixMilli(),
		Title:     ws.ResolveTitle(),
		Data:      data,
	}

	history, err := s.loadHistory(ctx)
	if err != nil {
		return domain.SavedProject{}, err
	}
	history = append([]domain.SavedProject{p}, history...)
	if len(history) > s.maxHistory {
		slog.InfoContext(ctx, "履歴の上限を超えたため古いプロジェクトを削除します", "dropped", len(history)-s.maxHistory)
		history = history[:s.maxHistory]
	}
	if err := s.saveJSON(ctx, KeyHistory, history); err != nil {
		return domain.SavedProject{}, err
	}

	slog.InfoContext(ctx, "プロジェクトを保存しました", "id", p.ID, "title", p.Title)
	return p, nil
}

// NewProject は空でなければ現在のワークスペースを保存し、トグル設定を保ったまま空の下書きに戻します。
// 保存した場合はそのプロジェクトを返します。
func (s *Store) NewProject(ctx context.Context) (*domain.SavedProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.loadWorkspace(ctx)
	if err != nil {
		return nil, err
	}

	var saved *domain.SavedProject
	if !ws.IsEmpty() {
		p, err := s.createSnapshot(ctx, ws)
		if err != nil {
			return nil, err
		}
		saved = &p
	}

	next := domain.NewWorkspace()
	next.IncludeBubble = ws.IncludeBubble
	next.Cinematic = ws.Cinematic
	if ws.AspectRatio != "" {
		next.AspectRatio = ws.AspectRatio
	}
	if err := s.saveJSON(ctx, KeyWorkspace, next); err != nil {
		return nil, err
	}
	return saved, nil
}

// ListSnapshots は保存済みプロジェクトを新しい順に返します。
func (s *Store) ListSnapshots(ctx context.Context) ([]domain.SavedProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(history, func(a, b domain.SavedProject) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
	return history, nil
}

// LoadSnapshot は保存済みプロジェクトでワークスペースを置き換えます。履歴はそのまま残ります。
func (s *Store) LoadSnapshot(ctx context.Context, id string) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistory(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}
	for _, p := range history {
		if p.ID != id {
			continue
		}
		ws := p.Data
		ws.Result = p.Data.Result.Clone()
		if err := s.saveJSON(ctx, KeyWorkspace, ws); err != nil {
			return domain.Workspace{}, err
		}
		return ws, nil
	}
	return domain.Workspace{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// DeleteSnapshot は保存済みプロジェクトを1件削除します。
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(history, func(p domain.SavedProject) bool { return p.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	history = slices.Delete(history, idx, idx+1)
	return s.saveJSON(ctx, KeyHistory, history)
}

// ClearAll は確認が取れた場合のみ履歴をすべて削除します。
func (s *Store) ClearAll(ctx context.Context, c Confirmer) error {
	if c == nil {
		return ErrNotConfirmed
	}
	ok, err := c.Confirm(ctx, "保存済みのプロジェクトをすべて削除します。よろしいですか？")
	if err != nil {
		return fmt.Errorf("確認の取得に失敗しました: %w", err)
	}
	if !ok {
		return ErrNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, KeyHistory); err != nil {
		return fmt.Errorf("履歴の削除に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "履歴をすべて削除しました")
	return nil
}

func (s *Store) loadWorkspace(ctx context.Context) (domain.Workspace, error) {
	raw, err := s.kv.Get(ctx, KeyWorkspace)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewWorkspace(), nil
	}
	if err != nil {
		return domain.Workspace{}, err
	}

	ws := domain.NewWorkspace()
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		slog.WarnContext(ctx, "ワークスペースが壊れているため破棄します", "error", err)
		return domain.NewWorkspace(), nil
	}
	return ws, nil
}

// loadHistory は履歴を読み込みます。未保存・壊れている場合は空の履歴として扱い、
// 読み込み自体の失敗はそのまま返します。
func (s *Store) loadHistory(ctx context.Context) ([]domain.SavedProject, error) {
	raw, err := s.kv.Get(ctx, KeyHistory)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("履歴の読み込みに失敗しました: %w", err)
	}
	var history []domain.SavedProject
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		slog.WarnContext(ctx, "履歴が壊れているため破棄します", "error", err)
		return nil, nil
	}
	return history, nil
}

func (s *Store) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s のエンコードに失敗しました: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("%s の保存に失敗しました: %w", key, err)
	}
	return nil
}
