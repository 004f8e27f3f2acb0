package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// FileStore はキーごとに1ファイルを書き出す KV です。
// afero.NewMemMapFs() を渡せばメモリ上で動作します。
type FileStore struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewFileStore は dir 配下に値を保存する FileStore を生成します。fs が nil なら OS のファイルシステムを使います。
func NewFileStore(fsys afero.Fs, dir string) (*FileStore, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("保存ディレクトリの作成に失敗しました: %w", err)
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("値の読み込みに失敗しました (%s): %w", key, err)
	}
	return string(data), nil
}

// Set は一時ファイルに書いてからリネームし、値を丸ごと置き換えます。
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0644); err != nil {
		return fmt.Errorf("値の書き込みに失敗しました (%s): %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		return fmt.Errorf("値の置き換えに失敗しました (%s): %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("値の削除に失敗しました (%s): %w", key, err)
	}
	return nil
}
