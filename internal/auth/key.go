// Package auth は Gemini API キーの解決と保存を扱います。
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const apiKeyField = "gemini_api_key"

// Source は API キーがどこから得られたかを表します。
type Source string

const (
	SourceNone Source = ""
	SourceFlag Source = "flag"
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// KeyStore はローカルの設定ファイル（YAML）に API キーを保存します。
type KeyStore struct {
	path string
}

// NewKeyStore は path に保存する KeyStore を生成します。
func NewKeyStore(path string) *KeyStore {
	return &KeyStore{path: path}
}

// DefaultKeyPath は ~/.storyboard-kit/config.yaml を返します。
func DefaultKeyPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ホームディレクトリの取得に失敗しました: %w", err)
	}
	return filepath.Join(homeDir, ".storyboard-kit", "config.yaml"), nil
}

// Path は設定ファイルのパスを返します。
func (s *KeyStore) Path() string {
	return s.path
}

func (s *KeyStore) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました (%s): %w", s.path, err)
	}
	return v, nil
}

// Load は保存されている API キーを返します。無ければ空文字です。
func (s *KeyStore) Load() (string, error) {
	v, err := s.read()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v.GetString(apiKeyField)), nil
}

// Save は API キーを保存します。ファイルは所有者のみ読み書きできる権限で作成します。
func (s *KeyStore) Save(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("空の API キーは保存できません")
	}
	return s.write(key)
}

// Forget は保存されている API キーを消去します。
func (s *KeyStore) Forget() error {
	return s.write("")
}

func (s *KeyStore) write(key string) error {
	v, err := s.read()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("設定ディレクトリの作成に失敗しました: %w", err)
	}
	v.Set(apiKeyField, key)
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("設定ファイルの書き込みに失敗しました (%s): %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("設定ファイルの権限変更に失敗しました: %w", err)
	}
	return nil
}

// Resolve は --api-key フラグ → 環境変数 → 保存済みファイルの順で API キーを解決します。
func (s *KeyStore) Resolve(flagKey, envKey string) (string, Source, error) {
	if k := strings.TrimSpace(flagKey); k != "" {
		return k, SourceFlag, nil
	}
	if k := strings.TrimSpace(envKey); k != "" {
		return k, SourceEnv, nil
	}
	k, err := s.Load()
	if err != nil {
		return "", SourceNone, err
	}
	if k == "" {
		return "", SourceNone, nil
	}
	return k, SourceFile, nil
}
