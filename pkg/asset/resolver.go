package asset

import (
	"fmt"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は生成された画像を格納するデフォルトのディレクトリ名です。
	DefaultImageDir = "output/images"
	// DefaultStoryboardJSON は生成されたストーリーボードのデフォルト JSON ファイル名です。
	DefaultStoryboardJSON = "storyboard.json"
	// DefaultCoverFileName はカバー画像のファイル名です。
	DefaultCoverFileName = "cover.png"
	// DefaultSceneFileName はシーン画像の共通のベースファイル名です。
	DefaultSceneFileName = "scene.png"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// ScenePath は baseDir 配下の scene_<n>.png のパスを返します。
// index は 0 始まりのシーン番号で、ファイル名は 1 始まりになります。
func ScenePath(baseDir string, index int) (string, error) {
	basePath, err := ResolveOutputPath(baseDir, DefaultSceneFileName)
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	return urlpath.GenerateIndexedPath(basePath, index+1)
}

// CoverPath は baseDir 配下のカバー画像のパスを返します。
func CoverPath(baseDir string) (string, error) {
	return ResolveOutputPath(baseDir, DefaultCoverFileName)
}
