package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

var (
	// ErrMissingCredential は API キーが設定されていない場合のエラーです。バックエンドは呼び出しません。
	ErrMissingCredential = errors.New("API キーが設定されていません")
	// ErrCredentialRejected はバックエンドが認証情報を拒否した場合のエラーです。再試行しません。
	ErrCredentialRejected = errors.New("API キーが拒否されました")
	// ErrTargetBusy は生成中のターゲットに対して再度リクエストされた場合のエラーです。
	ErrTargetBusy = errors.New("このターゲットは生成中です")
	// ErrStaleGeneration は生成中にストーリーボードが差し替えられ、結果を破棄した場合のエラーです。
	ErrStaleGeneration = errors.New("ストーリーボードが差し替えられたため生成結果を破棄しました")
)

// NoImageError は画像生成の応答に画像が含まれていなかった場合のエラーです。
type NoImageError struct {
	Target domain.Target
}

func (e *NoImageError) Error() string {
	return fmt.Sprintf("応答に画像が含まれていません (%s)", e.Target)
}

var credentialMarkers = []string{
	"API key not valid",
	"API_KEY_INVALID",
	"Requested entity was not found",
	"PERMISSION_DENIED",
}

// IsCredentialError はバックエンドのエラーが認証情報の問題を示しているかを判定します。
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentialRejected) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isCredentialStatus(apiErr.Code) {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && isCredentialStatus(apiErrPtr.Code) {
		return true
	}

	msg := err.Error()
	for _, m := range credentialMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isCredentialStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// classify は認証エラーを ErrCredentialRejected でラップします。
func classify(err error) error {
	if err == nil || errors.Is(err, ErrCredentialRejected) || !IsCredentialError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCredentialRejected, err)
}
