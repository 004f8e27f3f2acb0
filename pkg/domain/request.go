package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// OptimizationMode は台本の扱い方を表します。
type OptimizationMode string

const (
	// ModeStrict は原文のナレーションを一字一句そのまま保持します。
	ModeStrict OptimizationMode = "strict"
	// ModeViral は FYP 向けにナレーションの書き換えを許可します。
	ModeViral OptimizationMode = "viral"
)

// サポートしているアスペクト比なのだ。
const (
	AspectPortrait  = "9:16"
	AspectLandscape = "16:9"
	AspectSquare    = "1:1"
	AspectClassic   = "4:3"
	AspectTall      = "3:4"

	DefaultAspectRatio = AspectPortrait
)

// AspectRatios はサポートしているアスペクト比の一覧です。
var AspectRatios = []string{AspectPortrait, AspectLandscape, AspectSquare, AspectClassic, AspectTall}

// ErrInvalidRequest はバックエンド呼び出し前の入力検証エラーです。
var ErrInvalidRequest = errors.New("invalid script request")

// ScriptRequest は構成生成への入力です。送信後は変更しません。
type ScriptRequest struct {
	ScriptContent     string           `json:"scriptContent" validate:"required,notblank"`
	CoverTitle        string           `json:"coverTitle,omitempty"`
	IncludeBubbleText bool             `json:"includeBubbleText"`
	CharacterImage    string           `json:"characterImage,omitempty" validate:"omitempty,datauri"`
	AspectRatio       string           `json:"aspectRatio" validate:"required,oneof=9:16 16:9 1:1 4:3 3:4"`
	OptimizationMode  OptimizationMode `json:"optimizationMode" validate:"required,oneof=strict viral"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("failed to register notblank validation: %v", err))
	}
}

// Validate はリクエストの入力制約を検証します。
func (r ScriptRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// IsSupportedAspectRatio はアスペクト比がサポート対象かを返します。
func IsSupportedAspectRatio(ratio string) bool {
	for _, r := range AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}
