package asset

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultMIMEType は MIME タイプが判別できない場合に使う値です。
const DefaultMIMEType = "image/png"

// ErrInvalidDataURI は data URI として解釈できない文字列に対して返されます。
var ErrInvalidDataURI = errors.New("invalid data URI")

// EncodeDataURI はバイト列を base64 の data URI に変換します。
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI は base64 の data URI を MIME タイプとバイト列に分解します。
// "data:" で始まらない文字列は、素の base64 として DefaultMIMEType で解釈します。
func DecodeDataURI(uri string) (string, []byte, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", nil, fmt.Errorf("%w: empty", ErrInvalidDataURI)
	}

	mimeType := DefaultMIMEType
	payload := uri
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
		}
		media, isBase64 := strings.CutSuffix(header, ";base64")
		if !isBase64 {
			return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
		}
		if media != "" {
			mimeType = media
		}
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mimeType, data, nil
}
