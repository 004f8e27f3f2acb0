package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString はモデルが文字列・オブジェクト・数値・真偽値・null のいずれで返してくるか
// 分からないフィールドを受け止める境界用の型です。デコード直後に String で文字列へ畳み込みます。
type FlexString struct {
	value string
}

// objectTextKeys はオブジェクトで返された場合に優先して取り出すサブフィールドです。
var objectTextKeys = []string{"text", "hex", "color"}

// UnmarshalJSON は JSON の任意の値を文字列に変換して保持します。
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexString{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString{value: s}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*f = FlexString{value: collapseObject(obj, data)}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexString{value: strconv.FormatBool(b)}
	default:
		// 数値・配列はコンパクトな JSON 表現をそのまま使う
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*f = FlexString{value: buf.String()}
	}
	return nil
}

func collapseObject(obj map[string]json.RawMessage, raw []byte) string {
	for _, key := range objectTextKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// String は畳み込み済みの文字列を返します。null や未設定なら空文字です。
func (f FlexString) String() string {
	return f.value
}
