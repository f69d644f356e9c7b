// Package balance ベンダーの残高文字列を数値に変換する
package balance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// CurrencySymbol ベンダーが残高に付ける通貨記号
const CurrencySymbol = "GH₵"

// ErrInvalidBalance 残高文字列を数値に変換できないエラー
var ErrInvalidBalance = errors.New("invalid balance format")

// fieldPriority レスポンス中で残高を探すフィールド名（優先順）
var fieldPriority = []string{
	"remaining_balance",
	"balance",
	"current_balance",
	"accountBalance",
}

// Parse "GH₵9.25" のような文字列を数値に変換する。
// 変換できない場合はゼロと ErrInvalidBalance を返す。
func Parse(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(text, CurrencySymbol, "")
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, cleaned)

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidBalance, text)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidBalance, text)
	}
	return value, nil
}

// Extract ベンダーのレスポンスから残高を取り出す。
// トップレベル、次にネストした data オブジェクトの順で探し、見つからなければ ok=false。
func Extract(response map[string]interface{}) (value decimal.Decimal, ok bool, err error) {
	if response == nil {
		return decimal.Zero, false, nil
	}

	if raw, found := lookup(response); found {
		value, err = parseRaw(raw)
		return value, true, err
	}

	if nested, isMap := response["data"].(map[string]interface{}); isMap {
		if raw, found := lookup(nested); found {
			value, err = parseRaw(raw)
			return value, true, err
		}
	}

	return decimal.Zero, false, nil
}

// RawString レスポンス中の残高フィールドを文字列のまま返す
func RawString(response map[string]interface{}) string {
	if response == nil {
		return ""
	}
	raw, found := lookup(response)
	if !found {
		nested, isMap := response["data"].(map[string]interface{})
		if !isMap {
			return ""
		}
		if raw, found = lookup(nested); !found {
			return ""
		}
	}
	switch v := raw.(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// IsSufficient 現在の残高が必要額以上かどうかを返す
func IsSufficient(current, required decimal.Decimal) bool {
	return current.GreaterThanOrEqual(required)
}

// lookup 空でない最初の残高フィールドを返す
func lookup(m map[string]interface{}) (interface{}, bool) {
	for _, key := range fieldPriority {
		raw, exists := m[key]
		if !exists || raw == nil {
			continue
		}
		if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return raw, true
	}
	return nil, false
}

func parseRaw(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		return Parse(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return Parse(v.String())
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidBalance, raw)
	}
}
