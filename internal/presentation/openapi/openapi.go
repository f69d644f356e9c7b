// Package openapi 公開APIのOpenAPI定義
package openapi

import _ "embed"

// Spec openapi.yaml の内容
//
//go:embed openapi.yaml
var Spec []byte
