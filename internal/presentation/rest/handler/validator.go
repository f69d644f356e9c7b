package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"paybridge/internal/shared/apperror"
)

// RequestValidator echo.Validator実装。検証エラーは項目名→メッセージの詳細付きで返す
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator 新しいRequestValidatorを作成
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーの項目名はJSONのキー名で返す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate 構造体のvalidateタグを検証
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return apperror.InvalidErr("Invalid request")
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = messageForTag(fe.Tag(), fe.Param())
	}
	return apperror.InvalidErr(fmt.Sprintf("Invalid %s", ve[0].Field())).WithDetail(fields)
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + param
	case "max":
		return "must be at most " + param + " characters"
	default:
		return "is invalid"
	}
}
