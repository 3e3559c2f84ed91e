package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterTranslation("required", translator,
		func(t ut.Translator) error { return t.Add("required", "{0} is required", true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T("required", fe.Field())
			return s
		},
	)
}

// DecodeJSON は本文を MaxRequestBody までで読み取り dst へ展開する。
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// Validate は struct タグで検証し、失敗時は message を本文に、最初の項目エラーを詳細にする。
func Validate(v any, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation("%s", message).WithDetail(fieldErrs[0].Translate(translator))
	}
	return apperr.Validation("%s", message)
}
