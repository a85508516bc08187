package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

// RequestValidator は1つの操作に対するリクエストをOpenAPI定義で検証する
type RequestValidator struct {
	route *routers.Route
}

// NewRequestValidator は path と method に対応する操作のバリデータを作成する
func NewRequestValidator(doc *openapi3.T, path, method string) (*RequestValidator, error) {
	item := doc.Paths.Value(path)
	if item == nil {
		return nil, fmt.Errorf("パスが定義されていません: %s", path)
	}

	op := item.GetOperation(method)
	if op == nil {
		return nil, fmt.Errorf("操作が定義されていません: %s %s", method, path)
	}

	return &RequestValidator{
		route: &routers.Route{
			Spec:      doc,
			Path:      path,
			PathItem:  item,
			Method:    method,
			Operation: op,
		},
	}, nil
}

// Validate はリクエストのヘッダーと本文を検証する
// 本文は読み込み後に巻き戻されるため、呼び出し側で再度読み込める
func (v *RequestValidator) Validate(ctx context.Context, req *http.Request) error {
	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: map[string]string{},
		Route:      v.route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}

	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return fmt.Errorf("リクエストの検証に失敗: %w", err)
	}
	return nil
}
