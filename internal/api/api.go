package api

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var swaggerSpec []byte

// HealthResponseStatus の定数定義
const (
	Healthy HealthResponseStatus = "healthy"
)

// HealthResponseStatus はヘルスチェックの状態
type HealthResponseStatus string

// IncrementRequest はカウンター加算リクエスト
type IncrementRequest struct {
	IncrementBy uint32 `json:"increment_by"`
}

// IncrementResponse はカウンター加算レスポンス
type IncrementResponse struct {
	NewState uint32 `json:"new_state"`
}

// HealthResponse はヘルスチェックレスポンス
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// ErrorResponse はエラーレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   *string   `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerInterface はAPIハンドラのインターフェース
type ServerInterface interface {
	// カウンターを加算する
	// (POST /increment/counter)
	IncrementCounter(c *gin.Context)
	// ヘルスチェック
	// (GET /healthz)
	HealthCheck(c *gin.Context)
}

// RegisterHandlers はハンドラをルーターに登録する
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	router.POST("/increment/counter", si.IncrementCounter)
	router.GET("/healthz", si.HealthCheck)
}

// GetSwagger は埋め込まれたOpenAPI定義を読み込んで返す
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(swaggerSpec)
	if err != nil {
		return nil, fmt.Errorf("OpenAPI定義の読み込みに失敗: %w", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("OpenAPI定義の検証に失敗: %w", err)
	}

	return doc, nil
}
