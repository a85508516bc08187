package server

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"counterd/internal/api"
	"counterd/internal/assets"
	"counterd/internal/counter"
	"counterd/internal/metrics"
)

// MaxIncrementBodyBytes は加算リクエスト本文の上限 (16 KiB)
const MaxIncrementBodyBytes = 16 * 1024

// PageRenderer はカウンター値からHTMLページを生成する
type PageRenderer func(counter uint32) string

// CounterHandler は api.ServerInterface を実装する
type CounterHandler struct {
	store       *counter.Store
	broadcaster *counter.Broadcaster
	assets      *assets.Resolver
	render      PageRenderer
	metrics     *metrics.Metrics
	validator   *api.RequestValidator
}

// IncrementCounter はカウンター加算エンドポイントの実装
func (h *CounterHandler) IncrementCounter(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxIncrementBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.abortWithError(c, http.StatusRequestEntityTooLarge, "body_too_large", "リクエスト本文が大きすぎます")
			return
		}
		h.abortWithError(c, http.StatusBadRequest, "invalid_body", "リクエスト本文を読み込めません")
		return
	}

	req := c.Request.Clone(c.Request.Context())
	req.Body = io.NopCloser(bytes.NewReader(body))
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := h.validator.Validate(c.Request.Context(), req); err != nil {
		log.Printf("[%s] 加算リクエストが不正です: %v", requestID(c), err)
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエスト本文が不正です")
		return
	}

	var in api.IncrementRequest
	if err := json.Unmarshal(body, &in); err != nil {
		log.Printf("[%s] 加算リクエストの解析に失敗: %v", requestID(c), err)
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエスト本文が不正です")
		return
	}

	newState := h.store.Increment(in.IncrementBy)
	h.broadcaster.Publish(newState)
	h.metrics.ObserveIncrement(newState)

	c.JSON(http.StatusOK, api.IncrementResponse{NewState: newState})
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *CounterHandler) HealthCheck(c *gin.Context) {
	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// Index はカウンター値を埋め込んだページを返す
// 静的ファイル表に "/" が登録されていてもこちらが優先される
func (h *CounterHandler) Index(c *gin.Context) {
	value := h.store.Read()
	h.metrics.ObserveCounter(value)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(h.render(value)))
}

// NotFound はどのルートにも一致しなかったリクエストを処理する
func (h *CounterHandler) NotFound(c *gin.Context) {
	h.fallback(c, http.StatusNotFound)
}

// MethodNotAllowed はパスは一致したがメソッドが一致しなかったリクエストを処理する
func (h *CounterHandler) MethodNotAllowed(c *gin.Context) {
	h.fallback(c, http.StatusMethodNotAllowed)
}

// fallback は GET を静的ファイル参照に回し、それ以外を status で拒否する
func (h *CounterHandler) fallback(c *gin.Context, status int) {
	if c.Request.Method != http.MethodGet {
		c.AbortWithStatus(status)
		return
	}

	asset, ok := h.assets.Resolve(c.Request.URL.Path)
	h.metrics.ObserveAssetLookup(ok)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	c.Data(http.StatusOK, asset.ContentType, asset.Content)
}

// abortWithError はエラーレスポンスを返して処理を中断する
func (h *CounterHandler) abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	})
}
