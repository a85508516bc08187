package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"counterd/internal/assets"
	"counterd/internal/config"
	"counterd/internal/counter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer はテスト用のサーバーを作成する
func newTestServer(t *testing.T, table map[string]assets.Asset, opts ...Option) (*Server, *counter.Store) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	store := counter.NewStore()
	srv, err := New(cfg, store, assets.New(table), opts...)
	require.NoError(t, err)

	return srv, store
}

func serve(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	// テスト用のコンテキスト（タイムアウト付き）
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

func TestIncrementThenIndex(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/increment/counter", `{"increment_by": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.JSONEq(t, `{"new_state": 5}`, rec.Body.String())
	require.Equal(t, uint32(5), store.Read())

	rec = serve(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), `window.initial_counter_state="5"`)
}

func TestIncrementAccumulatesAndSaturates(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := serve(srv, http.MethodPost, "/increment/counter", `{"increment_by": 4294967290}`)
	require.JSONEq(t, `{"new_state": 4294967290}`, rec.Body.String())

	rec = serve(srv, http.MethodPost, "/increment/counter", `{"increment_by": 100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"new_state": 4294967295}`, rec.Body.String())
}

func TestIncrementWithoutContentType(t *testing.T) {
	srv, store := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/increment/counter", strings.NewReader(`{"increment_by": 2}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint32(2), store.Read())
}

func TestIncrementRejectsInvalidBodies(t *testing.T) {
	oversized := `{"increment_by": 1` + strings.Repeat(" ", MaxIncrementBodyBytes) + `}`

	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{"本文が16KiBを超える", oversized, http.StatusRequestEntityTooLarge},
		{"不正なJSON", `{"increment_by":`, http.StatusBadRequest},
		{"負の値", `{"increment_by": -1}`, http.StatusBadRequest},
		{"32ビットを超える値", `{"increment_by": 4294967296}`, http.StatusBadRequest},
		{"小数", `{"increment_by": 2.5}`, http.StatusBadRequest},
		{"フィールドなし", `{"increment": 1}`, http.StatusBadRequest},
		{"配列", `[1]`, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, store := newTestServer(t, nil)
			store.Increment(3)

			rec := serve(srv, http.MethodPost, "/increment/counter", tc.body)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, uint32(3), store.Read(), "invalid input must not reach the counter")
		})
	}
}

func TestIncrementBodyAtLimitIsAccepted(t *testing.T) {
	srv, store := newTestServer(t, nil)

	prefix := `{"increment_by": 1`
	body := prefix + strings.Repeat(" ", MaxIncrementBodyBytes-len(prefix)-1) + `}`
	require.Len(t, body, MaxIncrementBodyBytes)

	rec := serve(srv, http.MethodPost, "/increment/counter", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint32(1), store.Read())
}

func TestStaticFallback(t *testing.T) {
	srv, _ := newTestServer(t, map[string]assets.Asset{
		"/app.js":      {Content: []byte("var a = 1;"), ContentType: "text/javascript"},
		"/css/app.css": {Content: []byte("body{}"), ContentType: "text/css"},
	})

	testCases := []struct {
		name        string
		path        string
		status      int
		contentType string
		body        string
	}{
		{"JavaScript", "/app.js", http.StatusOK, "text/javascript", "var a = 1;"},
		{"CSS", "/css/app.css", http.StatusOK, "text/css", "body{}"},
		{"存在しないパス", "/nonexistent-path", http.StatusNotFound, "", ""},
		{"末尾スラッシュ", "/app.js/", http.StatusNotFound, "", ""},
		{"ディレクトリ", "/css", http.StatusNotFound, "", ""},
		{"加算APIへのGET", "/increment/counter", http.StatusNotFound, "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(srv, http.MethodGet, tc.path, "")
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.body, rec.Body.String())
			if tc.contentType != "" {
				require.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestStaticFallbackServesAssetOnIncrementPath(t *testing.T) {
	srv, _ := newTestServer(t, map[string]assets.Asset{
		"/increment/counter": {Content: []byte("doc"), ContentType: "text/plain"},
	})

	rec := serve(srv, http.MethodGet, "/increment/counter", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "doc", rec.Body.String())
}

func TestIndexOverridesRootAsset(t *testing.T) {
	srv, _ := newTestServer(t, map[string]assets.Asset{
		"/": {Content: []byte("static index"), ContentType: "text/plain"},
	})

	rec := serve(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "static index")
	require.Contains(t, rec.Body.String(), `window.initial_counter_state="0"`)
}

func TestIndexNeverFails(t *testing.T) {
	srv, _ := newTestServer(t, nil, WithPageRenderer(func(uint32) string {
		return "template error: boom"
	}))

	rec := serve(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "template error: boom", rec.Body.String())
}

func TestUnmatchedMethods(t *testing.T) {
	srv, _ := newTestServer(t, map[string]assets.Asset{
		"/app.js": {Content: []byte("x"), ContentType: "text/javascript"},
	})

	testCases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"ルートへのPOST", http.MethodPost, "/", http.StatusMethodNotAllowed},
		{"加算APIへのPUT", http.MethodPut, "/increment/counter", http.StatusMethodNotAllowed},
		{"静的ファイルへのPOST", http.MethodPost, "/app.js", http.StatusNotFound},
		{"未知のパスへのDELETE", http.MethodDelete, "/nothing", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(srv, tc.method, tc.path, "")
			require.Equal(t, tc.status, rec.Code)
			require.Empty(t, rec.Body.String())
		})
	}
}

func TestAmbientRoutes(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	serve(srv, http.MethodPost, "/increment/counter", `{"increment_by": 7}`)

	rec := serve(srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = serve(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "counterd_counter_value 7")
	require.Contains(t, rec.Body.String(), "counterd_counter_increments_total 1")
}

func TestMetricsDisabledFallsBackToStatic(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false

	srv, err := New(cfg, counter.NewStore(), assets.New(nil))
	require.NoError(t, err)

	rec := serve(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/healthz", "")
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestConcurrentIncrements(t *testing.T) {
	srv, store := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	const N = 50
	errs := make(chan error, N)
	for i := 0; i < N; i++ {
		go func() {
			resp, err := http.Post(ts.URL+"/increment/counter", "application/json", strings.NewReader(`{"increment_by": 2}`))
			if err == nil {
				resp.Body.Close()
			}
			errs <- err
		}()
	}
	for i := 0; i < N; i++ {
		require.NoError(t, <-errs)
	}

	require.Equal(t, uint32(2*N), store.Read())
}
