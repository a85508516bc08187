package server

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"counterd/internal/api"
)

const (
	// 書き込みのタイムアウト
	writeWait = 10 * time.Second

	// Ping の送信間隔
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// CounterFeed はWebSocketでカウンター値を配信する
// 接続直後に現在値を送り、その後は値が増えるたびに送る
func (h *CounterHandler) CounterFeed(c *gin.Context) {
	// 接続前に購読しておき、現在値の読み取りとの間の更新を取りこぼさない
	updates, cancel := h.broadcaster.Subscribe()
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[%s] WebSocketへのアップグレードに失敗: %v", requestID(c), err)
		return
	}
	defer conn.Close()

	h.metrics.SubscriberConnected()
	defer h.metrics.SubscriberDisconnected()

	// クライアントからの切断を検知する
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	last := h.store.Read()
	if err := writeState(conn, last); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case value, ok := <-updates:
			if !ok {
				return
			}
			if value <= last {
				continue
			}
			last = value
			if err := writeState(conn, value); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// writeState はカウンター値をJSONで送信する
func writeState(conn *websocket.Conn, value uint32) error {
	data, err := json.Marshal(api.IncrementResponse{NewState: value})
	if err != nil {
		return err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
