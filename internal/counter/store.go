package counter

import (
	"math"
	"sync"
)

// Store は共有カウンター状態
// ゼロ値は使用可能だが、ハンドラへは NewStore で生成したポインタを渡す
type Store struct {
	mu    sync.RWMutex
	value uint32
}

// NewStore は値0のStoreを作成する
func NewStore() *Store {
	return &Store{}
}

// Read は現在の値を返す
// 読み込み同士はブロックしない
func (s *Store) Read() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value
}

// Increment は delta を飽和加算し、確定した新しい値を返す
func (s *Store) Increment(delta uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = saturatingAdd(s.value, delta)
	return s.value
}

// saturatingAdd は a+b を math.MaxUint32 で打ち止めにする
func saturatingAdd(a, b uint32) uint32 {
	if b > math.MaxUint32-a {
		return math.MaxUint32
	}
	return a + b
}
