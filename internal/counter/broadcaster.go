package counter

import "sync"

// Broadcaster は確定したカウンター値を購読者へ配信する
// Store のロックとは独立しており、Store を呼び出すことはない
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan uint32]struct{}
	latest uint32
}

// NewBroadcaster は新しいBroadcasterを作成する
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan uint32]struct{}),
	}
}

// Subscribe は購読を開始する
// 返された関数を呼ぶと購読を解除し、チャンネルをクローズする
func (b *Broadcaster) Subscribe() (<-chan uint32, func()) {
	ch := make(chan uint32, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Publish は値を全購読者へ送る
// カウンターは減少しないため、配信済みの値以下の値は捨てる。
// 受信が追いつかない購読者には最新の値だけが残る
func (b *Broadcaster) Publish(value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if value <= b.latest {
		return
	}
	b.latest = value

	for ch := range b.subs {
		select {
		case ch <- value:
			continue
		default:
		}

		// 古い値を捨てて最新の値に置き換える
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- value:
		default:
		}
	}
}

// Len は現在の購読者数を返す
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}
