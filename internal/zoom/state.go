package zoom

import "sync"

// subscriberBuffer は購読チャンネルの容量
// 消費が追いつかない購読者には古いスナップショットから破棄して届ける
const subscriberBuffer = 8

// stateStore はズーム状態のスナップショット保持と変更通知を担う
type stateStore struct {
	mu     sync.RWMutex
	state  State
	nextID int
	subs   map[int]chan State
	closed bool
}

// newStateStore は初期状態を持つストアを作成する
func newStateStore(initial State) *stateStore {
	return &stateStore{
		state: initial,
		subs:  make(map[int]chan State),
	}
}

// Snapshot は現在状態のコピーを返す
func (s *stateStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update は状態を変更し、全購読者へ新しいスナップショットを配信する
func (s *stateStore) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn(&s.state)
	snapshot := s.state

	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// 満杯の購読者は最も古いスナップショットを破棄する
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// Subscribe は状態変更の購読を開始し、購読IDとチャンネルを返す
// チャンネルはストアのクローズ時に閉じられる
func (s *stateStore) Subscribe() (int, <-chan State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, subscriberBuffer)
	if s.closed {
		close(ch)
		return -1, ch
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	// 現在状態を即座に届ける
	ch <- s.state
	return id, ch
}

// Unsubscribe は購読を解除する。未知のIDは無視される
func (s *stateStore) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Close は全購読チャンネルを閉じ、以後の更新を無効にする
func (s *stateStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
