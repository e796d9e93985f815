package window

import (
	"slices"
	"sync"
)

// CardLocks はリンク中で直接操作できないカードを記録する
// binding.Listener としてレベルの生成時に登録する
type CardLocks struct {
	locked map[string]bool
	mu     sync.Mutex
}

// NewCardLocks 空のCardLocksを作成
func NewCardLocks() *CardLocks {
	return &CardLocks{locked: make(map[string]bool)}
}

// CardLocked implements binding.Listener.
func (l *CardLocks) CardLocked(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked[label] = true
}

// CardReleased implements binding.Listener.
func (l *CardLocks) CardReleased(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locked, label)
}

// IsLocked はカードがリンク中かどうかを返す
func (l *CardLocks) IsLocked(label string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked[label]
}

// Locked はリンク中のカードをラベル順で返す
func (l *CardLocks) Locked() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.locked))
	for label := range l.locked {
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}

// Reset はレベルを切り替える前に記録を消す
func (l *CardLocks) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.locked)
}
