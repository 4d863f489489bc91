package firebaseclient

import (
	"sync"
	"time"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// broadcaster fans auth events out to subscribers, in registration order,
// on the goroutine that caused the change.
type broadcaster struct {
	mu       sync.Mutex
	next     int
	order    []int
	subs     map[int]func(dto.AuthEvent)
	clockNow func() time.Time
}

func newBroadcaster(clockNow func() time.Time) *broadcaster {
	return &broadcaster{subs: make(map[int]func(dto.AuthEvent)), clockNow: clockNow}
}

func (b *broadcaster) subscribe(fn func(dto.AuthEvent)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *broadcaster) emit(kind dto.AuthEventKind, sess *models.Session) {
	b.mu.Lock()
	fns := make([]func(dto.AuthEvent), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		ev := dto.AuthEvent{Kind: kind, At: b.clockNow()}
		if sess != nil {
			cp := *sess
			ev.Session = &cp
		}
		fn(ev)
	}
}
