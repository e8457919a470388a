// Package eventbus es un bus en memoria: el scheduler publica cada disparo de
// recordatorio y los consumidores (dispatcher) se suscriben.
//
// Publish nunca bloquea. Un suscriptor lento pierde eventos cuando su buffer
// está lleno; Dropped cuenta cuántos.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

type Event struct {
	Subject string
	Time    time.Time
	Params  map[string]string
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

type MemBus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	seq     atomic.Uint64
	dropped atomic.Uint64
	now     func() time.Time
}

func New() *MemBus {
	return &MemBus{subs: map[uint64]chan Event{}, now: time.Now}
}

func (b *MemBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = b.now()
	}

	// Con el RLock tomado ningún canal se cierra durante el envío;
	// el select con default mantiene Publish sin bloquear.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *MemBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}

// Dropped devuelve cuántos envíos se descartaron por buffers llenos.
func (b *MemBus) Dropped() uint64 {
	return b.dropped.Load()
}
