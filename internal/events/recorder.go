package events

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// Recorder запоминает события в памяти. Годится и как слушатель шины,
// и как синхронный EventPublisher в тестах сервисов.
type Recorder struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish сохраняет событие.
func (r *Recorder) Publish(event domain.LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Handle сохраняет событие, полученное от шины.
func (r *Recorder) Handle(_ context.Context, event domain.LifecycleEvent) error {
	r.Publish(event)
	return nil
}

// Events возвращает копию накопленных событий.
func (r *Recorder) Events() []domain.LifecycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.LifecycleEvent, len(r.events))
	copy(result, r.events)
	return result
}

// Count возвращает число событий заданного типа.
func (r *Recorder) Count(eventType domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

// Reset очищает журнал.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

var (
	_ domain.EventPublisher = (*Recorder)(nil)
	_ Listener              = (*Recorder)(nil)
)
