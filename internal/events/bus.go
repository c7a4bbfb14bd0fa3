package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

const (
	defaultQueueSize      = 1024
	defaultHandlerTimeout = 5 * time.Second
)

// Listener получает события жизненного цикла заказов.
type Listener interface {
	Handle(ctx context.Context, event domain.LifecycleEvent) error
}

// ListenerFunc позволяет использовать функцию как Listener.
type ListenerFunc func(ctx context.Context, event domain.LifecycleEvent) error

// Handle вызывает f(ctx, event).
func (f ListenerFunc) Handle(ctx context.Context, event domain.LifecycleEvent) error {
	return f(ctx, event)
}

// Observer получает сигналы о публикации для метрик.
type Observer interface {
	EventPublished(eventType string)
	EventDropped(eventType string)
	ListenerFailed(listener string)
}

type noopObserver struct{}

func (noopObserver) EventPublished(string) {}
func (noopObserver) EventDropped(string)   {}
func (noopObserver) ListenerFailed(string) {}

type namedListener struct {
	name     string
	listener Listener
}

// Options задаёт параметры шины.
type Options struct {
	Logger         *log.Entry
	Observer       Observer
	QueueSize      int
	HandlerTimeout time.Duration
}

// Option настраивает Bus.
type Option func(*Options)

// WithLogger задаёт logger для шины.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithObserver подключает наблюдателя для метрик.
func WithObserver(observer Observer) Option {
	return func(opts *Options) {
		opts.Observer = observer
	}
}

// WithQueueSize задаёт ёмкость очереди; при переполнении события отбрасываются.
func WithQueueSize(size int) Option {
	return func(opts *Options) {
		opts.QueueSize = size
	}
}

// WithHandlerTimeout ограничивает время обработки события одним слушателем.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.HandlerTimeout = timeout
	}
}

// Bus — процессная точка publish/subscribe. Publish не блокирует вызывающего:
// событие кладётся в ограниченную очередь, а доставку выполняет Run.
type Bus struct {
	queue          chan domain.LifecycleEvent
	logger         *log.Entry
	observer       Observer
	handlerTimeout time.Duration

	mu        sync.RWMutex
	listeners []namedListener
	closed    bool
}

// NewBus создаёт шину событий.
func NewBus(options ...Option) *Bus {
	opts := Options{
		QueueSize:      defaultQueueSize,
		HandlerTimeout: defaultHandlerTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "event-bus")
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = defaultHandlerTimeout
	}

	return &Bus{
		queue:          make(chan domain.LifecycleEvent, opts.QueueSize),
		logger:         opts.Logger,
		observer:       opts.Observer,
		handlerTimeout: opts.HandlerTimeout,
	}
}

// Subscribe регистрирует слушателя. Слушатели вызываются в порядке регистрации.
func (b *Bus) Subscribe(name string, listener Listener) {
	if listener == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, namedListener{name: name, listener: listener})
}

// Publish ставит событие в очередь и сразу возвращается.
// При заполненной очереди или закрытой шине событие отбрасывается.
func (b *Bus) Publish(event domain.LifecycleEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.drop(event, "bus is closed")
		return
	}

	select {
	case b.queue <- event:
		b.observer.EventPublished(string(event.Type))
	default:
		b.drop(event, "event queue is full")
	}
}

func (b *Bus) drop(event domain.LifecycleEvent, reason string) {
	b.observer.EventDropped(string(event.Type))
	b.logger.WithFields(log.Fields{
		"event_type": event.Type,
		"order_id":   event.OrderID,
	}).Warn("lifecycle event dropped: " + reason)
}

// Run доставляет события слушателям до отмены ctx или закрытия шины.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-b.queue:
			if !ok {
				return
			}
			b.dispatch(ctx, event)
		}
	}
}

// Close запрещает дальнейшие публикации; Run завершится после опустошения очереди.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.queue)
}

func (b *Bus) dispatch(ctx context.Context, event domain.LifecycleEvent) {
	b.mu.RLock()
	listeners := make([]namedListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		handlerCtx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
		err := l.listener.Handle(handlerCtx, event)
		cancel()
		if err != nil {
			b.observer.ListenerFailed(l.name)
			b.logger.WithError(err).WithFields(log.Fields{
				"listener":   l.name,
				"event_type": event.Type,
				"order_id":   event.OrderID,
			}).Warn("lifecycle event listener failed")
		}
	}
}

var _ domain.EventPublisher = (*Bus)(nil)
