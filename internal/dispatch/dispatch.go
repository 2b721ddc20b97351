// Package dispatch доставляет опубликованные события обработчикам каналов.
//
// Диспетчер владеет сильными ссылками на обработчики всё время жизни процесса.
// Ошибки и паники обработчиков никогда не возвращаются продюсеру: они уходят
// в Reporter и метрики.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/metrics"
	"github.com/Mihklz/casetrail/internal/registry"
)

var (
	// ErrUnknownChannel канал не зарегистрирован в реестре.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrHandlerNotComparable обработчик нельзя сравнить, а значит нельзя отписать.
	ErrHandlerNotComparable = errors.New("handler must be comparable")
	// ErrClosed диспетчер остановлен.
	ErrClosed = errors.New("dispatcher is shut down")
)

// Event полезная нагрузка одной публикации. В фоновом режиме изменяемые
// значения Data приходят обработчикам уже сериализованными в строку.
type Event struct {
	Channel      registry.Channel
	OriginatorID string
	Data         any
	PublishedAt  time.Time
}

// Handler обработчик событий канала. Реализации должны быть сравнимыми
// (обычно указатель), чтобы повторный Attach не дублировал вызовы.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// Dispatcher публикует события в каналы реестра.
type Dispatcher struct {
	lanes     map[string]*lane // заполняется в New и дальше только читается
	async     bool
	queueSize int
	reporter  Reporter
	metrics   *metrics.Metrics
	now       func() time.Time

	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
	inflight  sync.WaitGroup
	workers   sync.WaitGroup
	done      chan struct{}
}

// Option настраивает Dispatcher.
type Option func(*Dispatcher)

// WithAsync переводит доставку в фоновый режим: у каждого канала своя очередь
// размером queueSize и один обработчик очереди, поэтому порядок внутри канала сохраняется.
func WithAsync(queueSize int) Option {
	return func(d *Dispatcher) {
		if queueSize <= 0 {
			queueSize = 256
		}
		d.async = true
		d.queueSize = queueSize
	}
}

// WithReporter задаёт получателя ошибок.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.reporter = r
		}
	}
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithClock подменяет источник времени публикации.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New создает диспетчер для всех каналов реестра. Реестр к этому моменту должен быть заполнен.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		lanes:    make(map[string]*lane, reg.Len()),
		reporter: LogReporter{},
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, ch := range reg.Channels() {
		l := &lane{channel: ch}
		if d.async {
			l.queue = make(chan queued, d.queueSize)
			d.workers.Add(1)
			go d.drain(l)
		}
		d.lanes[ch.Name] = l
	}
	return d
}

// Attach подписывает обработчик на канал. Повторная подписка того же обработчика ничего не меняет.
func (d *Dispatcher) Attach(h catalog.Handle, handler Handler) error {
	l, err := d.lane(h.Name())
	if err != nil {
		return err
	}
	if handler == nil || !reflect.TypeOf(handler).Comparable() {
		return ErrHandlerNotComparable
	}
	l.attach(handler)
	return nil
}

// Detach отписывает обработчик. Отсутствующий обработчик и неизвестный канал игнорируются.
func (d *Dispatcher) Detach(h catalog.Handle, handler Handler) {
	l, ok := d.lanes[h.Name()]
	if !ok || handler == nil || !reflect.TypeOf(handler).Comparable() {
		return
	}
	l.detach(handler)
}

// HandlerCount количество обработчиков канала.
func (d *Dispatcher) HandlerCount(h catalog.Handle) int {
	l, ok := d.lanes[h.Name()]
	if !ok {
		return 0
	}
	return len(l.snapshot())
}

// Publish публикует событие. Никогда не возвращает ошибку и не паникует:
// сбои аудита не должны влиять на основную работу продюсера.
func (d *Dispatcher) Publish(ctx context.Context, h catalog.Handle, originator any, data any) {
	_ = d.publish(ctx, h.Name(), originator, data)
}

// PublishNamed публикует событие по имени сообщения. Используется на границах процесса,
// где имя приходит текстом. Возвращает только ошибки проверки входа
// (ErrUnknownChannel, ErrUnknownOriginator, ErrClosed), но не ошибки обработчиков.
func (d *Dispatcher) PublishNamed(ctx context.Context, name string, originator any, data any) error {
	return d.publish(ctx, name, originator, data)
}

func (d *Dispatcher) publish(ctx context.Context, name string, originator any, data any) error {
	l, err := d.lane(name)
	if err != nil {
		d.metrics.IncDropped(name, "unknown_channel")
		d.reporter.Report(ctx, Event{Channel: registry.Channel{Name: name}}, err)
		return err
	}

	id, err := OriginatorID(originator)
	if err != nil {
		d.metrics.IncDropped(name, "originator")
		d.reporter.Report(ctx, Event{Channel: l.channel}, err)
		return err
	}

	if d.async {
		data = d.freeze(name, data)
	}

	ev := Event{
		Channel:      l.channel,
		OriginatorID: id,
		Data:         data,
		PublishedAt:  d.now().UTC(),
	}

	d.closeMu.RLock()
	if d.closed {
		d.closeMu.RUnlock()
		d.metrics.IncDropped(name, "closed")
		return ErrClosed
	}
	d.metrics.IncPublished(name)

	if d.async {
		select {
		case l.queue <- queued{ctx: context.WithoutCancel(ctx), ev: ev}:
		default:
			d.metrics.IncDropped(name, "queue_full")
			d.reporter.Report(ctx, ev, fmt.Errorf("channel %q: queue full, event dropped", name))
		}
		d.closeMu.RUnlock()
		return nil
	}

	d.inflight.Add(1)
	d.closeMu.RUnlock()
	defer d.inflight.Done()

	d.run(ctx, l, ev)
	return nil
}

// Shutdown прекращает приём событий и ждёт, пока очереди опустеют, но не дольше ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.closeMu.Lock()
		d.closed = true
		if d.async {
			for _, l := range d.lanes {
				close(l.queue)
			}
		}
		d.closeMu.Unlock()

		go func() {
			d.workers.Wait()
			d.inflight.Wait()
			close(d.done)
		}()
	})

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) lane(name string) (*lane, error) {
	l, ok := d.lanes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	return l, nil
}

func (d *Dispatcher) drain(l *lane) {
	defer d.workers.Done()
	for q := range l.queue {
		d.run(q.ctx, l, q.ev)
	}
}

// run вызывает обработчики в порядке подписки. Сбой одного не мешает остальным.
func (d *Dispatcher) run(ctx context.Context, l *lane, ev Event) {
	for _, h := range l.snapshot() {
		if err := invoke(ctx, h, ev); err != nil {
			d.metrics.IncHandlerFailures(ev.Channel.Name)
			d.reporter.Report(ctx, ev, err)
		}
	}
}

func invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %T panicked: %v", h, r)
		}
	}()
	return h.Handle(ctx, ev)
}
