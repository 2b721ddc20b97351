package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/metrics"
	"github.com/Mihklz/casetrail/internal/registry"
)

// recordingHandler запоминает полученные события
type recordingHandler struct {
	mu     sync.Mutex
	name   string
	order  *[]string
	events []Event
}

func (h *recordingHandler) Handle(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	if h.order != nil {
		*h.order = append(*h.order, h.name)
	}
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type failingHandler struct{ calls atomic.Int32 }

func (h *failingHandler) Handle(context.Context, Event) error {
	h.calls.Add(1)
	return errors.New("store unavailable")
}

type panickingHandler struct{}

func (h *panickingHandler) Handle(context.Context, Event) error {
	var m map[string]int
	m["boom"]++ // запись в nil map
	return nil
}

// sliceHandler несравнимый тип обработчика
type sliceHandler []int

func (sliceHandler) Handle(context.Context, Event) error { return nil }

type spyReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *spyReporter) Report(_ context.Context, _ Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *spyReporter) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, catalog.Register(reg))
	return reg
}

func TestPublishDeliversChannelFields(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	d := New(newRegistry(t), WithClock(func() time.Time { return now }))
	h := &recordingHandler{}
	require.NoError(t, d.Attach(catalog.WorkflowExecutionStart, h))

	d.Publish(context.Background(), catalog.WorkflowExecutionStart, map[string]any{"uid": "wf-42"}, nil)

	require.Equal(t, 1, h.count())
	ev := h.events[0]
	assert.Equal(t, "wf-42", ev.OriginatorID)
	assert.Equal(t, "Workflow", ev.Channel.Category)
	assert.Equal(t, "Workflow Execution Start", ev.Channel.Name)
	assert.Equal(t, "Workflow execution started", ev.Channel.Description)
	assert.Nil(t, ev.Data)
	assert.Equal(t, time.UTC, ev.PublishedAt.Location())
	assert.True(t, ev.PublishedAt.Equal(now))
}

func TestAttachTwiceInvokesOnce(t *testing.T) {
	d := New(newRegistry(t))
	h := &recordingHandler{}

	require.NoError(t, d.Attach(catalog.ActionStarted, h))
	require.NoError(t, d.Attach(catalog.ActionStarted, h))
	assert.Equal(t, 1, d.HandlerCount(catalog.ActionStarted))

	d.Publish(context.Background(), catalog.ActionStarted, "action-1", nil)
	assert.Equal(t, 1, h.count())
}

func TestDetach(t *testing.T) {
	d := New(newRegistry(t))
	h := &recordingHandler{}
	other := &recordingHandler{}

	assert.NotPanics(t, func() {
		d.Detach(catalog.ActionStarted, h)
		d.Detach(catalog.Handle{}, h)
		d.Detach(catalog.ActionStarted, nil)
	})

	require.NoError(t, d.Attach(catalog.ActionStarted, h))
	require.NoError(t, d.Attach(catalog.ActionStarted, other))
	d.Detach(catalog.ActionStarted, h)

	d.Publish(context.Background(), catalog.ActionStarted, "action-1", nil)
	assert.Equal(t, 0, h.count())
	assert.Equal(t, 1, other.count())
}

func TestAttachErrors(t *testing.T) {
	d := New(newRegistry(t))

	err := d.Attach(catalog.Handle{}, &recordingHandler{})
	assert.ErrorIs(t, err, ErrUnknownChannel)

	err = d.Attach(catalog.ActionStarted, sliceHandler{1})
	assert.ErrorIs(t, err, ErrHandlerNotComparable)

	err = d.Attach(catalog.ActionStarted, nil)
	assert.ErrorIs(t, err, ErrHandlerNotComparable)
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	d := New(newRegistry(t))
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, d.Attach(catalog.TransformSuccess, &recordingHandler{name: name, order: &order}))
	}

	d.Publish(context.Background(), catalog.TransformSuccess, "tr-1", "payload")

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestFailingHandlerIsolation(t *testing.T) {
	reporter := &spyReporter{}
	m := metrics.New(prometheus.NewRegistry())
	d := New(newRegistry(t), WithReporter(reporter), WithMetrics(m))

	failing := &failingHandler{}
	after := &recordingHandler{}
	onB := &recordingHandler{}

	require.NoError(t, d.Attach(catalog.ConditionError, failing))
	require.NoError(t, d.Attach(catalog.ConditionError, &panickingHandler{}))
	require.NoError(t, d.Attach(catalog.ConditionError, after))
	require.NoError(t, d.Attach(catalog.ConditionSuccess, onB))

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), catalog.ConditionError, "cond-1", nil)
		d.Publish(context.Background(), catalog.ConditionError, "cond-1", nil)
		d.Publish(context.Background(), catalog.ConditionSuccess, "cond-2", nil)
	})

	assert.Equal(t, int32(2), failing.calls.Load())
	assert.Equal(t, 2, after.count())
	assert.Equal(t, 1, onB.count())

	errs := reporter.all()
	assert.Len(t, errs, 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.HandlerFailures.WithLabelValues("Condition Error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Published.WithLabelValues("Condition Error")))
}

func TestPublishRejectsUnknownOriginator(t *testing.T) {
	reporter := &spyReporter{}
	d := New(newRegistry(t), WithReporter(reporter))
	h := &recordingHandler{}
	require.NoError(t, d.Attach(catalog.WorkflowPaused, h))

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), catalog.WorkflowPaused, 42, nil)
	})

	assert.Equal(t, 0, h.count())
	require.Len(t, reporter.all(), 1)
	assert.ErrorIs(t, reporter.all()[0], ErrUnknownOriginator)
}

func TestPublishSurvivesPanickingOriginator(t *testing.T) {
	reporter := &spyReporter{}
	d := New(newRegistry(t), WithReporter(reporter))
	h := &recordingHandler{}
	require.NoError(t, d.Attach(catalog.WorkflowPaused, h))

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), catalog.WorkflowPaused, brokenEntity{}, nil)
	})
	assert.Equal(t, 0, h.count())
	require.Len(t, reporter.all(), 1)
	assert.ErrorIs(t, reporter.all()[0], ErrUnknownOriginator)

	err := d.PublishNamed(context.Background(), "Workflow Paused", brokenEntity{}, nil)
	assert.ErrorIs(t, err, ErrUnknownOriginator)
}

func TestPublishNamed(t *testing.T) {
	d := New(newRegistry(t), WithReporter(&spyReporter{}))
	h := &recordingHandler{}
	require.NoError(t, d.Attach(catalog.WorkflowResumed, h))

	require.NoError(t, d.PublishNamed(context.Background(), "Workflow Resumed", "wf-1", nil))
	assert.Equal(t, 1, h.count())

	err := d.PublishNamed(context.Background(), "Workflow Resume", "wf-1", nil)
	assert.ErrorIs(t, err, ErrUnknownChannel)

	err = d.PublishNamed(context.Background(), "Workflow Resumed", map[string]any{}, nil)
	assert.ErrorIs(t, err, ErrUnknownOriginator)
}

func TestSyncShutdown(t *testing.T) {
	d := New(newRegistry(t))
	h := &recordingHandler{}
	require.NoError(t, d.Attach(catalog.SchedulerStart, h))

	require.NoError(t, d.Shutdown(context.Background()))
	// повторный вызов безопасен
	require.NoError(t, d.Shutdown(context.Background()))

	err := d.PublishNamed(context.Background(), "Scheduler Start", "sched", nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, h.count())
}

func TestConcurrentPublishSync(t *testing.T) {
	d := New(newRegistry(t))
	var calls atomic.Int64
	h := &countingHandler{calls: &calls}
	require.NoError(t, d.Attach(catalog.NextActionTaken, h))
	require.NoError(t, d.Attach(catalog.NextActionNotTaken, h))

	const producers, perProducer = 16, 200
	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				handle := catalog.NextActionTaken
				if i%2 == 1 {
					handle = catalog.NextActionNotTaken
				}
				d.Publish(context.Background(), handle, fmt.Sprintf("p%d-%d", p, i), i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(producers*perProducer), calls.Load())
}

type countingHandler struct{ calls *atomic.Int64 }

func (h *countingHandler) Handle(context.Context, Event) error {
	h.calls.Add(1)
	return nil
}

func TestConcurrentAttachDetachWhilePublishing(t *testing.T) {
	d := New(newRegistry(t))
	persistent := &recordingHandler{}
	require.NoError(t, d.Attach(catalog.TriggerActionTaken, persistent))

	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < 500; i++ {
			transient := &recordingHandler{}
			if err := d.Attach(catalog.TriggerActionTaken, transient); err != nil {
				return err
			}
			d.Detach(catalog.TriggerActionTaken, transient)
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < 500; i++ {
			d.Publish(context.Background(), catalog.TriggerActionTaken, "trg-1", i)
		}
		return nil
	})
	require.NoError(t, g.Wait())

	assert.Equal(t, 500, persistent.count())
	assert.Equal(t, 1, d.HandlerCount(catalog.TriggerActionTaken))
}
