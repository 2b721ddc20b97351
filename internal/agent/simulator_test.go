package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mihklz/casetrail/internal/catalog"
)

type published struct {
	message    string
	originator any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, message string, originator any, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{message: message, originator: originator})
	if message == p.failOn {
		return assert.AnError
	}
	return nil
}

func (p *recordingPublisher) messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.message)
	}
	return out
}

func TestSimulator_Lifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	sim := NewSimulator(pub, "sched-1")
	sim.snapshot = func(context.Context) HostSnapshot { return HostSnapshot{Goroutines: 1} }

	ctx := context.Background()
	require.NoError(t, sim.Start(ctx))
	require.NoError(t, sim.AddJob(ctx, SimulatedJob{UID: "job-1", Schedule: "@every 1h"}))
	sim.execute(ctx, SimulatedJob{UID: "job-1"})
	require.NoError(t, sim.Stop(ctx))

	assert.Equal(t, []string{
		catalog.SchedulerStart.Name(),
		catalog.SchedulerJobAdded.Name(),
		catalog.SchedulerJobExecuted.Name(),
		catalog.SchedulerShutdown.Name(),
	}, pub.messages())
	assert.Equal(t, "job-1", pub.events[2].originator)
	assert.Equal(t, 1, sim.Runs("job-1"))
}

func TestSimulator_ExecutionFailurePublishesJobError(t *testing.T) {
	pub := &recordingPublisher{failOn: catalog.SchedulerJobExecuted.Name()}
	sim := NewSimulator(pub, "sched-1")
	sim.snapshot = func(context.Context) HostSnapshot { return HostSnapshot{} }

	sim.execute(context.Background(), SimulatedJob{UID: "job-1"})

	assert.Equal(t, []string{
		catalog.SchedulerJobExecuted.Name(),
		catalog.SchedulerJobError.Name(),
	}, pub.messages())
}

func TestSimulator_AddJobValidation(t *testing.T) {
	sim := NewSimulator(&recordingPublisher{}, "sched-1")

	assert.Error(t, sim.AddJob(context.Background(), SimulatedJob{Schedule: "@every 1m"}))
	assert.Error(t, sim.AddJob(context.Background(), SimulatedJob{UID: "job-1", Schedule: "not a schedule"}))
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(context.Background())
	assert.Positive(t, s.Goroutines)
	assert.Positive(t, s.HeapAlloc)
}
