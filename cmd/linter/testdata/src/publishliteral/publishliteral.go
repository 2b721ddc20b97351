package publishliteral

import "context"

type dispatcher struct{}

func (dispatcher) PublishNamed(ctx context.Context, name string, originator any, data any) error {
	return nil
}

type handle struct{ name string }

func (h handle) Name() string { return h.name }

var workflowPaused = handle{"Workflow Paused"}

func literal(d dispatcher) {
	_ = d.PublishNamed(context.Background(), "Workflow Paused", "wf-1", nil) // want `literal message name "Workflow Paused" passed to PublishNamed, publish through a catalog handle`
}

func fromHandle(d dispatcher) {
	_ = d.PublishNamed(context.Background(), workflowPaused.Name(), "wf-1", nil)
}

func fromBoundary(d dispatcher, name string) {
	_ = d.PublishNamed(context.Background(), name, "wf-1", nil)
}
