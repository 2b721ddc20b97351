package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/caselog"
	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/config"
	"github.com/Mihklz/casetrail/internal/dispatch"
	"github.com/Mihklz/casetrail/internal/registry"
	"github.com/Mihklz/casetrail/internal/retry"
	"github.com/Mihklz/casetrail/internal/server"
	"github.com/Mihklz/casetrail/internal/subscription"
)

type host struct {
	url   string
	subs  *subscription.MemoryStore
	store *audit.MemoryStore
}

func startHost(t *testing.T, key string) host {
	t.Helper()

	reg := registry.New()
	require.NoError(t, catalog.Register(reg))

	subs := subscription.NewMemoryStore()
	store := audit.NewMemoryStore()
	d := dispatch.New(reg)
	require.NoError(t, caselog.New(subscription.NewMatcher(subs), audit.NewRecorder(store)).AttachAll(d))

	srv := server.NewServer(&config.ServerConfig{Key: key}, server.Deps{Registry: reg, Publisher: d})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return host{url: ts.URL, subs: subs, store: store}
}

func newTestClient(url, key string, gzip bool) *Client {
	cfg := config.DefaultAgentConfig()
	cfg.ServerAddr = url
	cfg.Key = key
	cfg.Gzip = gzip
	c := NewClient(cfg)
	c.retryConfig = &retry.RetryConfig{MaxAttempts: 3, Delays: []time.Duration{time.Millisecond}}
	return c
}

func TestClient_PublishRecordsEntry(t *testing.T) {
	tests := []struct {
		name string
		key  string
		gzip bool
	}{
		{name: "plain"},
		{name: "gzip", gzip: true},
		{name: "gzip and signature", key: "secret", gzip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startHost(t, tt.key)
			h.subs.Subscribe("C1", "wf-42", catalog.WorkflowExecutionStart.Name())

			c := newTestClient(h.url, tt.key, tt.gzip)
			err := c.Publish(context.Background(), catalog.WorkflowExecutionStart.Name(), "wf-42", map[string]int{"step": 1})
			require.NoError(t, err)

			entries := h.store.ByCase("C1")
			require.Len(t, entries, 1)
			assert.Equal(t, "Workflow execution started", entries[0].Message)
			assert.JSONEq(t, `{"step":1}`, entries[0].Data)
		})
	}
}

func TestClient_PublishUnknownChannel(t *testing.T) {
	h := startHost(t, "")
	c := newTestClient(h.url, "", true)

	err := c.Publish(context.Background(), "Nope", "wf-42", nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Message, "Nope")
}

func TestClient_PublishRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL, "", false)
	require.NoError(t, c.Publish(context.Background(), "Workflow Paused", "wf-1", nil))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_PublishDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL, "", false)
	assert.Error(t, c.Publish(context.Background(), "Workflow Paused", "", nil))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Channels(t *testing.T) {
	h := startHost(t, "secret")
	c := newTestClient(h.url, "secret", true)

	channels, err := c.Channels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, len(catalog.Entries()))
	assert.Equal(t, catalog.SchedulerStart.Name(), channels[0].Name)

	c.cfg.Key = "other"
	_, err = c.Channels(context.Background())
	assert.Error(t, err)
}
