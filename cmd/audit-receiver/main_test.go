package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/model"
)

func TestReceiverAcceptsHTTPStoreEnvelope(t *testing.T) {
	ts := httptest.NewServer(newRouter())
	defer ts.Close()

	store := audit.NewHTTPStore(ts.URL + "/audit")
	entry := audit.Entry{
		ID:         uuid.New(),
		Type:       "Workflow",
		Timestamp:  time.Now().UTC(),
		Originator: "wf-42",
		Message:    "Workflow execution started",
		Data:       "null",
	}

	require.NoError(t, store.AppendEntry(t.Context(), entry, model.CaseSet{"C1"}))
}

func TestReceiverRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "not json", body: "{", want: http.StatusBadRequest},
		{name: "no cases", body: `{"entry":{"id":"` + uuid.NewString() + `"},"cases":[]}`, want: http.StatusUnprocessableEntity},
		{name: "no id", body: `{"entry":{},"cases":["C1"]}`, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
