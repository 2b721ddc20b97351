package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workflow struct {
	uid string
}

func (w *workflow) UID() string { return w.uid }

type app struct {
	Name string
	UID  string
}

type step struct {
	ID string `json:"uid,omitempty"`
}

type entityID string

// brokenEntity падает при запросе идентификатора
type brokenEntity struct{}

func (brokenEntity) UID() string {
	var m map[string]string
	m["uid"] = "x" // запись в nil map
	return m["uid"]
}

func TestOriginatorID(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{name: "plain string", in: "wf-42", want: "wf-42"},
		{name: "named string type", in: entityID("wf-7"), want: "wf-7"},
		{name: "identifiable", in: &workflow{uid: "wf-1"}, want: "wf-1"},
		{name: "map any", in: map[string]any{"uid": "wf-42", "name": "x"}, want: "wf-42"},
		{name: "map string", in: map[string]string{"uid": "wf-43"}, want: "wf-43"},
		{name: "struct UID field", in: app{Name: "a", UID: "app-1"}, want: "app-1"},
		{name: "pointer to struct", in: &app{UID: "app-2"}, want: "app-2"},
		{name: "json tag", in: step{ID: "step-9"}, want: "step-9"},
		{name: "nil", in: nil, wantErr: true},
		{name: "nil pointer", in: (*workflow)(nil), wantErr: true},
		{name: "empty string", in: "", wantErr: true},
		{name: "map without uid", in: map[string]any{"name": "x"}, wantErr: true},
		{name: "map uid not string", in: map[string]any{"uid": 42}, wantErr: true},
		{name: "int", in: 42, wantErr: true},
		{name: "struct without uid", in: struct{ Name string }{"x"}, wantErr: true},
		{name: "panicking UID", in: brokenEntity{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OriginatorID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownOriginator)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
