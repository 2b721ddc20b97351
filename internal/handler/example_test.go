package handler

import (
	"fmt"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/caselog"
	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/dispatch"
	"github.com/Mihklz/casetrail/internal/registry"
	"github.com/Mihklz/casetrail/internal/subscription"
)

// ExampleNewPublishHandler демонстрирует приём события и запись аудита за подписанным кейсом.
func ExampleNewPublishHandler() {
	reg := registry.New()
	_ = catalog.Register(reg)

	subs := subscription.NewMemoryStore()
	subs.Subscribe("C1", "wf-42", catalog.WorkflowExecutionStart.Name())
	store := audit.NewMemoryStore()

	d := dispatch.New(reg)
	_ = caselog.New(subscription.NewMatcher(subs), audit.NewRecorder(store)).AttachAll(d)

	r := chi.NewRouter()
	r.Post("/publish/{message}", NewPublishHandler(d, ""))

	req := httptest.NewRequest("POST", "/publish/Workflow%20Execution%20Start",
		strings.NewReader(`{"originator":{"uid":"wf-42"},"data":"started by cron"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	entry := store.ByCase("C1")[0]
	fmt.Println("status:", rec.Code)
	fmt.Printf("%s | %s | %s | %s\n", entry.Type, entry.Originator, entry.Message, entry.Data)

	// Output:
	// status: 202
	// Workflow | wf-42 | Workflow execution started | started by cron
}
