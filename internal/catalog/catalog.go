// Package catalog описывает все события, которые могут публиковать продюсеры.
//
// Продюсеры используют экспортированные Handle вместо строк: опечатка в имени
// события становится ошибкой компиляции, а не тихо созданным пустым каналом.
// Новое событие добавляется одной переменной и одной строкой таблицы.
package catalog

import (
	"github.com/Mihklz/casetrail/internal/registry"
)

// Категории событий.
const (
	CategorySystem       = "System"
	CategoryWorkflow     = "Workflow"
	CategoryAction       = "Action"
	CategoryNextAction   = "Next Action"
	CategoryCondition    = "Condition"
	CategoryTransform    = "Transform"
	CategoryTrigger      = "Trigger"
	CategoryLoadBalancer = "Load Balancer"
)

// Handle непрозрачный идентификатор события для продюсеров.
type Handle struct {
	name string
}

// Name имя сообщения канала.
func (h Handle) Name() string { return h.name }

// IsZero сообщает, что Handle не получен из каталога.
func (h Handle) IsZero() bool { return h.name == "" }

func (h Handle) String() string { return h.name }

// Scheduler
var (
	SchedulerStart       = Handle{"Scheduler Start"}
	SchedulerShutdown    = Handle{"Scheduler Shutdown"}
	SchedulerPaused      = Handle{"Scheduler Paused"}
	SchedulerResumed     = Handle{"Scheduler Resumed"}
	SchedulerJobAdded    = Handle{"Job Added"}
	SchedulerJobRemoved  = Handle{"Job Removed"}
	SchedulerJobExecuted = Handle{"Job Executed"}
	SchedulerJobError    = Handle{"Job Error"}
)

// Workflow
var (
	WorkflowExecutionStart     = Handle{"Workflow Execution Start"}
	AppInstanceCreated         = Handle{"App Instance Created"}
	NextActionFound            = Handle{"Next Action Found"}
	WorkflowShutdown           = Handle{"Workflow Shutdown"}
	WorkflowArgumentsValidated = Handle{"Workflow Arguments Validated"}
	WorkflowArgumentsInvalid   = Handle{"Workflow Arguments Invalid"}
	WorkflowPaused             = Handle{"Workflow Paused"}
	WorkflowResumed            = Handle{"Workflow Resumed"}
)

// Action
var (
	FunctionExecutionSuccess = Handle{"Function Execution Success"}
	ActionExecutionSuccess   = Handle{"Action Execution Success"}
	ActionExecutionError     = Handle{"Action Execution Error"}
	ActionStarted            = Handle{"Action Started"}
	ActionArgumentsInvalid   = Handle{"Arguments Invalid"}
)

// Next action, condition, transform
var (
	NextActionTaken    = Handle{"Next Action Taken"}
	NextActionNotTaken = Handle{"Next Action Not Taken"}
	ConditionSuccess   = Handle{"Condition Success"}
	ConditionError     = Handle{"Condition Error"}
	TransformSuccess   = Handle{"Transform Success"}
	TransformError     = Handle{"Transform Error"}
)

// Trigger
var (
	TriggerActionAwaitingData = Handle{"Trigger Action Awaiting Data"}
	TriggerActionTaken        = Handle{"Trigger Action Taken"}
	TriggerActionNotTaken     = Handle{"Trigger Action Not Taken"}
)

// DataSent канал балансировщика без записи в аудит, только для временных обработчиков.
var DataSent = Handle{"sent"}

// Entry строка каталога.
type Entry struct {
	Handle      Handle
	Category    string
	Description string
	Audited     bool // нужен ли каналу постоянный обработчик аудита
}

var table = []Entry{
	{SchedulerStart, CategorySystem, "Scheduler started", true},
	{SchedulerShutdown, CategorySystem, "Scheduler shutdown", true},
	{SchedulerPaused, CategorySystem, "Scheduler paused", true},
	{SchedulerResumed, CategorySystem, "Scheduler resumed", true},
	{SchedulerJobAdded, CategorySystem, "Job Added", true},
	{SchedulerJobRemoved, CategorySystem, "Job Removed", true},
	{SchedulerJobExecuted, CategorySystem, "Job executed successfully", true},
	{SchedulerJobError, CategorySystem, "Job executed with error", true},

	{WorkflowExecutionStart, CategoryWorkflow, "Workflow execution started", true},
	{AppInstanceCreated, CategoryWorkflow, "New app instance created", true},
	{NextActionFound, CategoryWorkflow, "Next action found", true},
	{WorkflowShutdown, CategoryWorkflow, "Workflow shutdown", true},
	{WorkflowArgumentsValidated, CategoryWorkflow, "Workflow arguments validated", true},
	{WorkflowArgumentsInvalid, CategoryWorkflow, "Workflow arguments invalid", true},
	{WorkflowPaused, CategoryWorkflow, "Workflow paused", true},
	{WorkflowResumed, CategoryWorkflow, "Workflow resumed", true},

	{FunctionExecutionSuccess, CategoryAction, "Function executed successfully", true},
	{ActionExecutionSuccess, CategoryAction, "Action executed successfully", true},
	{ActionExecutionError, CategoryAction, "Action executed with error", true},
	{ActionStarted, CategoryAction, "Action execution started", true},
	{ActionArgumentsInvalid, CategoryAction, "Arguments invalid", true},

	{NextActionTaken, CategoryNextAction, "Next action taken", true},
	{NextActionNotTaken, CategoryNextAction, "Next action not taken", true},

	{ConditionSuccess, CategoryCondition, "Condition executed without error", true},
	{ConditionError, CategoryCondition, "Condition executed with error", true},

	{TransformSuccess, CategoryTransform, "Transform success", true},
	{TransformError, CategoryTransform, "Transform error", true},

	{TriggerActionAwaitingData, CategoryTrigger, "Trigger action awaiting data", true},
	{TriggerActionTaken, CategoryTrigger, "Trigger action taken", true},
	{TriggerActionNotTaken, CategoryTrigger, "Trigger action not taken", true},

	{DataSent, CategoryLoadBalancer, "Data sent", false},
}

var byName = func() map[string]Entry {
	m := make(map[string]Entry, len(table))
	for _, e := range table {
		m[e.Handle.name] = e
	}
	return m
}()

// Entries возвращает копию таблицы каталога.
func Entries() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}

// Audited возвращает строки каталога, которым нужен обработчик аудита.
func Audited() []Entry {
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		if e.Audited {
			out = append(out, e)
		}
	}
	return out
}

// Lookup находит Handle по имени сообщения. Нужен только на границах,
// где имя приходит текстом (HTTP).
func Lookup(name string) (Handle, bool) {
	e, ok := byName[name]
	return e.Handle, ok
}

// Register регистрирует все строки каталога и закрывает реестр.
// Повтор имени в таблице возвращается как *registry.RegistrationError.
func Register(reg *registry.Registry) error {
	return register(reg, table)
}

func register(reg *registry.Registry, entries []Entry) error {
	for _, e := range entries {
		if _, err := reg.Register(e.Category, e.Handle.name, e.Description); err != nil {
			return err
		}
	}
	reg.Seal()
	return nil
}
