package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/logger"
)

var scheduleParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// Publisher то, чем симулятор отправляет события. *Client подходит.
type Publisher interface {
	Publish(ctx context.Context, message string, originator any, data any) error
}

// SimulatedJob задание симулятора. UID служит идентификатором источника событий.
type SimulatedJob struct {
	UID      string `json:"uid"`
	Schedule string `json:"schedule"`
}

// Simulator выполняет задания по расписанию cron и публикует события планировщика.
type Simulator struct {
	publisher Publisher
	scheduler string
	cron      *cron.Cron
	snapshot  func(context.Context) HostSnapshot

	mu   sync.Mutex
	runs map[string]int
}

// NewSimulator создает симулятор планировщика с идентификатором scheduler
func NewSimulator(publisher Publisher, scheduler string) *Simulator {
	return &Simulator{
		publisher: publisher,
		scheduler: scheduler,
		cron:      cron.New(cron.WithParser(scheduleParser)),
		snapshot:  Snapshot,
		runs:      make(map[string]int),
	}
}

// AddJob регистрирует задание и публикует Job Added.
func (s *Simulator) AddJob(ctx context.Context, job SimulatedJob) error {
	schedule := strings.TrimSpace(job.Schedule)
	if job.UID == "" {
		return fmt.Errorf("simulated job has no uid")
	}

	_, err := s.cron.AddFunc(schedule, func() { s.execute(ctx, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return s.publisher.Publish(ctx, catalog.SchedulerJobAdded.Name(), s.scheduler, job)
}

// Start публикует Scheduler Start и запускает cron.
func (s *Simulator) Start(ctx context.Context) error {
	if err := s.publisher.Publish(ctx, catalog.SchedulerStart.Name(), s.scheduler, nil); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop дожидается выполняющихся заданий и публикует Scheduler Shutdown.
func (s *Simulator) Stop(ctx context.Context) error {
	<-s.cron.Stop().Done()
	return s.publisher.Publish(ctx, catalog.SchedulerShutdown.Name(), s.scheduler, nil)
}

// Runs количество выполнений задания uid.
func (s *Simulator) Runs(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[uid]
}

func (s *Simulator) execute(ctx context.Context, job SimulatedJob) {
	s.mu.Lock()
	s.runs[job.UID]++
	run := s.runs[job.UID]
	s.mu.Unlock()

	data := struct {
		Job  string       `json:"job"`
		Run  int          `json:"run"`
		Host HostSnapshot `json:"host"`
	}{Job: job.UID, Run: run, Host: s.snapshot(ctx)}

	// Задание публикует от своего имени, чтобы на него можно было подписать кейс
	if err := s.publisher.Publish(ctx, catalog.SchedulerJobExecuted.Name(), job.UID, data); err != nil {
		logger.Log.Warn("Failed to publish job execution",
			zap.String("job", job.UID),
			zap.Error(err),
		)
		if perr := s.publisher.Publish(ctx, catalog.SchedulerJobError.Name(), job.UID, err.Error()); perr != nil {
			logger.Log.Debug("Failed to publish job error", zap.Error(perr))
		}
	}
}
