package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/agent"
	"github.com/Mihklz/casetrail/internal/logger"
)

func newSimulateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulated scheduler that publishes scheduler events",
		Long: "simulate runs jobs on a cron schedule and publishes Scheduler Start, Job Added, " +
			"Job Executed for every run and Scheduler Shutdown on exit.",
		Args: cobra.NoArgs,
	}
	schedule := cmd.Flags().String("schedule", "@every 10s", "cron schedule for every job")
	scheduler := cmd.Flags().String("scheduler", "scheduler-1", "originator id of the scheduler")
	jobs := cmd.Flags().StringSlice("jobs", []string{"job-1"}, "job ids, each publishes its own executions")
	duration := cmd.Flags().Duration("duration", 0, "stop after this long (0 runs until interrupted)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if *duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, *duration)
			defer cancel()
		}

		sim := agent.NewSimulator(opts.client(), *scheduler)
		if err := sim.Start(ctx); err != nil {
			return err
		}
		for _, uid := range *jobs {
			if err := sim.AddJob(ctx, agent.SimulatedJob{UID: uid, Schedule: *schedule}); err != nil {
				return err
			}
		}
		logger.Log.Info("Scheduler simulation started",
			zap.String("scheduler", *scheduler),
			zap.Strings("jobs", *jobs),
			zap.String("schedule", *schedule),
		)

		<-ctx.Done()

		// Событие остановки отправляется уже после отмены ctx
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.agent.Timeout)
		defer cancel()
		if err := sim.Stop(stopCtx); err != nil {
			return err
		}

		for _, uid := range *jobs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d runs\n", uid, sim.Runs(uid))
		}
		return nil
	}
	return cmd
}
