package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"fieldservice_backend/internal/appointments/repository"
	"fieldservice_backend/internal/appointments/service"
	"fieldservice_backend/internal/appointments/transport"
	"fieldservice_backend/internal/assignment"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/platform/db"
	"fieldservice_backend/platform/redisx"
)

var (
	requeueDelay time.Duration
	failedLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and re-trigger assignment jobs",
}

var jobsRequeueCmd = &cobra.Command{
	Use:   "requeue <appointment-id>",
	Short: "Schedule a fresh assignment attempt for a pending appointment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid appointment id: %w", err)
		}

		cfg, log, err := env()
		if err != nil {
			return err
		}
		pool, err := db.NewPool(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		client, err := scheduler.NewClient(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		repo := repository.New(pool)
		filter := assignment.NewFilter(repo, cfg.GetServiceLocation(), cfg.GetAssignmentFilterConcurrency())
		svc := service.New(repo, filter, client, service.Settings{}, log)

		resp, err := svc.RequeueAssignment(cmd.Context(), id, transport.RequeueAssignmentRequest{
			DelaySeconds: int(requeueDelay / time.Second),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requeued %s (delay %ds)\n", resp.AppointmentID, resp.DelaySeconds)
		return nil
	},
}

var jobsFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List assignment and notification tasks that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := env()
		if err != nil {
			return err
		}
		opt, err := redisx.AsynqOpt(cfg)
		if err != nil {
			return err
		}
		inspector := asynq.NewInspector(opt)
		defer func() { _ = inspector.Close() }()

		tasks, err := inspector.ListArchivedTasks(cfg.GetAsynqQueueName(), asynq.PageSize(failedLimit))
		if err != nil {
			return fmt.Errorf("list archived tasks: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tRETRIED\tFAILED AT\tPAYLOAD\tERROR")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				t.ID, t.Type, t.Retried, t.LastFailedAt.Format(time.RFC3339), t.Payload, t.LastErr)
		}
		return w.Flush()
	},
}

var jobsRetryCmd = &cobra.Command{
	Use:   "retry <task-id>",
	Short: "Run an archived task again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := env()
		if err != nil {
			return err
		}
		opt, err := redisx.AsynqOpt(cfg)
		if err != nil {
			return err
		}
		inspector := asynq.NewInspector(opt)
		defer func() { _ = inspector.Close() }()

		if err := inspector.RunTask(cfg.GetAsynqQueueName(), args[0]); err != nil {
			return fmt.Errorf("run task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "task %s moved to pending\n", args[0])
		return nil
	},
}

func init() {
	jobsRequeueCmd.Flags().DurationVar(&requeueDelay, "delay", 0, "wait before the attempt runs")
	jobsFailedCmd.Flags().IntVar(&failedLimit, "limit", 50, "maximum tasks to list")
	jobsCmd.AddCommand(jobsRequeueCmd, jobsFailedCmd, jobsRetryCmd)
	rootCmd.AddCommand(jobsCmd)
}
