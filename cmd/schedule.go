package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"acl-center/logger"
	"acl-center/services"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

// scheduledSync returns the cron job running one ACL sync. Failures are
// logged; the next tick tries again.
func scheduledSync(ctx context.Context, acl *services.ACLSyncService, opts services.SyncOptions, out io.Writer, log *zap.Logger) func() {
	return func() {
		if _, err := acl.Sync(ctx, opts, out); err != nil {
			if errors.Is(err, services.ErrSyncInProgress) {
				log.Warn("skipping scheduled acl sync", zap.Error(err))
				return
			}
			log.Error("scheduled acl sync failed", zap.Error(err))
		}
	}
}

func newScheduleCommand(root *rootOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run permission:update-acl on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, cleanup, err := root.bootstrap(logger.ModeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			log := d.logger.Named("scheduler")
			job := scheduledSync(ctx, d.acl, services.SyncOptions{Sync: d.cfg.ACL.ScheduledFullSync}, cmd.OutOrStdout(), log)

			cl := cronLogger{l: log.Sugar()}
			c := cron.New(
				cron.WithLogger(cl),
				cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			)
			if _, err := c.AddFunc(d.cfg.ACL.SyncSchedule, job); err != nil {
				return fmt.Errorf("invalid acl.sync_schedule %q: %w", d.cfg.ACL.SyncSchedule, err)
			}

			if runNow {
				job()
			}

			log.Info("scheduler started", zap.String("schedule", d.cfg.ACL.SyncSchedule))
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			log.Info("scheduler stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one sync immediately before waiting for the schedule")
	return cmd
}
