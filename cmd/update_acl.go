package cmd

import (
	"acl-center/logger"
	"acl-center/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUpdateACLCommand(root *rootOptions) *cobra.Command {
	var opts services.SyncOptions

	cmd := &cobra.Command{
		Use:   "permission:update-acl",
		Short: "Reconcile persisted role permissions with the declared ones",
		Long: `Compares every declared role with its persisted permissions.
Without --sync missing permissions are granted and extra ones are kept.
With --sync the persisted set is replaced by the declared one.
With --pretend the diff is only printed and logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, cleanup, err := root.bootstrap(logger.ModeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := d.acl.Sync(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				d.logger.Error("acl sync failed", zap.Error(err))
				return err
			}
			d.logger.Debug("acl sync finished",
				zap.Bool("changed", report.Changed()),
				zap.Bool("sync", opts.Sync),
				zap.Bool("pretend", opts.Pretend))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Sync, "sync", false, "overwrite persisted permissions instead of only granting missing ones")
	cmd.Flags().BoolVar(&opts.Pretend, "pretend", false, "compute and log the diff without writing")
	return cmd
}
