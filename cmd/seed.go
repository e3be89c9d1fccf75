package cmd

import (
	"acl-center/logger"
	"acl-center/services"

	"github.com/spf13/cobra"
)

func newSeedCommand(root *rootOptions) *cobra.Command {
	var skipAdmin bool

	cmd := &cobra.Command{
		Use:   "db:seed",
		Short: "Seed permissions, roles and the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, cleanup, err := root.bootstrap(logger.ModeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			seedCfg := d.cfg.Seed
			if skipAdmin {
				seedCfg.SkipAdmin = true
			}
			seeder := services.NewPermissionSeeder(d.roles, d.acl, d.users, seedCfg, d.logger)
			return seeder.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&skipAdmin, "skip-admin", false, "do not create or update the admin account")
	return cmd
}
