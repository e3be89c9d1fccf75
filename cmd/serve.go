package cmd

import (
	"acl-center/logger"
	"acl-center/server"

	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, cleanup, err := root.bootstrap(logger.ModeServer)
			if err != nil {
				return err
			}
			defer cleanup()

			container := server.NewContainer(server.Deps{
				DB:      d.db,
				Users:   d.users,
				Checker: d.checker,
				ACL:     d.acl,
				Logger:  d.logger,
			})
			return server.Run(cmd.Context(), d.cfg.HTTPPort, container, d.logger)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port (overrides http_port)")
	_ = root.v.BindPFlag("http_port", cmd.Flags().Lookup("port"))
	return cmd
}
