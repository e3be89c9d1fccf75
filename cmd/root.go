package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"acl-center/auth"
	"acl-center/config"
	"acl-center/database"
	"acl-center/logger"
	"acl-center/repositories"
	"acl-center/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deps is everything a command needs once configuration is loaded.
type deps struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *gorm.DB
	users   repositories.UserRepository
	repo    repositories.RolePermissionRepository
	checker *auth.PermissionChecker
	acl     *services.ACLSyncService
	roles   *services.RolePermissionService
}

type rootOptions struct {
	v       *viper.Viper
	cfgFile string
}

func (o *rootOptions) bootstrap(mode logger.Mode) (*deps, func(), error) {
	cfg, err := config.Load(o.v, o.cfgFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Mode: mode})
	if err != nil {
		return nil, nil, err
	}
	log = log.With(zap.String("service", cfg.ServiceName))

	db, err := database.Open(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	auth.SetSigningKey([]byte(cfg.JwtSecret))

	d := &deps{
		cfg:    cfg,
		logger: log,
		db:     db,
		users:  repositories.NewUserRepository(db),
		repo:   repositories.NewRolePermissionRepository(db),
	}
	cleanup := func() {
		database.Close(db)
		_ = log.Sync() // Make sure the buffer is flushed before the program exits
	}

	d.checker, err = auth.NewPermissionChecker(d.users, cfg.PermissionCacheSize, cfg.PermissionCacheTTL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	d.acl = services.NewACLSyncService(d.repo, d.checker, log)
	d.roles = services.NewRolePermissionService(d.repo, d.checker)
	return d, cleanup, nil
}

// NewRootCommand builds the acl-center command tree on its own viper instance.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:          "acl-center",
		Short:        "Role and permission administration",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = opts.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newUpdateACLCommand(opts),
		newSeedCommand(opts),
		newServeCommand(opts),
		newScheduleCommand(opts),
	)
	return root
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		return fmt.Errorf("acl-center: %w", err)
	}
	return nil
}
