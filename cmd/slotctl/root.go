package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codr1/nailbook/internal/config"
	"github.com/codr1/nailbook/internal/db"
	"github.com/codr1/nailbook/internal/persist"
	"github.com/codr1/nailbook/internal/slots"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "slotctl",
		Short:         "Inspect and maintain the nail salon booking store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			zerolog.DefaultContextLogger = &log.Logger
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/app.yaml", "path to the YAML configuration file")

	env := &environment{configPath: &configPath}
	root.AddCommand(newExportCmd(env))
	root.AddCommand(newImportLegacyCmd(env))
	root.AddCommand(newDayCmd(env))
	root.AddCommand(newPurgeCmd(env))
	root.AddCommand(newSchemaCmd(env))
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newKeysCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// environment opens the configured store lazily so commands that need no
// database never touch it.
type environment struct {
	configPath *string
}

type store struct {
	cfg     *config.Config
	db      *db.DB
	repo    *persist.Repository
	session *slots.Session
}

func (e *environment) open() (*store, error) {
	cfg, err := config.Load(*e.configPath)
	if err != nil {
		return nil, err
	}
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	repo := persist.NewRepository(database.Medium(), persist.Options{
		RetentionDays: cfg.Business.RetentionDays,
		Location:      cfg.Location(),
	})
	return &store{
		cfg:     cfg,
		db:      database,
		repo:    repo,
		session: slots.NewSession(repo),
	}, nil
}

func (s *store) Close() {
	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return log.Logger.WithContext(ctx)
}
