package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nyaysahay/nyaysahay/cmd/flags"
	"github.com/nyaysahay/nyaysahay/pkg/db"
)

type MigrateFlags struct {
	DBFlags *flags.PostgresDatabaseFlags
}

func NewMigrateFlags() *MigrateFlags {
	return &MigrateFlags{
		DBFlags: flags.NewPostgresDatabaseFlags(),
	}
}

func NewMigrateCommand() *cobra.Command {
	f := NewMigrateFlags()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			dbc, err := db.New(f.DBFlags.DSN, f.DBFlags.GormLogLevel())
			if err != nil {
				log.WithError(err).Fatal("could not connect to db")
			}

			if err := dbc.UpdateSchema(); err != nil {
				log.WithError(err).Fatal("could not migrate schema")
			}

			log.Info("database schema updated")
		},
	}

	f.DBFlags.BindFlags(cmd.Flags())
	return cmd
}
