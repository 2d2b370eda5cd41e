package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbManager, err := appFromContext(cmd.Context()).DB()
		if err != nil {
			return err
		}
		return dbManager.Init()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
