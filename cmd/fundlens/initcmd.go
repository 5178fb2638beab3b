package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fundlens/fundlens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  "Writes config.yaml with the default settings. Set store.database_url (or FUNDLENS_STORE_DATABASE_URL) before running other commands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("out", "config.yaml", "output path")
	rootCmd.AddCommand(initCmd)
}
