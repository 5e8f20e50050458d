package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldservice_backend/internal/seed"
	"fieldservice_backend/platform/db"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load skills, work areas, customers and technicians from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return err
		}
		defer f.Close()

		fixture, err := seed.Load(f)
		if err != nil {
			return fmt.Errorf("%s: %w", seedFile, err)
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

		sum, err := seed.Apply(cmd.Context(), pool, fixture)
		if err != nil {
			return err
		}
		log.Info("seed applied",
			"skills", sum.Skills,
			"workAreas", sum.WorkAreas,
			"customers", sum.Customers,
			"technicians", sum.Technicians,
			"workingHours", sum.WorkingHours,
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "fixture file")
	rootCmd.AddCommand(seedCmd)
}
