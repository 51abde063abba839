/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/odb2vtk/odb"
)

// SampleCmd represents the sample command
var SampleCmd = &cobra.Command{
	Use:   "sample file.odb",
	Short: "Write a small demonstration database",
	Long: `
Writes a demonstration database with a hexahedral block and a planar plate
over two steps, or a layered composite shell with --composite.

odb2vtk sample demo.odb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		composite, _ := cmd.Flags().GetBool("composite")
		return WriteSample(context.Background(), logger, args[0], composite)
	},
}

func init() {
	rootCmd.AddCommand(SampleCmd)
	SampleCmd.Flags().BoolP("composite", "c", false, "write the composite shell database")
}

func WriteSample(ctx context.Context, log *zap.Logger, path string, composite bool) (err error) {
	db := odb.NewTestDatabase()
	if composite {
		db = odb.NewCompositeTestDatabase()
	}
	if err = db.Save(ctx, path); err != nil {
		return fmt.Errorf("writing sample database: %w", err)
	}
	log.Info("Wrote sample database", zap.String("path", path),
		zap.Int("instances", len(db.Instances())), zap.Int("steps", len(db.Steps())))
	return
}
