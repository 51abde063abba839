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
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/odb2vtk/mesh"
	"github.com/notargets/odb2vtk/odb"
)

// InfoCmd represents the info command
var InfoCmd = &cobra.Command{
	Use:   "info [database.odb]",
	Short: "Summarize the instances, steps and fields of a database",
	Long: `
Prints the instances, steps and the fields of one frame of a database.
With --verbose the assembled meshes, all frames and the field locations are
listed as well.

odb2vtk info --step Step-1 --frame 2 model.odb`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			dbFile string
			db     *odb.Database
			step   string
			frame  int
		)
		step, _ = cmd.Flags().GetString("step")
		frame, _ = cmd.Flags().GetInt("frame")
		if dbFile, err = locateDatabase(args); err != nil {
			return
		}
		if db, err = odb.Open(context.Background(), dbFile); err != nil {
			return
		}
		return PrintInfo(db, step, frame, viper.GetBool("verbose"))
	},
}

func init() {
	rootCmd.AddCommand(InfoCmd)
	InfoCmd.Flags().StringP("step", "s", "", "step whose fields are listed (default is the first step)")
	InfoCmd.Flags().IntP("frame", "f", -1, "frame whose fields are listed (default is the last frame)")
}

// PrintInfo writes the database summary to stdout. An empty step selects
// the first step, a negative frame the last frame of the step.
func PrintInfo(db *odb.Database, stepName string, frameID int, verbose bool) (err error) {
	fmt.Printf("Database: %s (%d bytes)\n", db.Path(), db.Size())

	fmt.Printf("\nInstances:\n")
	for _, inst := range db.Instances() {
		summary := odb.SummarizeInstance(inst)
		fmt.Printf("%-16s %8d nodes %8d elements  %s\n",
			inst.Name, len(inst.Nodes), len(inst.Elements), inst.Dimensionality)
		types := make(map[string]int)
		categories := make(map[string]int)
		for _, el := range inst.Elements {
			types[el.Type]++
			categories[odb.SectionCategoryName(el.SectionCategory)]++
		}
		for _, t := range summary.ElementTypes {
			fmt.Printf("\t%-16s %8d\n", t, types[t])
		}
		for _, c := range summary.SectionCategories {
			fmt.Printf("\t%-16s %8d\n", c, categories[c])
		}
		if !summary.Supported {
			fmt.Printf("\tmixes composite and non-composite sections, fields are not converted\n")
		}
	}
	if verbose {
		fmt.Printf("\nMeshes:\n")
		catalog := mesh.DefaultCatalog()
		for _, inst := range db.Instances() {
			var m *mesh.InstanceMesh
			if m, err = mesh.Assemble(catalog, inst); err != nil {
				fmt.Printf("Instance %s: %v\n", inst.Name, err)
				err = nil
				continue
			}
			m.PrintStatistics()
		}
	}

	fmt.Printf("\nSteps:\n")
	for _, s := range db.Steps() {
		if len(s.Frames) == 0 {
			fmt.Printf("%-16s %4d frames\n", s.Name, 0)
			continue
		}
		fmt.Printf("%-16s %4d frames  %8.5f -> %8.5f\n", s.Name, len(s.Frames),
			s.Frames[0].Value, s.Frames[len(s.Frames)-1].Value)
		if verbose {
			for _, f := range s.Frames {
				fmt.Printf("\t[%4d] increment %4d value %8.5f %s\n", f.ID, f.Increment, f.Value, f.Description)
			}
		}
	}
	if len(db.Steps()) == 0 {
		return
	}

	var (
		step  *odb.Step
		frame *odb.Frame
	)
	if stepName == "" {
		step = db.Steps()[0]
	} else if step, err = db.Step(stepName); err != nil {
		return
	}
	if len(step.Frames) == 0 {
		return
	}
	if frameID < 0 {
		frame = step.Frames[len(step.Frames)-1]
	} else if frame, err = step.Frame(frameID); err != nil {
		return
	}
	fmt.Printf("\nFields of %s frame %d:\n", step.Name, frame.ID)
	names := frame.FieldOutputNames()
	sort.Strings(names)
	for _, name := range names {
		var fo *odb.FieldOutput
		if fo, err = frame.FieldOutput(name); err != nil {
			return
		}
		fmt.Printf("%-12s %-14s %s\n", fo.Name, fo.Type, fo.Description)
		if verbose {
			for _, loc := range fo.Locations() {
				fmt.Printf("\t%-16s %d section points\n", loc.Position, len(loc.SectionPoints))
			}
		}
	}
	return
}
