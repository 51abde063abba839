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
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/odb2vtk/InputParameters"
	"github.com/notargets/odb2vtk/browser"
	"github.com/notargets/odb2vtk/converter"
	"github.com/notargets/odb2vtk/odb"
)

const exampleRequest = `
########################################
{
  "version": 1,
  "frames": [{"step": "Step-1", "list": [0, 1, 2]}],
  "fields": [{"key": "S11"}, {"key": "U"}, {"key": "NT.*"}]
}
########################################
`

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert [database.odb]",
	Short: "Convert requested frames and fields of a database into VTK files",
	Long: `
Converts the frames and fields named in an output request document into one
partitioned VTK collection per frame, written next to the database:

	<dir>/<name>/<name>_<frame>.vtpc

Without a database argument an interactive browser is started.

odb2vtk convert -r request.json model.odb`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			requestFile string
			dbFile      string
		)
		if requestFile, err = cmd.Flags().GetString("request"); err != nil {
			return
		}
		if len(requestFile) == 0 {
			fmt.Printf("Example request file:%s\n", exampleRequest)
			return fmt.Errorf("must supply an output request file (-r, --request)")
		}
		if dbFile, err = locateDatabase(args); err != nil {
			return
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		cp := InputParameters.NewConverterParameters(viper.GetViper())
		if viper.GetBool("verbose") {
			cp.Print()
		}
		return RunConvert(ctx, logger, requestFile, dbFile, cp)
	},
}

func init() {
	rootCmd.AddCommand(ConvertCmd)
	ConvertCmd.Flags().StringP("request", "r", "", "JSON or YAML output request file")
}

// locateDatabase returns the database argument, or the file picked in the
// interactive browser when there is none
func locateDatabase(args []string) (path string, err error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return browser.Run(".", odb.Extension)
}

func RunConvert(ctx context.Context, log *zap.Logger, requestFile, dbFile string,
	cp InputParameters.ConverterParameters) (err error) {
	var (
		request *InputParameters.OutputRequest
		db      *odb.Database
		start   = time.Now()
	)
	if request, err = InputParameters.ReadOutputRequest(requestFile); err != nil {
		return
	}
	if db, err = odb.Open(ctx, dbFile); err != nil {
		return
	}
	log.Info("Opened database", zap.String("path", db.Path()), zap.Int64("bytes", db.Size()))
	c := converter.New(request, converter.WithLogger(log), converter.WithParameters(cp))
	if err = c.Convert(ctx, db, dbFile); err != nil {
		return
	}
	log.Info("Conversion finished", zap.Duration("elapsed", time.Since(start)))
	return
}
