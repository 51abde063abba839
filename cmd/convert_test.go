package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/notargets/odb2vtk/InputParameters"
	"github.com/notargets/odb2vtk/odb"
)

func writeFile(t *testing.T, path, contents string) string {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestRunConvert(t *testing.T) {
	var (
		dir     = t.TempDir()
		dbFile  = filepath.Join(dir, "model.odb")
		log     = zaptest.NewLogger(t)
		ctx     = context.Background()
		request = writeFile(t, filepath.Join(dir, "request.yaml"), `
version: 1
frames:
  - step: Step-1
    list: [1, 2]
fields:
  - key: U
  - key: NT.*
`)
	)
	require.NoError(t, WriteSample(ctx, log, dbFile, false))
	assert.Error(t, WriteSample(ctx, log, dbFile, false), "existing files are not overwritten")

	cp := InputParameters.ConverterParameters{Workers: 2, Dedupe: true}
	require.NoError(t, RunConvert(ctx, log, request, dbFile, cp))
	for _, name := range []string{"model_1.vtpc", "model_2.vtpc", "model_2/model_2_1_0.vtu"} {
		_, err := os.Stat(filepath.Join(dir, "model", name))
		assert.NoError(t, err, name)
	}

	cp.OutputDir = filepath.Join(dir, "out")
	require.NoError(t, RunConvert(ctx, log, request, dbFile, cp))
	_, err := os.Stat(filepath.Join(dir, "out", "model", "model_1.vtpc"))
	assert.NoError(t, err)
}

func TestRunConvertErrors(t *testing.T) {
	var (
		dir    = t.TempDir()
		dbFile = filepath.Join(dir, "model.odb")
		log    = zaptest.NewLogger(t)
		ctx    = context.Background()
		cp     = InputParameters.DefaultConverterParameters()
		good   = writeFile(t, filepath.Join(dir, "good.json"),
			`{"frames": [{"step": "Step-1", "list": [1]}], "fields": [{"key": "U"}]}`)
		bad = writeFile(t, filepath.Join(dir, "bad.json"),
			`{"frames": [{"step": "Step-1", "list": []}], "fields": [{"key": "U"}]}`)
		missingStep = writeFile(t, filepath.Join(dir, "step.json"),
			`{"frames": [{"step": "Step-7", "list": [1]}], "fields": [{"key": "U"}]}`)
	)
	require.NoError(t, WriteSample(ctx, log, dbFile, false))

	assert.ErrorIs(t, RunConvert(ctx, log, bad, dbFile, cp), InputParameters.ErrInvalidRequest)
	assert.Error(t, RunConvert(ctx, log, filepath.Join(dir, "none.json"), dbFile, cp))
	assert.Error(t, RunConvert(ctx, log, good, filepath.Join(dir, "none.odb"), cp))
	assert.ErrorIs(t, RunConvert(ctx, log, good, good, cp), odb.ErrNotODB)
	assert.ErrorIs(t, RunConvert(ctx, log, missingStep, dbFile, cp), odb.ErrNotFound)
}

func TestPrintInfo(t *testing.T) {
	var (
		dir    = t.TempDir()
		dbFile = filepath.Join(dir, "composite.odb")
		ctx    = context.Background()
	)
	require.NoError(t, WriteSample(ctx, zaptest.NewLogger(t), dbFile, true))
	db, err := odb.Open(ctx, dbFile)
	require.NoError(t, err)
	assert.NoError(t, PrintInfo(db, "", -1, true))
	assert.NoError(t, PrintInfo(db, "Step-1", 1, false))
	assert.ErrorIs(t, PrintInfo(db, "Step-3", 1, false), odb.ErrNotFound)
	assert.ErrorIs(t, PrintInfo(db, "Step-1", 4, false), odb.ErrNotFound)
}

func TestRootCommand(t *testing.T) {
	var (
		dir     = t.TempDir()
		dbFile  = filepath.Join(dir, "demo.odb")
		request = writeFile(t, filepath.Join(dir, "request.json"),
			`{"frames": [{"step": "Step-2", "list": [0, 1]}], "fields": [{"key": "EVOL"}]}`)
	)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"sample", dbFile})
	require.NoError(t, rootCmd.Execute())
	rootCmd.SetArgs([]string{"info", "--frame", "0", "--step", "Step-2", dbFile})
	require.NoError(t, rootCmd.Execute())
	rootCmd.SetArgs([]string{"convert", "-w", "1", "-r", request, dbFile})
	require.NoError(t, rootCmd.Execute())
	_, err := os.Stat(filepath.Join(dir, "demo", "demo_1.vtpc"))
	assert.NoError(t, err)

	require.NoError(t, ConvertCmd.Flags().Set("request", ""))
	rootCmd.SetArgs([]string{"convert", dbFile})
	assert.Error(t, rootCmd.Execute(), "a request file is required")
}
