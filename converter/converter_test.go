package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/notargets/odb2vtk/InputParameters"
	"github.com/notargets/odb2vtk/mesh"
	"github.com/notargets/odb2vtk/odb"
	"github.com/notargets/odb2vtk/vtk"
)

type recordingWriter struct {
	paths      []string
	partitions []*vtk.Partition
}

func (w *recordingWriter) Write(ctx context.Context, path string, p *vtk.Partition) error {
	w.paths = append(w.paths, path)
	w.partitions = append(w.partitions, p)
	return nil
}

func arrayNames(arrays []*vtk.DataArray) (names []string) {
	for _, a := range arrays {
		names = append(names, a.Name)
	}
	return
}

func convert(t *testing.T, db *odb.Database, doc string, opts ...Option) (*recordingWriter, *observer.ObservedLogs) {
	t.Helper()
	var (
		w          = &recordingWriter{}
		core, logs = observer.New(zapcore.DebugLevel)
	)
	opts = append([]Option{WithWriter(w), WithLogger(zap.New(core))}, opts...)
	c := New(parseRequest(t, doc), opts...)
	require.NoError(t, c.Convert(context.Background(), db, "/data/"+db.Name()))
	return w, logs
}

func TestConvertHexBlock(t *testing.T) {
	db := odb.NewDatabase("hex.odb")
	inst := db.AddInstance(odb.NewBlockInstance("PART-1", 2, "C3D8R", odb.SteelSection))
	step := db.AddStep("Step-1", "")
	for id := 0; id < 2; id++ {
		frame := db.AddFrame(step, id, id, float64(id), "")
		evol := db.AddFieldOutput(frame, "EVOL", "", odb.Scalar)
		odb.AddWholeElementScalar(evol, inst, odb.SinglePrecision,
			func(el odb.Element) float64 { return 0.125 })
	}

	w, _ := convert(t, db, `{"frames": [{"step": "Step-1", "list": [1]}], "fields": [{"key": "EVOL"}]}`)
	require.Len(t, w.partitions, 1)
	assert.Equal(t, filepath.Join("/data", "hex", "hex_1.vtpc"), w.paths[0])
	require.Len(t, w.partitions[0].Pieces, 1)
	piece := w.partitions[0].Pieces[0]
	assert.Equal(t, len(inst.Nodes), piece.NumPoints())
	assert.Empty(t, piece.PointData)
	require.Len(t, piece.CellData, 1)
	assert.Equal(t, "EVOL", piece.CellData[0].Name)
	assert.Len(t, piece.CellData[0].Values, 8)
	assert.Equal(t, 0.125, piece.CellData[0].Values[7])
}

func TestConvertStandardDatabase(t *testing.T) {
	w, logs := convert(t, odb.NewTestDatabase(),
		`{"frames": [{"step": "Step-1", "list": [2, 1]}], "fields": [{"key": ".*"}]}`)
	require.Len(t, w.partitions, 2)
	assert.Equal(t, filepath.Join("/data", "test", "test_2.vtpc"), w.paths[1])

	for i, p := range w.partitions {
		assert.Equal(t, i+1, p.Frame)
		require.Len(t, p.Pieces, 2)
		block, plate := p.Pieces[0], p.Pieces[1]
		assert.Equal(t, "BLOCK-1", block.Name)
		assert.Equal(t, "PLATE-1", plate.Name)
		assert.Equal(t, []string{"EVOL"}, arrayNames(block.CellData))
		assert.Equal(t, []string{"S11", "S22", "NT11", "U"}, arrayNames(block.PointData))
		assert.Equal(t, []string{"EVOL"}, arrayNames(plate.CellData))
		assert.Equal(t, []string{"S11", "U"}, arrayNames(plate.PointData))
		assert.Equal(t, 2, plate.Cells.NumCells(), "the truss is left out")
	}

	// Frame 2 has t = 1, element values are 2*label
	block, plate := w.partitions[1].Pieces[0], w.partitions[1].Pieces[1]
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12, 14, 16}, block.CellData[0].Values)
	s11 := block.PointData[0]
	assert.InDelta(t, 2., s11.Values[0], 1e-9)
	assert.InDelta(t, 9., s11.Values[13], 1e-9, "center node averages all eight elements")
	assert.InDelta(t, 16., s11.Values[26], 1e-9)
	assert.Equal(t, 27., block.PointData[2].Values[26])
	u := block.PointData[3]
	assert.Equal(t, vtk.VectorRole, u.Role)
	assert.Equal(t, []float64{1, 1, 1}, u.Values[3*26:])

	assert.InDeltaSlice(t, []float64{2, 3, 4, 2, 3, 4}, plate.PointData[0].Values, 1e-9)
	assert.Equal(t, []float64{2, -1, 0}, plate.PointData[1].Values[3*5:], "planar vectors are padded")

	// Frame 1 arrays are not carried over into frame 2
	assert.Equal(t, []float64{1.5, 3, 4.5, 6, 7.5, 9, 10.5, 12}, w.partitions[0].Pieces[0].CellData[0].Values)

	assert.Equal(t, 1, logs.FilterMessage("Ignoring unsupported element").Len())
	assert.Zero(t, logs.FilterMessage("Skipping field").Len())
	assert.Equal(t, 2, logs.FilterMessage("Tensor fields are not converted").Len())
}

func sectionedPlate() *odb.Database {
	db := odb.NewDatabase("plate.odb")
	plate := odb.NewPlateInstance("PLATE-1", 2, 1, "CPS4", odb.AluminumSection, odb.TwoDPlanar)
	plate.Elements[1].SectionCategory = odb.SteelSection
	db.AddInstance(plate)
	frame := db.AddFrame(db.AddStep("Step-1", ""), 1, 1, 1, "")
	s11 := db.AddFieldOutput(frame, "S11", "", odb.Scalar)
	odb.AddIntegrationPointValues(s11, plate, 4, odb.DoublePrecision, nil,
		func(el odb.Element, ip int, sp odb.SectionPoint) []float64 {
			return []float64{2 * float64(el.Label)}
		})
	nt11 := db.AddFieldOutput(frame, "NT11", "", odb.Scalar)
	odb.AddNodalValues(nt11, plate, odb.SinglePrecision, func(n odb.Node) []float64 {
		return []float64{float64(n.Label)}
	})
	return db
}

func TestNodalAveraging(t *testing.T) {
	w, _ := convert(t, sectionedPlate(),
		`{"frames": [{"step": "Step-1", "list": [1]}], "fields": [{"key": "S11"}, {"key": "NT11"}]}`)
	piece := w.partitions[0].Pieces[0]
	require.Equal(t, []string{"S11", "NT11"}, arrayNames(piece.PointData))
	// Nodes 2 and 5 receive 2 from the aluminum group and 4 from the steel group
	assert.InDeltaSlice(t, []float64{2, 3, 4, 2, 3, 4}, piece.PointData[0].Values, 1e-9)
	// Nodal values are passed through unchanged
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, piece.PointData[1].Values)
}

func TestCompositeEnvelope(t *testing.T) {
	w, _ := convert(t, odb.NewCompositeTestDatabase(),
		`{"frames": [{"step": "Step-1", "list": [1]}], "fields": [{"key": "S11"}]}`)
	piece := w.partitions[0].Pieces[0]
	require.Len(t, piece.PointData, 1)
	for _, v := range piece.PointData[0].Values {
		assert.InDelta(t, 0.9, v, 1e-12)
	}
}

func TestUnsupportedInstance(t *testing.T) {
	db := odb.NewDatabase("mixed.odb")
	inst := odb.NewBlockInstance("MIXED", 1, "C3D8", odb.SteelSection)
	inst.Elements = append(inst.Elements, odb.Element{
		Label: 2, Type: "S4R", SectionCategory: odb.CompositeSection, Connectivity: []int{1, 2, 4, 3},
	})
	db.AddInstance(inst)
	frame := db.AddFrame(db.AddStep("Step-1", ""), 0, 0, 0, "")
	evol := db.AddFieldOutput(frame, "EVOL", "", odb.Scalar)
	odb.AddWholeElementScalar(evol, inst, odb.DoublePrecision, func(el odb.Element) float64 { return 1 })

	w, logs := convert(t, db, `{"frames": [{"step": "Step-1", "list": [0]}], "fields": [{"key": "EVOL"}]}`)
	piece := w.partitions[0].Pieces[0]
	assert.Equal(t, 2, piece.Cells.NumCells())
	assert.Empty(t, piece.CellData)
	assert.Equal(t, 1, logs.FilterMessage("Ignoring instance mixing composite and non-composite sections").Len())
}

func TestRestrictedCatalog(t *testing.T) {
	catalog := mesh.NewElementCatalog(mesh.CatalogEntry{Tag: "C3D8", Cell: mesh.Hexahedron})
	w, logs := convert(t, odb.NewTestDatabase(),
		`{"frames": [{"step": "Step-2", "list": [1]}], "fields": [{"key": "EVOL"}]}`,
		WithCatalog(catalog), WithParameters(InputParameters.ConverterParameters{Workers: 1, Dedupe: true}))
	require.Len(t, w.partitions[0].Pieces, 1)
	assert.Equal(t, "BLOCK-1", w.partitions[0].Pieces[0].Name)
	assert.Equal(t, 1, logs.FilterMessage("Skipping instance without supported elements").Len())
}

func TestConvertErrors(t *testing.T) {
	db := odb.NewTestDatabase()
	ctx := context.Background()
	for doc, target := range map[string]error{
		`{"frames": [{"step": "Step-9", "list": [1]}], "fields": [{"key": "U"}]}`:  odb.ErrNotFound,
		`{"frames": [{"step": "Step-1", "list": [8]}], "fields": [{"key": "U"}]}`:  ErrNoMatchingFrames,
		`{"frames": [{"step": "Step-1", "list": [1]}], "fields": [{"key": "UR"}]}`: ErrNoMatchingFields,
	} {
		c := New(parseRequest(t, doc), WithWriter(&recordingWriter{}))
		assert.ErrorIs(t, c.Convert(ctx, db, "test.odb"), target, doc)
	}

	beams := odb.NewDatabase("beams.odb")
	beams.AddInstance(&odb.Instance{Name: "B", Elements: []odb.Element{{Label: 1, Type: "B31"}}})
	beams.AddFrame(beams.AddStep("Step-1", ""), 0, 0, 0, "").Fields = []*odb.FieldOutput{
		odb.NewFieldOutput("U", "", odb.Vector, beams),
	}
	c := New(parseRequest(t, `{"frames": [{"step": "Step-1", "list": [0]}], "fields": [{"key": "U"}]}`),
		WithWriter(&recordingWriter{}))
	assert.ErrorIs(t, c.Convert(ctx, beams, "beams.odb"), mesh.ErrNothingToConvert)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	c = New(parseRequest(t, `{"frames": [{"step": "Step-1", "list": [0]}], "fields": [{"key": "U"}]}`),
		WithWriter(&recordingWriter{}))
	assert.ErrorIs(t, c.Convert(cancelled, db, "test.odb"), context.Canceled)
}

func TestConvertToFiles(t *testing.T) {
	var (
		dir  = t.TempDir()
		file = filepath.Join(dir, "test.odb")
	)
	c := New(parseRequest(t, `{"frames": [{"step": "Step-1", "list": [0, 2]}], "fields": [{"key": "EVOL|U"}]}`))
	require.NoError(t, c.Convert(context.Background(), odb.NewTestDatabase(), file))
	for _, name := range []string{"test_0.vtpc", "test_2.vtpc", "test_2/test_2_0_0.vtu", "test_2/test_2_1_0.vtu"} {
		_, err := os.Stat(filepath.Join(dir, "test", name))
		assert.NoError(t, err, name)
	}
}
