package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/odb2vtk/mesh"
	"github.com/notargets/odb2vtk/odb"
)

// singleHex returns a one element mesh and a database to build fields on
func singleHex(t *testing.T) (*odb.Database, *odb.Instance, *mesh.InstanceMesh) {
	db := odb.NewDatabase("one.odb")
	inst := db.AddInstance(odb.NewBlockInstance("PART-1", 1, "C3D8", odb.SteelSection))
	m, err := mesh.Assemble(mesh.DefaultCatalog(), inst)
	require.NoError(t, err)
	return db, inst, m
}

func TestPositionPriority(t *testing.T) {
	db, inst, m := singleHex(t)
	fo := odb.NewFieldOutput("MIX", "", odb.Scalar, db)
	odb.AddNodalValues(fo, inst, odb.DoublePrecision, func(n odb.Node) []float64 { return []float64{1} })
	odb.AddWholeElementScalar(fo, inst, odb.DoublePrecision, func(el odb.Element) float64 { return 5 })

	cells, points, err := Extract(fo, m, false)
	require.NoError(t, err)
	assert.Empty(t, points)
	require.Len(t, cells, 1)
	assert.Equal(t, []float64{5}, cells[0].Values)

	loc, ok := selectLocation([]odb.FieldLocation{{Position: odb.IntegrationPoint}, {Position: odb.Nodal}})
	require.True(t, ok)
	assert.Equal(t, odb.Nodal, loc.Position)
	_, ok = selectLocation([]odb.FieldLocation{{Position: odb.Centroid}})
	assert.False(t, ok)
}

func TestExtractSkips(t *testing.T) {
	db, inst, m := singleHex(t)

	empty := odb.NewFieldOutput("EMPTY", "", odb.Scalar, db)
	ipVector := odb.NewFieldOutput("UIP", "", odb.Vector, db)
	odb.AddIntegrationPointValues(ipVector, inst, 8, odb.DoublePrecision, nil,
		func(el odb.Element, ip int, sp odb.SectionPoint) []float64 { return []float64{1, 2, 3} })
	wide := odb.NewFieldOutput("WIDE", "", odb.Scalar, db)
	odb.AddNodalValues(wide, inst, odb.DoublePrecision, func(n odb.Node) []float64 { return []float64{1, 2} })
	long := odb.NewFieldOutput("LONG", "", odb.Vector, db)
	odb.AddNodalValues(long, inst, odb.DoublePrecision, func(n odb.Node) []float64 { return []float64{1, 2, 3, 4} })
	centroid := odb.NewFieldOutput("CENTROID", "", odb.Scalar, db)
	centroid.AddValue(odb.FieldValue{Instance: inst.Name, ElementLabel: 1, Position: odb.Centroid, Data: []float64{1}})
	unknown := odb.NewFieldOutput("UNKNOWN", "", odb.UnknownDataType, db)
	odb.AddWholeElementScalar(unknown, inst, odb.DoublePrecision, func(el odb.Element) float64 { return 1 })

	for _, fo := range []*odb.FieldOutput{empty, ipVector, wide, long, centroid, unknown} {
		_, _, err := Extract(fo, m, false)
		assert.ErrorIs(t, err, ErrSkipField, fo.Name)
	}
}

func TestExtractTensor(t *testing.T) {
	db, inst, m := singleHex(t)
	fo := odb.NewFieldOutput("S", "", odb.Tensor3DFull, db)
	odb.AddIntegrationPointValues(fo, inst, 8, odb.DoublePrecision, nil,
		func(el odb.Element, ip int, sp odb.SectionPoint) []float64 { return []float64{1, 2, 3, 4, 5, 6} })
	cells, points, err := Extract(fo, m, false)
	assert.NoError(t, err)
	assert.Empty(t, cells)
	assert.Empty(t, points)
}

func TestExtractSparseLabels(t *testing.T) {
	// Node labels do not need to be contiguous or start at 1
	db := odb.NewDatabase("sparse.odb")
	inst := db.AddInstance(&odb.Instance{
		Name:           "TRI",
		Dimensionality: odb.TwoDPlanar,
		Nodes: []odb.Node{
			{Label: 100, Coordinates: []float64{0, 0}},
			{Label: 7, Coordinates: []float64{1, 0}},
			{Label: 42, Coordinates: []float64{0, 1}},
			{Label: 9, Coordinates: []float64{5, 5}},
		},
		Elements: []odb.Element{{Label: 3, Type: "CPS3", SectionCategory: odb.AluminumSection,
			Connectivity: []int{100, 7, 42}}},
	})
	m, err := mesh.Assemble(mesh.DefaultCatalog(), inst)
	require.NoError(t, err)

	fo := odb.NewFieldOutput("U", "", odb.Vector, db)
	odb.AddNodalValues(fo, inst, odb.DoublePrecision, func(n odb.Node) []float64 {
		return []float64{float64(n.Label), 1}
	})
	_, points, err := Extract(fo, m, false)
	require.NoError(t, err)
	require.Len(t, points, 1)
	// Node 9 belongs to no element and keeps a zero vector
	assert.Equal(t, []float64{100, 1, 0, 7, 1, 0, 42, 1, 0, 0, 0, 0}, points[0].Values)
}
