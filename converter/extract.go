package converter

import (
	"errors"
	"fmt"

	"github.com/notargets/odb2vtk/mesh"
	"github.com/notargets/odb2vtk/odb"
	"github.com/notargets/odb2vtk/vtk"
)

// ErrSkipField marks a field that cannot be converted on an instance. The
// field is left out of that instance's output and the run continues.
var ErrSkipField = errors.New("field skipped")

func skipField(field, instance, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s on %s: %s", ErrSkipField, field, instance, fmt.Sprintf(format, args...))
}

// Position preference when a section group reports a field at several
// positions
var positionPriority = []odb.Position{odb.WholeElement, odb.Nodal, odb.IntegrationPoint}

func selectLocation(locations []odb.FieldLocation) (odb.FieldLocation, bool) {
	for _, p := range positionPriority {
		for _, loc := range locations {
			if loc.Position == p {
				return loc, true
			}
		}
	}
	return odb.FieldLocation{}, false
}

// Extract converts the values of a field on one instance into cell and
// point arrays. fo must already be restricted to the instance. Composite
// instances reduce layered integration point data to its envelope.
func Extract(fo *odb.FieldOutput, m *mesh.InstanceMesh, composite bool) (cellData, pointData []*vtk.DataArray, err error) {
	if len(fo.Values) == 0 {
		return nil, nil, skipField(fo.Name, m.Name, "no values")
	}
	switch {
	case fo.Type == odb.Scalar:
		return extractScalar(fo, m, composite)
	case fo.Type == odb.Vector:
		pointData, err = extractVector(fo, m)
		return
	case fo.Type.IsTensor():
		return extractTensor(fo, m)
	}
	return nil, nil, skipField(fo.Name, m.Name, "unsupported data type %s", fo.Type)
}

// envelope replaces layered values by the largest magnitude over the layers
func envelope(fo *odb.FieldOutput, sectionPoints []odb.SectionPoint) *odb.FieldOutput {
	layers := make([]*odb.FieldOutput, 0, len(sectionPoints)+1)
	for _, sp := range sectionPoints {
		layers = append(layers, fo.SubsetSectionPoint(sp).Abs())
	}
	layers = append(layers, fo)
	return odb.MaxEnvelope(layers)[0]
}

func extractScalar(fo *odb.FieldOutput, m *mesh.InstanceMesh, composite bool) (cellData, pointData []*vtk.DataArray, err error) {
	var (
		cells  []float64
		points []float64
		counts []int
	)
	for _, g := range m.Groups {
		sub := fo.SubsetRegion(m.ElementSet(g))
		locations := sub.Locations()
		if len(locations) == 0 {
			continue
		}
		loc, ok := selectLocation(locations)
		if !ok {
			return nil, nil, skipField(fo.Name, m.Name, "unsupported position %s", locations[0].Position)
		}
		sub = sub.SubsetPosition(loc.Position)
		if loc.Position == odb.IntegrationPoint {
			sub = sub.SubsetPosition(odb.ElementNodal)
			if composite && len(loc.SectionPoints) > 0 {
				sub = envelope(sub, loc.SectionPoints)
			}
		}
		for ib, b := range sub.BulkDataBlocks() {
			if b.Width != 1 {
				return nil, nil, skipField(fo.Name, m.Name, "block %d has width %d", ib, b.Width)
			}
			if loc.Position == odb.WholeElement {
				if cells == nil {
					cells = make([]float64, m.NumCells())
				}
				for i, label := range b.ElementLabels {
					idx, ok := m.ElementIndex[label]
					if !ok {
						return nil, nil, skipField(fo.Name, m.Name, "element %d is not part of the mesh", label)
					}
					cells[idx] = b.At(i, 0)
				}
				continue
			}
			if points == nil {
				points = make([]float64, m.NumPoints())
				counts = make([]int, m.NumPoints())
			}
			for i, label := range b.NodeLabels {
				idx, ok := m.NodeIndex[label]
				if !ok {
					return nil, nil, skipField(fo.Name, m.Name, "node %d is not part of the mesh", label)
				}
				points[idx] += b.At(i, 0)
				counts[idx]++
			}
		}
	}
	if cells == nil && points == nil {
		return nil, nil, skipField(fo.Name, m.Name, "no values on supported elements")
	}
	if cells != nil {
		cellData = append(cellData, &vtk.DataArray{
			Name: fo.Name, Role: vtk.ScalarRole, Components: 1, Values: cells,
		})
	}
	if points != nil {
		// Nodes shared by several elements or section groups get the mean,
		// nodes without samples stay 0
		for i, n := range counts {
			if n > 1 {
				points[i] /= float64(n)
			}
		}
		pointData = append(pointData, &vtk.DataArray{
			Name: fo.Name, Role: vtk.ScalarRole, Components: 1, Values: points,
		})
	}
	return
}

func extractVector(fo *odb.FieldOutput, m *mesh.InstanceMesh) (pointData []*vtk.DataArray, err error) {
	var values []float64
	for _, g := range m.Groups {
		sub := fo.SubsetRegion(m.ElementSet(g))
		locations := sub.Locations()
		if len(locations) == 0 {
			continue
		}
		loc, ok := selectLocation(locations)
		if !ok || loc.Position != odb.Nodal {
			return nil, skipField(fo.Name, m.Name, "vector data at position %s", locations[0].Position)
		}
		for ib, b := range sub.SubsetPosition(odb.Nodal).BulkDataBlocks() {
			if b.Width != 2 && b.Width != 3 {
				return nil, skipField(fo.Name, m.Name, "block %d has width %d", ib, b.Width)
			}
			if values == nil {
				values = make([]float64, 3*m.NumPoints())
			}
			for i, label := range b.NodeLabels {
				idx, ok := m.NodeIndex[label]
				if !ok {
					return nil, skipField(fo.Name, m.Name, "node %d is not part of the mesh", label)
				}
				for j := 0; j < b.Width; j++ {
					values[3*idx+j] = b.At(i, j)
				}
			}
		}
	}
	if values == nil {
		return nil, skipField(fo.Name, m.Name, "no values on supported elements")
	}
	return []*vtk.DataArray{{Name: fo.Name, Role: vtk.VectorRole, Components: 3, Values: values}}, nil
}

// extractTensor produces nothing yet; tensor fields are accepted and left
// out of the output
func extractTensor(fo *odb.FieldOutput, m *mesh.InstanceMesh) (cellData, pointData []*vtk.DataArray, err error) {
	return
}
