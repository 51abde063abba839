package vtk

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/notargets/odb2vtk/mesh"
)

// Role is the attribute an array plays in its data set
type Role uint8

const (
	ScalarRole Role = iota
	VectorRole
	TensorRole
)

func (r Role) String() string {
	return [...]string{"scalar", "vector", "tensor"}[r]
}

// DataArray is a named field array with Components values per tuple
type DataArray struct {
	Name       string
	Role       Role
	Components int
	Values     []float64
}

func (a *DataArray) NumTuples() int {
	if a.Components == 0 {
		return 0
	}
	return len(a.Values) / a.Components
}

// Piece is the unstructured grid of one instance with its attached arrays
type Piece struct {
	Name      string
	Points    []float64 // x,y,z per point
	Cells     mesh.Cells
	PointData []*DataArray
	CellData  []*DataArray
}

func (p *Piece) NumPoints() int { return len(p.Points) / 3 }

// Partition is the output unit of one frame, one piece per instance
type Partition struct {
	Step   string
	Frame  int
	Pieces []Piece
}

// OutputPath is <dir>/<stem>/<stem>_<frame>.vtpc, where stem is the base
// name of file without its extension. An empty dir means the directory of
// file.
func OutputPath(dir, file string, frame int) string {
	if dir == "" {
		dir = filepath.Dir(file)
	}
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(dir, stem, fmt.Sprintf("%s_%d.vtpc", stem, frame))
}
