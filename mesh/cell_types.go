package mesh

import "fmt"

// CellType is a target cell topology, valued as the VTK cell type id
type CellType uint8

const (
	Triangle            CellType = 5
	Quad                CellType = 9
	Tetra               CellType = 10
	Hexahedron          CellType = 12
	Wedge               CellType = 13
	Pyramid             CellType = 14
	QuadraticTriangle   CellType = 22
	QuadraticQuad       CellType = 23
	QuadraticTetra      CellType = 24
	QuadraticHexahedron CellType = 25
	QuadraticWedge      CellType = 26
)

var cellTypeInfo = map[CellType]struct {
	name      string
	numPoints int
}{
	Triangle:            {"Triangle", 3},
	Quad:                {"Quad", 4},
	Tetra:               {"Tetra", 4},
	Hexahedron:          {"Hexahedron", 8},
	Wedge:               {"Wedge", 6},
	Pyramid:             {"Pyramid", 5},
	QuadraticTriangle:   {"QuadraticTriangle", 6},
	QuadraticQuad:       {"QuadraticQuad", 8},
	QuadraticTetra:      {"QuadraticTetra", 10},
	QuadraticHexahedron: {"QuadraticHexahedron", 20},
	QuadraticWedge:      {"QuadraticWedge", 15},
}

func (c CellType) String() string {
	if info, ok := cellTypeInfo[c]; ok {
		return info.name
	}
	return fmt.Sprintf("CellType(%d)", uint8(c))
}

// NumPoints is the number of points of a cell, 0 for unknown types
func (c CellType) NumPoints() int {
	return cellTypeInfo[c].numPoints
}
