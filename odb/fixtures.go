package odb

import (
	"fmt"
)

// Standard databases shared by the package tests and the sample command.
// Node and element labels are 1-based and contiguous.

const (
	SteelSection     = "solid < STEEL >"
	AluminumSection  = "solid < ALU >"
	CompositeSection = "shell < composite >"
)

// NewBlockInstance builds an n x n x n grid of hexahedra on the unit cube
func NewBlockInstance(name string, n int, elementType, section string) *Instance {
	var (
		inst = &Instance{Name: name, Dimensionality: ThreeD}
		np   = n + 1
	)
	nodeLabel := func(i, j, k int) int { return 1 + i + np*j + np*np*k }
	for k := 0; k < np; k++ {
		for j := 0; j < np; j++ {
			for i := 0; i < np; i++ {
				inst.Nodes = append(inst.Nodes, Node{
					Label: nodeLabel(i, j, k),
					Coordinates: []float64{
						float64(i) / float64(n), float64(j) / float64(n), float64(k) / float64(n),
					},
				})
			}
		}
	}
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				inst.Elements = append(inst.Elements, Element{
					Label:           1 + i + n*j + n*n*k,
					Type:            elementType,
					SectionCategory: section,
					Connectivity: []int{
						nodeLabel(i, j, k), nodeLabel(i+1, j, k),
						nodeLabel(i+1, j+1, k), nodeLabel(i, j+1, k),
						nodeLabel(i, j, k+1), nodeLabel(i+1, j, k+1),
						nodeLabel(i+1, j+1, k+1), nodeLabel(i, j+1, k+1),
					},
				})
			}
		}
	}
	return inst
}

// NewPlateInstance builds an nx x ny grid of quadrilaterals on [0,nx]x[0,ny].
// Planar and axisymmetric plates carry 2 coordinates per node.
func NewPlateInstance(name string, nx, ny int, elementType, section string,
	dim Dimensionality) *Instance {
	var (
		inst = &Instance{Name: name, Dimensionality: dim}
		np   = nx + 1
	)
	nodeLabel := func(i, j int) int { return 1 + i + np*j }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			coords := []float64{float64(i), float64(j)}
			if dim == ThreeD {
				coords = append(coords, 0)
			}
			inst.Nodes = append(inst.Nodes, Node{Label: nodeLabel(i, j), Coordinates: coords})
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			inst.Elements = append(inst.Elements, Element{
				Label:           1 + i + nx*j,
				Type:            elementType,
				SectionCategory: section,
				Connectivity: []int{
					nodeLabel(i, j), nodeLabel(i+1, j), nodeLabel(i+1, j+1), nodeLabel(i, j+1),
				},
			})
		}
	}
	return inst
}

// AddWholeElementScalar records one value per element
func AddWholeElementScalar(fo *FieldOutput, inst *Instance, precision Precision,
	value func(el Element) float64) {
	for _, el := range inst.Elements {
		fo.AddValue(FieldValue{
			Instance:     inst.Name,
			ElementLabel: el.Label,
			Position:     WholeElement,
			Precision:    precision,
			Data:         []float64{value(el)},
		})
	}
}

// AddNodalValues records one value per node with len(value) components
func AddNodalValues(fo *FieldOutput, inst *Instance, precision Precision,
	value func(n Node) []float64) {
	for _, n := range inst.Nodes {
		fo.AddValue(FieldValue{
			Instance:  inst.Name,
			NodeLabel: n.Label,
			Position:  Nodal,
			Precision: precision,
			Data:      value(n),
		})
	}
}

// AddIntegrationPointValues records numIPs values per element, repeated
// for every section point given
func AddIntegrationPointValues(fo *FieldOutput, inst *Instance, numIPs int, precision Precision,
	sectionPoints []SectionPoint, value func(el Element, ip int, sp SectionPoint) []float64) {
	if len(sectionPoints) == 0 {
		sectionPoints = []SectionPoint{{}}
	}
	for _, el := range inst.Elements {
		for _, sp := range sectionPoints {
			for ip := 1; ip <= numIPs; ip++ {
				fo.AddValue(FieldValue{
					Instance:         inst.Name,
					ElementLabel:     el.Label,
					IntegrationPoint: ip,
					Position:         IntegrationPoint,
					SectionPoint:     sp,
					Precision:        precision,
					Data:             value(el, ip, sp),
				})
			}
		}
	}
}

// NewTestDatabase returns the standard database:
//
//	BLOCK-1  2x2x2 C3D8 on the unit cube, steel
//	PLATE-1  2x1 CPS4 planar plate plus one T2D2 truss (unsupported type)
//	Step-1   frames 0, 1, 2 with values 0, 0.5, 1
//	Step-2   frames 0, 1
//
// Every frame carries EVOL (whole element), S11 and S22 (integration
// point, S22 in single precision), NT11 (nodal scalar), U (nodal vector)
// and S (integration point tensor).
func NewTestDatabase() *Database {
	db := NewDatabase("test.odb")
	block := db.AddInstance(NewBlockInstance("BLOCK-1", 2, "C3D8", SteelSection))
	plate := NewPlateInstance("PLATE-1", 2, 1, "CPS4", AluminumSection, TwoDPlanar)
	plate.Elements = append(plate.Elements, Element{
		Label: 3, Type: "T2D2", SectionCategory: AluminumSection, Connectivity: []int{1, 2},
	})
	db.AddInstance(plate)

	for _, stepDef := range []struct {
		name   string
		values []float64
	}{
		{"Step-1", []float64{0, 0.5, 1}},
		{"Step-2", []float64{0, 1}},
	} {
		step := db.AddStep(stepDef.name, fmt.Sprintf("%s description", stepDef.name))
		for id, t := range stepDef.values {
			frame := db.AddFrame(step, id, id, t, fmt.Sprintf("Increment %d: Step Time = %g", id, t))
			addStandardFields(db, frame, block, plate, t)
		}
	}
	return db
}

func addStandardFields(db *Database, frame *Frame, block, plate *Instance, t float64) {
	byLabel := func(el Element) float64 { return (1 + t) * float64(el.Label) }
	quads := *plate
	quads.Elements = plate.Elements[:2]

	evol := db.AddFieldOutput(frame, "EVOL", "Element volume", Scalar)
	AddWholeElementScalar(evol, block, DoublePrecision, byLabel)
	AddWholeElementScalar(evol, plate, DoublePrecision, byLabel)

	ipScalar := func(el Element, ip int, sp SectionPoint) []float64 { return []float64{byLabel(el)} }
	s11 := db.AddFieldOutput(frame, "S11", "Stress component 11", Scalar)
	AddIntegrationPointValues(s11, block, 8, DoublePrecision, nil, ipScalar)
	AddIntegrationPointValues(s11, &quads, 4, DoublePrecision, nil, ipScalar)
	s22 := db.AddFieldOutput(frame, "S22", "Stress component 22", Scalar)
	AddIntegrationPointValues(s22, block, 8, SinglePrecision, nil, ipScalar)

	nt11 := db.AddFieldOutput(frame, "NT11", "Nodal temperature", Scalar)
	AddNodalValues(nt11, block, DoublePrecision, func(n Node) []float64 {
		return []float64{t * float64(n.Label)}
	})

	u := db.AddFieldOutput(frame, "U", "Spatial displacement", Vector, "U1", "U2", "U3")
	AddNodalValues(u, block, SinglePrecision, func(n Node) []float64 {
		return []float64{t * n.Coordinates[0], t * n.Coordinates[1], t * n.Coordinates[2]}
	})
	AddNodalValues(u, plate, DoublePrecision, func(n Node) []float64 {
		return []float64{t * n.Coordinates[0], -t * n.Coordinates[1]}
	})

	s := db.AddFieldOutput(frame, "S", "Stress components", Tensor3DFull,
		"S11", "S22", "S33", "S12", "S13", "S23")
	AddIntegrationPointValues(s, block, 8, DoublePrecision, nil,
		func(el Element, ip int, sp SectionPoint) []float64 {
			return []float64{1, 2, 3, 4, 5, 6}
		})
}

// CompositeLayerValues are the S11 values of the three plies of the
// composite database, ply 2 is the critical one
var CompositeLayerValues = []float64{0.3, -0.9, 0.5}

// NewCompositeTestDatabase returns a 2x2 S4R composite skin with three
// plies reporting S11 at one integration point per ply
func NewCompositeTestDatabase() *Database {
	db := NewDatabase("composite.odb")
	skin := db.AddInstance(NewPlateInstance("SKIN-1", 2, 2, "S4R", CompositeSection, ThreeD))
	step := db.AddStep("Step-1", "Load")
	frame := db.AddFrame(step, 1, 1, 1, "Increment 1: Step Time = 1")
	plies := []SectionPoint{
		{Number: 1, Description: "Ply-1, (fraction = 0.0)"},
		{Number: 2, Description: "Ply-2, (fraction = 0.0)"},
		{Number: 3, Description: "Ply-3, (fraction = 0.0)"},
	}
	s11 := db.AddFieldOutput(frame, "S11", "Stress component 11", Scalar)
	AddIntegrationPointValues(s11, skin, 1, DoublePrecision, plies,
		func(el Element, ip int, sp SectionPoint) []float64 {
			return []float64{CompositeLayerValues[sp.Number-1]}
		})
	return db
}
